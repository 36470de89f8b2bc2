package retriever

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/tomvane/innocents/domain"
)

// Embedder turns a query string into a vector in the index's embedding
// space.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever ranks index chunks against a query by cosine similarity. It is
// safe for concurrent use: the index is never mutated after construction.
type Retriever struct {
	index    *Index
	embedder Embedder
	minScore float64
}

// New creates a retriever over a loaded index. Results scoring below
// minScore are dropped.
func New(index *Index, embedder Embedder, minScore float64) *Retriever {
	return &Retriever{index: index, embedder: embedder, minScore: minScore}
}

// Search returns the topK most relevant passages for the query, descending
// by score. Ties keep corpus order. An empty result is not an error.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]domain.RetrievedPassage, error) {
	if topK <= 0 {
		topK = 3
	}

	qv, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	type scored struct {
		chunk *Chunk
		score float64
	}
	var hits []scored
	for i := range r.index.Chunks {
		c := &r.index.Chunks[i]
		score := cosine(qv, c.Embedding)
		if score < r.minScore {
			continue
		}
		hits = append(hits, scored{chunk: c, score: score})
	}

	// Stable sort over corpus-ordered hits: equal scores keep corpus order.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > topK {
		hits = hits[:topK]
	}

	passages := make([]domain.RetrievedPassage, 0, len(hits))
	for _, h := range hits {
		passages = append(passages, domain.RetrievedPassage{
			Text:          h.chunk.Text,
			ChapterNumber: h.chunk.ChapterNumber,
			ChapterTitle:  h.chunk.ChapterTitle,
			Score:         h.score,
		})
	}

	log.Printf("retriever: %d/%d chunks cleared threshold for query %.40q", len(passages), len(r.index.Chunks), query)
	return passages, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
