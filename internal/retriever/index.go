// Package retriever implements semantic search over the pre-built book
// index. The index is an immutable artifact produced offline by
// cmd/indexbuild and loaded read-only at startup.
package retriever

import (
	"encoding/json"
	"fmt"
	"os"
)

// Chunk is one indexed passage with its embedding and chapter metadata.
type Chunk struct {
	ID            string    `json:"id"`
	ChapterNumber string    `json:"chapter_number"`
	ChapterTitle  string    `json:"chapter_title,omitempty"`
	ChunkIndex    int       `json:"chunk_index"`
	Text          string    `json:"text"`
	Embedding     []float32 `json:"embedding"`
}

// Index is the loaded book index. Chunks are stored in corpus order, which
// doubles as the tie-break order for equal scores.
type Index struct {
	Book           string  `json:"book"`
	EmbeddingModel string  `json:"embedding_model"`
	Chunks         []Chunk `json:"chunks"`
}

// LoadIndex reads an index artifact from disk.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", path, err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse index %s: %w", path, err)
	}
	if len(idx.Chunks) == 0 {
		return nil, fmt.Errorf("index %s contains no chunks", path)
	}
	for i, c := range idx.Chunks {
		if len(c.Embedding) == 0 {
			return nil, fmt.Errorf("index chunk %d (%s) has no embedding", i, c.ID)
		}
	}
	return &idx, nil
}
