// Command indexbuild produces the book index artifact consumed by the
// travel advisor at startup. It downloads "The Innocents Abroad" from
// Project Gutenberg, strips the boilerplate, splits the text into chapters
// and overlapping chunks, embeds every chunk, and writes the result as JSON.
//
// The build is run offline whenever the chunking or the embedding model
// changes; the service itself never writes the index.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tomvane/innocents/config"
	"github.com/tomvane/innocents/internal/retriever"
)

const (
	bookTitle  = "The Innocents Abroad"
	defaultURL = "https://www.gutenberg.org/cache/epub/3176/pg3176.txt"
)

func main() {
	var (
		sourceURL = flag.String("source", defaultURL, "book text URL (or a local file path)")
		outPath   = flag.String("out", "", "output path (defaults to BOOK_INDEX_PATH)")
		chunkSize = flag.Int("chunk-size", 1000, "target chunk size in characters")
		overlap   = flag.Int("overlap", 200, "overlap between adjacent chunks in characters")
		batchSize = flag.Int("batch-size", 64, "chunks per embedding request")
		maxChap   = flag.Int("max-chapters", 0, "index only the first N chapters (0 = all)")
	)
	flag.Parse()

	cfg := config.Load()
	if *outPath == "" {
		*outPath = cfg.IndexPath
	}

	ctx := context.Background()

	log.Printf("Fetching %s from %s", bookTitle, *sourceURL)
	raw, err := fetchText(ctx, *sourceURL)
	if err != nil {
		log.Fatalf("Failed to fetch book text: %v", err)
	}

	body, err := stripBoilerplate(raw)
	if err != nil {
		log.Fatalf("Failed to strip boilerplate: %v", err)
	}

	chapters := splitChapters(body)
	if len(chapters) == 0 {
		log.Fatalf("No chapters found in book text")
	}
	if *maxChap > 0 && len(chapters) > *maxChap {
		chapters = chapters[:*maxChap]
	}
	log.Printf("Extracted %d chapters", len(chapters))

	var chunks []retriever.Chunk
	for _, ch := range chapters {
		for i, text := range chunkText(ch.Text, *chunkSize, *overlap) {
			chunks = append(chunks, retriever.Chunk{
				ID:            fmt.Sprintf("ch%s-%d", ch.Number, i),
				ChapterNumber: ch.Number,
				ChunkIndex:    i,
				Text:          text,
			})
		}
	}
	log.Printf("Split into %d chunks (size %d, overlap %d)", len(chunks), *chunkSize, *overlap)

	embedder := retriever.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel)
	if err := embedChunks(ctx, embedder, chunks, *batchSize); err != nil {
		log.Fatalf("Failed to embed chunks: %v", err)
	}

	index := retriever.Index{
		Book:           bookTitle,
		EmbeddingModel: cfg.EmbeddingModel,
		Chunks:         chunks,
	}
	if err := writeIndex(*outPath, &index); err != nil {
		log.Fatalf("Failed to write index: %v", err)
	}
	log.Printf("Index written to %s (%d chunks, model %s)", *outPath, len(chunks), cfg.EmbeddingModel)
}

// fetchText loads the book text from an http(s) URL or a local file.
func fetchText(ctx context.Context, source string) (string, error) {
	if _, err := os.Stat(source); err == nil {
		data, err := os.ReadFile(source)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, source)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// embedChunks fills in chunk embeddings batch by batch.
func embedChunks(ctx context.Context, embedder *retriever.OpenAIEmbedder, chunks []retriever.Chunk, batchSize int) error {
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		embeddings, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		for i, emb := range embeddings {
			chunks[start+i].Embedding = emb
		}
		log.Printf("Embedded %d/%d chunks", end, len(chunks))
	}
	return nil
}

// writeIndex writes the artifact atomically via a temp file rename.
func writeIndex(path string, index *retriever.Index) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.Marshal(index)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
