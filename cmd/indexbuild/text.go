package main

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	startMarker   = regexp.MustCompile(`(?m)^\*\*\* START OF (?:THE|THIS) PROJECT GUTENBERG EBOOK.*\*\*\*\s*$`)
	endMarker     = regexp.MustCompile(`(?m)^\*\*\* END OF (?:THE|THIS) PROJECT GUTENBERG EBOOK.*\*\*\*\s*$`)
	chapterHeader = regexp.MustCompile(`(?m)^CHAPTER ([IVXLCDM]+)\.\s*$`)
)

// chapter is one extracted chapter of the book.
type chapter struct {
	Number string
	Text   string
}

// stripBoilerplate cuts the Project Gutenberg header and footer, keeping only
// the book text between the START and END markers.
func stripBoilerplate(raw string) (string, error) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	start := startMarker.FindStringIndex(raw)
	if start == nil {
		return "", fmt.Errorf("start marker not found")
	}
	end := endMarker.FindStringIndex(raw)
	if end == nil {
		return "", fmt.Errorf("end marker not found")
	}
	if end[0] <= start[1] {
		return "", fmt.Errorf("end marker precedes start marker")
	}
	return strings.TrimSpace(raw[start[1]:end[0]]), nil
}

// splitChapters slices the book text at CHAPTER headers with Roman numerals.
// Front matter before the first header is dropped.
func splitChapters(text string) []chapter {
	headers := chapterHeader.FindAllStringSubmatchIndex(text, -1)

	chapters := make([]chapter, 0, len(headers))
	for i, h := range headers {
		bodyStart := h[1]
		bodyEnd := len(text)
		if i+1 < len(headers) {
			bodyEnd = headers[i+1][0]
		}
		body := strings.TrimSpace(text[bodyStart:bodyEnd])
		if body == "" {
			continue
		}
		chapters = append(chapters, chapter{
			Number: text[h[2]:h[3]],
			Text:   body,
		})
	}
	return chapters
}

// chunkText splits a chapter into overlapping chunks of roughly size
// characters, breaking on paragraph boundaries where possible. The tail of
// each chunk is repeated at the head of the next so that sentences spanning
// a boundary stay searchable.
func chunkText(text string, size, overlap int) []string {
	text = normalizeWhitespace(text)
	if len(text) <= size {
		return []string{text}
	}

	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder
	seedLen := 0 // overlap text carried from the previous chunk

	emit := func() {
		chunk := strings.TrimSpace(current.String())
		current.Reset()
		seedLen = 0
		if chunk == "" {
			return
		}
		chunks = append(chunks, chunk)
		if overlap > 0 {
			tail := chunk
			if len(tail) > overlap {
				tail = tail[len(tail)-overlap:]
				// Do not start mid-word.
				if i := strings.IndexAny(tail, " \n"); i >= 0 {
					tail = tail[i+1:]
				}
			}
			current.WriteString(tail)
			current.WriteString("\n\n")
			seedLen = current.Len()
		}
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// A single oversized paragraph becomes its own chunk run.
		for len(p) > size {
			cut := strings.LastIndex(p[:size], " ")
			if cut <= 0 {
				cut = size
			}
			if current.Len() > seedLen {
				emit()
			}
			current.WriteString(p[:cut])
			emit()
			p = strings.TrimSpace(p[cut:])
		}
		if p == "" {
			continue
		}
		if current.Len()+len(p) > size && current.Len() > seedLen {
			emit()
		}
		current.WriteString(p)
		current.WriteString("\n\n")
	}
	// Drop a trailing chunk that holds nothing beyond the carried overlap.
	if current.Len() > seedLen {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

// normalizeWhitespace collapses runs of blank lines and trims line ends, so
// chunk sizes reflect prose rather than formatting.
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blanks++
			continue
		}
		if blanks > 0 && len(out) > 0 {
			out = append(out, "")
		}
		blanks = 0
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
