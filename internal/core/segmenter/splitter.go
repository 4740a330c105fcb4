// Package segmenter splits fused page text into question-like chunks using
// list markers at the start of a line.
//
// Splitting is purely structural. A line that happens to start with "3." is
// treated as a new question and a question whose number was lost by OCR is
// merged into its predecessor.
package segmenter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/markdave123-py/PaperSplit/internal/config"
	"github.com/markdave123-py/PaperSplit/internal/core"
)

// MarkerSplitter is the regex-based Segmenter.
type MarkerSplitter struct {
	boundary *regexp.Regexp
	equation *regexp.Regexp
}

var _ core.Segmenter = (*MarkerSplitter)(nil)

// New compiles the boundary and equation patterns of h.
func New(h *config.Heuristics) (*MarkerSplitter, error) {
	if h == nil {
		h = config.DefaultHeuristics()
	}
	boundary, err := regexp.Compile(h.BoundaryPattern)
	if err != nil {
		return nil, fmt.Errorf("compile boundary pattern: %w", err)
	}
	equation, err := regexp.Compile(h.EquationPattern)
	if err != nil {
		return nil, fmt.Errorf("compile equation pattern: %w", err)
	}
	return &MarkerSplitter{boundary: boundary, equation: equation}, nil
}

// Default returns a splitter with the built-in patterns.
func Default() *MarkerSplitter {
	s, err := New(config.DefaultHeuristics())
	if err != nil {
		panic(err)
	}
	return s
}

// Split cuts text at every marker, drops the markers, trims each piece and
// discards empty pieces. Text before the first marker is its own chunk.
func (s *MarkerSplitter) Split(text string) []core.Chunk {
	parts := s.boundary.Split(text, -1)

	chunks := make([]core.Chunk, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, core.Chunk{
			Text:      p,
			Equations: s.Equations(p),
		})
	}
	return chunks
}
