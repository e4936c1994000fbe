package webchunk

import (
	"fmt"
	"strings"
	"unicode"
)

// Chunk is a window of a document's extracted text.
// Offsets count runes, not bytes.
type Chunk struct {
	ID                  string `json:"id,omitempty"`
	Text                string `json:"text"`
	StartOffset         int    `json:"startOffset"`
	EndOffset           int    `json:"endOffset"`
	OverlapWithPrevious int    `json:"overlapWithPrevious"`

	// Back-reference to the owning document.
	SourceURL string `json:"sourceUrl"`
}

// Boundary is a kind of soft break point a chunk cut may move back to.
type Boundary int

// Boundary kinds, in default preference order.
const (
	BoundaryParagraph Boundary = iota + 1
	BoundarySentence
	BoundaryWhitespace
)

// String returns the boundary name used in configuration.
func (b Boundary) String() string {
	switch b {
	case BoundaryParagraph:
		return "paragraph"
	case BoundarySentence:
		return "sentence"
	case BoundaryWhitespace:
		return "whitespace"
	default:
		return fmt.Sprintf("Boundary(%d)", int(b))
	}
}

// ParseBoundary converts a configuration name into a Boundary.
func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paragraph":
		return BoundaryParagraph, nil
	case "sentence":
		return BoundarySentence, nil
	case "whitespace":
		return BoundaryWhitespace, nil
	}
	return 0, Errorf(EINVALID, "unknown chunk boundary %q", s)
}

// DefaultBoundaries returns paragraph, sentence, whitespace.
func DefaultBoundaries() []Boundary {
	return []Boundary{BoundaryParagraph, BoundarySentence, BoundaryWhitespace}
}

// ChunkConfig controls how text is split.
//
// Lookback is how many runes a cut may move back looking for a boundary:
// zero selects MaxSize/5 and a negative value disables refinement so every
// cut is a hard cut. Boundaries lists boundary kinds in preference order and
// defaults to DefaultBoundaries.
type ChunkConfig struct {
	MaxSize    int        `json:"maxSize" yaml:"max_size"`
	Overlap    int        `json:"overlap" yaml:"overlap"`
	Lookback   int        `json:"lookback,omitempty" yaml:"lookback,omitempty"`
	Boundaries []Boundary `json:"boundaries,omitempty" yaml:"-"`
}

// Validate returns an error naming the first invalid parameter.
func (c ChunkConfig) Validate() error {
	if c.MaxSize <= 0 {
		return Errorf(EINVALID, "chunk max size must be positive, got %d", c.MaxSize)
	}
	if c.Overlap < 0 {
		return Errorf(EINVALID, "chunk overlap must not be negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.MaxSize {
		return Errorf(EINVALID, "chunk overlap %d must be less than max size %d", c.Overlap, c.MaxSize)
	}
	for _, b := range c.Boundaries {
		if b < BoundaryParagraph || b > BoundaryWhitespace {
			return Errorf(EINVALID, "unknown chunk boundary %d", int(b))
		}
	}
	return nil
}

func (c ChunkConfig) lookback() int {
	if c.Lookback == 0 {
		return c.MaxSize / 5
	}
	return c.Lookback
}

func (c ChunkConfig) boundaries() []Boundary {
	if len(c.Boundaries) == 0 {
		return DefaultBoundaries()
	}
	return c.Boundaries
}

// SplitText cuts text into overlapping windows of at most cfg.MaxSize runes.
//
// Each window after the first starts cfg.Overlap runes before the end of the
// previous one. A cut that would land before the end of the text is moved
// back to the nearest boundary within the lookback allowance, trying
// boundary kinds in preference order, and stays a hard cut when none is
// found. Windows are contiguous, so dropping each chunk's first
// OverlapWithPrevious runes and concatenating the rest yields text again.
//
// Empty text returns no chunks. Text no longer than MaxSize returns a single
// chunk with zero overlap.
func SplitText(text, sourceURL string, cfg ChunkConfig) ([]Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	lookback := cfg.lookback()
	boundaries := cfg.boundaries()

	var chunks []Chunk
	start, overlap := 0, 0
	for {
		end := min(start+cfg.MaxSize, n)
		if end < n && lookback > 0 {
			// Cutting at or before start+Overlap would stall the window.
			lo := max(start+cfg.Overlap+1, end-lookback)
			end = refineCut(runes, lo, end, boundaries)
		}

		chunks = append(chunks, Chunk{
			Text:                string(runes[start:end]),
			StartOffset:         start,
			EndOffset:           end,
			OverlapWithPrevious: overlap,
			SourceURL:           sourceURL,
		})

		if end == n {
			break
		}

		overlap = min(cfg.Overlap, end-start)
		start = end - overlap
	}

	return chunks, nil
}

// refineCut returns the nearest cut position in [lo, end] that sits on a
// boundary, trying boundary kinds in order. Returns end if none matches.
func refineCut(runes []rune, lo, end int, boundaries []Boundary) int {
	for _, b := range boundaries {
		for pos := end; pos >= lo; pos-- {
			if isBoundary(runes, pos, b) {
				return pos
			}
		}
	}
	return end
}

// isBoundary reports whether cutting between runes[pos-1] and runes[pos]
// falls on a boundary of kind b.
func isBoundary(runes []rune, pos int, b Boundary) bool {
	if pos <= 0 {
		return false
	}
	switch b {
	case BoundaryParagraph:
		return pos >= 2 && runes[pos-1] == '\n' && runes[pos-2] == '\n'
	case BoundarySentence:
		switch runes[pos-1] {
		case '.', '!', '?':
			return pos == len(runes) || unicode.IsSpace(runes[pos])
		}
		return false
	case BoundaryWhitespace:
		return unicode.IsSpace(runes[pos-1]) || (pos < len(runes) && unicode.IsSpace(runes[pos]))
	}
	return false
}
