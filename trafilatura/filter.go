// Package trafilatura implements webchunk.ContentFilter with go-trafilatura.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/webchunk"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Filter implements webchunk.ContentFilter at compile time.
var _ webchunk.ContentFilter = (*Filter)(nil)

// Filter wraps go-trafilatura to reduce a page to its main content.
type Filter struct{}

// NewFilter creates a new Filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Filter returns the main content of rawHTML as HTML.
// The page title is kept as a <title> element so it survives filtering.
func (f *Filter) Filter(rawHTML string) (string, error) {
	if rawHTML == "" {
		return "", webchunk.Errorf(webchunk.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if title := result.Metadata.Title; title != "" {
		buf.WriteString("<title>")
		buf.WriteString(html.EscapeString(title))
		buf.WriteString("</title>")
	}
	if result.ContentNode != nil {
		if err := html.Render(&buf, result.ContentNode); err != nil {
			return "", err
		}
	}

	return buf.String(), nil
}
