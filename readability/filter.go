// Package readability implements webchunk.ContentFilter with go-readability.
package readability

import (
	"html"
	"strings"

	"github.com/fwojciec/webchunk"
	"github.com/go-shiori/go-readability"
)

// Ensure Filter implements webchunk.ContentFilter at compile time.
var _ webchunk.ContentFilter = (*Filter)(nil)

// Filter wraps go-readability to reduce a page to its main content.
type Filter struct{}

// NewFilter creates a new Filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Filter returns the main article of rawHTML as HTML, preceded by the
// article title as a <title> element.
func (f *Filter) Filter(rawHTML string) (string, error) {
	if rawHTML == "" {
		return "", webchunk.Errorf(webchunk.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if article.Title != "" {
		b.WriteString("<title>")
		b.WriteString(html.EscapeString(article.Title))
		b.WriteString("</title>")
	}
	b.WriteString(article.Content)
	return b.String(), nil
}
