package webchunk

// ExtractResult holds the text selected from an HTML page.
type ExtractResult struct {
	// Title is the text of the page's <title> element, if any.
	Title string

	// Text is every selected fragment followed by a single newline,
	// in document order.
	Text string

	Fragments []Fragment
}

// Fragment is the text contributed by one selected element.
type Fragment struct {
	Tag string

	// Offset is the rune offset of the fragment within ExtractResult.Text.
	Offset int

	Text string
}

// Extractor selects elements from markup and returns their text.
// Extraction never fails: malformed markup yields whatever text the parser
// could recover, possibly none.
type Extractor interface {
	Extract(markup string, policy SelectionPolicy) *ExtractResult
}

// ContentFilter reduces a page to its main content before selection,
// removing boilerplate such as navigation, sidebars and footers.
type ContentFilter interface {
	// Filter returns the main content of markup as HTML.
	Filter(markup string) (string, error)
}
