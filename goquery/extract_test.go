package goquery_test

import (
	"testing"

	"github.com/fwojciec/webchunk"
	"github.com/fwojciec/webchunk/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	headingsAndParagraphs := webchunk.SelectionPolicy{Tags: []string{"h1", "p"}}

	t.Run("extracts selected elements in document order", func(t *testing.T) {
		t.Parallel()

		html := `<h1>Title</h1><p>Hello world.</p><p>Bye.</p>`

		result := goquery.NewExtractor().Extract(html, headingsAndParagraphs)

		assert.Equal(t, "Title\nHello world.\nBye.\n", result.Text)
	})

	t.Run("returns empty text for empty document", func(t *testing.T) {
		t.Parallel()

		result := goquery.NewExtractor().Extract("", headingsAndParagraphs)

		assert.Empty(t, result.Text)
		assert.Empty(t, result.Fragments)
	})

	t.Run("returns empty text when nothing matches", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><div>Only a div</div><span>and a span</span></body></html>`

		result := goquery.NewExtractor().Extract(html, headingsAndParagraphs)

		assert.Empty(t, result.Text)
	})

	t.Run("returns empty text for empty tag set", func(t *testing.T) {
		t.Parallel()

		result := goquery.NewExtractor().Extract(`<p>text</p>`, webchunk.SelectionPolicy{})

		assert.Empty(t, result.Text)
	})

	t.Run("strips inline tags without merging words", func(t *testing.T) {
		t.Parallel()

		html := `<p>Hello <b>bold</b> and <a href="/x">linked</a>.</p>`

		result := goquery.NewExtractor().Extract(html, headingsAndParagraphs)

		assert.Equal(t, "Hello bold and linked.\n", result.Text)
	})

	t.Run("collapses whitespace inside text nodes", func(t *testing.T) {
		t.Parallel()

		html := "<p>\n\t  Lots   of\n   space  </p>"

		result := goquery.NewExtractor().Extract(html, headingsAndParagraphs)

		assert.Equal(t, "Lots of space\n", result.Text)
	})

	t.Run("keeps block boundaries and br as spaces", func(t *testing.T) {
		t.Parallel()

		html := `<div class="post"><p>first</p><p>second<br>third</p></div>`
		policy := webchunk.SelectionPolicy{Tags: []string{"div"}}

		result := goquery.NewExtractor().Extract(html, policy)

		assert.Equal(t, "first second third\n", result.Text)
	})

	t.Run("counts nested matches once", func(t *testing.T) {
		t.Parallel()

		html := `<div><p>outer <p>sibling</p></div><blockquote><p>quoted</p></blockquote>`
		policy := webchunk.SelectionPolicy{Tags: []string{"blockquote", "p"}}

		result := goquery.NewExtractor().Extract(html, policy)

		assert.Equal(t, "outer\nsibling\nquoted\n", result.Text)
		require.Len(t, result.Fragments, 3)
		assert.Equal(t, "blockquote", result.Fragments[2].Tag)
	})

	t.Run("restricts by class filter", func(t *testing.T) {
		t.Parallel()

		html := `<body>
<h1 class="post-title">Agents</h1>
<div class="sidebar"><p>Ignore me</p></div>
<div class="post-header">By Lilian</div>
<div class="post-content wide"><p>Body text.</p></div>
<div>No class</div>
</body>`
		policy := webchunk.SelectionPolicy{
			Tags:        []string{"h1", "div"},
			ClassFilter: []string{"post-title", "post-header", "post-content"},
		}

		result := goquery.NewExtractor().Extract(html, policy)

		assert.Equal(t, "Agents\nBy Lilian\nBody text.\n", result.Text)
	})

	t.Run("ignores script and style text", func(t *testing.T) {
		t.Parallel()

		html := `<div><style>.x{color:red}</style>visible<script>var a = 1;</script></div>`
		policy := webchunk.SelectionPolicy{Tags: []string{"div"}}

		result := goquery.NewExtractor().Extract(html, policy)

		assert.Equal(t, "visible\n", result.Text)
	})

	t.Run("matches tags case-insensitively", func(t *testing.T) {
		t.Parallel()

		result := goquery.NewExtractor().Extract(`<P>Upper</P>`, webchunk.SelectionPolicy{Tags: []string{"P"}})

		assert.Equal(t, "Upper\n", result.Text)
	})

	t.Run("records title and fragment offsets", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>  My
 Page </title></head><body><h1>Title</h1><p>Héllo.</p><p>Bye.</p></body></html>`

		result := goquery.NewExtractor().Extract(html, headingsAndParagraphs)

		assert.Equal(t, "My Page", result.Title)
		require.Len(t, result.Fragments, 3)
		assert.Equal(t, webchunk.Fragment{Tag: "h1", Offset: 0, Text: "Title"}, result.Fragments[0])
		assert.Equal(t, webchunk.Fragment{Tag: "p", Offset: 6, Text: "Héllo."}, result.Fragments[1])
		assert.Equal(t, webchunk.Fragment{Tag: "p", Offset: 13, Text: "Bye."}, result.Fragments[2])
	})

	t.Run("decodes legacy charset declared in meta", func(t *testing.T) {
		t.Parallel()

		html := "<html><head><meta charset=iso-8859-1></head><body><p>caf\xe9 cr\xe8me</p></body></html>"

		result := goquery.NewExtractor().Extract(html, headingsAndParagraphs)

		assert.Equal(t, "café crème\n", result.Text)
	})

	t.Run("leaves UTF-8 markup untouched despite a legacy meta charset", func(t *testing.T) {
		t.Parallel()

		html := "<html><head><meta charset=iso-8859-1></head><body><p>café</p></body></html>"

		result := goquery.NewExtractor().Extract(html, headingsAndParagraphs)

		assert.Equal(t, "café\n", result.Text)
	})

	t.Run("is a pure function of its inputs", func(t *testing.T) {
		t.Parallel()

		html := `<h1>Title</h1><p>Hello world.</p>`
		ext := goquery.NewExtractor()

		assert.Equal(t, ext.Extract(html, headingsAndParagraphs), ext.Extract(html, headingsAndParagraphs))
	})
}

func TestExtractor_Extract_MalformedMarkup(t *testing.T) {
	t.Parallel()

	policy := webchunk.SelectionPolicy{Tags: []string{"h1", "p"}}

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "unclosed paragraphs",
			html: `<p>First<p>Second<p>Third`,
			want: "First\nSecond\nThird\n",
		},
		{
			name: "unclosed inline tag",
			html: `<p>Unclosed <b>bold<p>Next`,
			want: "Unclosed bold\nNext\n",
		},
		{
			name: "unknown tags are transparent",
			html: `<p>Hello <blink-ish>strange</blink-ish> <foo:bar>world</foo:bar></p>`,
			want: "Hello strange world\n",
		},
		{
			name: "stray end tags",
			html: `</div></p><h1>Heading</h1></span>`,
			want: "Heading\n",
		},
		{
			name: "truncated document",
			html: `<html><body><h1>Cut</h1><p>off mid-sent`,
			want: "Cut\noff mid-sent\n",
		},
		{
			name: "garbage only",
			html: `<<<>>> &&& </>`,
			want: "",
		},
		{
			name: "unterminated attribute",
			html: `<p class="oops>text</p>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var result *webchunk.ExtractResult
			require.NotPanics(t, func() {
				result = goquery.NewExtractor().Extract(tt.html, policy)
			})
			assert.Equal(t, tt.want, result.Text)
		})
	}
}
