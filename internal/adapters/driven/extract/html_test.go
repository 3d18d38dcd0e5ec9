package extract

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

func page(url, body string) *domain.RawPage {
	return &domain.RawPage{URL: url, Body: []byte(body)}
}

func TestExtract_TitleAndText(t *testing.T) {
	html := `<html><head><title>Release &amp; Notes</title>
<style>body { color: red }</style></head>
<body><script>alert(1)</script>
<h1>Release Notes</h1><p>First paragraph.</p><p>Second paragraph.</p>
</body></html>`

	extraction, err := New().Extract(context.Background(), page("http://example.com/notes", html))
	require.NoError(t, err)

	assert.Equal(t, "Release & Notes", extraction.Title)
	assert.Contains(t, extraction.Text, "Release Notes")
	assert.Contains(t, extraction.Text, "First paragraph.")
	assert.NotContains(t, extraction.Text, "alert(1)")
	assert.NotContains(t, extraction.Text, "color: red")
	assert.NotContains(t, extraction.Text, "<p>")
}

func TestExtract_PublishDate(t *testing.T) {
	html := `<html><body><span class="date">2024-03-15</span>Body</body></html>`

	extraction, err := New().Extract(context.Background(), page("http://example.com/a", html))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", extraction.Published)
}

func TestExtract_NilPage(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLinks_ResolvesAndDeduplicates(t *testing.T) {
	html := `<html><body>
<a href="/a.htm">A</a>
<a href="b.htm">B</a>
<a href="http://other.example.org/c">C</a>
<a href="/a.htm">A again</a>
<a href="#section">anchor</a>
<a href="javascript:void(0)">js</a>
<a href="mailto:x@example.com">mail</a>
</body></html>`

	links, err := New().Links(context.Background(), page("http://example.com/news/list1.htm", html))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://example.com/a.htm",
		"http://example.com/news/b.htm",
		"http://other.example.org/c",
	}, links)
}

func TestLinks_ProtocolRelative(t *testing.T) {
	html := `<a href="//cdn.example.com/doc.htm">doc</a>`

	links, err := New().Links(context.Background(), page("https://example.com/", html))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/doc.htm"}, links)
}

func TestLinks_PatternFilter(t *testing.T) {
	html := `<a href="/article1.htm">one</a><a href="/about">about</a>`

	extractor := New(WithLinkPattern(regexp.MustCompile(`article\d+\.htm$`)))
	links, err := extractor.Links(context.Background(), page("http://example.com/", html))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.com/article1.htm"}, links)
}
