// Package extract turns raw fetched pages into extraction results: title,
// body text, publication date, outbound document links and PDF attachment
// text.
package extract

import (
	"context"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor parses HTML pages. When given a fetcher it also downloads PDF
// attachments linked from the page and folds their text into the result.
type Extractor struct {
	fetcher driven.PageFetcher

	// linkPattern, when set, filters Links to matching URLs only.
	linkPattern *regexp.Regexp
}

// Option configures the extractor.
type Option func(*Extractor)

// WithAttachmentFetcher enables PDF attachment download and text
// extraction.
func WithAttachmentFetcher(fetcher driven.PageFetcher) Option {
	return func(e *Extractor) {
		e.fetcher = fetcher
	}
}

// WithLinkPattern restricts Links to URLs matching the pattern.
func WithLinkPattern(pattern *regexp.Regexp) Option {
	return func(e *Extractor) {
		e.linkPattern = pattern
	}
}

// New creates a new extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t]+`)
	multiNewlines     = regexp.MustCompile(`\n{3,}`)

	anchorTag   = regexp.MustCompile(`(?is)<a[^>]+href\s*=\s*["']([^"']+)["'][^>]*>(.*?)</a>`)
	publishDate = regexp.MustCompile(`\d{4}[-/.]\d{2}[-/.]\d{2}`)
)

// Extract parses a fetched HTML page into title, body text, publication
// date and attachment texts.
func (e *Extractor) Extract(ctx context.Context, page *domain.RawPage) (*domain.Extraction, error) {
	if page == nil {
		return nil, domain.ErrInvalidInput
	}

	raw := string(page.Body)
	extraction := &domain.Extraction{
		Title:     extractTitle(raw),
		Text:      stripHTML(raw),
		Published: publishDate.FindString(raw),
	}

	if e.fetcher != nil {
		extraction.Attachments = e.extractAttachments(ctx, page.URL, raw)
	}
	return extraction, nil
}

// Links returns the absolute document URLs referenced by an index page, in
// page order, with duplicates removed. Anchors, javascript and mailto
// links are skipped.
func (e *Extractor) Links(_ context.Context, page *domain.RawPage) ([]string, error) {
	if page == nil {
		return nil, domain.ErrInvalidInput
	}

	var links []string
	seen := make(map[string]bool)
	for _, match := range anchorTag.FindAllStringSubmatch(string(page.Body), -1) {
		absolute, ok := resolveLink(page.URL, match[1])
		if !ok || seen[absolute] {
			continue
		}
		if e.linkPattern != nil && !e.linkPattern.MatchString(absolute) {
			continue
		}
		seen[absolute] = true
		links = append(links, absolute)
	}
	return links, nil
}

// extractAttachments downloads linked PDFs and extracts their text. A
// failing attachment is skipped, never fatal for the page.
func (e *Extractor) extractAttachments(ctx context.Context, pageURL, raw string) []domain.Attachment {
	var attachments []domain.Attachment
	seen := make(map[string]bool)
	for _, match := range anchorTag.FindAllStringSubmatch(raw, -1) {
		absolute, ok := resolveLink(pageURL, match[1])
		if !ok || seen[absolute] || !strings.HasSuffix(strings.ToLower(absolute), ".pdf") {
			continue
		}
		seen[absolute] = true

		filename := strings.TrimSpace(html.UnescapeString(allTags.ReplaceAllString(match[2], "")))
		if filename == "" {
			filename = absolute[strings.LastIndex(absolute, "/")+1:]
		}

		file, err := e.fetcher.Fetch(ctx, absolute)
		if err != nil {
			logger.Warn("Skipping attachment %s: %v", absolute, err)
			continue
		}
		text, err := pdfText(file.Body)
		if err != nil {
			logger.Debug("No text extracted from %s: %v", absolute, err)
			continue
		}

		attachments = append(attachments, domain.Attachment{
			URL:      absolute,
			Filename: filename,
			MIMEType: "application/pdf",
			Text:     text,
		})
	}
	return attachments
}

// resolveLink turns an href into an absolute http(s) URL.
func resolveLink(pageURL, href string) (string, bool) {
	href = strings.TrimSpace(html.UnescapeString(href))
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return "", false
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	resolved.Fragment = ""
	return resolved.String(), true
}

// extractTitle extracts the <title> tag content.
func extractTitle(content string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) > 1 {
		return strings.TrimSpace(html.UnescapeString(matches[1]))
	}
	return ""
}

// stripHTML removes HTML tags and extracts readable text content.
func stripHTML(content string) string {
	// Remove script, style, noscript, head, and svg tags entirely
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")

	// Remove HTML comments
	content = htmlComments.ReplaceAllString(content, "")

	// Add newlines around block elements for readability
	content = openBlockElements.ReplaceAllString(content, "\n")
	content = blockElements.ReplaceAllString(content, "\n")

	// Convert <br> and <hr> to newlines
	content = brTags.ReplaceAllString(content, "\n")
	content = hrTags.ReplaceAllString(content, "\n")

	// Strip all remaining HTML tags
	content = allTags.ReplaceAllString(content, "")

	// Decode HTML entities
	content = html.UnescapeString(content)

	// Collapse multiple spaces (but preserve newlines)
	content = multiSpaces.ReplaceAllString(content, " ")

	// Collapse multiple newlines
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	// Trim each line and remove empty lines
	lines := strings.Split(content, "\n")
	var result []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}
