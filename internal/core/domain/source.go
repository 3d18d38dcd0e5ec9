package domain

import "time"

// Source represents a configured crawl target.
// Sources are read-only at runtime; the registry is loaded from
// configuration at startup.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Name is the human-readable name for this source.
	Name string

	// BaseURL is the origin used to resolve relative links.
	BaseURL string

	// ListURL is an index page whose links are followed to document pages.
	// When set, Pages is ignored and documents are discovered from the
	// paginated list.
	ListURL string

	// Pages is an explicit ordered list of document page URLs for sources
	// without an index page.
	Pages []string

	// MaxPages bounds list pagination (list1.htm .. listN.htm).
	MaxPages int

	// UserAgent overrides the fetcher's User-Agent for this source.
	UserAgent string
}

// publishTimeLayouts are the date formats accepted for publication dates.
var publishTimeLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
}

// ParsePublishTime parses a publication date string on a best-effort basis,
// defaulting to the current time when the value is absent or unparseable.
func ParsePublishTime(value string) time.Time {
	if value == "" {
		return time.Now().UTC()
	}
	for _, layout := range publishTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
