package services

import (
	"fmt"
	"regexp"
	"strings"
)

// paginationPattern matches list URLs of the form .../list1.htm whose page
// number can be substituted directly.
var paginationPattern = regexp.MustCompile(`(?i)(list)(\d+)(\.htm)$`)

// paginatedListURLs expands a list URL into its paginated variants, up to
// maxPages. URLs matching the listN.htm convention are rewritten in place;
// anything else falls back to a page query parameter.
func paginatedListURLs(listURL string, maxPages int) []string {
	if maxPages <= 1 {
		return []string{listURL}
	}

	urls := make([]string, 0, maxPages)
	urls = append(urls, listURL)

	match := paginationPattern.FindStringSubmatchIndex(listURL)
	for page := 2; page <= maxPages; page++ {
		if match != nil {
			prefix := listURL[:match[2]]
			suffix := listURL[match[6]:match[7]]
			urls = append(urls, fmt.Sprintf("%slist%d%s", prefix, page, suffix))
			continue
		}
		separator := "?"
		if strings.Contains(listURL, "?") {
			separator = "&"
		}
		urls = append(urls, fmt.Sprintf("%s%spage=%d", listURL, separator, page))
	}
	return urls
}
