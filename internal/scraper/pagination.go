package scraper

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/blog-analyzer/pkg/utils"
)

// pageURLRe matches /page/<n> style paths and ?page=<n> style query
// parameters, case-insensitive, optional trailing slash.
var pageURLRe = regexp.MustCompile(`(?i)(/page/\d+/?$|[?&]page=\d+$)`)

var numericTextRe = regexp.MustCompile(`^\d+$`)

// FindNextPages scans a parsed listing page for "next page" style links:
// pagination/pager containers, rel="next", ARIA page labels, and anchors
// whose text is purely numeric. Hrefs are resolved against baseURL and only
// URLs shaped like a page-number path or query parameter are kept. The
// result is deduplicated and sorted so crawl order is reproducible across
// runs on unchanged input.
func FindNextPages(doc *goquery.Document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})

	collect := func(s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		abs, err := utils.ToAbsoluteURL(base, href)
		if err != nil {
			return
		}
		if !pageURLRe.MatchString(abs) {
			return
		}
		seen[abs] = struct{}{}
	}

	selectors := []string{
		`[class*="pagination"] a[href]`,
		`[class*="pager"] a[href]`,
		`[class*="page-numbers"]`,
		`a[rel="next"]`,
		`a[aria-label*="page" i]`,
	}
	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			collect(s)
		})
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if numericTextRe.MatchString(strings.TrimSpace(s.Text())) {
			collect(s)
		}
	})

	pages := make([]string, 0, len(seen))
	for u := range seen {
		pages = append(pages, u)
	}
	sort.Strings(pages)
	return pages
}
