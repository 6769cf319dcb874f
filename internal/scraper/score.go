package scraper

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/user/blog-analyzer/internal/entity"
)

// Scoring keyword sets. The weights are load-bearing: downstream filtering
// keys off strictly-positive totals, so changing them changes which links
// survive a crawl.
var blogKeywords = []string{
	"blog", "post", "article", "news", "story",
	"tutorial", "guide", "insight", "resources",
}

var excludeKeywords = []string{
	"about", "contact", "privacy", "terms", "category", "tag",
	"author", "search", "page", "login", "signup", "profile",
	"settings", "admin", "wp-content", "wp-admin", "feed", "rss", "sitemap",
}

var (
	yearSegmentRe = regexp.MustCompile(`/20\d{2}/`)
	datePatternRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// Score assigns a relevance score to a candidate link found on a listing
// page. It is a pure function of (url, title): positive contributions for
// blog-path keywords and date-like segments, negative for known non-article
// segments, small bonuses for natural headline length and moderate path
// depth. Malformed URLs contribute 0 for the affected rule only.
func Score(link entity.CandidateLink, seedURL string) int {
	score := 0
	lower := strings.ToLower(link.URL)

	for _, kw := range blogKeywords {
		if strings.Contains(lower, kw) {
			score += 10
		}
	}

	if yearSegmentRe.MatchString(lower) || datePatternRe.MatchString(lower) {
		score += 15
	}

	for _, kw := range excludeKeywords {
		if strings.Contains(lower, kw) {
			score -= 20
		}
	}

	// Headline length counts characters, not bytes, so non-ASCII titles
	// rate the same as their ASCII translations.
	if n := utf8.RuneCountInString(link.Title); n > 15 && n < 150 {
		score += 5
	}

	if depth := pathDepth(link.URL); depth >= 2 && depth <= 5 {
		score += 3
	}

	return score
}

func pathDepth(rawURL string) int {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	depth := 0
	for _, seg := range strings.Split(parsed.Path, "/") {
		if seg != "" {
			depth++
		}
	}
	return depth
}
