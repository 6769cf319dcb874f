package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jaytaylor/html2text"

	"github.com/user/blog-analyzer/internal/repository"
	"github.com/user/blog-analyzer/pkg/metrics"
)

// minExtractedLen is the threshold under which the primary extraction is
// considered to have failed and the structural fallback runs. The caller
// applies its own, lower minimum-length gate on the final text.
const minExtractedLen = 200

var collapseNewlinesRe = regexp.MustCompile(`\n{3,}`)

// contentSelectors is the prioritized list of containers the structural
// fallback searches. First match wins; the whole body is the last resort.
var contentSelectors = []string{
	"article",
	`[role="main"]`,
	`[class*="post-content"]`,
	`[class*="article-content"]`,
	`[class*="entry-content"]`,
	`[class*="content"]`,
	"main",
}

// ContentFetcher retrieves an article page and extracts its main readable
// text. The primary fetcher is plain HTTP; the fallback is a browser
// render for pages that refuse or break a bare client.
type ContentFetcher struct {
	primary  repository.PageFetcher
	fallback repository.PageFetcher
}

func NewContentFetcher(primary, fallback repository.PageFetcher) *ContentFetcher {
	return &ContentFetcher{primary: primary, fallback: fallback}
}

// FetchArticleText returns the extracted plain text of the article at url.
// Thin content is not an error: whatever text was extracted is returned,
// possibly empty, and the caller decides whether it is usable.
func (c *ContentFetcher) FetchArticleText(ctx context.Context, url string) (string, error) {
	html, err := c.primary.Fetch(ctx, url)
	if err != nil {
		if c.fallback == nil {
			return "", fmt.Errorf("fetching article %s: %w", url, err)
		}
		slog.Warn("primary fetch failed, retrying with browser render", "url", url, "error", err)
		html, err = c.fallback.Fetch(ctx, url)
		if err != nil {
			return "", fmt.Errorf("fetching article %s: %w", url, err)
		}
	}

	text := extractReadableText(html)
	if len(text) > minExtractedLen {
		return text, nil
	}

	structural := extractStructuralText(html)
	if len(structural) > minExtractedLen {
		return structural, nil
	}
	if structural != "" {
		return structural, nil
	}
	return text, nil
}

// extractReadableText is the primary boilerplate-stripping pass. Tabular
// data is kept; link-list heuristics are disabled so navigation blocks do
// not leak into the article body.
func extractReadableText(html string) string {
	text, err := html2text.FromString(html, html2text.Options{
		PrettyTables: true,
		OmitLinks:    true,
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// extractStructuralText parses the document, strips chrome elements, and
// flattens the first matching content container to paragraph-preserving
// plain text.
func extractStructuralText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, header, footer, aside").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	container := doc.Find("body")
	for _, sel := range contentSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			container = found.First()
			break
		}
	}

	var parts []string
	container.Find("h1, h2, h3, h4, h5, h6, p, li, blockquote, pre, td").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})

	text := strings.Join(parts, "\n\n")
	if text == "" {
		text = strings.TrimSpace(container.Text())
	}
	text = collapseNewlinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ScrapePost fetches one article and applies the caller-side minimum
// content gate used by the pipeline.
func (c *ContentFetcher) ScrapePost(ctx context.Context, url string, minContentLen int) (string, bool, error) {
	content, err := c.FetchArticleText(ctx, url)
	if err != nil {
		metrics.PostsScraped.WithLabelValues("fetch_failed").Inc()
		return "", false, err
	}
	if len(content) <= minContentLen {
		metrics.PostsScraped.WithLabelValues("too_short").Inc()
		return content, false, nil
	}
	metrics.PostsScraped.WithLabelValues("success").Inc()
	return content, true, nil
}
