package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/blog-analyzer/internal/entity"
	"github.com/user/blog-analyzer/internal/repository"
	"github.com/user/blog-analyzer/pkg/metrics"
	"github.com/user/blog-analyzer/pkg/utils"
)

// FetchError reports that the seed listing page could not be retrieved or
// parsed. It is fatal to the crawl; failures on later pagination pages are
// skipped instead.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch listing page %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

const (
	minAnchorTextLen = 6
	maxAnchorTextLen = 199

	// When no link scores positive but some were collected, keep the top
	// slice by raw score instead of discarding the crawl.
	rawScoreFallbackLimit = 50
	minPositiveLinks      = 5
)

var skippedExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico",
	".pdf", ".zip", ".tar", ".gz",
	".css", ".js", ".woff", ".woff2", ".ttf",
	".xml", ".json",
}

var skippedSchemes = []string{"#", "mailto:", "tel:", "javascript:"}

var cardClassRe = regexp.MustCompile(`(?i)(article|post|card|entry)`)

// Extractor crawls from a seed listing URL across pagination pages,
// collects and deduplicates candidate article links, and ranks them with
// the link scorer.
type Extractor struct {
	fetcher repository.PageFetcher
}

func NewExtractor(fetcher repository.PageFetcher) *Extractor {
	return &Extractor{fetcher: fetcher}
}

// ExtractLinks visits up to maxPages listing pages breadth-first starting
// from seedURL, returning candidate links ordered by descending score.
// Only the seed page's failure is fatal; a pagination page that cannot be
// fetched is skipped without spending a page slot. The extractor never
// returns an empty list when the crawl yielded anchors at all: zero
// positive-scored links fall back to the top links by raw score.
func (e *Extractor) ExtractLinks(ctx context.Context, seedURL string, followPagination bool, maxPages int) ([]entity.CandidateLink, error) {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return nil, &FetchError{URL: seedURL, Err: err}
	}
	if maxPages < 1 {
		maxPages = 1
	}

	queue := []string{seedURL}
	queued := map[string]struct{}{seedURL: {}}
	visited := 0

	var collected []entity.CandidateLink
	seenLinks := make(map[string]struct{})

	for len(queue) > 0 && visited < maxPages {
		pageURL := queue[0]
		queue = queue[1:]

		doc, err := e.fetchDocument(ctx, pageURL)
		if err != nil {
			if pageURL == seedURL {
				return nil, &FetchError{URL: pageURL, Err: err}
			}
			// An unreachable page does not spend a slot of the page
			// budget; the next queued page still gets its turn.
			slog.Warn("skipping unreachable pagination page", "url", pageURL, "error", err)
			continue
		}
		visited++
		metrics.PagesCrawled.Inc()

		e.collectCardLinks(doc, seed, seedURL, seenLinks, &collected)
		e.collectAnchorLinks(doc, seed, seedURL, seenLinks, &collected)

		if followPagination {
			for _, next := range FindNextPages(doc, pageURL) {
				if _, ok := queued[next]; ok {
					continue
				}
				queued[next] = struct{}{}
				queue = append(queue, next)
			}
		}
	}

	metrics.LinksDiscovered.Add(float64(len(collected)))
	return rankLinks(collected, seedURL), nil
}

func (e *Extractor) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	html, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// collectCardLinks looks for repeated card-like containers and takes the
// first anchor plus the nearest heading text inside each as a
// higher-confidence candidate.
func (e *Extractor) collectCardLinks(doc *goquery.Document, seed *url.URL, seedURL string, seen map[string]struct{}, out *[]entity.CandidateLink) {
	doc.Find("div, article, li, section").Each(func(_ int, s *goquery.Selection) {
		class, ok := s.Attr("class")
		if !ok || !cardClassRe.MatchString(class) {
			return
		}

		anchor := s.Find("a[href]").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}

		title := strings.TrimSpace(s.Find(`h1, h2, h3, h4, [class*="title"]`).First().Text())
		if title == "" {
			title = strings.TrimSpace(anchor.Text())
		}

		e.addCandidate(seed, seedURL, href, title, seen, out)
	})
}

// collectAnchorLinks is the catch-all pass over every anchor on the page.
func (e *Extractor) collectAnchorLinks(doc *goquery.Document, seed *url.URL, seedURL string, seen map[string]struct{}, out *[]entity.CandidateLink) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		e.addCandidate(seed, seedURL, href, strings.TrimSpace(s.Text()), seen, out)
	})
}

func (e *Extractor) addCandidate(seed *url.URL, seedURL, href, title string, seen map[string]struct{}, out *[]entity.CandidateLink) {
	if n := utf8.RuneCountInString(title); n < minAnchorTextLen || n > maxAnchorTextLen {
		return
	}

	lowerHref := strings.ToLower(href)
	for _, prefix := range skippedSchemes {
		if strings.Contains(lowerHref, prefix) {
			return
		}
	}

	abs, err := utils.ToAbsoluteURL(seed, href)
	if err != nil {
		return
	}
	parsed, err := url.Parse(abs)
	if err != nil {
		return
	}
	if !utils.SameOrigin(seed, parsed) {
		return
	}
	if abs == seedURL || abs == seedURL+"/" {
		return
	}

	lowerAbs := strings.ToLower(abs)
	for _, ext := range skippedExtensions {
		if strings.Contains(lowerAbs, ext) {
			return
		}
	}

	key := utils.HashURL(abs)
	if _, ok := seen[key]; ok {
		return
	}
	seen[key] = struct{}{}

	*out = append(*out, entity.CandidateLink{URL: abs, Title: title})
}

// rankLinks scores the collected candidates against the seed URL and
// applies the positive-score filter with its fallbacks. The top-50-by-raw-
// score fallback (negative scores included) is kept for compatibility with
// very noisy listing pages.
func rankLinks(collected []entity.CandidateLink, seedURL string) []entity.CandidateLink {
	if len(collected) == 0 {
		return collected
	}

	scored := make([]entity.ScoredLink, len(collected))
	for i, link := range collected {
		scored[i] = entity.ScoredLink{CandidateLink: link, Score: Score(link, seedURL)}
	}
	// Stable keeps discovery order on ties.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	var positive []entity.CandidateLink
	for _, sl := range scored {
		if sl.Score > 0 {
			positive = append(positive, sl.CandidateLink)
		}
	}
	if len(positive) >= minPositiveLinks {
		return positive
	}
	// Prefer low-confidence candidates over reporting an empty crawl:
	// take the top links by raw score, negative scores included.
	top := make([]entity.CandidateLink, 0, rawScoreFallbackLimit)
	for i, sl := range scored {
		if i >= rawScoreFallbackLimit {
			break
		}
		top = append(top, sl.CandidateLink)
	}
	return top
}
