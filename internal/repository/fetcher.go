package repository

import "context"

// PageFetcher retrieves the raw HTML of a single URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
