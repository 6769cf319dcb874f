package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Fetcher renders pages in headless Chrome. It serves as the fallback
// retrieval path for articles that a bare HTTP client cannot fetch
// (bot walls, client-side rendering).
type Fetcher struct {
	allocatorPool *sync.Pool
	timeout       time.Duration
}

func New(pageLoadTimeout time.Duration) *Fetcher {
	pool := &sync.Pool{
		New: func() interface{} {
			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", true),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
				chromedp.UserAgent(`Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36`),
			)
			allocCtx, _ := chromedp.NewExecAllocator(context.Background(), opts...)
			return allocCtx
		},
	}

	return &Fetcher{
		allocatorPool: pool,
		timeout:       pageLoadTimeout,
	}
}

// Fetch navigates to url and returns the rendered document HTML. The main
// document's HTTP status is captured from network events; 4xx/5xx renders
// are errors even when Chrome produced a DOM.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	allocCtx := f.allocatorPool.Get().(context.Context)
	defer f.allocatorPool.Put(allocCtx)

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	taskCtx, cancel = context.WithTimeout(taskCtx, f.timeout)
	defer cancel()

	// The chromedp context must descend from the allocator, so caller
	// cancellation is forwarded to the in-flight render by hand.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var statusCode int64
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			if resp.Type == network.ResourceTypeDocument && statusCode == 0 {
				statusCode = resp.Response.Status
			}
		}
	})

	var html string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("browser render of %s canceled: %w", url, ctxErr)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("browser render of %s timed out after %s: %w", url, f.timeout, err)
		}
		return "", fmt.Errorf("browser render of %s failed: %w", url, err)
	}
	if statusCode >= 400 {
		return "", fmt.Errorf("browser render of %s: received status code %d", url, statusCode)
	}

	return html, nil
}
