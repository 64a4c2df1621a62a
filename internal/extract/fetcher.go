package extract

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// FetchRequest describes one HTTP request against the portal. Method is GET
// or POST; Form is sent urlencoded on POST.
type FetchRequest struct {
	URL     string
	Method  string
	Headers http.Header
	Form    map[string]string
}

// Page is the raw result of a fetch.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fetcher retrieves a page. Implementations must be safe for sequential
// reuse; the extractor performs one call at a time.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (Page, error)
}

// StatusError marks a non-success HTTP status from the portal. It is treated
// as a transport-level failure and retried.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("portal returned status %d", e.Code)
}

// FetcherConfig controls the colly collector.
type FetcherConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// CollyFetcher implements Fetcher on top of a colly collector.
type CollyFetcher struct {
	base   *colly.Collector
	cfg    FetcherConfig
	logger *zap.Logger
}

// NewCollyFetcher builds a fetcher with a pooled transport.
func NewCollyFetcher(cfg FetcherConfig, logger *zap.Logger) *CollyFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []colly.CollectorOption{colly.AllowURLRevisit()}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	base := colly.NewCollector(opts...)
	base.IgnoreRobotsTxt = true
	base.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        32,
		IdleConnTimeout:     60 * time.Second,
	})
	base.SetRequestTimeout(cfg.Timeout)

	return &CollyFetcher{base: base, cfg: cfg, logger: logger}
}

// Fetch runs a single request through a cloned collector. The visit happens
// on its own goroutine so ctx cancellation is honored even while colly blocks.
func (f *CollyFetcher) Fetch(ctx context.Context, req FetchRequest) (Page, error) {
	var (
		result   Page
		fetchErr error
	)
	start := time.Now()
	collector := f.base.Clone()

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range req.Headers {
			// replace whatever colly set by default
			r.Headers.Del(key)
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		result = Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode >= 400 {
			fetchErr = fmt.Errorf("%w: %w", &StatusError{Code: r.StatusCode}, err)
			return
		}
		if err == nil {
			err = errors.New("unknown colly error")
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- f.visit(collector, req)
	}()

	select {
	case <-ctx.Done():
		return Page{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return Page{}, fmt.Errorf("visit %s: %w", req.URL, err)
		}
		if fetchErr != nil {
			return Page{}, fmt.Errorf("fetch %s: %w", req.URL, fetchErr)
		}
		return result, nil
	}
}

func (f *CollyFetcher) visit(collector *colly.Collector, req FetchRequest) error {
	switch req.Method {
	case http.MethodPost:
		return collector.Post(req.URL, req.Form)
	case http.MethodGet, "":
		return collector.Visit(req.URL)
	default:
		return fmt.Errorf("unsupported method %q", req.Method)
	}
}
