// Package extract implements the fetch-extract primitive: pull a portal page,
// locate the JSON literal the portal embeds as a JavaScript variable
// assignment, and parse it into a generic ordered value.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/aqmex/sinaica-scraper/internal/metrics"
)

// Request describes one extraction: where to fetch and how to locate the
// embedded literal. Pattern must have the JSON literal as its first capture
// group and is required to match the normalized page exactly once.
type Request struct {
	URL     string
	Pattern *regexp.Regexp
	Method  string
	Headers http.Header
	Form    map[string]string
}

// Extractor fetches pages and extracts embedded JSON literals. Transport
// failures are retried under the configured policy; extraction failures are
// fatal immediately.
type Extractor struct {
	fetcher Fetcher
	retry   *RetryPolicy
	logger  *zap.Logger
}

// New builds an Extractor. A nil retry policy gets defaults, a nil logger a
// nop logger.
func New(fetcher Fetcher, retry *RetryPolicy, logger *zap.Logger) *Extractor {
	if retry == nil {
		retry = NewRetryPolicy(0, 0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{fetcher: fetcher, retry: retry, logger: logger}
}

// Extract runs the fetch-locate-parse pipeline for one request.
func (e *Extractor) Extract(ctx context.Context, req Request) (Value, error) {
	page, err := e.fetchWithRetry(ctx, req)
	if err != nil {
		return Value{}, err
	}
	metrics.ObserveFetch(req.URL, page.StatusCode, len(page.Body), page.Duration)

	text, err := normalizeDocument(page.Body)
	if err != nil {
		return Value{}, &ExtractionError{URL: req.URL, Reason: ReasonMalformedPayload, Err: err}
	}

	literal, err := e.locate(req, text)
	if err != nil {
		return Value{}, err
	}

	value, err := ParseValue([]byte(literal))
	if err != nil {
		return Value{}, &ExtractionError{URL: req.URL, Reason: ReasonMalformedPayload, Err: err}
	}
	return value, nil
}

func (e *Extractor) fetchWithRetry(ctx context.Context, req Request) (Page, error) {
	var lastErr error
	for attempt := 0; attempt < e.retry.MaxAttempts(); attempt++ {
		page, err := e.fetcher.Fetch(ctx, FetchRequest{
			URL:     req.URL,
			Method:  req.Method,
			Headers: req.Headers,
			Form:    req.Form,
		})
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !e.retry.ShouldRetry(err, attempt) {
			break
		}
		delay := e.retry.Backoff(attempt)
		metrics.ObserveRetry(req.URL)
		e.logger.Warn("transport failure, retrying",
			zap.String("url", req.URL),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return Page{}, fmt.Errorf("fetch %s: %w", req.URL, ctx.Err())
		case <-time.After(delay):
		}
	}
	return Page{}, fmt.Errorf("fetch %s: attempts exhausted: %w", req.URL, lastErr)
}

func (e *Extractor) locate(req Request, text string) (string, error) {
	matches := req.Pattern.FindAllStringSubmatch(text, 2)
	switch {
	case len(matches) == 0:
		return "", &ExtractionError{URL: req.URL, Reason: ReasonPatternNotFound}
	case len(matches) > 1:
		return "", &ExtractionError{URL: req.URL, Reason: ReasonAmbiguousPattern}
	case len(matches[0]) < 2:
		return "", &ExtractionError{
			URL:    req.URL,
			Reason: ReasonPatternNotFound,
			Err:    fmt.Errorf("pattern %q has no capture group", req.Pattern.String()),
		}
	}
	return matches[0][1], nil
}

// normalizeDocument parses the body as HTML and serializes the tree back to
// text, so the extraction pattern sees consistent formatting regardless of
// how the portal renders the page.
func normalizeDocument(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}
	html, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}
	return html, nil
}
