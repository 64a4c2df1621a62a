package extract

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var cumpPattern = regexp.MustCompile(`(?s)var cump = (.*?);`)

type scriptedFetcher struct {
	calls   int
	results []func() (Page, error)
}

func (f *scriptedFetcher) Fetch(_ context.Context, _ FetchRequest) (Page, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx]()
}

func pageWith(body string) func() (Page, error) {
	return func() (Page, error) {
		return Page{URL: "http://portal.test/", StatusCode: 200, Body: []byte(body)}, nil
	}
}

func failWith(err error) func() (Page, error) {
	return func() (Page, error) { return Page{}, err }
}

func fastRetry(attempts int) *RetryPolicy {
	return NewRetryPolicy(attempts, time.Millisecond, 5*time.Millisecond)
}

func TestExtractHappyPath(t *testing.T) {
	t.Parallel()

	body := `<html><body><script>var cump = {"1":{"nom":"Sonora"},"meta":"x"};</script></body></html>`
	fetcher := &scriptedFetcher{results: []func() (Page, error){pageWith(body)}}
	e := New(fetcher, fastRetry(3), zap.NewNop())

	v, err := e.Extract(context.Background(), Request{URL: "http://portal.test/", Pattern: cumpPattern})
	require.NoError(t, err)

	obj, ok := v.Object()
	require.True(t, ok)
	require.Equal(t, []string{"1", "meta"}, obj.Keys())
	require.Equal(t, 1, fetcher.calls)
}

func TestExtractRetriesTransportFailures(t *testing.T) {
	t.Parallel()

	body := `<html><script>var cump = {"ok":true};</script></html>`
	fetcher := &scriptedFetcher{results: []func() (Page, error){
		failWith(errors.New("connection refused")),
		failWith(errors.New("connection refused")),
		pageWith(body),
	}}
	e := New(fetcher, fastRetry(4), zap.NewNop())

	_, err := e.Extract(context.Background(), Request{URL: "http://portal.test/", Pattern: cumpPattern})
	require.NoError(t, err)
	require.Equal(t, 3, fetcher.calls)
}

func TestExtractGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{results: []func() (Page, error){
		failWith(errors.New("connection refused")),
	}}
	e := New(fetcher, fastRetry(3), zap.NewNop())

	_, err := e.Extract(context.Background(), Request{URL: "http://portal.test/", Pattern: cumpPattern})
	require.Error(t, err)
	require.Contains(t, err.Error(), "attempts exhausted")
	require.Equal(t, 3, fetcher.calls)
}

func TestExtractPatternNotFoundIsFatal(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{results: []func() (Page, error){
		pageWith(`<html><body>nothing embedded here</body></html>`),
	}}
	e := New(fetcher, fastRetry(5), zap.NewNop())

	_, err := e.Extract(context.Background(), Request{URL: "http://portal.test/", Pattern: cumpPattern})
	var exErr *ExtractionError
	require.ErrorAs(t, err, &exErr)
	require.Equal(t, ReasonPatternNotFound, exErr.Reason)
	// the page was fetched fine; extraction failures are not retried
	require.Equal(t, 1, fetcher.calls)
}

func TestExtractAmbiguousPatternIsFatal(t *testing.T) {
	t.Parallel()

	body := `<html><script>var cump = {"a":1};</script><script>var cump = {"b":2};</script></html>`
	fetcher := &scriptedFetcher{results: []func() (Page, error){pageWith(body)}}
	e := New(fetcher, fastRetry(3), zap.NewNop())

	_, err := e.Extract(context.Background(), Request{URL: "http://portal.test/", Pattern: cumpPattern})
	var exErr *ExtractionError
	require.ErrorAs(t, err, &exErr)
	require.Equal(t, ReasonAmbiguousPattern, exErr.Reason)
}

func TestExtractMalformedPayloadIsFatal(t *testing.T) {
	t.Parallel()

	body := `<html><script>var cump = {broken json;</script></html>`
	fetcher := &scriptedFetcher{results: []func() (Page, error){pageWith(body)}}
	e := New(fetcher, fastRetry(3), zap.NewNop())

	_, err := e.Extract(context.Background(), Request{URL: "http://portal.test/", Pattern: cumpPattern})
	var exErr *ExtractionError
	require.ErrorAs(t, err, &exErr)
	require.Equal(t, ReasonMalformedPayload, exErr.Reason)
	require.Equal(t, 1, fetcher.calls)
}

func TestExtractCanceledContextStopsRetrying(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &scriptedFetcher{results: []func() (Page, error){
		failWith(errors.New("connection refused")),
	}}
	e := New(fetcher, fastRetry(5), zap.NewNop())

	_, err := e.Extract(ctx, Request{URL: "http://portal.test/", Pattern: cumpPattern})
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
