package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFetcher() *CollyFetcher {
	return NewCollyFetcher(FetcherConfig{
		UserAgent: "sinaica-scraper-test",
		Timeout:   5 * time.Second,
	}, zap.NewNop())
}

func TestCollyFetcherGet(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte("<html><body>hola</body></html>"))
	}))
	defer srv.Close()

	page, err := newTestFetcher().Fetch(context.Background(), FetchRequest{URL: srv.URL})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, page.StatusCode)
	require.Contains(t, string(page.Body), "hola")
}

func TestCollyFetcherPostSendsForm(t *testing.T) {
	t.Parallel()

	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"estacionId": r.PostFormValue("estacionId"),
			"param":      r.PostFormValue("param"),
			"rango":      r.PostFormValue("rango"),
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), FetchRequest{
		URL:    srv.URL,
		Method: http.MethodPost,
		Form: map[string]string{
			"estacionId": "100",
			"param":      "O3",
			"rango":      "1",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "100", gotForm["estacionId"])
	require.Equal(t, "O3", gotForm["param"])
	require.Equal(t, "1", gotForm["rango"])
}

func TestCollyFetcherStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), FetchRequest{URL: srv.URL})
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusInternalServerError, statusErr.Code)
}

func TestCollyFetcherUnsupportedMethod(t *testing.T) {
	t.Parallel()

	_, err := newTestFetcher().Fetch(context.Background(), FetchRequest{
		URL:    "http://portal.test/",
		Method: http.MethodDelete,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported method")
}

func TestCollyFetcherCopiesHeaders(t *testing.T) {
	t.Parallel()

	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Trace")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	headers := http.Header{}
	headers.Set("X-Trace", "yes")
	_, err := newTestFetcher().Fetch(context.Background(), FetchRequest{URL: srv.URL, Headers: headers})
	require.NoError(t, err)
	require.Equal(t, "yes", gotHeader)
}
