// Package app is the composition root: it wires the extractor, catalog, and
// enricher together and owns the catalog's lifetime.
package app

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aqmex/sinaica-scraper/internal/catalog"
	"github.com/aqmex/sinaica-scraper/internal/config"
	"github.com/aqmex/sinaica-scraper/internal/extract"
	"github.com/aqmex/sinaica-scraper/internal/metrics"
	"github.com/aqmex/sinaica-scraper/internal/pollutant"
	"github.com/aqmex/sinaica-scraper/internal/progress"
	"github.com/aqmex/sinaica-scraper/internal/progress/sinks"
)

// catalogPattern locates the catalog literal on the portal's landing page.
var catalogPattern = regexp.MustCompile(`(?s)var cump = (.*?);`)

// App holds the long-lived services and the process-wide catalog. The catalog
// is built once during New and mutated only by EnrichInPlace; the RWMutex
// keeps that safe when the HTTP API shares the instance.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	hub       *progress.Hub
	extractor *extract.Extractor
	enricher  *pollutant.Enricher

	mu  sync.RWMutex
	cat *catalog.Catalog
}

// New builds the service graph and bootstraps the catalog. It fails fast when
// the catalog cannot be built: there is no degraded mode without one.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	hub := progress.NewHub(cfg.Progress.BufferSize, logger,
		sinks.NewLogSink(logger),
		sinks.NewPrometheusSink(),
	)

	fetcher := extract.NewCollyFetcher(extract.FetcherConfig{
		UserAgent: cfg.Portal.UserAgent,
		Timeout:   cfg.Timeout(),
	}, logger)
	retry := extract.NewRetryPolicy(cfg.HTTP.MaxAttempts, cfg.BackoffInitial(), cfg.BackoffMax())
	extractor := extract.New(fetcher, retry, logger)

	a := &App{
		cfg:       cfg,
		logger:    logger,
		hub:       hub,
		extractor: extractor,
		enricher: pollutant.NewEnricher(
			pollutant.NewFetcher(extractor, cfg.Portal.DataURL, logger),
			hub,
			logger,
		),
	}

	if err := a.bootstrap(ctx); err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hub.Close(closeCtx)
		return nil, err
	}
	return a, nil
}

func (a *App) bootstrap(ctx context.Context) error {
	began := time.Now()
	a.hub.Emit(progress.Event{Stage: progress.StageCatalogStart})
	a.logger.Info("bootstrapping catalog", zap.String("url", a.cfg.Portal.CatalogURL))

	root, err := a.extractor.Extract(ctx, extract.Request{
		URL:     a.cfg.Portal.CatalogURL,
		Pattern: catalogPattern,
		Method:  http.MethodGet,
	})
	if err != nil {
		a.hub.Emit(progress.Event{Stage: progress.StageCatalogError, Note: err.Error()})
		return fmt.Errorf("bootstrap catalog: %w", err)
	}

	cat, err := catalog.NewBuilder(pollutant.CodeStrings()).Build(root)
	if err != nil {
		a.hub.Emit(progress.Event{Stage: progress.StageCatalogError, Note: err.Error()})
		return fmt.Errorf("bootstrap catalog: %w", err)
	}

	a.mu.Lock()
	a.cat = cat
	a.mu.Unlock()

	a.hub.Emit(progress.Event{
		Stage: progress.StageCatalogDone,
		Count: len(cat.States),
		Dur:   time.Since(began),
	})
	a.logger.Info("catalog ready", zap.Int("states", len(cat.States)))
	return nil
}

// Catalog returns the process-wide catalog. Callers must not mutate it; use
// EnrichInPlace for that.
func (a *App) Catalog() *catalog.Catalog {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cat
}

// EnrichInPlace enriches the named state's stations inside the shared catalog.
func (a *App) EnrichInPlace(
	ctx context.Context,
	stateName string,
	start time.Time,
	window pollutant.Window,
) ([]*catalog.Station, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enricher.EnrichInPlace(ctx, a.cat, stateName, start, window)
}

// EnrichSnapshot enriches copies, leaving the shared catalog untouched.
func (a *App) EnrichSnapshot(
	ctx context.Context,
	stateName string,
	start time.Time,
	window pollutant.Window,
) ([]*catalog.Station, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enricher.EnrichSnapshot(ctx, a.cat, stateName, start, window)
}

// Close flushes progress sinks and the logger.
func (a *App) Close(ctx context.Context) {
	if err := a.hub.Close(ctx); err != nil {
		a.logger.Warn("progress hub close failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
