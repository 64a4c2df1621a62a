package sinks

import (
	"github.com/aqmex/sinaica-scraper/internal/metrics"
	"github.com/aqmex/sinaica-scraper/internal/progress"
)

// PrometheusSink maps lifecycle events onto the Prometheus collectors. Fetch
// and retry counters are recorded at the HTTP layer; this sink covers the
// catalog and enrichment milestones.
type PrometheusSink struct{}

// NewPrometheusSink registers the collectors and returns the sink.
func NewPrometheusSink() *PrometheusSink {
	metrics.Init()
	return &PrometheusSink{}
}

// Consume updates the collectors matching the event stage.
func (s *PrometheusSink) Consume(evt progress.Event) error {
	switch evt.Stage {
	case progress.StageCatalogDone:
		metrics.ObserveCatalogBuild("ok")
	case progress.StageCatalogError:
		metrics.ObserveCatalogBuild("error")
	case progress.StageEnrichDone:
		metrics.ObserveEnrichment("ok")
	case progress.StageEnrichError:
		metrics.ObserveEnrichment("error")
	case progress.StageStationDone:
		metrics.ObserveStationEnriched()
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close() error { return nil }
