// Package progress defines the lifecycle events emitted while scraping and a
// hub that fans them out to sinks without blocking the scrape path.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Supported stages.
const (
	StageCatalogStart Stage = "CATALOG_START"
	StageCatalogDone  Stage = "CATALOG_DONE"
	StageCatalogError Stage = "CATALOG_ERROR"
	StageEnrichStart  Stage = "ENRICH_START"
	StageEnrichDone   Stage = "ENRICH_DONE"
	StageEnrichError  Stage = "ENRICH_ERROR"
	StageStationDone  Stage = "STATION_DONE"
)

// Event captures one scrape milestone.
type Event struct {
	// RunID identifies the process run; the hub stamps it when zero.
	RunID uuid.UUID
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage is the milestone that occurred.
	Stage Stage
	// State scopes enrichment events to a state name.
	State string
	// Station scopes station events to a station code.
	Station string
	// Count carries the number of entities the milestone covered
	// (states built, stations enriched).
	Count int
	// Dur is the elapsed time for *_DONE events.
	Dur time.Duration
	// Note carries low-volume context such as error text.
	Note string
}

// Validate performs coarse checks before an event enters the hub.
func (e Event) Validate() error {
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageCatalogStart, StageCatalogDone, StageCatalogError:
	case StageEnrichStart, StageEnrichDone, StageEnrichError:
		if e.State == "" {
			return errors.New("enrich events require a state")
		}
	case StageStationDone:
		if e.Station == "" {
			return errors.New("station events require a station")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// Sink consumes events delivered by the hub. Consume runs on the hub
// goroutine, so implementations should return quickly.
type Sink interface {
	Consume(evt Event) error
	Close() error
}
