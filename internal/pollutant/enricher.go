package pollutant

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aqmex/sinaica-scraper/internal/catalog"
	"github.com/aqmex/sinaica-scraper/internal/extract"
	"github.com/aqmex/sinaica-scraper/internal/progress"
)

// StationFetcher is the slice of Fetcher the enricher needs.
type StationFetcher interface {
	FetchStation(ctx context.Context, stationID string, start time.Time, window Window) (map[Code]extract.Value, error)
}

// Enricher walks a state's networks and stations and attaches pollutant
// series to each station, either mutating the catalog or returning copies.
type Enricher struct {
	fetcher StationFetcher
	hub     *progress.Hub
	logger  *zap.Logger
}

// NewEnricher builds an Enricher. hub may be nil.
func NewEnricher(fetcher StationFetcher, hub *progress.Hub, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{fetcher: fetcher, hub: hub, logger: logger}
}

// EnrichInPlace fetches pollutant series for every station of the named state
// and assigns them onto the catalog's own station records. The returned slice
// holds those same records in catalog traversal order. On error no slice is
// returned; stations already enriched before the failure keep their data.
func (e *Enricher) EnrichInPlace(
	ctx context.Context,
	cat *catalog.Catalog,
	stateName string,
	start time.Time,
	window Window,
) ([]*catalog.Station, error) {
	return e.enrich(ctx, cat, stateName, start, window, true)
}

// EnrichSnapshot behaves like EnrichInPlace but leaves the catalog untouched:
// each returned station is a copy with the fetched series merged in.
func (e *Enricher) EnrichSnapshot(
	ctx context.Context,
	cat *catalog.Catalog,
	stateName string,
	start time.Time,
	window Window,
) ([]*catalog.Station, error) {
	return e.enrich(ctx, cat, stateName, start, window, false)
}

func (e *Enricher) enrich(
	ctx context.Context,
	cat *catalog.Catalog,
	stateName string,
	start time.Time,
	window Window,
	inPlace bool,
) ([]*catalog.Station, error) {
	state, err := cat.FindState(stateName)
	if err != nil {
		return nil, err
	}

	began := time.Now()
	e.hub.Emit(progress.Event{Stage: progress.StageEnrichStart, State: state.Name})

	var enriched []*catalog.Station
	for _, network := range state.Networks {
		for _, station := range network.Stations {
			series, err := e.fetcher.FetchStation(ctx, station.ID, start, window)
			if err != nil {
				e.hub.Emit(progress.Event{
					Stage: progress.StageEnrichError,
					State: state.Name,
					Note:  err.Error(),
				})
				return nil, err
			}

			target := station
			if !inPlace {
				target = station.Clone()
			}
			for code, value := range series {
				target.Pollutants[string(code)] = value
			}
			enriched = append(enriched, target)

			e.hub.Emit(progress.Event{
				Stage:   progress.StageStationDone,
				State:   state.Name,
				Station: station.Code,
			})
		}
	}

	e.logger.Info("state enriched",
		zap.String("state", state.Name),
		zap.Int("stations", len(enriched)),
		zap.Bool("in_place", inPlace),
	)
	e.hub.Emit(progress.Event{
		Stage: progress.StageEnrichDone,
		State: state.Name,
		Count: len(enriched),
		Dur:   time.Since(began),
	})
	return enriched, nil
}
