package pollutant

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aqmex/sinaica-scraper/internal/catalog"
	"github.com/aqmex/sinaica-scraper/internal/extract"
)

type fakeStationFetcher struct {
	calls  []string
	failOn string
}

func (f *fakeStationFetcher) FetchStation(
	_ context.Context,
	stationID string,
	_ time.Time,
	_ Window,
) (map[Code]extract.Value, error) {
	f.calls = append(f.calls, stationID)
	if stationID == f.failOn {
		return nil, errors.New("portal unreachable")
	}
	series := make(map[Code]extract.Value, 6)
	for _, code := range Codes() {
		v, _ := extract.ParseValue([]byte(`{"station":"` + stationID + `"}`))
		series[code] = v
	}
	return series, nil
}

func newStation(id, name string) *catalog.Station {
	pollutants := make(map[string]extract.Value, 6)
	for _, code := range CodeStrings() {
		pollutants[code] = extract.Value{}
	}
	return &catalog.Station{ID: id, Name: name, Code: name, Pollutants: pollutants}
}

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{States: []*catalog.State{
		{
			ID:   "1",
			Name: "Sonora",
			Code: "SON",
			Networks: []*catalog.Network{
				{
					ID: "10", Name: "NetA", Code: "NA",
					Stations: []*catalog.Station{newStation("100", "StA"), newStation("101", "StB")},
				},
				{
					ID: "11", Name: "NetB", Code: "NB",
					Stations: []*catalog.Station{newStation("200", "StC")},
				},
			},
		},
		{ID: "2", Name: "Jalisco", Code: "JAL"},
	}}
}

func snapshotJSON(t *testing.T, cat *catalog.Catalog) string {
	t.Helper()
	out, err := json.Marshal(cat)
	require.NoError(t, err)
	return string(out)
}

func TestEnrichInPlaceMutatesCatalog(t *testing.T) {
	t.Parallel()

	cat := testCatalog()
	e := NewEnricher(&fakeStationFetcher{}, nil, zap.NewNop())

	stations, err := e.EnrichInPlace(context.Background(), cat, "Sonora", time.Time{}, WindowDay)
	require.NoError(t, err)
	require.Len(t, stations, 3)

	// the returned records are the catalog's own entries
	require.Same(t, cat.States[0].Networks[0].Stations[0], stations[0])

	for _, network := range cat.States[0].Networks {
		for _, station := range network.Stations {
			require.Len(t, station.Pollutants, 6)
			for _, code := range CodeStrings() {
				require.False(t, station.Pollutants[code].IsNull(),
					"station %s pollutant %s should be populated", station.ID, code)
			}
		}
	}
}

func TestEnrichSnapshotLeavesCatalogUntouched(t *testing.T) {
	t.Parallel()

	cat := testCatalog()
	before := snapshotJSON(t, cat)
	e := NewEnricher(&fakeStationFetcher{}, nil, zap.NewNop())

	first, err := e.EnrichSnapshot(context.Background(), cat, "Sonora", time.Time{}, WindowDay)
	require.NoError(t, err)
	require.Equal(t, before, snapshotJSON(t, cat))

	second, err := e.EnrichSnapshot(context.Background(), cat, "Sonora", time.Time{}, WindowDay)
	require.NoError(t, err)
	require.Equal(t, before, snapshotJSON(t, cat))

	// both runs produce identical data
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	require.JSONEq(t, string(firstJSON), string(secondJSON))

	for _, station := range first {
		for _, code := range CodeStrings() {
			require.False(t, station.Pollutants[code].IsNull())
		}
	}
}

func TestEnrichPreservesTraversalOrder(t *testing.T) {
	t.Parallel()

	cat := testCatalog()
	fetcher := &fakeStationFetcher{}
	e := NewEnricher(fetcher, nil, zap.NewNop())

	stations, err := e.EnrichSnapshot(context.Background(), cat, "Sonora", time.Time{}, WindowDay)
	require.NoError(t, err)

	var ids []string
	for _, st := range stations {
		ids = append(ids, st.ID)
	}
	// network order, then station order within each network
	require.Equal(t, []string{"100", "101", "200"}, ids)
	require.Equal(t, []string{"100", "101", "200"}, fetcher.calls)
}

func TestEnrichLookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	cat := testCatalog()
	e := NewEnricher(&fakeStationFetcher{}, nil, zap.NewNop())

	lower, err := e.EnrichSnapshot(context.Background(), cat, "sonora", time.Time{}, WindowDay)
	require.NoError(t, err)
	upper, err := e.EnrichSnapshot(context.Background(), cat, "SONORA", time.Time{}, WindowDay)
	require.NoError(t, err)
	require.Len(t, lower, 3)
	require.Len(t, upper, 3)
}

func TestEnrichUnknownStateFails(t *testing.T) {
	t.Parallel()

	cat := testCatalog()
	e := NewEnricher(&fakeStationFetcher{}, nil, zap.NewNop())

	_, err := e.EnrichSnapshot(context.Background(), cat, "Atlantis", time.Time{}, WindowDay)
	var notFound *catalog.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestEnrichAbortsOnStationFailure(t *testing.T) {
	t.Parallel()

	cat := testCatalog()
	fetcher := &fakeStationFetcher{failOn: "101"}
	e := NewEnricher(fetcher, nil, zap.NewNop())

	stations, err := e.EnrichSnapshot(context.Background(), cat, "Sonora", time.Time{}, WindowDay)
	require.Error(t, err)
	require.Nil(t, stations)
	// nothing after the failing station is fetched
	require.Equal(t, []string{"100", "101"}, fetcher.calls)
}
