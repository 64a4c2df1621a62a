package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aqmex/sinaica-scraper/internal/catalog"
	"github.com/aqmex/sinaica-scraper/internal/config"
	"github.com/aqmex/sinaica-scraper/internal/extract"
	"github.com/aqmex/sinaica-scraper/internal/pollutant"
)

type fakeApp struct {
	cat *catalog.Catalog

	lastMethod string
	lastState  string
	lastWindow pollutant.Window
	closed     bool
}

func (f *fakeApp) Catalog() *catalog.Catalog { return f.cat }

func (f *fakeApp) EnrichInPlace(_ context.Context, stateName string, _ time.Time, window pollutant.Window) ([]*catalog.Station, error) {
	f.lastMethod, f.lastState, f.lastWindow = "in-place", stateName, window
	return f.stations()
}

func (f *fakeApp) EnrichSnapshot(_ context.Context, stateName string, _ time.Time, window pollutant.Window) ([]*catalog.Station, error) {
	f.lastMethod, f.lastState, f.lastWindow = "snapshot", stateName, window
	return f.stations()
}

func (f *fakeApp) Close(context.Context) { f.closed = true }

func (f *fakeApp) stations() ([]*catalog.Station, error) {
	return []*catalog.Station{{
		ID: "100", Name: "StA", Code: "SA",
		Pollutants: map[string]extract.Value{},
	}}, nil
}

func newFakeApp() *fakeApp {
	return &fakeApp{cat: &catalog.Catalog{States: []*catalog.State{
		{ID: "1", Name: "Sonora", Code: "SON"},
	}}}
}

func runCommand(t *testing.T, app App, args ...string) error {
	t.Helper()

	orig := newRuntime
	newRuntime = func(context.Context) (*runtime, error) {
		return &runtime{app: app, cfg: config.Config{}, logger: zap.NewNop()}, nil
	}
	t.Cleanup(func() { newRuntime = orig })

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	return cmd.ExecuteContext(context.Background())
}

func TestCatalogCommandWritesJSON(t *testing.T) {
	app := newFakeApp()
	out := filepath.Join(t.TempDir(), "catalog.json")

	require.NoError(t, runCommand(t, app, "catalog", "--output", out))
	require.True(t, app.closed)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var decoded struct {
		States []struct {
			Name string `json:"name"`
		} `json:"states"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.States, 1)
	require.Equal(t, "Sonora", decoded.States[0].Name)
}

func TestEnrichCommandDefaultsToInPlace(t *testing.T) {
	app := newFakeApp()
	out := filepath.Join(t.TempDir(), "stations.json")

	require.NoError(t, runCommand(t, app, "enrich", "Sonora", "--output", out))
	require.Equal(t, "in-place", app.lastMethod)
	require.Equal(t, "Sonora", app.lastState)
	require.Equal(t, pollutant.WindowDay, app.lastWindow)
}

func TestEnrichCommandSnapshotAndWindow(t *testing.T) {
	app := newFakeApp()
	out := filepath.Join(t.TempDir(), "stations.json")

	require.NoError(t, runCommand(t, app, "enrich", "Sonora", "--snapshot", "--window", "month", "--output", out))
	require.Equal(t, "snapshot", app.lastMethod)
	require.Equal(t, pollutant.WindowMonth, app.lastWindow)
}

func TestEnrichCommandRejectsBadWindow(t *testing.T) {
	err := runCommand(t, newFakeApp(), "enrich", "Sonora", "--window", "decade")
	require.Error(t, err)
	require.ErrorContains(t, err, "decade")
}

func TestEnrichCommandRejectsBadDate(t *testing.T) {
	err := runCommand(t, newFakeApp(), "enrich", "Sonora", "--date", "15/03/2024")
	require.Error(t, err)
}

func TestEnrichCommandRequiresState(t *testing.T) {
	err := runCommand(t, newFakeApp(), "enrich")
	require.Error(t, err)
}
