package pollutant

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/aqmex/sinaica-scraper/internal/extract"
)

// dataPattern locates the series literal the data page embeds. The portal
// prints it as a single assignment, so exactly one match is expected.
var dataPattern = regexp.MustCompile(`(?s)var dat = (.*?);`)

// Extracting is the slice of the extractor the fetcher needs.
type Extracting interface {
	Extract(ctx context.Context, req extract.Request) (extract.Value, error)
}

// Fetcher retrieves the per-pollutant series for single stations from the
// portal's data page.
type Fetcher struct {
	extractor Extracting
	dataURL   string
	logger    *zap.Logger
}

// NewFetcher builds a Fetcher posting to dataURL.
func NewFetcher(extractor Extracting, dataURL string, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{extractor: extractor, dataURL: dataURL, logger: logger}
}

// FetchStation issues one extraction per tracked pollutant and returns the
// assembled mapping. A zero start means the current date. The payloads are
// whatever the portal emitted; their internals are not validated here. Any
// fatal extraction error aborts the whole station, since partial pollutant
// data would leave the station in an inconsistent shape.
func (f *Fetcher) FetchStation(
	ctx context.Context,
	stationID string,
	start time.Time,
	window Window,
) (map[Code]extract.Value, error) {
	if start.IsZero() {
		start = time.Now()
	}
	if !window.Valid() {
		return nil, fmt.Errorf("station %s: invalid time window %d", stationID, int(window))
	}

	series := make(map[Code]extract.Value, len(Codes()))
	for _, code := range Codes() {
		value, err := f.fetchOne(ctx, stationID, code, start, window)
		if err != nil {
			return nil, fmt.Errorf("station %s pollutant %s: %w", stationID, code, err)
		}
		series[code] = value
	}
	return series, nil
}

func (f *Fetcher) fetchOne(
	ctx context.Context,
	stationID string,
	code Code,
	start time.Time,
	window Window,
) (extract.Value, error) {
	form := map[string]string{
		"estacionId": stationID,
		"param":      string(code),
		"fechaIni":   start.Format("2006-01-02"),
		"rango":      strconv.Itoa(int(window)),
		"tipoDatos":  "",
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/x-www-form-urlencoded")

	f.logger.Debug("fetching pollutant series",
		zap.String("station", stationID),
		zap.String("pollutant", string(code)),
		zap.String("window", window.String()),
	)
	return f.extractor.Extract(ctx, extract.Request{
		URL:     f.dataURL,
		Pattern: dataPattern,
		Method:  http.MethodPost,
		Headers: headers,
		Form:    form,
	})
}
