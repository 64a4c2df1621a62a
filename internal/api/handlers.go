package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aqmex/sinaica-scraper/internal/catalog"
	"github.com/aqmex/sinaica-scraper/internal/extract"
	"github.com/aqmex/sinaica-scraper/internal/pollutant"
)

// enrichRequest is the body of POST /v1/states/{name}/enrich. Date defaults
// to today, Window to "day". Snapshot leaves the shared catalog untouched.
type enrichRequest struct {
	Date     string `json:"date,omitempty"`
	Window   string `json:"window,omitempty"`
	Snapshot bool   `json:"snapshot,omitempty"`
}

type enrichResponse struct {
	State    string             `json:"state"`
	Stations []*catalog.Station `json:"stations"`
}

func (s *Server) getCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Catalog())
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	name := stateName(r)
	state, err := s.svc.Catalog().FindState(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) enrichState(w http.ResponseWriter, r *http.Request) {
	name := stateName(r)

	var req enrichRequest
	// an empty body means defaults
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, window, err := parseEnrichParams(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var stations []*catalog.Station
	if req.Snapshot {
		stations, err = s.svc.EnrichSnapshot(r.Context(), name, start, window)
	} else {
		stations, err = s.svc.EnrichInPlace(r.Context(), name, start, window)
	}
	if err != nil {
		s.writeEnrichError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, enrichResponse{State: name, Stations: stations})
}

func (s *Server) writeEnrichError(w http.ResponseWriter, name string, err error) {
	var notFound *catalog.NotFoundError
	var extraction *extract.ExtractionError
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &extraction):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("enrichment failed", zap.String("state", name), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func parseEnrichParams(req enrichRequest) (time.Time, pollutant.Window, error) {
	var start time.Time
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return time.Time{}, 0, errors.New("date must be YYYY-MM-DD")
		}
		start = parsed
	}

	window := pollutant.WindowDay
	if req.Window != "" {
		parsed, err := pollutant.ParseWindow(req.Window)
		if err != nil {
			return time.Time{}, 0, err
		}
		window = parsed
	}
	return start, window, nil
}

func stateName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
