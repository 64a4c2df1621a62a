// Package catalog holds the typed state/network/station hierarchy scraped
// from the portal and the builder that projects raw payloads into it.
package catalog

import (
	"strings"

	"github.com/aqmex/sinaica-scraper/internal/extract"
)

// GPS is a WGS84 coordinate pair.
type GPS struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Station is one monitoring station. Pollutants is keyed by pollutant code;
// values stay null until the station is enriched.
type Station struct {
	ID         string                   `json:"id"`
	Name       string                   `json:"name"`
	Code       string                   `json:"code"`
	GPS        GPS                      `json:"gps"`
	Pollutants map[string]extract.Value `json:"pollutants"`
}

// Clone returns a copy of the station with its own pollutants map.
func (s *Station) Clone() *Station {
	cp := *s
	cp.Pollutants = make(map[string]extract.Value, len(s.Pollutants))
	for code, series := range s.Pollutants {
		cp.Pollutants[code] = series
	}
	return &cp
}

// Network is a monitoring network within a state.
type Network struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Code     string     `json:"code"`
	Stations []*Station `json:"stations"`
}

// State is one federal state with its monitoring networks.
type State struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Code     string     `json:"code"`
	GPS      GPS        `json:"gps"`
	Networks []*Network `json:"networks"`
}

// Catalog is the full hierarchy, in the order the portal published it.
type Catalog struct {
	States []*State `json:"states"`
}

// FindState locates a state by case-insensitive exact name match; the first
// match wins. Stored names are never folded, only the comparison is.
func (c *Catalog) FindState(name string) (*State, error) {
	for _, st := range c.States {
		if strings.EqualFold(st.Name, name) {
			return st, nil
		}
	}
	return nil, &NotFoundError{Name: name}
}
