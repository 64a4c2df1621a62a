package catalog

import (
	"fmt"
	"strconv"

	"github.com/aqmex/sinaica-scraper/internal/extract"
)

// Portal field names. The portal publishes Spanish keys; they are mapped to
// English on the way into the typed model and nowhere else.
const (
	fieldName     = "nom"
	fieldCode     = "cod"
	fieldLat      = "lat"
	fieldLng      = "long"
	fieldNetworks = "redes"
	fieldStations = "ests"
)

// Builder projects the raw root payload into a Catalog. The tracked pollutant
// codes seed every station's pollutants map.
type Builder struct {
	codes []string
}

// NewBuilder builds a Builder for the given tracked pollutant codes.
func NewBuilder(trackedCodes []string) *Builder {
	return &Builder{codes: append([]string(nil), trackedCodes...)}
}

// Build walks the root object in source order. Entries whose key does not
// parse as a plain number are portal metadata sharing the container with the
// state records; they are skipped without comment. Numeric-keyed entries must
// project cleanly or the whole build fails.
func (b *Builder) Build(root extract.Value) (*Catalog, error) {
	obj, ok := root.Object()
	if !ok {
		return nil, &SchemaError{Path: "$", Field: "object root"}
	}

	cat := &Catalog{}
	for _, key := range obj.Keys() {
		if !isNumericKey(key) {
			continue
		}
		entry, _ := obj.Get(key)
		state, err := b.buildState(key, entry)
		if err != nil {
			return nil, err
		}
		cat.States = append(cat.States, state)
	}
	return cat, nil
}

func (b *Builder) buildState(id string, v extract.Value) (*State, error) {
	path := "$." + id
	obj, ok := v.Object()
	if !ok {
		return nil, &SchemaError{Path: path, Field: "state record"}
	}

	state := &State{ID: id}
	var err error
	if state.Name, state.Code, state.GPS, err = requiredCommon(obj, path); err != nil {
		return nil, err
	}

	networks, ok := obj.Get(fieldNetworks)
	if !ok || networks.IsNull() {
		return state, nil
	}
	netObj, ok := networks.Object()
	if !ok {
		return nil, &SchemaError{Path: path, Field: fieldNetworks}
	}
	for _, netID := range netObj.Keys() {
		entry, _ := netObj.Get(netID)
		network, err := b.buildNetwork(path, netID, entry)
		if err != nil {
			return nil, err
		}
		state.Networks = append(state.Networks, network)
	}
	return state, nil
}

func (b *Builder) buildNetwork(parent, id string, v extract.Value) (*Network, error) {
	path := fmt.Sprintf("%s.%s.%s", parent, fieldNetworks, id)
	obj, ok := v.Object()
	if !ok {
		return nil, &SchemaError{Path: path, Field: "network record"}
	}

	network := &Network{ID: id}
	var err error
	if network.Name, err = requiredString(obj, path, fieldName); err != nil {
		return nil, err
	}
	if network.Code, err = requiredString(obj, path, fieldCode); err != nil {
		return nil, err
	}

	stations, ok := obj.Get(fieldStations)
	if !ok || stations.IsNull() {
		return network, nil
	}
	stObj, ok := stations.Object()
	if !ok {
		return nil, &SchemaError{Path: path, Field: fieldStations}
	}
	for _, stID := range stObj.Keys() {
		entry, _ := stObj.Get(stID)
		station, err := b.buildStation(path, stID, entry)
		if err != nil {
			return nil, err
		}
		network.Stations = append(network.Stations, station)
	}
	return network, nil
}

func (b *Builder) buildStation(parent, id string, v extract.Value) (*Station, error) {
	path := fmt.Sprintf("%s.%s.%s", parent, fieldStations, id)
	obj, ok := v.Object()
	if !ok {
		return nil, &SchemaError{Path: path, Field: "station record"}
	}

	station := &Station{
		ID:         id,
		Pollutants: make(map[string]extract.Value, len(b.codes)),
	}
	var err error
	if station.Name, station.Code, station.GPS, err = requiredCommon(obj, path); err != nil {
		return nil, err
	}
	for _, code := range b.codes {
		station.Pollutants[code] = extract.Value{}
	}
	return station, nil
}

func requiredCommon(obj *extract.Object, path string) (name, code string, gps GPS, err error) {
	if name, err = requiredString(obj, path, fieldName); err != nil {
		return
	}
	if code, err = requiredString(obj, path, fieldCode); err != nil {
		return
	}
	if gps.Lat, err = requiredNumber(obj, path, fieldLat); err != nil {
		return
	}
	gps.Lng, err = requiredNumber(obj, path, fieldLng)
	return
}

func requiredString(obj *extract.Object, path, field string) (string, error) {
	v, ok := obj.Get(field)
	if !ok {
		return "", &SchemaError{Path: path, Field: field}
	}
	s, ok := v.String()
	if !ok {
		return "", &SchemaError{Path: path, Field: field}
	}
	return s, nil
}

func requiredNumber(obj *extract.Object, path, field string) (float64, error) {
	v, ok := obj.Get(field)
	if !ok {
		return 0, &SchemaError{Path: path, Field: field}
	}
	n, ok := v.Number()
	if !ok {
		return 0, &SchemaError{Path: path, Field: field}
	}
	return n, nil
}

// isNumericKey implements the portal's convention that real state entries are
// keyed by numeric identifiers. A numeric-but-irrelevant key would be
// misclassified; nothing in the export format distinguishes it further.
func isNumericKey(key string) bool {
	_, err := strconv.ParseFloat(key, 64)
	return err == nil
}
