package plume

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Property names of the plume metadata feature collection.
const (
	propPlumeID          = "Plume ID"
	propDataDownload     = "Data Download"
	propTimeObserved     = "UTC Time Observed"
	propOrbit            = "Orbit"
	propMaxConcentration = "Max Plume Concentration (ppm m)"
	propLatMax           = "Latitude of max concentration"
	propLonMax           = "Longitude of max concentration"
)

// LoadFeatureCollection reads plume records from a GeoJSON feature collection.
// Only Point features are records; polygons describe plume outlines and are
// skipped.
func LoadFeatureCollection(filename string) ([]Record, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read plume features %s: %w", filename, err)
	}
	return ParseFeatureCollection(data)
}

// ParseFeatureCollection is LoadFeatureCollection for in-memory data.
func ParseFeatureCollection(data []byte) ([]Record, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse plume features: %w", err)
	}

	records := make([]Record, 0, len(fc.Features))
	for i, f := range fc.Features {
		point, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		r, err := recordFromFeature(f, point)
		if err != nil {
			log.Warnf("Skipping feature %d: %v", i, err)
			continue
		}
		records = append(records, r)
	}
	log.Debugf("Parsed %d plume records from %d features", len(records), len(fc.Features))
	return records, nil
}

func recordFromFeature(f *geojson.Feature, point orb.Point) (Record, error) {
	props := f.Properties
	r := Record{
		PlumeID: props.MustString(propPlumeID, ""),
		TiffURL: props.MustString(propDataDownload, ""),
		Lat:     point.Lat(),
		Lon:     point.Lon(),
	}
	r.MaxConcentration, _ = numberProp(props, propMaxConcentration)
	if orbit, ok := numberProp(props, propOrbit); ok {
		r.Orbit = int(orbit)
	}

	r.ID = idFromDownload(r.TiffURL)
	if r.ID == "" {
		r.ID = r.PlumeID
	}
	if r.ID == "" {
		return Record{}, fmt.Errorf("neither %q nor %q is set", propDataDownload, propPlumeID)
	}

	r.MaxLat, _ = numberProp(props, propLatMax)
	r.MaxLon, _ = numberProp(props, propLonMax)

	if observed := props.MustString(propTimeObserved, ""); observed != "" {
		t, err := time.Parse(time.RFC3339, observed)
		if err != nil {
			log.Debugf("Unparsable observation time %q for %s: %v", observed, r.ID, err)
		} else {
			r.TimeObserved = t.UTC()
		}
	}
	return r, nil
}

// idFromDownload turns ".../EMIT_L2B_CH4PLM_001_20230805T060818_000109.tif"
// into "EMIT_L2B_CH4PLM_001_20230805T060818_000109".
func idFromDownload(url string) string {
	if url == "" {
		return ""
	}
	id, _, _ := strings.Cut(path.Base(url), ".")
	if id == "/" {
		return ""
	}
	return id
}

// numberProp reads numeric properties that are sometimes shipped as strings.
func numberProp(props geojson.Properties, key string) (float64, bool) {
	switch v := props[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// LoadLocations reads a JSON object mapping plume ids to "City, State, Country".
func LoadLocations(filename string) (map[string]string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read location lookup %s: %w", filename, err)
	}
	lookup := make(map[string]string)
	if err := json.Unmarshal(data, &lookup); err != nil {
		return nil, fmt.Errorf("failed to parse location lookup %s: %w", filename, err)
	}
	return lookup, nil
}

// ApplyLocations fills in each record's location from lookup, keyed by plume
// id. Records without an entry, or with an empty one, keep their current
// location, or become Unknown when they have none.
func ApplyLocations(records []Record, lookup map[string]string) {
	missing := 0
	for i := range records {
		loc := strings.TrimSpace(lookup[records[i].PlumeID])
		if loc == "" || strings.EqualFold(loc, Unknown) {
			if records[i].Location != "" {
				continue
			}
			loc = Unknown
			missing++
		}
		records[i].Location = loc
	}
	if missing > 0 {
		log.Debugf("%d plume records have no known location", missing)
	}
}
