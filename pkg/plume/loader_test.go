package plume

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const featureCollection = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [-95.36, 29.76]},
      "properties": {
        "Plume ID": "CH4_PlumeComplex-101",
        "Data Download": "https://data.example.org/emit/EMIT_L2B_CH4PLM_001_20230805T060818_000109.tif",
        "UTC Time Observed": "2023-08-05T06:08:18Z",
        "Orbit": "2321704",
        "Max Plume Concentration (ppm m)": 1520.5,
        "Latitude of max concentration": 29.7601,
        "Longitude of max concentration": -95.3702
      }
    },
    {
      "type": "Feature",
      "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]},
      "properties": {
        "Data Download": "https://data.example.org/emit/EMIT_L2B_CH4PLM_001_20230805T060818_000109.tif"
      }
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [-119.81, 39.53]},
      "properties": {
        "Plume ID": "PLUME_7",
        "UTC Time Observed": "not a time"
      }
    },
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [1, 2]},
      "properties": {}
    }
  ]
}`

func TestParseFeatureCollection(t *testing.T) {
	records, err := ParseFeatureCollection([]byte(featureCollection))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "EMIT_L2B_CH4PLM_001_20230805T060818_000109", first.ID)
	assert.Equal(t, "CH4_PlumeComplex-101", first.PlumeID)
	assert.Equal(t, 2321704, first.Orbit)
	assert.InDelta(t, 1520.5, first.MaxConcentration, 1e-9)
	assert.InDelta(t, 29.76, first.Lat, 1e-9, "geometry stays the position")
	assert.InDelta(t, -95.36, first.Lon, 1e-9)
	assert.InDelta(t, 29.7601, first.MaxLat, 1e-9)
	assert.InDelta(t, -95.3702, first.MaxLon, 1e-9)
	assert.Equal(t, time.Date(2023, 8, 5, 6, 8, 18, 0, time.UTC), first.TimeObserved)

	second := records[1]
	assert.Equal(t, "PLUME_7", second.ID, "plume id is the fallback id")
	assert.InDelta(t, 39.53, second.Lat, 1e-9)
	assert.InDelta(t, -119.81, second.Lon, 1e-9)
	assert.Zero(t, second.MaxLat, "no max concentration position reported")
	assert.Zero(t, second.MaxLon)
	assert.True(t, second.TimeObserved.IsZero())
}

func TestParseFeatureCollectionInvalid(t *testing.T) {
	_, err := ParseFeatureCollection([]byte(`{"type": "FeatureCollection", "features": [`))
	assert.Error(t, err)
}

func TestLoadFeatureCollectionMissingFile(t *testing.T) {
	_, err := LoadFeatureCollection(filepath.Join(t.TempDir(), "missing.geojson"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadLocations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locationLookup.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"CH4_PlumeComplex-101": "Houston, Texas, United States",
		"PLUME_7": "unknown"
	}`), 0644))

	lookup, err := LoadLocations(path)
	require.NoError(t, err)
	assert.Equal(t, "Houston, Texas, United States", lookup["CH4_PlumeComplex-101"])

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`["not", "an", "object"]`), 0644))
	_, err = LoadLocations(bad)
	assert.Error(t, err)
}

func TestApplyLocations(t *testing.T) {
	records := []Record{
		{ID: "a", PlumeID: "P1"},
		{ID: "b", PlumeID: "P2"},
		{ID: "c", PlumeID: "P3"},
		{ID: "d", PlumeID: "P4", Location: "Kept, Already"},
	}
	ApplyLocations(records, map[string]string{
		"P1": " Houston, Texas, United States ",
		"P2": "UNKNOWN",
	})

	assert.Equal(t, "Houston, Texas, United States", records[0].Location)
	assert.Equal(t, Unknown, records[1].Location)
	assert.Equal(t, Unknown, records[2].Location)
	assert.Equal(t, "Kept, Already", records[3].Location)
}

func TestLoadedRecordsAreSearchable(t *testing.T) {
	records, err := ParseFeatureCollection([]byte(featureCollection))
	require.NoError(t, err)
	ApplyLocations(records, map[string]string{"CH4_PlumeComplex-101": "Houston, Texas, United States"})

	f := NewFinder(DefaultCodec, 0, 0)
	require.NoError(t, f.Load(records))

	matches := f.Search("united states", 0)
	require.Len(t, matches, 1)
	assert.Equal(t, "United States_Texas_Houston_EMIT-L2B-CH4PLM-001-20230805T060818-000109", matches[0].Key)
	assert.Equal(t, "EMIT_L2B_CH4PLM_001_20230805T060818_000109", matches[0].RecordID)

	matches = f.Search("unknown_plume-7", 0)
	require.Len(t, matches, 1)
	assert.Equal(t, "PLUME_7", matches[0].RecordID)
}
