/*
Package plume turns methane plume detections into searchable keys and back.

Each Record is indexed under one composite key built from its location and its
identifier, so a single prefix lookup matches either one:

	location  "Houston, Texas, United States"
	id        "EMIT_L2B_CH4PLM_001_20230805T060818_000109"
	key       "United States_Texas_Houston_EMIT-L2B-CH4PLM-001-20230805T060818-000109"

The mapping lives in KeyCodec. A Catalog holds the records of one dataset, and a
Finder pairs the catalog with a search index that is rebuilt only when the
dataset's keys change.
*/
package plume

import "time"

// Unknown is used for records without a resolvable location.
const Unknown = "unknown"

// Record is a single plume detection. Lat/Lon is the point geometry,
// MaxLat/MaxLon the position of the maximum concentration when reported.
type Record struct {
	ID               string
	PlumeID          string
	Location         string
	Lat              float64
	Lon              float64
	MaxLat           float64
	MaxLon           float64
	TimeObserved     time.Time
	Orbit            int
	MaxConcentration float64
	TiffURL          string
}
