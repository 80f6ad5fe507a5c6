/*
Package server implements msgpack IPC for plume search completions.

The server reads msgpack messages back to back from stdin and writes one
msgpack response per message to stdout. Every message carries an ID that is
echoed in its response.

# Search

A message without an action is a search request:

	{"id": "req_001", "p": "united states_tex", "l": 10}

The server responds with search keys in lexicographic order, each with the id
of the plume record it stands for:

	{"id": "req_001", "s": [{"k": "United States_Texas_Houston_EMIT-001", "i": "EMIT_001", "r": 1}], "c": 1, "t": 42}

t is the lookup time in microseconds.

# Actions

	{"id": "res_001", "action": "resolve", "k": "United States_Texas_Houston_EMIT-001"}
	{"id": "rel_001", "action": "reload"}
	{"id": "st_001", "action": "stats"}
	{"id": "hc_001", "action": "health"}

resolve maps a chosen key back to its record. reload re-reads the plume
sources; the index is only rebuilt when the set of keys changed. Failed
operations answer with an ErrorResponse.
*/
package server

// Request is any client message. Action is empty for searches.
type Request struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action,omitempty"`
	Prefix string `msgpack:"p,omitempty"`
	Limit  int    `msgpack:"l,omitempty"`
	Key    string `msgpack:"k,omitempty"`
}

const (
	ActionSearch  = ""
	ActionResolve = "resolve"
	ActionReload  = "reload"
	ActionStats   = "stats"
	ActionHealth  = "health"
)

// SearchSuggestion is one completion.
type SearchSuggestion struct {
	Key      string `msgpack:"k"`
	RecordID string `msgpack:"i"`
	Rank     uint16 `msgpack:"r"`
}

// SearchResponse answers a search request.
type SearchResponse struct {
	ID          string             `msgpack:"id"`
	Suggestions []SearchSuggestion `msgpack:"s"`
	Count       int                `msgpack:"c"`
	TimeTaken   int64              `msgpack:"t"`
}

// RecordInfo is the wire form of a plume record.
type RecordInfo struct {
	ID               string  `msgpack:"id"`
	PlumeID          string  `msgpack:"plume_id,omitempty"`
	Location         string  `msgpack:"location"`
	Lat              float64 `msgpack:"lat"`
	Lon              float64 `msgpack:"lon"`
	MaxLat           float64 `msgpack:"max_lat,omitempty"`
	MaxLon           float64 `msgpack:"max_lon,omitempty"`
	TimeObserved     string  `msgpack:"time_observed,omitempty"`
	Orbit            int     `msgpack:"orbit,omitempty"`
	MaxConcentration float64 `msgpack:"max_concentration,omitempty"`
	TiffURL          string  `msgpack:"tiff_url,omitempty"`
}

// ResolveResponse answers a resolve request.
type ResolveResponse struct {
	ID     string     `msgpack:"id"`
	Key    string     `msgpack:"k"`
	Record RecordInfo `msgpack:"record"`
}

// StatusResponse answers reload, stats and health requests.
type StatusResponse struct {
	ID      string         `msgpack:"id,omitempty"`
	Status  string         `msgpack:"status"`
	Version string         `msgpack:"version,omitempty"`
	Stats   map[string]int `msgpack:"stats,omitempty"`
}

// ErrorResponse holds basic error information for failed requests
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
