package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/plumeserve/internal/utils"
	"github.com/bastiangx/plumeserve/pkg/config"
	"github.com/bastiangx/plumeserve/pkg/plume"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// ReloadFunc fetches the current plume dataset.
type ReloadFunc func(ctx context.Context) ([]plume.Record, error)

// Server handles the IPC for plume search completions
type Server struct {
	finder       *plume.Finder
	config       *config.Config
	reload       ReloadFunc
	reader       io.Reader
	writer       *bufio.Writer
	encoder      *msgpack.Encoder
	requestCount int
}

// NewServer creates a new search server using stdin/stdout for IPC.
// reload may be nil, in which case reload requests are refused.
func NewServer(finder *plume.Finder, cfg *config.Config, reload ReloadFunc) *Server {
	return NewServerWithIO(finder, cfg, reload, os.Stdin, os.Stdout)
}

// NewServerWithIO is NewServer on arbitrary streams.
func NewServerWithIO(finder *plume.Finder, cfg *config.Config, reload ReloadFunc, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	bw := bufio.NewWriter(w)
	return &Server{
		finder:  finder,
		config:  cfg,
		reload:  reload,
		reader:  bufio.NewReader(r),
		writer:  bw,
		encoder: msgpack.NewEncoder(bw),
	}
}

// Start signals readiness and serves requests until the input ends or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	log.Debug("Starting Server.")
	s.send(StatusResponse{Status: "ready"})

	decoder := msgpack.NewDecoder(s.reader)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var raw msgpack.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("Client disconnected (EOF)")
				return nil
			}
			log.Errorf("Reading from stdin: %v", err)
			return err
		}
		s.handleMessage(ctx, raw)
	}
}

// handleMessage decodes a single message and dispatches it by action.
func (s *Server) handleMessage(ctx context.Context, raw []byte) {
	s.requestCount++

	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		log.Errorf("Unmarshaling request: %v", err)
		s.sendError("", "Invalid msgpack request", 400)
		return
	}

	switch req.Action {
	case ActionSearch:
		s.handleSearch(req)
	case ActionResolve:
		s.handleResolve(req)
	case ActionReload:
		s.handleReload(ctx, req)
	case ActionStats:
		stats := s.finder.Stats()
		stats["requests"] = s.requestCount
		s.send(StatusResponse{ID: req.ID, Status: "ok", Version: s.version(), Stats: stats})
	case ActionHealth:
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.sendError(req.ID, fmt.Sprintf("Unknown action: %s", req.Action), 400)
	}
}

// handleSearch validates the prefix and limit against the server config and
// answers with the matching keys.
func (s *Server) handleSearch(req Request) {
	cfg := s.config.Server
	prefix := req.Prefix
	length := utf8.RuneCountInString(prefix)

	if length < cfg.MinPrefix {
		log.Debug("Prefix is too short in request", "prefix", prefix)
		s.sendError(req.ID, fmt.Sprintf("Prefix must be at least %d characters", cfg.MinPrefix), 400)
		return
	}
	if length > cfg.MaxPrefix {
		log.Debug("Prefix is too long in request", "length", length)
		s.sendError(req.ID, fmt.Sprintf("Prefix exceeds maximum length of %d characters", cfg.MaxPrefix), 400)
		return
	}

	limit := req.Limit
	if limit < 1 {
		limit = cfg.DefaultLimit
	}
	limit = min(limit, cfg.MaxLimit, config.MaxResultLimit)

	start := time.Now()
	var matches []plume.Match
	if prefix == "" || utils.IsValidQuery(prefix) {
		matches = s.finder.Search(prefix, limit)
	} else {
		log.Debug("Filtered out query", "prefix", prefix)
	}
	elapsed := time.Since(start)

	suggestions := make([]SearchSuggestion, len(matches))
	for i, m := range matches {
		suggestions[i] = SearchSuggestion{
			Key:      m.Key,
			RecordID: m.RecordID,
			Rank:     uint16(i + 1),
		}
	}

	s.send(SearchResponse{
		ID:          req.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   elapsed.Microseconds(),
	})
}

func (s *Server) handleResolve(req Request) {
	if req.Key == "" {
		s.sendError(req.ID, "Missing 'k' parameter", 400)
		return
	}
	r, err := s.finder.Resolve(req.Key)
	if err != nil {
		s.sendError(req.ID, err.Error(), 404)
		return
	}
	s.send(ResolveResponse{ID: req.ID, Key: req.Key, Record: toRecordInfo(r)})
}

func (s *Server) handleReload(ctx context.Context, req Request) {
	if s.reload == nil {
		s.sendError(req.ID, "Reload is not configured", 400)
		return
	}
	records, err := s.reload(ctx)
	if err != nil {
		log.Errorf("Reloading plume records: %v", err)
		s.sendError(req.ID, fmt.Sprintf("Reload failed: %v", err), 500)
		return
	}
	if err := s.finder.Load(records); err != nil {
		log.Errorf("Indexing plume records: %v", err)
		s.sendError(req.ID, fmt.Sprintf("Reload failed: %v", err), 500)
		return
	}
	s.send(StatusResponse{ID: req.ID, Status: "ok", Version: s.version(), Stats: s.finder.Stats()})
}

func (s *Server) version() string {
	return strconv.FormatUint(s.finder.Version(), 16)
}

// send encodes a response and flushes it to the client.
func (s *Server) send(response any) {
	if err := s.encoder.Encode(response); err != nil {
		log.Errorf("Marshaling response: %v", err)
		return
	}
	if err := s.writer.Flush(); err != nil {
		log.Errorf("Writing response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}

func toRecordInfo(r plume.Record) RecordInfo {
	info := RecordInfo{
		ID:               r.ID,
		PlumeID:          r.PlumeID,
		Location:         r.Location,
		Lat:              r.Lat,
		Lon:              r.Lon,
		MaxLat:           r.MaxLat,
		MaxLon:           r.MaxLon,
		Orbit:            r.Orbit,
		MaxConcentration: r.MaxConcentration,
		TiffURL:          r.TiffURL,
	}
	if !r.TimeObserved.IsZero() {
		info.TimeObserved = r.TimeObserved.UTC().Format(time.RFC3339)
	}
	return info
}
