// Package cli handles cmd line input and plume search results for DBG and testing
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/plumeserve/internal/utils"
	"github.com/bastiangx/plumeserve/pkg/plume"
	"github.com/charmbracelet/log"
)

// resolveCmd prefixes a line that should be resolved instead of searched.
const resolveCmd = ":id "

// Searcher is the part of plume.Finder the CLI needs.
type Searcher interface {
	Search(prefix string, limit int) []plume.Match
	Resolve(key string) (plume.Record, error)
}

// InputHandler processes user input from stdin and prints matching search
// keys. Lines starting with ":id " resolve a key to its plume record.
type InputHandler struct {
	finder          Searcher
	minPrefixLength int
	maxPrefixLength int
	suggestLimit    int
	requestCount    int
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(finder Searcher, minLength, maxLength, limit int) *InputHandler {
	return &InputHandler{
		finder:          finder,
		minPrefixLength: minLength,
		maxPrefixLength: maxLength,
		suggestLimit:    limit,
	}
}

// Start begins the interface loop on stdin.
// Loop terminates if an error occurs while reading.
func (h *InputHandler) Start() error {
	log.Print("PlumeServe CLI [BETA]")
	log.Print("type a plume id or location and press Enter, ':id <key>' shows the record (Ctrl+C to exit):")
	return h.run(os.Stdin)
}

func (h *InputHandler) run(r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if key, ok := strings.CutPrefix(line, resolveCmd); ok {
				h.handleResolve(strings.TrimSpace(key))
			} else {
				h.handleInput(line)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// handleInput validates the prefix's length and content, then prints the
// matching keys.
func (h *InputHandler) handleInput(prefix string) {
	h.requestCount++

	length := utf8.RuneCountInString(prefix)
	if length < h.minPrefixLength {
		log.Errorf("Prefix too short: %s", prefix)
		return
	}
	if length > h.maxPrefixLength {
		log.Errorf("Prefix too long: %s", prefix)
		return
	}
	if !utils.IsValidQuery(prefix) {
		log.Warnf("No matches found for prefix: '%s' (filtered out)", prefix)
		return
	}

	start := time.Now()
	log.Debug("Processing request for", "prefix", prefix)
	matches := h.finder.Search(prefix, h.suggestLimit)
	log.Debugf("Took [ %v ] for prefix '%s'", time.Since(start), prefix)

	if len(matches) == 0 {
		log.Warnf("No matches found for prefix: '%s'", prefix)
		return
	}

	log.Printf("Found %d matches for prefix '%s':", len(matches), prefix)
	for i, m := range matches {
		clKey := fmt.Sprintf("\033[38;5;75m%s\033[0m", m.Key)
		log.Printf("%2d. %-60s (id: %s)", i+1, clKey, m.RecordID)
	}
}

func (h *InputHandler) handleResolve(key string) {
	h.requestCount++
	if key == "" {
		log.Error("Usage: :id <key>")
		return
	}
	r, err := h.finder.Resolve(key)
	if err != nil {
		log.Errorf("%v", err)
		return
	}
	log.Print("Record", "id", r.ID, "location", r.Location, "lat", r.Lat, "lon", r.Lon)
	if r.MaxLat != 0 || r.MaxLon != 0 {
		log.Print("", "max lat", r.MaxLat, "max lon", r.MaxLon)
	}
	if !r.TimeObserved.IsZero() {
		log.Print("", "observed", r.TimeObserved.UTC().Format(time.RFC3339), "orbit", r.Orbit)
	}
	if r.MaxConcentration > 0 {
		log.Print("", "max ppm m", r.MaxConcentration)
	}
	if r.TiffURL != "" {
		log.Print("", "tiff", r.TiffURL)
	}
}
