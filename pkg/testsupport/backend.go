package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

// DOI is appended to every generated citation.
const DOI = "https://doi.org/10.48567/1hn2-nw60"

// Request is one call observed by the Backend.
type Request struct {
	Path     string
	RawQuery string
	Year     string
}

// Backend is an httptest server speaking the warehouse routes.
type Backend struct {
	server *httptest.Server

	mu             sync.Mutex
	stations       map[string][]string
	rows           bool
	stationBody    []byte
	stationStatus  int
	citation       string
	citationStatus int
	failures       map[string]int
	gates          map[string]chan struct{}
	requests       []Request
	now            func() time.Time
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithStations registers the stations observed in year.
func WithStations(year string, stations ...string) BackendOption {
	return func(b *Backend) {
		b.stations[year] = append(b.stations[year], stations...)
	}
}

// WithRowPayload returns stations as one-column rows, e.g. [["Byrd"]].
func WithRowPayload() BackendOption {
	return func(b *Backend) { b.rows = true }
}

// WithStationBody overrides the raw station list response body.
func WithStationBody(body string) BackendOption {
	return func(b *Backend) { b.stationBody = []byte(body) }
}

// WithStationStatus makes every station list call answer with code.
func WithStationStatus(code int) BackendOption {
	return func(b *Backend) { b.stationStatus = code }
}

// WithCitation overrides the generated citation text.
func WithCitation(text string) BackendOption {
	return func(b *Backend) { b.citation = text }
}

// WithCitationStatus makes every citation call answer with code.
func WithCitationStatus(code int) BackendOption {
	return func(b *Backend) { b.citationStatus = code }
}

// WithTransientFailures makes the first n calls to path answer 503.
func WithTransientFailures(path string, n int) BackendOption {
	return func(b *Backend) { b.failures[path] = n }
}

// WithClock fixes the date used in citations and file names.
func WithClock(now func() time.Time) BackendOption {
	return func(b *Backend) { b.now = now }
}

// NewBackend starts a Backend and closes it when the test ends.
func NewBackend(t testing.TB, opts ...BackendOption) *Backend {
	t.Helper()
	b := &Backend{
		stations: make(map[string][]string),
		failures: make(map[string]int),
		gates:    make(map[string]chan struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/station_list", b.serveStations)
	mux.HandleFunc("/citation", b.serveCitation)
	mux.HandleFunc("/download", b.serveDownload)
	b.server = httptest.NewServer(mux)
	t.Cleanup(func() {
		b.releaseAll()
		b.server.Close()
	})
	return b
}

func (b *Backend) releaseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, gate := range b.gates {
		close(gate)
		delete(b.gates, key)
	}
}

// URL returns the server root.
func (b *Backend) URL() string { return b.server.URL }

// Client returns an HTTP client bound to the server.
func (b *Backend) Client() *http.Client { return b.server.Client() }

// Requests returns the observed calls in arrival order.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// RequestsTo returns the observed calls to path.
func (b *Backend) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range b.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Hold blocks every response whose raw year parameter equals years until the
// returned release func is called. Release is idempotent.
func (b *Backend) Hold(years string) (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gates[years] = gate
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(gate)
			b.mu.Lock()
			if b.gates[years] == gate {
				delete(b.gates, years)
			}
			b.mu.Unlock()
		})
	}
}

// Citation builds the citation the backend returns for years.
func (b *Backend) Citation(years []string) string {
	b.mu.Lock()
	override := b.citation
	b.mu.Unlock()
	if override != "" {
		return override
	}

	accessed := b.now().Format("2006-01-02")
	switch len(years) {
	case 0:
		return "Error: Incomplete query"
	case 1:
		return fmt.Sprintf("Antarctic Meteorological Research and Data Center: Automatic Weather Station quality-controlled observational data, %s. AMRDC Data Repository, accessed %s, %s.", years[0], accessed, DOI)
	default:
		return fmt.Sprintf("Antarctic Meteorological Research and Data Center: Automatic Weather Station quality-controlled observational data. AMRDC Data Repository. Subset used: %s - %s, accessed %s, %s.", years[0], years[len(years)-1], accessed, DOI)
	}
}

func (b *Backend) serveStations(w http.ResponseWriter, r *http.Request) {
	if !b.admit(w, r) {
		return
	}
	b.mu.Lock()
	status, body, rows := b.stationStatus, b.stationBody, b.rows
	b.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if body != nil {
		_, _ = w.Write(body)
		return
	}

	names := b.stationsFor(splitList(r.URL.Query().Get("year")))
	var payload any = names
	if rows {
		wrapped := make([][]string, len(names))
		for i, name := range names {
			wrapped[i] = []string{name}
		}
		payload = wrapped
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func (b *Backend) serveCitation(w http.ResponseWriter, r *http.Request) {
	if !b.admit(w, r) {
		return
	}
	b.mu.Lock()
	status := b.citationStatus
	b.mu.Unlock()
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.Citation(splitList(r.URL.Query().Get("year")))))
}

func (b *Backend) serveDownload(w http.ResponseWriter, r *http.Request) {
	if !b.admit(w, r) {
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "csv"
	}
	name := fmt.Sprintf("AMRDC_AWS_datawarehouse_%s.%s", b.now().Format("2006-01-02"), format)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	header := append([]string{"name", "datetime"}, splitList(q.Get("meas"))...)
	fmt.Fprintln(w, strings.Join(header, ","))
	for _, station := range splitList(q.Get("station")) {
		fmt.Fprintf(w, "%s,%s-01-01 00:00\n", station, firstOr(splitList(q.Get("year")), "0000"))
	}
}

// admit records the request, applies transient failures, and waits on gates.
func (b *Backend) admit(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return false
	}
	year := r.URL.Query().Get("year")

	b.mu.Lock()
	b.requests = append(b.requests, Request{Path: r.URL.Path, RawQuery: r.URL.RawQuery, Year: year})
	fail := b.failures[r.URL.Path] > 0
	if fail {
		b.failures[r.URL.Path]--
	}
	gate := b.gates[year]
	b.mu.Unlock()

	if fail {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return false
	}
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return false
		}
	}
	return true
}

func (b *Backend) stationsFor(years []string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, year := range years {
		for _, name := range b.stations[year] {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func firstOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return values[0]
}
