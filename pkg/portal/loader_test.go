package portal

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-stationform/pkg/client"
	"github.com/goliatone/go-stationform/pkg/page"
	"github.com/goliatone/go-stationform/pkg/testsupport"
)

func newTestClient(t *testing.T, backend *testsupport.Backend) *client.Client {
	t.Helper()
	c, err := client.New(backend.URL(), client.WithHTTPClient(backend.Client()))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestStationLoader_AppendsServerOrder(t *testing.T) {
	backend := testsupport.NewBackend(t, testsupport.WithStations("2020", "1001", "1002"))
	doc, _ := NewDocument(testSpec())
	_ = doc.Select(YearsID, "2020")

	loader, err := NewStationLoader(doc, newTestClient(t, backend))
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	job := loader.Load(context.Background())
	if err := job.Wait(waitCtx(t)); err != nil {
		t.Fatalf("wait: %v", err)
	}

	got, _ := doc.Options(NamesID)
	want := []page.Option{
		{Value: "1001", Label: "1001"},
		{Value: "1002", Label: "1002"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if job.Stale() || job.Applied() != 2 || job.Generation() != 1 {
		t.Fatalf("unexpected job state stale=%v applied=%d gen=%d", job.Stale(), job.Applied(), job.Generation())
	}
	if reqs := backend.RequestsTo("/station_list"); len(reqs) != 1 || reqs[0].RawQuery != "year=2020" {
		t.Fatalf("unexpected requests %#v", reqs)
	}
}

func TestStationLoader_ClearsBeforeReturning(t *testing.T) {
	backend := testsupport.NewBackend(t, testsupport.WithStations("2020", "1001"))
	release := backend.Hold("2020")
	defer release()

	doc, _ := NewDocument(testSpec())
	_ = doc.AppendOptions(NamesID, page.Option{Value: "old", Label: "old", Selected: true})
	_ = doc.Select(YearsID, "2020")

	loader, _ := NewStationLoader(doc, newTestClient(t, backend))
	job := loader.Load(context.Background())

	if got, _ := doc.Options(NamesID); len(got) != 0 {
		t.Fatalf("names not cleared synchronously: %#v", got)
	}
	if sel, _ := ReadMulti(doc, NamesID); sel != "" {
		t.Fatalf("stale selection survived clear: %q", sel)
	}

	release()
	if err := job.Wait(waitCtx(t)); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got, _ := doc.Options(NamesID); len(got) != 1 || got[0].Value != "1001" {
		t.Fatalf("unexpected names %#v", got)
	}
}

func TestStationLoader_FailureLeavesControlEmpty(t *testing.T) {
	cases := map[string]testsupport.BackendOption{
		"status":    testsupport.WithStationStatus(http.StatusInternalServerError),
		"malformed": testsupport.WithStationBody(`{"error":"boom"}`),
		"not json":  testsupport.WithStationBody(`<html>`),
	}
	for name, opt := range cases {
		t.Run(name, func(t *testing.T) {
			backend := testsupport.NewBackend(t, opt)
			logger := testsupport.NewLogger()
			doc, _ := NewDocument(testSpec())
			_ = doc.AppendOptions(NamesID, page.Option{Value: "old", Label: "old"})
			_ = doc.Select(YearsID, "2020")

			loader, _ := NewStationLoader(doc, newTestClient(t, backend), WithLogger(logger))
			job := loader.Load(context.Background())
			if err := job.Wait(waitCtx(t)); err == nil {
				t.Fatalf("expected job error")
			}

			if got, _ := doc.Options(NamesID); len(got) != 0 {
				t.Fatalf("expected empty names, got %#v", got)
			}
			if errs := logger.Level("error"); len(errs) != 1 {
				t.Fatalf("expected one error entry, got %#v", logger.Entries())
			}
			if n := len(backend.RequestsTo("/station_list")); n != 1 {
				t.Fatalf("expected no retry, got %d requests", n)
			}
		})
	}
}

func TestStationLoader_MalformedIsTyped(t *testing.T) {
	backend := testsupport.NewBackend(t, testsupport.WithStationBody(`[null]`))
	doc, _ := NewDocument(testSpec())
	loader, _ := NewStationLoader(doc, newTestClient(t, backend))

	err := loader.Load(context.Background()).Wait(waitCtx(t))
	if !errors.Is(err, client.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestStationLoader_LastWriterWins(t *testing.T) {
	backend := testsupport.NewBackend(t,
		testsupport.WithStations("2020", "A1", "A2"),
		testsupport.WithStations("2021", "B1"),
	)
	release := backend.Hold("2020")
	defer release()

	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	logger := testsupport.NewLogger()
	doc, _ := NewDocument(testSpec())
	loader, _ := NewStationLoader(doc, newTestClient(t, backend), WithMetrics(metrics), WithLogger(logger))

	_ = doc.Select(YearsID, "2020")
	first := loader.Load(context.Background())
	_ = doc.Select(YearsID, "2021")
	second := loader.Load(context.Background())

	if err := second.Wait(waitCtx(t)); err != nil {
		t.Fatalf("second: %v", err)
	}
	release()
	if err := first.Wait(waitCtx(t)); err != nil {
		t.Fatalf("first should settle quietly, got %v", err)
	}

	if !first.Stale() || second.Stale() {
		t.Fatalf("stale flags first=%v second=%v", first.Stale(), second.Stale())
	}
	if first.Generation() >= second.Generation() || loader.Generation() != second.Generation() {
		t.Fatalf("generations not monotonic: %d, %d, %d", first.Generation(), second.Generation(), loader.Generation())
	}

	got, _ := doc.Options(NamesID)
	if diff := cmp.Diff([]page.Option{{Value: "B1", Label: "B1"}}, got); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if len(logger.Level("error")) != 0 {
		t.Fatalf("superseded load must not log errors: %#v", logger.Entries())
	}
	if v := testutil.ToFloat64(metrics.StationLoads.WithLabelValues(OutcomeApplied)); v != 1 {
		t.Fatalf("applied = %v", v)
	}
	if v := testutil.ToFloat64(metrics.StationLoads.WithLabelValues(OutcomeStale)); v != 1 {
		t.Fatalf("stale = %v", v)
	}
}

func TestStationLoader_StaleResultDiscardedWhenNotCancelled(t *testing.T) {
	doc, _ := NewDocument(testSpec())
	gate := make(chan struct{})
	src := stationFunc(func(ctx context.Context, years []string) ([]string, error) {
		if JoinSelection(years) == "2020" {
			<-gate
			return []string{"late"}, nil
		}
		return []string{"fresh"}, nil
	})
	loader, _ := NewStationLoader(doc, src)

	_ = doc.Select(YearsID, "2020")
	first := loader.Load(context.Background())
	_ = doc.Select(YearsID, "2021")
	second := loader.Load(context.Background())
	if err := second.Wait(waitCtx(t)); err != nil {
		t.Fatalf("second: %v", err)
	}
	close(gate)
	if err := first.Wait(waitCtx(t)); err != nil {
		t.Fatalf("first: %v", err)
	}

	if !first.Stale() {
		t.Fatalf("first load should be stale")
	}
	got, _ := doc.Options(NamesID)
	if len(got) != 1 || got[0].Value != "fresh" {
		t.Fatalf("stale result leaked: %#v", got)
	}
}

func TestStationLoader_MissingControls(t *testing.T) {
	doc := page.New()
	_ = doc.AddSelect(YearsID, true)
	loader, _ := NewStationLoader(doc, stationFunc(func(context.Context, []string) ([]string, error) {
		t.Fatalf("fetch must not run without a station control")
		return nil, nil
	}))
	err := loader.Load(context.Background()).Wait(waitCtx(t))
	if !errors.Is(err, page.ErrControlNotFound) {
		t.Fatalf("expected lookup error, got %v", err)
	}

	empty, _ := NewStationLoader(page.New(), stationFunc(nil))
	if err := empty.Load(context.Background()).Wait(waitCtx(t)); !errors.Is(err, page.ErrControlNotFound) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestNewStationLoader_RequiresDependencies(t *testing.T) {
	if _, err := NewStationLoader(nil, stationFunc(nil)); err == nil {
		t.Fatalf("expected document error")
	}
	if _, err := NewStationLoader(page.New(), nil); err == nil {
		t.Fatalf("expected source error")
	}
}

func TestNewMetrics_ReRegisterReturnsExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.StationLoads != second.StationLoads {
		t.Fatalf("expected existing collector to be reused")
	}
}

type stationFunc func(ctx context.Context, years []string) ([]string, error)

func (f stationFunc) Stations(ctx context.Context, years []string) ([]string, error) {
	return f(ctx, years)
}
