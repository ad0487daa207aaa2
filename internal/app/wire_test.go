package app

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-stationform/pkg/config"
	"github.com/goliatone/go-stationform/pkg/portal"
	"github.com/goliatone/go-stationform/pkg/testsupport"
)

func TestNewWire_EndToEnd(t *testing.T) {
	backend := testsupport.NewBackend(t,
		testsupport.WithStations("2020", "Byrd"),
		testsupport.WithRowPayload(),
		testsupport.WithClock(func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }),
	)

	settings := config.Default()
	settings.Backend.BaseURL = backend.URL()
	settings.Backend.ValidateResponses = true
	settings.Download.Dir = t.TempDir()
	settings.Form.Years = []string{"2020"}

	var logs bytes.Buffer
	w, err := NewWire(context.Background(), Config{Settings: settings, HTTP: backend.Client(), LogOutput: &logs})
	if err != nil {
		t.Fatalf("wire: %v", err)
	}

	_ = w.Document.Select(portal.YearsID, "2020")
	if err := w.Loader.Load(context.Background()).Wait(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	_ = w.Document.Select(portal.NamesID, "Byrd")
	_ = w.Document.Select(portal.MeasID, "temperature")

	dispatch, err := w.Dispatcher.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := dispatch.NavigationErr(); err != nil {
		t.Fatalf("download: %v", err)
	}
	if err := dispatch.Wait(context.Background()); err != nil {
		t.Fatalf("citation: %v", err)
	}

	saved := filepath.Join(settings.Download.Dir, "AMRDC_AWS_datawarehouse_2024-01-02.csv")
	if _, err := os.Stat(saved); err != nil {
		t.Fatalf("download not saved: %v", err)
	}
	if !strings.Contains(dispatch.Citation(), "data, 2020. AMRDC Data Repository, accessed 2024-01-02") {
		t.Fatalf("unexpected citation %q", dispatch.Citation())
	}

	rec := httptest.NewRecorder()
	w.MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`stationform_station_loads_total{outcome="applied"} 1`,
		`stationform_citations_total{outcome="applied"} 1`,
		`stationform_navigations_total{outcome="ok"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestNewWire_CustomNavigatorAndContractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portal.yaml")
	doc := `openapi: 3.0.3
info: {title: Local, version: "1"}
paths:
  /station_list:
    get:
      operationId: listStations
      responses:
        "200":
          description: ok
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	settings := config.Default()
	settings.Backend.Contract = path
	nav := &testsupport.Navigator{}
	w, err := NewWire(context.Background(), Config{Settings: settings, Navigator: nav, Logger: testsupport.NewLogger()})
	if err != nil {
		t.Fatalf("wire: %v", err)
	}
	if w.Contract.Title() != "Local" {
		t.Fatalf("contract title = %q", w.Contract.Title())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	dispatch, err := w.Dispatcher.Generate(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(nav.Targets()) != 1 || nav.Targets()[0] != dispatch.Target() {
		t.Fatalf("custom navigator not used: %#v", nav.Targets())
	}
	_ = dispatch.Wait(ctx)
}

func TestNewWire_InvalidSettings(t *testing.T) {
	settings := config.Default()
	settings.Form.Formats = nil
	if _, err := NewWire(context.Background(), Config{Settings: settings}); err == nil {
		t.Fatalf("expected validation error")
	}

	settings = config.Default()
	settings.Backend.Contract = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewWire(context.Background(), Config{Settings: settings}); err == nil {
		t.Fatalf("expected contract error")
	}
}
