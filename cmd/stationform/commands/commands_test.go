package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-stationform/internal/app"
	"github.com/goliatone/go-stationform/pkg/testsupport"
)

type cliRun struct {
	out string
	err error
	nav *testsupport.Navigator
}

func runCLI(t *testing.T, backend *testsupport.Backend, args ...string) cliRun {
	t.Helper()
	nav := &testsupport.Navigator{}
	root := newRoot(func(cfg *app.Config) {
		cfg.HTTP = backend.Client()
		cfg.Navigator = nav
	})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--base-url", backend.URL()}, args...))
	err := root.ExecuteContext(context.Background())
	return cliRun{out: out.String(), err: err, nav: nav}
}

func fixedClock() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }

func TestStationsCommand(t *testing.T) {
	backend := testsupport.NewBackend(t,
		testsupport.WithStations("2020", "Byrd", "Alexander Tall Tower"),
		testsupport.WithStations("2021", "Byrd", "Gill"),
	)

	run := runCLI(t, backend, "stations", "--year", "2020,2021")
	if run.err != nil {
		t.Fatalf("stations: %v", run.err)
	}
	got := strings.Fields(strings.ReplaceAll(run.out, " ", "_"))
	want := []string{"Alexander_Tall_Tower", "Byrd", "Gill"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("stations = %v, want %v", got, want)
	}
	if reqs := backend.RequestsTo("/station_list"); len(reqs) != 1 || reqs[0].RawQuery != "year=2020,2021" {
		t.Fatalf("unexpected station requests %+v", reqs)
	}
}

func TestStationsCommand_RequiresYear(t *testing.T) {
	backend := testsupport.NewBackend(t)
	if run := runCLI(t, backend, "stations"); run.err == nil {
		t.Fatal("expected missing --year to fail")
	}
}

func TestGenerateCommand_DryRun(t *testing.T) {
	backend := testsupport.NewBackend(t,
		testsupport.WithStations("2020", "Alexander Tall Tower", "Byrd"),
	)

	run := runCLI(t, backend, "generate", "--dry-run",
		"--year", "2020",
		"--station", "Alexander Tall Tower", "--station", "Byrd",
		"--meas", "temperature,pressure",
		"--format", "tsv",
	)
	if run.err != nil {
		t.Fatalf("generate: %v", run.err)
	}
	want := backend.URL() + "/download?year=2020&station=Alexander+Tall+Tower,Byrd&meas=temperature,pressure&format=tsv"
	if strings.TrimSpace(run.out) != want {
		t.Fatalf("dry run printed %q, want %q", strings.TrimSpace(run.out), want)
	}
	if len(backend.RequestsTo("/download")) != 0 || len(backend.RequestsTo("/citation")) != 0 {
		t.Fatal("dry run must not contact download or citation routes")
	}
}

func TestGenerateCommand_Dispatches(t *testing.T) {
	backend := testsupport.NewBackend(t,
		testsupport.WithStations("2020", "Byrd"),
		testsupport.WithClock(fixedClock),
	)

	run := runCLI(t, backend, "generate", "--year", "2020", "--station", "Byrd", "--meas", "temperature")
	if run.err != nil {
		t.Fatalf("generate: %v", run.err)
	}
	targets := run.nav.Targets()
	want := backend.URL() + "/download?year=2020&station=Byrd&meas=temperature&format=csv"
	if len(targets) != 1 || targets[0] != want {
		t.Fatalf("navigated to %v", targets)
	}
	if !strings.Contains(run.out, "Recommended Citation:\n") {
		t.Fatalf("caption missing from output:\n%s", run.out)
	}
	if !strings.Contains(run.out, "observational data, 2020. AMRDC Data Repository, accessed 2024-01-02") {
		t.Fatalf("citation missing from output:\n%s", run.out)
	}
}

func TestGenerateCommand_RejectsUnknownFormat(t *testing.T) {
	backend := testsupport.NewBackend(t, testsupport.WithStations("2020", "Byrd"))
	run := runCLI(t, backend, "generate", "--dry-run", "--year", "2020", "--station", "Byrd", "--meas", "temperature", "--format", "pdf")
	if run.err == nil || !strings.Contains(run.err.Error(), `format "pdf" is not offered`) {
		t.Fatalf("expected format rejection, got %v", run.err)
	}
}

func TestCitationCommand(t *testing.T) {
	backend := testsupport.NewBackend(t, testsupport.WithCitation("Smith & Jones <b>2020</b>"))

	plain := runCLI(t, backend, "citation", "--year", "2020")
	if plain.err != nil {
		t.Fatalf("citation: %v", plain.err)
	}
	if strings.TrimSpace(plain.out) != "Smith & Jones 2020" {
		t.Fatalf("plain citation = %q", plain.out)
	}

	markup := runCLI(t, backend, "citation", "--year", "2020", "--markup")
	if markup.err != nil {
		t.Fatalf("citation --markup: %v", markup.err)
	}
	want := "<caption><b>Recommended Citation</b></caption><p>Smith &amp; Jones &lt;b&gt;2020&lt;/b&gt;</p>"
	if strings.TrimSpace(markup.out) != want {
		t.Fatalf("markup = %q, want %q", strings.TrimSpace(markup.out), want)
	}
}

func TestCitationCommand_BackendFailure(t *testing.T) {
	backend := testsupport.NewBackend(t, testsupport.WithCitationStatus(500))
	if run := runCLI(t, backend, "citation", "--year", "2020"); run.err == nil {
		t.Fatal("expected citation failure")
	}
}

func TestContractCommand(t *testing.T) {
	backend := testsupport.NewBackend(t)
	run := runCLI(t, backend, "contract")
	if run.err != nil {
		t.Fatalf("contract: %v", run.err)
	}
	for _, want := range []string{"AMRDC AWS data warehouse", "METHOD", "/station_list", "listStations", "/citation", "generateCitation", "/download"} {
		if !strings.Contains(run.out, want) {
			t.Fatalf("contract output missing %q:\n%s", want, run.out)
		}
	}
}
