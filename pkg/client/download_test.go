package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-stationform/pkg/testsupport"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
}

func TestDownloader_UsesAttachmentName(t *testing.T) {
	backend := testsupport.NewBackend(t, testsupport.WithClock(fixedClock))
	logger := testsupport.NewLogger()
	dir := t.TempDir()
	d := &Downloader{HTTP: backend.Client(), Dir: dir, Base: backend.URL(), Logger: logger}

	target := DownloadTarget(DefaultPaths(), DownloadQuery{
		Years:        []string{"2020"},
		Stations:     []string{"1001", "1002"},
		Measurements: []string{"temperature"},
		Format:       "csv",
	})
	path, err := d.Download(context.Background(), target)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if want := filepath.Join(dir, "AMRDC_AWS_datawarehouse_2024-03-09.csv"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "name,datetime,temperature\n1001,2020-01-01 00:00\n1002,2020-01-01 00:00\n"
	if string(data) != want {
		t.Fatalf("body = %q, want %q", data, want)
	}
	if len(logger.Level("info")) != 1 {
		t.Fatalf("expected one info entry, got %#v", logger.Entries())
	}
}

func TestDownloader_FallbackNameAndTraversal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") == "tsv" {
			w.Header().Set("Content-Disposition", `attachment; filename="../../escape.tsv"`)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	d := &Downloader{HTTP: srv.Client(), Dir: dir, Now: fixedClock}

	path, err := d.Download(context.Background(), srv.URL+"/download?year=2020&station=&meas=&format=ods")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if filepath.Base(path) != "AMRDC_AWS_datawarehouse_2024-03-09.ods" {
		t.Fatalf("unexpected fallback name %q", path)
	}

	path, err = d.Download(context.Background(), srv.URL+"/download?format=tsv")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if filepath.Dir(path) != dir || filepath.Base(path) != "escape.tsv" {
		t.Fatalf("download escaped dir: %q", path)
	}
}

func TestDownloader_Errors(t *testing.T) {
	backend := testsupport.NewBackend(t)
	d := &Downloader{HTTP: backend.Client(), Dir: t.TempDir()}

	if err := d.Navigate(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty target")
	}
	if err := d.Navigate(context.Background(), "/download?year=2020"); err == nil || !strings.Contains(err.Error(), "base url") {
		t.Fatalf("expected base url error, got %v", err)
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	d = &Downloader{HTTP: srv.Client(), Dir: t.TempDir(), Base: srv.URL}
	if err := d.Navigate(context.Background(), "/download?year=2020"); err == nil {
		t.Fatalf("expected status error")
	}
	entries, _ := os.ReadDir(d.Dir)
	if len(entries) != 0 {
		t.Fatalf("failed download left files: %v", entries)
	}
}
