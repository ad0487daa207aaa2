package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-stationform/pkg/logging"
)

// FilePrefix starts the fallback name of downloaded files.
const FilePrefix = "AMRDC_AWS_datawarehouse_"

// Downloader follows a download target and stores the response body in Dir.
// It is the terminal counterpart of navigating the browser to the target.
type Downloader struct {
	HTTP   *http.Client
	Dir    string
	Base   string // resolves relative targets
	Now    func() time.Time
	Logger logging.Logger
}

// Navigate downloads target and discards the saved path.
func (d *Downloader) Navigate(ctx context.Context, target string) error {
	_, err := d.Download(ctx, target)
	return err
}

// Download fetches target and returns the path of the written file.
func (d *Downloader) Download(ctx context.Context, target string) (string, error) {
	full, err := d.resolve(target)
	if err != nil {
		return "", err
	}

	hc := d.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return "", fmt.Errorf("client: download request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("client: GET %s: %w", full, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, URL: full}
	}

	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("client: download dir: %w", err)
	}

	name := attachmentName(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = d.fallbackName(full)
	}
	dest := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("client: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("client: write download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("client: close download: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("client: save download: %w", err)
	}

	if d.Logger != nil {
		d.Logger.Info(ctx, "download saved", logging.String("path", dest), logging.String("url", full))
	}
	return dest, nil
}

func (d *Downloader) resolve(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", errors.New("client: download target is empty")
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("client: parse download target: %w", err)
	}
	if u.IsAbs() {
		return target, nil
	}
	if d.Base == "" {
		return "", fmt.Errorf("client: relative download target %q needs a base url", target)
	}
	return strings.TrimRight(d.Base, "/") + target, nil
}

func (d *Downloader) fallbackName(full string) string {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	ext := "dat"
	if u, err := url.Parse(full); err == nil {
		if f := sanitiseName(u.Query().Get(ParamFormat)); f != "" {
			ext = f
		}
	}
	return FilePrefix + now().Format("2006-01-02") + "." + ext
}

func attachmentName(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return sanitiseName(params["filename"])
}

func sanitiseName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = filepath.Base(filepath.FromSlash(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
