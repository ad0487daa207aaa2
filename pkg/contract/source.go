package contract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// SourceKind enumerates where a contract document can be read from.
type SourceKind string

const (
	SourceKindEmbedded SourceKind = "embedded"
	SourceKindFile     SourceKind = "file"
	SourceKindFS       SourceKind = "fs"
	SourceKindURL      SourceKind = "url"
)

// Source identifies the origin of a contract document.
type Source struct {
	kind     SourceKind
	location string
	fsys     fs.FS
}

func (s Source) Kind() SourceKind { return s.kind }
func (s Source) Location() string { return s.location }

// EmbeddedSource points at the document shipped with the package.
func EmbeddedSource() Source {
	return Source{kind: SourceKindEmbedded, location: embeddedName, fsys: embedded}
}

// SourceFromFile points at a document on disk.
func SourceFromFile(path string) Source {
	return Source{kind: SourceKindFile, location: filepath.Clean(path)}
}

// SourceFromFS points at a document inside fsys.
func SourceFromFS(fsys fs.FS, name string) Source {
	return Source{kind: SourceKindFS, location: name, fsys: fsys}
}

// SourceFromURL validates raw and points at a remote document.
func SourceFromURL(raw string) (Source, error) {
	if raw == "" {
		return Source{}, errors.New("contract: empty URL source")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		return Source{}, fmt.Errorf("contract: invalid URL %q: %w", raw, err)
	}
	return Source{kind: SourceKindURL, location: raw}, nil
}

// LoadOptions configures remote reads.
type LoadOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
}

func read(ctx context.Context, src Source, opts LoadOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch src.kind {
	case SourceKindEmbedded, SourceKindFS:
		if src.fsys == nil {
			return nil, errors.New("contract: filesystem is not configured")
		}
		if src.location == "" {
			return nil, errors.New("contract: fs path is required")
		}
		return fs.ReadFile(src.fsys, src.location)
	case SourceKindFile:
		if src.location == "" || src.location == "." {
			return nil, errors.New("contract: file path is required")
		}
		return os.ReadFile(src.location)
	case SourceKindURL:
		return readHTTP(ctx, opts, src.location)
	default:
		return nil, fmt.Errorf("contract: unsupported source kind %q", src.kind)
	}
}

func readHTTP(ctx context.Context, opts LoadOptions, target string) ([]byte, error) {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	reqCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("contract: unexpected status " + resp.Status)
	}
	return io.ReadAll(resp.Body)
}
