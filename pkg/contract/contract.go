package contract

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed portal.yaml
var embedded embed.FS

const embeddedName = "portal.yaml"

var (
	// ErrUnknownOperation is returned when a method/path pair is not described.
	ErrUnknownOperation = errors.New("contract: unknown operation")
	// ErrUndeclaredResponse is returned when the status or media type has no schema.
	ErrUndeclaredResponse = errors.New("contract: undeclared response")
)

// Operation summarises one described route.
type Operation struct {
	ID      string
	Method  string
	Path    string
	Summary string
	Params  []string
}

// Contract wraps a loaded and validated OpenAPI document.
type Contract struct {
	spec   *openapi3.T
	source Source
}

// Load reads, parses, and validates the document at src.
func Load(ctx context.Context, src Source, opts LoadOptions) (*Contract, error) {
	data, err := read(ctx, src, opts)
	if err != nil {
		return nil, fmt.Errorf("contract: read %s: %w", src.Location(), err)
	}
	c, err := Parse(ctx, data)
	if err != nil {
		return nil, err
	}
	c.source = src
	return c, nil
}

// Parse builds a Contract from a JSON or YAML document.
func Parse(ctx context.Context, data []byte) (*Contract, error) {
	if len(data) == 0 {
		return nil, errors.New("contract: document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("contract: load document: %w", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("contract: validate: %w", err)
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("contract: document does not contain any paths")
	}
	return &Contract{spec: spec}, nil
}

var (
	defaultOnce     sync.Once
	defaultContract *Contract
	defaultErr      error
)

// Default returns the embedded contract. It's parsed once.
func Default() (*Contract, error) {
	defaultOnce.Do(func() {
		defaultContract, defaultErr = Load(context.Background(), EmbeddedSource(), LoadOptions{})
	})
	return defaultContract, defaultErr
}

// Source reports where the contract was loaded from.
func (c *Contract) Source() Source {
	if c == nil {
		return Source{}
	}
	return c.source
}

// Title returns the document title.
func (c *Contract) Title() string {
	if c == nil || c.spec.Info == nil {
		return ""
	}
	return c.spec.Info.Title
}

// Operations lists every described operation sorted by path then method.
func (c *Contract) Operations() []Operation {
	if c == nil || c.spec.Paths == nil {
		return nil
	}
	var out []Operation
	for path, item := range c.spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			entry := Operation{
				ID:      op.OperationID,
				Method:  strings.ToUpper(method),
				Path:    path,
				Summary: op.Summary,
			}
			for _, p := range op.Parameters {
				if p == nil || p.Value == nil {
					continue
				}
				entry.Params = append(entry.Params, p.Value.Name)
			}
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// ValidateResponse checks a decoded body against the schema declared for the
// given method, path, status, and media type. Bodies must be decoded the way
// encoding/json decodes into any. Routes without a response schema accept any
// body.
func (c *Contract) ValidateResponse(method, path string, status int, mediaType string, body any) error {
	if c == nil {
		return nil
	}
	op, err := c.operation(method, path)
	if err != nil {
		return err
	}
	if op.Responses == nil {
		return fmt.Errorf("%w: %s %s has no responses", ErrUndeclaredResponse, method, path)
	}
	ref := op.Responses.Status(status)
	if ref == nil {
		ref = op.Responses.Default()
	}
	if ref == nil || ref.Value == nil {
		return fmt.Errorf("%w: %s %s status %d", ErrUndeclaredResponse, method, path, status)
	}
	if len(ref.Value.Content) == 0 {
		return nil
	}

	mt := normaliseMediaType(mediaType)
	media := ref.Value.Content.Get(mt)
	if media == nil {
		return fmt.Errorf("%w: %s %s status %d media type %q", ErrUndeclaredResponse, method, path, status, mt)
	}
	if media.Schema == nil || media.Schema.Value == nil {
		return nil
	}
	if err := media.Schema.Value.VisitJSON(body); err != nil {
		return fmt.Errorf("contract: %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Contract) operation(method, path string) (*openapi3.Operation, error) {
	if c.spec.Paths == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownOperation, method, path)
	}
	item := c.spec.Paths.Map()[path]
	if item == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownOperation, method, path)
	}
	if method == "" {
		method = http.MethodGet
	}
	op := item.GetOperation(strings.ToUpper(method))
	if op == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownOperation, method, path)
	}
	return op, nil
}

func normaliseMediaType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "application/json"
	}
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	return mt
}
