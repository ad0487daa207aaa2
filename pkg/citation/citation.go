// Package citation renders the recommended-citation box shown after a
// download request.
//
// The box markup is a fixed caption and paragraph. Citation text is escaped
// by default; WithTrustedMarkup keeps a sanitised subset of HTML instead.
package citation

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultCaption heads the citation box.
const DefaultCaption = "Recommended Citation"

const boxTemplate = `<caption><b>{{ caption }}</b></caption><p{% if style %} style="{{ style }}"{% endif %}>{{ text }}</p>`

// ErrEmptyCitation is returned when there is no text to render.
var ErrEmptyCitation = errors.New("citation: text is empty")

var (
	policyOnce   sync.Once
	ugcPolicy    *bluemonday.Policy
	strictPolicy *bluemonday.Policy
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
		strictPolicy = bluemonday.StrictPolicy()
	})
	return ugcPolicy, strictPolicy
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCaption overrides the caption. Blank keeps DefaultCaption.
func WithCaption(caption string) Option {
	return func(r *Renderer) {
		if trimmed := strings.TrimSpace(caption); trimmed != "" {
			r.caption = trimmed
		}
	}
}

// WithTrustedMarkup lets citation text carry inline HTML. It is sanitised with
// a user-generated-content policy before insertion.
func WithTrustedMarkup(enabled bool) Option {
	return func(r *Renderer) {
		r.trusted = enabled
	}
}

// WithTheme renders the theme CSS variables as an inline style on the
// paragraph.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(r *Renderer) {
		if cfg == nil {
			r.style = ""
			return
		}
		r.style = inlineStyle(cfg.CSSVars)
	}
}

// Renderer builds citation box markup.
type Renderer struct {
	tpl     *pongo2.Template
	caption string
	trusted bool
	style   string
}

// New compiles the box template.
func New(opts ...Option) (*Renderer, error) {
	tpl, err := pongo2.FromString(boxTemplate)
	if err != nil {
		return nil, fmt.Errorf("citation: parse template: %w", err)
	}
	r := &Renderer{tpl: tpl, caption: DefaultCaption}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Caption returns the configured caption.
func (r *Renderer) Caption() string { return r.caption }

// Render returns the box markup wrapping text. Text is inserted exactly as
// received apart from escaping or sanitising; it is not trimmed.
func (r *Renderer) Render(text string) (string, error) {
	if text == "" {
		return "", ErrEmptyCitation
	}

	var body any = text
	if r.trusted {
		ugc, _ := policies()
		body = pongo2.AsSafeValue(ugc.Sanitize(text))
	}

	out, err := r.tpl.Execute(pongo2.Context{
		"caption": r.caption,
		"text":    body,
		"style":   r.style,
	})
	if err != nil {
		return "", fmt.Errorf("citation: render: %w", err)
	}
	return out, nil
}

// PlainText strips markup for terminal display and decodes entities.
func PlainText(markup string) string {
	_, strict := policies()
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(markup)))
}

func inlineStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		if strings.HasPrefix(key, "--") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := strings.TrimSpace(vars[key])
		if value == "" || strings.ContainsAny(value, ";{}") {
			continue
		}
		parts = append(parts, key+": "+value)
	}
	return strings.Join(parts, "; ")
}
