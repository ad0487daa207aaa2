package tui

import (
	"io"
	"strings"
)

// Theme holds optional prefixes the session adds to printed messages.
type Theme struct {
	PromptPrefix string
	InfoPrefix   string
	ErrorPrefix  string
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithOutput directs the default driver's messages to w.
func WithOutput(w io.Writer) Option {
	return func(s *Session) {
		s.out = w
	}
}

// WithFormats sets the download formats offered by the format prompt.
func WithFormats(formats ...string) Option {
	return func(s *Session) {
		if len(formats) > 0 {
			s.formats = append([]string(nil), formats...)
		}
	}
}

// WithCaption sets the heading printed above the citation.
func WithCaption(caption string) Option {
	return func(s *Session) {
		if trimmed := strings.TrimSpace(caption); trimmed != "" {
			s.caption = trimmed
		}
	}
}

// WithPageSize bounds how many options a select prompt shows at once.
func WithPageSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}
