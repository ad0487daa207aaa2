// Package config loads the stationform YAML configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-stationform/pkg/client"
	"github.com/goliatone/go-stationform/pkg/portal"
)

// Config is the full runtime configuration.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Form     FormConfig     `yaml:"form"`
	Citation CitationConfig `yaml:"citation"`
	Download DownloadConfig `yaml:"download"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// BackendConfig locates the warehouse backend.
type BackendConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	Retries           uint          `yaml:"retries"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	ValidateResponses bool          `yaml:"validate_responses"`
	Contract          string        `yaml:"contract"` // optional file path or URL
	UserAgent         string        `yaml:"user_agent"`
	Paths             client.Paths  `yaml:"paths"`
}

// Measurement is one downloadable column.
type Measurement struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// FormConfig lists the static form choices.
type FormConfig struct {
	Years         []string      `yaml:"years"`
	Measurements  []Measurement `yaml:"measurements"`
	Formats       []string      `yaml:"formats"`
	DefaultFormat string        `yaml:"default_format"`
}

// CitationConfig controls the citation box.
type CitationConfig struct {
	Caption       string            `yaml:"caption"`
	TrustedMarkup bool              `yaml:"trusted_markup"`
	CSSVars       map[string]string `yaml:"css_vars"`
}

// DownloadConfig controls where downloads are written.
type DownloadConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig optionally exposes Prometheus metrics over HTTP.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	measurements := portal.DefaultMeasurements()
	meas := make([]Measurement, len(measurements))
	for i, m := range measurements {
		meas[i] = Measurement{Value: m.Value, Label: m.Label}
	}
	return Config{
		Backend: BackendConfig{
			BaseURL:       "http://127.0.0.1:8000",
			Timeout:       30 * time.Second,
			Retries:       1,
			RetryInterval: 250 * time.Millisecond,
			Paths:         client.DefaultPaths(),
		},
		Form: FormConfig{
			Years:         []string{"2019", "2020", "2021", "2022", "2023"},
			Measurements:  meas,
			Formats:       portal.DefaultFormats(),
			DefaultFormat: "csv",
		},
		Citation: CitationConfig{Caption: "Recommended Citation"},
		Download: DownloadConfig{Dir: "."},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads and validates the file at path on top of Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, cfg.Validate()
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if base := strings.TrimSpace(c.Backend.BaseURL); base != "" {
		u, err := url.Parse(base)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("backend.base_url %q must be an http(s) url", base))
		}
	}
	if c.Backend.Timeout < 0 {
		errs = append(errs, errors.New("backend.timeout must not be negative"))
	}
	for i, m := range c.Form.Measurements {
		if strings.TrimSpace(m.Value) == "" {
			errs = append(errs, fmt.Errorf("form.measurements[%d].value is required", i))
		}
	}
	if err := c.FormSpec().Validate(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not recognised", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid: %w", errors.Join(errs...))
	}
	return nil
}

// FormSpec converts the form section for portal.NewDocument.
func (c Config) FormSpec() portal.FormSpec {
	meas := make([]portal.Choice, len(c.Form.Measurements))
	for i, m := range c.Form.Measurements {
		meas[i] = portal.Choice{Value: m.Value, Label: m.Label}
	}
	return portal.FormSpec{
		Years:         append([]string(nil), c.Form.Years...),
		Measurements:  meas,
		Formats:       append([]string(nil), c.Form.Formats...),
		DefaultFormat: c.Form.DefaultFormat,
	}
}
