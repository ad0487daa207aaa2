package portal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-stationform/pkg/page"
)

// Control identifiers of the download form.
const (
	YearsID       = "years"
	NamesID       = "names"
	MeasID        = "meas"
	FormatID      = "format"
	CitationBoxID = "citation_box"
)

// Choice is a selectable value with a display label.
type Choice struct {
	Value string
	Label string
}

// FormSpec describes the static content of the download form.
type FormSpec struct {
	Years         []string
	Measurements  []Choice
	Formats       []string
	DefaultFormat string
}

// DefaultMeasurements lists the warehouse columns offered for download.
func DefaultMeasurements() []Choice {
	return []Choice{
		{Value: "temperature", Label: "temperature"},
		{Value: "pressure", Label: "pressure"},
		{Value: "wind_speed", Label: "wind speed"},
		{Value: "wind_direction", Label: "wind direction"},
		{Value: "humidity", Label: "humidity"},
		{Value: "delta_t", Label: "delta t"},
	}
}

// DefaultFormats lists the spreadsheet formats the backend can produce.
func DefaultFormats() []string {
	return []string{"csv", "tsv", "xlsx", "xls", "ods"}
}

// Validate checks that the spec can build a usable page.
func (s FormSpec) Validate() error {
	var errs []error
	if len(s.Years) == 0 {
		errs = append(errs, errors.New("at least one year is required"))
	}
	if len(s.Measurements) == 0 {
		errs = append(errs, errors.New("at least one measurement is required"))
	}
	if len(s.Formats) == 0 {
		errs = append(errs, errors.New("at least one format is required"))
	}
	if s.DefaultFormat != "" && !contains(s.Formats, s.DefaultFormat) {
		errs = append(errs, fmt.Errorf("default format %q is not offered", s.DefaultFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("portal: invalid form: %w", errors.Join(errs...))
	}
	return nil
}

// NewDocument builds the form page: three multi-selects, the format scalar
// and the hidden citation box. The station control starts empty.
func NewDocument(spec FormSpec) (*page.Document, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	format := strings.TrimSpace(spec.DefaultFormat)
	if format == "" {
		format = spec.Formats[0]
	}

	years := make([]page.Option, len(spec.Years))
	for i, y := range spec.Years {
		years[i] = page.Option{Value: y, Label: y}
	}
	meas := make([]page.Option, len(spec.Measurements))
	for i, m := range spec.Measurements {
		label := m.Label
		if label == "" {
			label = m.Value
		}
		meas[i] = page.Option{Value: m.Value, Label: label}
	}

	doc := page.New()
	for _, step := range []func() error{
		func() error { return doc.AddSelect(YearsID, true, years...) },
		func() error { return doc.AddSelect(NamesID, true) },
		func() error { return doc.AddSelect(MeasID, true, meas...) },
		func() error { return doc.AddScalar(FormatID, format) },
		func() error { return doc.AddContainer(CitationBoxID) },
	} {
		if err := step(); err != nil {
			return nil, fmt.Errorf("portal: build page: %w", err)
		}
	}
	return doc, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
