package portal

import (
	"strings"

	"github.com/goliatone/go-stationform/pkg/client"
	"github.com/goliatone/go-stationform/pkg/page"
)

// SelectionSource exposes the options of select controls. *page.Document and
// *page.Tx both satisfy it.
type SelectionSource interface {
	Options(id string) ([]page.Option, error)
}

// SelectedValues returns the selected option values of control id in option
// order. It reads the live control on every call.
func SelectedValues(src SelectionSource, id string) ([]string, error) {
	opts, err := src.Options(id)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, opt := range opts {
		if opt.Selected {
			out = append(out, opt.Value)
		}
	}
	return out, nil
}

// ReadMulti returns the comma-joined selection of control id, or "" when
// nothing is selected. Values are joined verbatim.
func ReadMulti(src SelectionSource, id string) (string, error) {
	values, err := SelectedValues(src, id)
	if err != nil {
		return "", err
	}
	return JoinSelection(values), nil
}

// JoinSelection joins a selection set with the backend list separator.
func JoinSelection(values []string) string {
	return strings.Join(values, client.Separator)
}
