package page

import (
	"errors"
	"fmt"
)

var (
	// ErrControlNotFound is matched by every LookupError.
	ErrControlNotFound = errors.New("page: control not found")
	// ErrOptionNotFound signals a selection of a value the control does not offer.
	ErrOptionNotFound = errors.New("page: option not found")
	// ErrDuplicateControl is returned when an identifier is registered twice.
	ErrDuplicateControl = errors.New("page: duplicate control")
)

// Kind identifies the family of control a lookup expected.
type Kind string

const (
	KindSelect    Kind = "select"
	KindScalar    Kind = "scalar"
	KindContainer Kind = "container"
)

// LookupError reports an identifier that does not resolve to a control of the
// expected kind.
type LookupError struct {
	ID   string
	Kind Kind
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("page: no %s control with id %q", e.Kind, e.ID)
}

func (e *LookupError) Unwrap() error { return ErrControlNotFound }
