package page

import (
	"fmt"
	"strings"
	"sync"
)

// Option is a single entry of a select control.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Container is a snapshot of a display element.
type Container struct {
	Visible bool
	Markup  string
}

type selectControl struct {
	multiple bool
	options  []Option
}

// Document holds the controls of one form page.
type Document struct {
	mu         sync.RWMutex
	selects    map[string]*selectControl
	scalars    map[string]string
	containers map[string]*Container
}

// New returns an empty document.
func New() *Document {
	return &Document{
		selects:    make(map[string]*selectControl),
		scalars:    make(map[string]string),
		containers: make(map[string]*Container),
	}
}

// AddSelect registers a select control seeded with opts. Single-select
// controls keep at most the last selected option.
func (d *Document) AddSelect(id string, multiple bool, opts ...Option) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.claim(id); err != nil {
		return err
	}
	ctrl := &selectControl{multiple: multiple}
	ctrl.append(opts)
	d.selects[id] = ctrl
	return nil
}

// AddScalar registers a scalar control with an initial value.
func (d *Document) AddScalar(id, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.claim(id); err != nil {
		return err
	}
	d.scalars[id] = value
	return nil
}

// AddContainer registers a hidden, empty container.
func (d *Document) AddContainer(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.claim(id); err != nil {
		return err
	}
	d.containers[id] = &Container{}
	return nil
}

// Options returns a copy of the options of a select control in document order.
func (d *Document) Options(id string) ([]Option, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ctrl, err := d.lookupSelect(id)
	if err != nil {
		return nil, err
	}
	return append([]Option(nil), ctrl.options...), nil
}

// SetOptions replaces every option of a select control.
func (d *Document) SetOptions(id string, opts []Option) error {
	return d.Replace(func(tx *Tx) error { return tx.SetOptions(id, opts) })
}

// AppendOptions adds options after the existing ones.
func (d *Document) AppendOptions(id string, opts ...Option) error {
	return d.Replace(func(tx *Tx) error { return tx.AppendOptions(id, opts...) })
}

// ClearOptions removes every option, and with them any selection.
func (d *Document) ClearOptions(id string) error {
	return d.Replace(func(tx *Tx) error { return tx.ClearOptions(id) })
}

// Select marks exactly the given values as selected. Unknown values fail with
// ErrOptionNotFound and leave the control untouched.
func (d *Document) Select(id string, values ...string) error {
	return d.Replace(func(tx *Tx) error { return tx.Select(id, values...) })
}

// Value returns the current value of a scalar control.
func (d *Document) Value(id string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	value, ok := d.scalars[id]
	if !ok {
		return "", &LookupError{ID: id, Kind: KindScalar}
	}
	return value, nil
}

// SetValue assigns a scalar control.
func (d *Document) SetValue(id, value string) error {
	return d.Replace(func(tx *Tx) error { return tx.SetValue(id, value) })
}

// Container returns a snapshot of a container.
func (d *Document) Container(id string) (Container, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.containers[id]
	if !ok {
		return Container{}, &LookupError{ID: id, Kind: KindContainer}
	}
	return *c, nil
}

// Reveal makes a container visible and replaces its markup.
func (d *Document) Reveal(id, markup string) error {
	return d.Replace(func(tx *Tx) error { return tx.Reveal(id, markup) })
}

// Hide makes a container invisible without touching its markup.
func (d *Document) Hide(id string) error {
	return d.Replace(func(tx *Tx) error { return tx.Hide(id) })
}

// Replace runs fn with exclusive access to the document so a batch of reads
// and writes is observed atomically by other callers.
func (d *Document) Replace(fn func(tx *Tx) error) error {
	if fn == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(&Tx{doc: d})
}

func (d *Document) claim(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("page: control id is required")
	}
	_, isSelect := d.selects[id]
	_, isScalar := d.scalars[id]
	_, isContainer := d.containers[id]
	if isSelect || isScalar || isContainer {
		return fmt.Errorf("%w: %q", ErrDuplicateControl, id)
	}
	return nil
}

func (d *Document) lookupSelect(id string) (*selectControl, error) {
	ctrl, ok := d.selects[id]
	if !ok {
		return nil, &LookupError{ID: id, Kind: KindSelect}
	}
	return ctrl, nil
}

// Tx is the mutation handle passed to Replace. It must not escape the
// callback.
type Tx struct {
	doc *Document
}

// Options mirrors Document.Options inside a batch.
func (tx *Tx) Options(id string) ([]Option, error) {
	ctrl, err := tx.doc.lookupSelect(id)
	if err != nil {
		return nil, err
	}
	return append([]Option(nil), ctrl.options...), nil
}

func (tx *Tx) SetOptions(id string, opts []Option) error {
	ctrl, err := tx.doc.lookupSelect(id)
	if err != nil {
		return err
	}
	ctrl.options = nil
	ctrl.append(opts)
	return nil
}

func (tx *Tx) AppendOptions(id string, opts ...Option) error {
	ctrl, err := tx.doc.lookupSelect(id)
	if err != nil {
		return err
	}
	ctrl.append(opts)
	return nil
}

func (tx *Tx) ClearOptions(id string) error {
	ctrl, err := tx.doc.lookupSelect(id)
	if err != nil {
		return err
	}
	ctrl.options = nil
	return nil
}

func (tx *Tx) Select(id string, values ...string) error {
	ctrl, err := tx.doc.lookupSelect(id)
	if err != nil {
		return err
	}
	if !ctrl.multiple && len(values) > 1 {
		return fmt.Errorf("page: control %q accepts a single selection, got %d", id, len(values))
	}

	wanted := make(map[string]struct{}, len(values))
	for _, v := range values {
		wanted[v] = struct{}{}
	}
	found := make(map[string]struct{}, len(values))
	for _, opt := range ctrl.options {
		if _, ok := wanted[opt.Value]; ok {
			found[opt.Value] = struct{}{}
		}
	}
	for _, v := range values {
		if _, ok := found[v]; !ok {
			return fmt.Errorf("%w: %q in control %q", ErrOptionNotFound, v, id)
		}
	}

	for i := range ctrl.options {
		_, ok := wanted[ctrl.options[i].Value]
		ctrl.options[i].Selected = ok
	}
	return nil
}

func (tx *Tx) Value(id string) (string, error) {
	value, ok := tx.doc.scalars[id]
	if !ok {
		return "", &LookupError{ID: id, Kind: KindScalar}
	}
	return value, nil
}

func (tx *Tx) SetValue(id, value string) error {
	if _, ok := tx.doc.scalars[id]; !ok {
		return &LookupError{ID: id, Kind: KindScalar}
	}
	tx.doc.scalars[id] = value
	return nil
}

func (tx *Tx) Reveal(id, markup string) error {
	c, ok := tx.doc.containers[id]
	if !ok {
		return &LookupError{ID: id, Kind: KindContainer}
	}
	c.Visible = true
	c.Markup = markup
	return nil
}

func (tx *Tx) Hide(id string) error {
	c, ok := tx.doc.containers[id]
	if !ok {
		return &LookupError{ID: id, Kind: KindContainer}
	}
	c.Visible = false
	return nil
}

func (c *selectControl) append(opts []Option) {
	for _, opt := range opts {
		if opt.Selected && !c.multiple {
			for i := range c.options {
				c.options[i].Selected = false
			}
		}
		c.options = append(c.options, opt)
	}
}
