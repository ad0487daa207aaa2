package portal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-stationform/pkg/citation"
	"github.com/goliatone/go-stationform/pkg/client"
	"github.com/goliatone/go-stationform/pkg/logging"
	"github.com/goliatone/go-stationform/pkg/page"
)

// Navigator follows a download target. In a browser this is assigning
// window.location; the CLI downloads the file instead.
type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, target string) error

func (f NavigatorFunc) Navigate(ctx context.Context, target string) error {
	return f(ctx, target)
}

// Backend is the part of the warehouse client the dispatcher needs.
type Backend interface {
	DownloadURL(q client.DownloadQuery) string
	Citation(ctx context.Context, years []string) (string, error)
}

// Dispatcher turns the current form state into a download navigation and a
// citation box update.
type Dispatcher struct {
	doc      *page.Document
	backend  Backend
	nav      Navigator
	renderer MarkupRenderer
	logger   logging.Logger
	metrics  *Metrics

	gen    atomic.Uint64
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewDispatcher binds a dispatcher to doc. The citation box uses the default
// citation renderer unless WithRenderer is given.
func NewDispatcher(doc *page.Document, backend Backend, nav Navigator, opts ...Option) (*Dispatcher, error) {
	if doc == nil {
		return nil, errors.New("portal: dispatcher requires a document")
	}
	if backend == nil {
		return nil, errors.New("portal: dispatcher requires a backend")
	}
	if nav == nil {
		return nil, errors.New("portal: dispatcher requires a navigator")
	}
	o := buildOptions(opts)
	if o.renderer == nil {
		r, err := citation.New()
		if err != nil {
			return nil, fmt.Errorf("portal: citation renderer: %w", err)
		}
		o.renderer = r
	}
	return &Dispatcher{
		doc:      doc,
		backend:  backend,
		nav:      nav,
		renderer: o.renderer,
		logger:   o.logger,
		metrics:  o.metrics,
	}, nil
}

// ReadQuery collects the download parameters from the form.
func ReadQuery(doc *page.Document) (client.DownloadQuery, error) {
	var q client.DownloadQuery
	var err error
	if q.Years, err = SelectedValues(doc, YearsID); err != nil {
		return q, err
	}
	if q.Stations, err = SelectedValues(doc, NamesID); err != nil {
		return q, err
	}
	if q.Measurements, err = SelectedValues(doc, MeasID); err != nil {
		return q, err
	}
	if q.Format, err = doc.Value(FormatID); err != nil {
		return q, err
	}
	return q, nil
}

// Generate reads the form, starts the citation request, and then navigates to
// the download target. Form lookup failures are returned; backend failures
// are logged and reported through the returned Dispatch only.
func (d *Dispatcher) Generate(ctx context.Context) (*Dispatch, error) {
	q, err := ReadQuery(d.doc)
	if err != nil {
		d.logger.Error(ctx, "read download form", logging.Err(err))
		return nil, err
	}

	dispatch := &Dispatch{
		target: d.backend.DownloadURL(q),
		done:   make(chan struct{}),
	}

	citeCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.cancel = cancel
	dispatch.gen = d.gen.Add(1)
	d.mu.Unlock()

	go d.cite(citeCtx, cancel, dispatch, q.Years)

	navErr := d.nav.Navigate(ctx, dispatch.target)
	d.metrics.navigation(navErr)
	if navErr != nil {
		d.logger.Error(ctx, "navigate to download", logging.String("target", dispatch.target), logging.Err(navErr))
	}
	dispatch.navErr = navErr
	return dispatch, nil
}

func (d *Dispatcher) cite(ctx context.Context, cancel context.CancelFunc, dispatch *Dispatch, years []string) {
	defer cancel()
	log := d.logger.With(logging.Any("generation", dispatch.gen), logging.String("years", JoinSelection(years)))

	fail := func(msg string, err error) {
		if d.gen.Load() != dispatch.gen {
			log.Debug(ctx, "superseded citation request ended", logging.Err(err))
			d.metrics.citation(OutcomeStale)
			dispatch.finish("", nil, true)
			return
		}
		log.Error(ctx, msg, logging.Err(err))
		d.metrics.citation(OutcomeFailed)
		dispatch.finish("", err, false)
	}

	text, err := d.backend.Citation(ctx, years)
	if err != nil {
		fail("citation request failed", err)
		return
	}
	markup, err := d.renderer.Render(text)
	if err != nil {
		fail("render citation", err)
		return
	}

	applied := false
	err = d.doc.Replace(func(tx *page.Tx) error {
		if d.gen.Load() != dispatch.gen {
			return nil
		}
		applied = true
		return tx.Reveal(CitationBoxID, markup)
	})
	switch {
	case err != nil:
		log.Error(ctx, "reveal citation box", logging.Err(err))
		d.metrics.citation(OutcomeFailed)
		dispatch.finish("", err, false)
	case !applied:
		log.Debug(ctx, "discarded superseded citation")
		d.metrics.citation(OutcomeStale)
		dispatch.finish("", nil, true)
	default:
		d.metrics.citation(OutcomeApplied)
		dispatch.finish(text, nil, false)
	}
}

// Dispatch tracks one Generate call.
type Dispatch struct {
	gen    uint64
	target string
	navErr error

	done     chan struct{}
	citation string
	err      error
	stale    bool
}

// Target returns the download URL that was navigated to.
func (d *Dispatch) Target() string { return d.target }

// Generation returns the citation token of this dispatch.
func (d *Dispatch) Generation() uint64 { return d.gen }

// NavigationErr returns the navigator's failure, if any.
func (d *Dispatch) NavigationErr() error { return d.navErr }

// Done is closed once the citation request has settled.
func (d *Dispatch) Done() <-chan struct{} { return d.done }

// Wait blocks until the citation request settles and returns its failure.
func (d *Dispatch) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Citation returns the citation text shown in the box, or "" when it was not
// applied. It blocks until the citation request settles.
func (d *Dispatch) Citation() string {
	<-d.done
	return d.citation
}

// Stale reports whether a newer dispatch superseded this one's citation. It
// blocks until the citation request settles.
func (d *Dispatch) Stale() bool {
	<-d.done
	return d.stale
}

func (d *Dispatch) finish(text string, err error, stale bool) {
	d.citation = text
	d.err = err
	d.stale = stale
	close(d.done)
}
