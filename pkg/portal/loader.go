package portal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-stationform/pkg/logging"
	"github.com/goliatone/go-stationform/pkg/page"
)

// StationSource returns the station identifiers observed in years.
type StationSource interface {
	Stations(ctx context.Context, years []string) ([]string, error)
}

// StationLoader repopulates the station control whenever the year selection
// changes. Each Load takes a new generation; only the latest generation may
// write to the control, so overlapping loads resolve last-writer-wins.
type StationLoader struct {
	doc     *page.Document
	src     StationSource
	logger  logging.Logger
	metrics *Metrics

	gen    atomic.Uint64
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewStationLoader binds a loader to doc and src.
func NewStationLoader(doc *page.Document, src StationSource, opts ...Option) (*StationLoader, error) {
	if doc == nil {
		return nil, errors.New("portal: station loader requires a document")
	}
	if src == nil {
		return nil, errors.New("portal: station loader requires a station source")
	}
	o := buildOptions(opts)
	return &StationLoader{
		doc:     doc,
		src:     src,
		logger:  o.logger,
		metrics: o.metrics,
	}, nil
}

// Generation returns the token of the most recent Load.
func (l *StationLoader) Generation() uint64 { return l.gen.Load() }

// Load reads the selected years, clears the station control before
// returning, and fetches the matching stations in the background. A previous
// in-flight load is cancelled and its result discarded.
func (l *StationLoader) Load(ctx context.Context) *Job {
	job := &Job{done: make(chan struct{})}

	years, err := SelectedValues(l.doc, YearsID)
	if err != nil {
		l.logger.Error(ctx, "read year selection", logging.Err(err))
		job.finish(err, false, 0)
		return job
	}

	fetchCtx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.cancel = cancel
	job.gen = l.gen.Add(1)
	err = l.doc.ClearOptions(NamesID)
	l.mu.Unlock()

	if err != nil {
		cancel()
		l.logger.Error(ctx, "clear station control", logging.Err(err))
		job.finish(err, false, 0)
		return job
	}

	go l.fetch(fetchCtx, cancel, job, years)
	return job
}

func (l *StationLoader) fetch(ctx context.Context, cancel context.CancelFunc, job *Job, years []string) {
	defer cancel()
	log := l.logger.With(logging.Any("generation", job.gen), logging.String("years", JoinSelection(years)))

	start := time.Now()
	ids, err := l.src.Stations(ctx, years)
	l.metrics.stationLoadDuration(time.Since(start))

	if err != nil {
		if l.gen.Load() != job.gen {
			log.Debug(ctx, "superseded station request ended", logging.Err(err))
			l.metrics.stationLoad(OutcomeStale)
			job.finish(nil, true, 0)
			return
		}
		log.Error(ctx, "station list request failed", logging.Err(err))
		l.metrics.stationLoad(OutcomeFailed)
		job.finish(err, false, 0)
		return
	}

	opts := make([]page.Option, len(ids))
	for i, id := range ids {
		opts[i] = page.Option{Value: id, Label: id}
	}

	applied := false
	err = l.doc.Replace(func(tx *page.Tx) error {
		if l.gen.Load() != job.gen {
			return nil
		}
		applied = true
		return tx.AppendOptions(NamesID, opts...)
	})
	switch {
	case err != nil:
		log.Error(ctx, "apply station list", logging.Err(err))
		l.metrics.stationLoad(OutcomeFailed)
		job.finish(err, false, 0)
	case !applied:
		log.Debug(ctx, "discarded superseded station list", logging.Int("stations", len(ids)))
		l.metrics.stationLoad(OutcomeStale)
		job.finish(nil, true, 0)
	default:
		log.Debug(ctx, "station list applied", logging.Int("stations", len(ids)))
		l.metrics.stationLoad(OutcomeApplied)
		job.finish(nil, false, len(ids))
	}
}

// Job tracks one Load.
type Job struct {
	gen     uint64
	done    chan struct{}
	err     error
	stale   bool
	applied int
}

// Generation returns the token the load was issued with. Zero means the load
// failed before it was issued.
func (j *Job) Generation() uint64 { return j.gen }

// Done is closed once the load has settled.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the load settles and returns its failure, if any. A
// superseded load settles without error.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stale reports whether a newer load superseded this one. It blocks until the
// load settles.
func (j *Job) Stale() bool {
	<-j.done
	return j.stale
}

// Applied returns the number of options appended. It blocks until the load
// settles.
func (j *Job) Applied() int {
	<-j.done
	return j.applied
}

func (j *Job) finish(err error, stale bool, applied int) {
	j.err = err
	j.stale = stale
	j.applied = applied
	close(j.done)
}
