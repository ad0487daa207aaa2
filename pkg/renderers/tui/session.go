// Package tui drives the station download form from a terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-stationform/pkg/citation"
	"github.com/goliatone/go-stationform/pkg/page"
	"github.com/goliatone/go-stationform/pkg/portal"
)

const defaultPageSize = 12

// Result summarises a completed session.
type Result struct {
	Target        string
	Citation      string
	NavigationErr error
	CitationErr   error
}

// Session walks the form cascade: years, then the stations those years
// offer, then measurements and format, then the download.
type Session struct {
	doc        *page.Document
	loader     *portal.StationLoader
	dispatcher *portal.Dispatcher

	driver   PromptDriver
	out      io.Writer
	formats  []string
	caption  string
	pageSize int
	theme    Theme
}

// NewSession binds a session to a form page and its controller.
func NewSession(doc *page.Document, loader *portal.StationLoader, dispatcher *portal.Dispatcher, opts ...Option) (*Session, error) {
	if doc == nil || loader == nil || dispatcher == nil {
		return nil, errors.New("tui: document, loader and dispatcher are required")
	}
	s := &Session{
		doc:        doc,
		loader:     loader,
		dispatcher: dispatcher,
		formats:    portal.DefaultFormats(),
		caption:    citation.DefaultCaption,
		pageSize:   defaultPageSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(s.out)
	}
	return s, nil
}

// Run prompts for every form field, dispatches the download and waits for
// the citation.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.pickMany(ctx, portal.YearsID, "Years"); err != nil {
		return nil, err
	}

	job := s.loader.Load(ctx)
	if err := job.Wait(ctx); err != nil {
		_ = s.driver.Info(ctx, s.theme.ErrorPrefix+"could not load stations: "+err.Error())
		return nil, fmt.Errorf("%w: %v", ErrNoStations, err)
	}
	names, err := s.doc.Options(portal.NamesID)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		_ = s.driver.Info(ctx, s.theme.ErrorPrefix+"no stations reported data for the selected years")
		return nil, ErrNoStations
	}

	if err := s.pickMany(ctx, portal.NamesID, "Stations"); err != nil {
		return nil, err
	}
	if err := s.pickMany(ctx, portal.MeasID, "Measurements"); err != nil {
		return nil, err
	}
	if err := s.pickFormat(ctx); err != nil {
		return nil, err
	}

	query, err := portal.ReadQuery(s.doc)
	if err != nil {
		return nil, err
	}
	ok, err := s.driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("%sDownload %d station(s) x %d measurement(s) as %s?",
			s.theme.PromptPrefix, len(query.Stations), len(query.Measurements), query.Format),
		Default: true,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAborted
	}

	dispatch, err := s.dispatcher.Generate(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{Target: dispatch.Target(), NavigationErr: dispatch.NavigationErr()}
	if res.NavigationErr != nil {
		_ = s.driver.Info(ctx, s.theme.ErrorPrefix+"download failed: "+res.NavigationErr.Error())
	} else {
		_ = s.driver.Info(ctx, s.theme.InfoPrefix+"Requested "+res.Target)
	}

	if err := dispatch.Wait(ctx); err != nil {
		res.CitationErr = err
		return res, nil
	}
	res.Citation = dispatch.Citation()
	if res.Citation != "" {
		_ = s.driver.Info(ctx, s.theme.InfoPrefix+s.caption+":\n"+citation.PlainText(res.Citation))
	}
	return res, nil
}

// pickMany prompts until at least one option of control id is selected.
func (s *Session) pickMany(ctx context.Context, id, label string) error {
	opts, err := s.doc.Options(id)
	if err != nil {
		return err
	}
	labels := make([]string, len(opts))
	var defaults []int
	for i, opt := range opts {
		labels[i] = opt.Label
		if labels[i] == "" {
			labels[i] = opt.Value
		}
		if opt.Selected {
			defaults = append(defaults, i)
		}
	}

	for {
		picked, err := s.driver.MultiSelect(ctx, SelectConfig{
			Message:  s.theme.PromptPrefix + label,
			Options:  labels,
			Defaults: defaults,
			PageSize: s.pageSize,
		})
		if err != nil {
			return err
		}
		values := make([]string, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(opts) {
				values = append(values, opts[idx].Value)
			}
		}
		if len(values) == 0 {
			if err := s.driver.Info(ctx, s.theme.ErrorPrefix+"select at least one of "+strings.ToLower(label)); err != nil {
				return err
			}
			continue
		}
		return s.doc.Select(id, values...)
	}
}

func (s *Session) pickFormat(ctx context.Context) error {
	current, err := s.doc.Value(portal.FormatID)
	if err != nil {
		return err
	}
	def := 0
	for i, f := range s.formats {
		if f == current {
			def = i
		}
	}
	idx, err := s.driver.Select(ctx, SelectConfig{
		Message:      s.theme.PromptPrefix + "Format",
		Options:      s.formats,
		DefaultIndex: def,
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(s.formats) {
		return fmt.Errorf("tui: format selection %d out of range", idx)
	}
	return s.doc.SetValue(portal.FormatID, s.formats[idx])
}
