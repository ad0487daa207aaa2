package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or declined
	// the final confirmation.
	ErrAborted = errors.New("tui: aborted")
	// ErrNoStations is returned when the selected years offer no station.
	ErrNoStations = errors.New("tui: no stations for the selected years")
)
