// Package page models the form surface the portal controller reads and
// mutates: select controls with ordered options, scalar controls, and display
// containers, all addressed by identifier.
//
// A Document is safe for concurrent use. Its lock plays the role of the single
// UI thread in a browser: callbacks from in-flight requests and user actions
// take turns writing, and every read returns a copy.
package page
