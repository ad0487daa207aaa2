// Package portal is the controller of the station data download form.
//
// It reads multi-select controls of a page.Document, repopulates the station
// control when the year selection changes, and turns the form into a download
// navigation plus a recommended-citation box. Backend failures are logged and
// never surface on the page; the Job and Dispatch handles expose them to
// callers that want to wait.
package portal
