// Package client talks to the warehouse backend on behalf of the form: it
// fetches station lists and citations, builds download targets, and saves
// downloaded files.
//
// Query values are escaped one selection element at a time and joined with a
// literal comma, so plain values such as years and station ids keep the wire
// shape the backend expects ("year=2020,2021") while separators inside a value
// cannot leak into the query.
package client
