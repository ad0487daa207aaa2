// Package testsupport offers fakes shared by package tests: an in-process
// warehouse backend with controllable responses, a navigator that records
// targets, and a logger that keeps entries in memory.
package testsupport
