// Package contract holds the OpenAPI description of the warehouse backend the
// form talks to and validates decoded responses against it.
//
// The embedded document covers the station list, download, and citation
// routes. Deployments that publish their own document can load it from a file
// or URL instead; the client only relies on the operations it calls.
package contract
