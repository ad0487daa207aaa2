package client

import (
	"net/url"
	"strings"
)

// Query parameter names understood by the backend.
const (
	ParamYear    = "year"
	ParamStation = "station"
	ParamMeas    = "meas"
	ParamFormat  = "format"
)

// Separator joins the values of one multi-valued parameter.
const Separator = ","

// DownloadQuery is the accumulated form state serialised into a download
// target.
type DownloadQuery struct {
	Years        []string
	Stations     []string
	Measurements []string
	Format       string
}

// DownloadTarget returns the path and query of a download, relative to the
// backend root. Parameters are always emitted in year, station, meas, format
// order.
func DownloadTarget(paths Paths, q DownloadQuery) string {
	paths = paths.withDefaults()
	var b strings.Builder
	b.WriteString(paths.Download)
	b.WriteString("?")
	writeParam(&b, ParamYear, EncodeList(q.Years), false)
	writeParam(&b, ParamStation, EncodeList(q.Stations), true)
	writeParam(&b, ParamMeas, EncodeList(q.Measurements), true)
	writeParam(&b, ParamFormat, url.QueryEscape(q.Format), true)
	return b.String()
}

// StationListTarget returns the station list path for years.
func StationListTarget(paths Paths, years []string) string {
	paths = paths.withDefaults()
	return paths.StationList + "?" + ParamYear + "=" + EncodeList(years)
}

// CitationTarget returns the citation path for years.
func CitationTarget(paths Paths, years []string) string {
	paths = paths.withDefaults()
	return paths.Citation + "?" + ParamYear + "=" + EncodeList(years)
}

// EncodeList escapes each value and joins them with Separator.
func EncodeList(values []string) string {
	if len(values) == 0 {
		return ""
	}
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = url.QueryEscape(v)
	}
	return strings.Join(escaped, Separator)
}

func writeParam(b *strings.Builder, key, encoded string, amp bool) {
	if amp {
		b.WriteString("&")
	}
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(encoded)
}
