// Package extension describes the client-side report methods available for
// each API version and service, and exposes them behind a capability check.
package extension

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnsupported is returned for a method the bound service does not offer.
var ErrUnsupported = errors.New("extension method not supported")

// Method names a client-side extension method.
type Method string

const (
	DownloadXMLReport    Method = "download_xml_report"
	DownloadCSVReport    Method = "download_csv_report"
	DownloadReport       Method = "download_report"
	DownloadReportAsFile Method = "download_report_as_file"
)

var params = map[Method][]string{
	DownloadXMLReport:    {"job_id"},
	DownloadCSVReport:    {"job_id"},
	DownloadReport:       {"report_definition_id"},
	DownloadReportAsFile: {"report_definition_id", "path"},
}

// Params returns the parameter names of m in call order, or nil for an
// unknown method.
func (m Method) Params() []string {
	p := params[m]
	if p == nil {
		return nil
	}
	return append([]string(nil), p...)
}

// Known reports whether m is an implemented extension method.
func (m Method) Known() bool {
	_, ok := params[m]
	return ok
}

// Key identifies a service of an API version.
type Key struct {
	Version string
	Service string
}

func (k Key) String() string {
	return k.Version + "/" + k.Service
}

// Table lists the extension methods of each service.
type Table map[Key][]Method

// DefaultTable returns the built-in table.
func DefaultTable() Table {
	definition := []Method{DownloadReport, DownloadReportAsFile}
	return Table{
		{"v13", "ReportService"}:                {DownloadXMLReport, DownloadCSVReport},
		{"v201003", "ReportDefinitionService"}: definition,
		{"v201008", "ReportDefinitionService"}: definition,
		{"v201101", "ReportDefinitionService"}: definition,
	}
}

// Merge returns a copy of t where every (version, service) named in
// overrides is replaced by the given method list. Unknown method names are
// rejected.
func (t Table) Merge(overrides map[string]map[string][]string) (Table, error) {
	out := make(Table, len(t)+len(overrides))
	for k, v := range t {
		out[k] = append([]Method(nil), v...)
	}
	for version, services := range overrides {
		for service, names := range services {
			methods := make([]Method, 0, len(names))
			for _, n := range names {
				m := Method(n)
				if !m.Known() {
					return nil, fmt.Errorf("extension: unknown method %q for %s/%s", n, version, service)
				}
				methods = append(methods, m)
			}
			out[Key{version, service}] = methods
		}
	}
	return out, nil
}

// Resolve returns the capabilities of a service. A service without any
// extension method yields an error wrapping ErrUnsupported.
func (t Table) Resolve(version, service string) (Capabilities, error) {
	key := Key{version, service}
	methods, ok := t[key]
	if !ok || len(methods) == 0 {
		return Capabilities{}, fmt.Errorf("%w: no extension methods for %s", ErrUnsupported, key)
	}
	caps := Capabilities{Key: key, methods: make(map[Method]bool, len(methods))}
	for _, m := range methods {
		caps.methods[m] = true
	}
	return caps, nil
}

// ServiceFor returns the service offering m in version, if any.
func (t Table) ServiceFor(version string, m Method) (string, bool) {
	var services []string
	for k, methods := range t {
		if k.Version != version {
			continue
		}
		for _, have := range methods {
			if have == m {
				services = append(services, k.Service)
			}
		}
	}
	if len(services) == 0 {
		return "", false
	}
	sort.Strings(services)
	return services[0], true
}

// Capabilities is the resolved method set of one service.
type Capabilities struct {
	Key
	methods map[Method]bool
}

// Has reports whether m is available.
func (c Capabilities) Has(m Method) bool {
	return c.methods[m]
}

// Methods returns the available methods sorted by name.
func (c Capabilities) Methods() []Method {
	out := make([]Method, 0, len(c.methods))
	for m := range c.methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
