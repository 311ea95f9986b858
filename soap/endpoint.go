package soap

import "strings"

const namespaceHost = "https://adwords.google.com"

// Service names one SOAP service of one API version.
type Service struct {
	Host    string // e.g. https://adwords-sandbox.google.com
	Version string // v13, v201003, ...
	Name    string // ReportService, ReportDefinitionService, ...
}

// Legacy reports whether the service belongs to the v13 generation, which
// uses flat header elements instead of a RequestHeader.
func (s Service) Legacy() bool {
	return s.Version == "v13"
}

// URL returns the endpoint the envelope is posted to.
func (s Service) URL() string {
	host := strings.TrimRight(s.Host, "/")
	if s.Legacy() {
		return host + "/api/adwords/v13/" + s.Name
	}
	return host + "/api/adwords/cm/" + s.Version + "/" + s.Name
}

// Namespace returns the target namespace of the service's messages. It does
// not depend on the environment.
func (s Service) Namespace() string {
	if s.Legacy() {
		return namespaceHost + "/api/adwords/v13"
	}
	return namespaceHost + "/api/adwords/cm/" + s.Version
}
