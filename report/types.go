package report

import "context"

// Status is the state of a report job on the service side.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
)

// Waiting reports whether the job is still being generated.
func (s Status) Waiting() bool {
	return s == StatusPending || s == StatusInProgress
}

// Terminal reports whether no further status query is needed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a report generation job being polled.
type Job struct {
	ID     string
	Status Status
}

// Descriptor identifies the report to fetch: a job id for the legacy flow or
// a report definition id for the versioned flow. Path, when set, receives the
// downloaded bytes instead of the caller.
type Descriptor struct {
	JobID        string
	DefinitionID string
	Path         string
}

// ForJob returns a descriptor for a legacy job download.
func ForJob(jobID string) Descriptor {
	return Descriptor{JobID: jobID}
}

// ForDefinition returns a descriptor for a report definition download.
func ForDefinition(definitionID, path string) Descriptor {
	return Descriptor{DefinitionID: definitionID, Path: path}
}

// Variant names the download flow used for a descriptor.
func (d Descriptor) Variant() string {
	if d.DefinitionID != "" {
		return "definition"
	}
	return "job"
}

// Payload is a request or response body of a remote operation.
type Payload = map[string]any

// Invoker sends a named remote operation. Service rejections are returned as
// *RemoteFault, transport failures as *ConnectionError.
type Invoker interface {
	Invoke(ctx context.Context, operation string, request Payload) (Payload, error)
}

// Response is the result of an HTTP GET.
type Response struct {
	StatusCode int
	Body       []byte
}

// HTTPClient performs authenticated downloads. Transport failures are
// returned as *ConnectionError.
type HTTPClient interface {
	Get(ctx context.Context, url string, headers map[string]string) (*Response, error)
}

// Recorder receives workflow events, typically to feed metrics.
type Recorder interface {
	ObservePoll(status Status)
	ObserveDownload(variant string, size int, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObservePoll(Status)                {}
func (nopRecorder) ObserveDownload(string, int, error) {}
