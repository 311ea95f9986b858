package report

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrReportGenerationFailed is returned when the service reports the job as
// Failed. It is terminal and should not be retried.
var ErrReportGenerationFailed = errors.New("report generation failed")

// ConnectionError is a network-level failure (reset, socket or stream
// error). It is likely transitory; callers may retry.
type ConnectionError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("connection error: %s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("connection error: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// FieldError is one field-level error attached to a RemoteFault.
type FieldError struct {
	Type      string
	FieldPath string
	Trigger   string
	Reason    string
	Fields    map[string]string
}

var operationIndexRe = regexp.MustCompile(`^operations\[(\d+)\]`)

// OperationIndex returns the index of the mutate operation that caused the
// error, taken from a field path such as "operations[2].operand.name".
func (e FieldError) OperationIndex() (int, bool) {
	if e.FieldPath == "" {
		return 0, false
	}
	first := strings.SplitN(e.FieldPath, ".", 2)[0]
	m := operationIndexRe.FindStringSubmatch(first)
	if m == nil {
		return 0, false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return idx, true
}

// RemoteFault is a request rejected by the service.
type RemoteFault struct {
	Code    int
	Message string
	Trigger string
	Errors  []FieldError
}

func (f *RemoteFault) Error() string {
	var b strings.Builder
	b.WriteString("api fault")
	if f.Code != 0 {
		fmt.Fprintf(&b, " (code %d)", f.Code)
	}
	b.WriteString(": ")
	b.WriteString(f.Message)
	if f.Trigger != "" {
		fmt.Fprintf(&b, " [trigger %s]", f.Trigger)
	}
	return b.String()
}

// Describe renders the fault with its field errors, one per line.
func (f *RemoteFault) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Message: %s\n", f.Message)
	if f.Code != 0 {
		fmt.Fprintf(&b, "Code: %d\n", f.Code)
	}
	if f.Trigger != "" {
		fmt.Fprintf(&b, "Trigger: %s\n", f.Trigger)
	}
	b.WriteString("Errors:\n")
	for i, fe := range f.Errors {
		fmt.Fprintf(&b, " %d. Error type is %s. Fields:\n", i+1, fe.Type)
		keys := make([]string, 0, len(fe.Fields))
		for k := range fe.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "     %s: %s\n", k, fe.Fields[k])
		}
	}
	return b.String()
}

// ParseError reports a downloaded report that could not be parsed.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("error parsing report XML at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("error parsing report XML: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ProtocolError is a response that violates the service contract, such as
// an unknown job status.
type ProtocolError struct {
	Op     string
	Detail string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation in %s: %s", e.Op, e.Detail)
}

// IsTransient reports whether err is a connection-level failure worth
// retrying.
func IsTransient(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
