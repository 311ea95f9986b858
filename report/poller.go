package report

import (
	"context"
	"fmt"
)

const (
	opGetReportJobStatus   = "getReportJobStatus"
	opGetReportDownloadURL = "getReportDownloadUrl"

	fieldJobStatus   = "getReportJobStatusReturn"
	fieldDownloadURL = "getReportDownloadUrlReturn"
)

// AwaitCompletion queries the status of jobID until it is Completed or
// Failed, sleeping the poll interval between queries. There is no upper
// bound besides ctx.
func (c *Client) AwaitCompletion(ctx context.Context, jobID string) (Status, error) {
	job := &Job{ID: jobID}
	for polls := 1; ; polls++ {
		status, err := c.jobStatus(ctx, job.ID)
		if err != nil {
			return "", err
		}
		job.Status = status
		c.recorder.ObservePoll(status)

		switch {
		case status.Terminal():
			c.logger.InfoContext(ctx, "report job finished", "job_id", job.ID, "status", status, "polls", polls)
			return status, nil
		case !status.Waiting():
			return "", &ProtocolError{Op: opGetReportJobStatus, Detail: fmt.Sprintf("unknown job status %q", status)}
		}

		c.logger.DebugContext(ctx, "report job pending", "job_id", job.ID, "status", status, "next_poll", c.interval)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-c.after(c.interval):
		}
	}
}

func (c *Client) jobStatus(ctx context.Context, jobID string) (Status, error) {
	resp, err := c.invoker.Invoke(ctx, opGetReportJobStatus, Payload{"reportJobId": jobID})
	if err != nil {
		return "", err
	}
	s, err := c.stringField(resp, opGetReportJobStatus, fieldJobStatus)
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

func (c *Client) downloadURLFor(ctx context.Context, jobID string) (string, error) {
	resp, err := c.invoker.Invoke(ctx, opGetReportDownloadURL, Payload{"reportJobId": jobID})
	if err != nil {
		return "", err
	}
	return c.stringField(resp, opGetReportDownloadURL, fieldDownloadURL)
}

// stringField reads a response field named in the session naming style.
func (c *Client) stringField(resp Payload, op, field string) (string, error) {
	key := c.style.Key(field)
	v, ok := resp[key]
	if !ok {
		return "", &ProtocolError{Op: op, Detail: fmt.Sprintf("missing field %q", key)}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ProtocolError{Op: op, Detail: fmt.Sprintf("field %q is not a string", key)}
	}
	if s == "" {
		return "", &ProtocolError{Op: op, Detail: fmt.Sprintf("field %q is empty", key)}
	}
	return s, nil
}
