package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adwords-report/auth"
	"adwords-report/naming"
)

func TestAwaitCompletion_OneQueryPerSleep(t *testing.T) {
	inv := &scriptedInvoker{statuses: []Status{StatusPending, StatusPending, StatusInProgress, StatusCompleted}}
	sleeps := 0
	c := newTestClient(t, inv, &stubHTTP{}, &sleeps)

	status, err := c.AwaitCompletion(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	assert.Equal(t, 4, inv.count(opGetReportJobStatus))
	assert.Equal(t, 3, sleeps)
}

func TestAwaitCompletion_ImmediateTerminal(t *testing.T) {
	for _, terminal := range []Status{StatusCompleted, StatusFailed} {
		inv := &scriptedInvoker{statuses: []Status{terminal}}
		sleeps := 0
		c := newTestClient(t, inv, &stubHTTP{}, &sleeps)

		status, err := c.AwaitCompletion(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, terminal, status)
		assert.Equal(t, 1, inv.count(opGetReportJobStatus))
		assert.Zero(t, sleeps)
	}
}

func TestAwaitCompletion_UnknownStatusIsProtocolError(t *testing.T) {
	inv := &scriptedInvoker{statuses: []Status{StatusPending, "Exploded"}}
	sleeps := 0
	c := newTestClient(t, inv, &stubHTTP{}, &sleeps)

	_, err := c.AwaitCompletion(context.Background(), "1")
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Detail, "Exploded")
	assert.Equal(t, 2, inv.count(opGetReportJobStatus))
}

func TestAwaitCompletion_SnakeNamingStyle(t *testing.T) {
	inv := &scriptedInvoker{statuses: []Status{StatusCompleted}, style: naming.Snake}
	sleeps := 0
	c := newTestClient(t, inv, &stubHTTP{}, &sleeps, WithNamingStyle(naming.Snake))

	status, err := c.AwaitCompletion(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
}

func TestAwaitCompletion_StyleMismatchIsProtocolError(t *testing.T) {
	inv := &scriptedInvoker{statuses: []Status{StatusCompleted}, style: naming.Camel}
	sleeps := 0
	c := newTestClient(t, inv, &stubHTTP{}, &sleeps, WithNamingStyle(naming.Snake))

	_, err := c.AwaitCompletion(context.Background(), "1")
	var pe *ProtocolError
	assert.ErrorAs(t, err, &pe)
}

func TestAwaitCompletion_InvokerErrorPropagates(t *testing.T) {
	fault := &RemoteFault{Code: 7, Message: "bad job"}
	inv := &scriptedInvoker{err: fault}
	sleeps := 0
	c := newTestClient(t, inv, &stubHTTP{}, &sleeps)

	_, err := c.AwaitCompletion(context.Background(), "1")
	var rf *RemoteFault
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, 7, rf.Code)
	assert.Equal(t, 1, inv.count(opGetReportJobStatus))
}

func TestAwaitCompletion_ContextDeadline(t *testing.T) {
	inv := &scriptedInvoker{statuses: []Status{StatusPending}}
	c, err := New(inv, &stubHTTP{}, auth.Context{Token: "T"}, WithPollInterval(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = c.AwaitCompletion(ctx, "1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inv.count(opGetReportJobStatus))
}

func TestAwaitCompletion_RecordsPolls(t *testing.T) {
	inv := &scriptedInvoker{statuses: []Status{StatusPending, StatusCompleted}}
	rec := &recordedEvents{}
	sleeps := 0
	c := newTestClient(t, inv, &stubHTTP{}, &sleeps, WithRecorder(rec))

	_, err := c.AwaitCompletion(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusPending, StatusCompleted}, rec.polls)
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(&scriptedInvoker{}, &stubHTTP{}, auth.Context{})
	assert.ErrorIs(t, err, auth.ErrMissingToken)
}

func TestWithPollInterval_Negative(t *testing.T) {
	_, err := New(&scriptedInvoker{}, &stubHTTP{}, auth.Context{Token: "T"}, WithPollInterval(-time.Second))
	assert.Error(t, err)
}
