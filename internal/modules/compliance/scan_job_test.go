package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOwner = "ops"

// newScanJobFixture wires a scan job over the shared service fixture with
// a controllable clock
func newScanJobFixture(t *testing.T) (*ScanJob, *mockReader, *recordingNotifier, *History, *time.Time) {
	t.Helper()

	service, reader := newServiceFixture()
	history := NewHistory(zerolog.Nop())
	notifier := &recordingNotifier{}
	dispatcher := NewDispatcher(notifier, zerolog.Nop())

	job := NewScanJob(service, history, dispatcher, notifier, testOwner, zerolog.Nop())

	clock := testNow
	job.now = func() time.Time { return clock }
	service.SetClock(func() time.Time { return clock })

	return job, reader, notifier, history, &clock
}

func messagesTo(notifier *recordingNotifier, recipient string) []sentMessage {
	var msgs []sentMessage
	for _, m := range notifier.sent {
		if m.recipient == recipient {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

func TestScanJobRunNotifiesAndSummarizes(t *testing.T) {
	job, _, notifier, history, _ := newScanJobFixture(t)

	require.NoError(t, job.Run())

	// adv-1 gets a digest for hh-1's three critical concentration alerts
	advisorMsgs := messagesTo(notifier, "jane@example.com")
	require.Len(t, advisorMsgs, 1)
	assert.Contains(t, advisorMsgs[0].body, "CRITICAL")

	// adv-2 has nothing new: silent no-op
	assert.Empty(t, messagesTo(notifier, "raj@example.com"))

	// Owner summary with run totals
	ownerMsgs := messagesTo(notifier, testOwner)
	require.Len(t, ownerMsgs, 1)
	assert.Contains(t, ownerMsgs[0].title, "3 alerts")
	assert.Contains(t, ownerMsgs[0].body, "Advisors scanned: 2")
	assert.Contains(t, ownerMsgs[0].body, "Critical: 3")

	assert.Equal(t, 3, history.Len())
}

func TestScanJobThrottlesAcrossRuns(t *testing.T) {
	job, _, notifier, _, clock := newScanJobFixture(t)

	// Day 0: first sighting notifies
	require.NoError(t, job.Run())
	require.Len(t, messagesTo(notifier, "jane@example.com"), 1)

	// Day 3: unchanged alerts are throttled, no advisor notification
	*clock = testNow.Add(3 * 24 * time.Hour)
	require.NoError(t, job.Run())
	assert.Len(t, messagesTo(notifier, "jane@example.com"), 1, "second scan must not re-notify")

	// Day 8 (8 days after first notify): re-included
	*clock = testNow.Add(8 * 24 * time.Hour)
	require.NoError(t, job.Run())
	assert.Len(t, messagesTo(notifier, "jane@example.com"), 2)
}

func TestScanJobNoSummaryWhenNothingFound(t *testing.T) {
	job, reader, notifier, _, _ := newScanJobFixture(t)

	// Make every household compliant by removing hh-1's holdings
	reader.aggregates["hh-1"].Holdings = nil

	require.NoError(t, job.Run())
	assert.Empty(t, notifier.sent, "zero-alert run sends nothing at all")
}

func TestScanJobReportsFailureToOwner(t *testing.T) {
	job, reader, notifier, _, _ := newScanJobFixture(t)
	reader.listErr = errors.New("connection refused")

	err := job.Run()
	require.Error(t, err)

	ownerMsgs := messagesTo(notifier, testOwner)
	require.Len(t, ownerMsgs, 1)
	assert.Equal(t, "Compliance scan failed", ownerMsgs[0].title)
	assert.Contains(t, ownerMsgs[0].body, "connection refused")
}

// selectiveNotifier fails sends to one recipient and records the rest
type selectiveNotifier struct {
	failFor string
	sent    []sentMessage
}

func (n *selectiveNotifier) Send(ctx context.Context, recipient, title, body string) error {
	if recipient == n.failFor {
		return errors.New("mailbox unavailable")
	}
	n.sent = append(n.sent, sentMessage{recipient: recipient, title: title, body: body})
	return nil
}

func TestScanJobDispatchFailureDoesNotAbortRun(t *testing.T) {
	service, _ := newServiceFixture()
	history := NewHistory(zerolog.Nop())

	// Transport that fails for adv-1 only
	failing := &selectiveNotifier{failFor: "jane@example.com"}
	dispatcher := NewDispatcher(failing, zerolog.Nop())
	job := NewScanJob(service, history, dispatcher, failing, testOwner, zerolog.Nop())
	job.now = func() time.Time { return testNow }
	service.SetClock(func() time.Time { return testNow })

	require.NoError(t, job.Run(), "dispatch failure is isolated, the run still completes")

	// Owner summary reports the dispatch error
	var ownerBody string
	for _, m := range failing.sent {
		if m.recipient == testOwner {
			ownerBody = m.body
		}
	}
	assert.Contains(t, ownerBody, "Dispatch errors: 1")
}

func TestScanJobRecoversFromPanic(t *testing.T) {
	job, _, notifier, _, _ := newScanJobFixture(t)

	// A nil dispatcher makes the run body panic; Run must convert that to
	// an error and notify the owner instead of crashing the scheduler
	job.dispatcher = nil

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	ownerMsgs := messagesTo(notifier, testOwner)
	require.Len(t, ownerMsgs, 1)
	assert.Equal(t, "Compliance scan failed", ownerMsgs[0].title)
}
