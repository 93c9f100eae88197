package compliance

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAlert(id string, severity Severity) Alert {
	return Alert{
		ID:          id,
		Severity:    severity,
		Type:        AlertTypeConcentrationRisk,
		HouseholdID: "hh-1",
		AdvisorID:   "adv-1",
	}
}

func TestFirstSightingAlwaysNotifies(t *testing.T) {
	h := NewHistory(zerolog.Nop())
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	fresh := h.AdmitAndFilter([]Alert{testAlert("a1", SeverityCritical)}, now)

	require.Len(t, fresh, 1)
	entry, ok := h.Entry("a1")
	require.True(t, ok)
	assert.Equal(t, now, entry.FirstDetected)
	assert.Equal(t, now, entry.LastNotified)
}

func TestImmediateRepeatIsSuppressed(t *testing.T) {
	h := NewHistory(zerolog.Nop())
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	alert := testAlert("a1", SeverityCritical)

	first := h.AdmitAndFilter([]Alert{alert}, now)
	second := h.AdmitAndFilter([]Alert{alert}, now)

	assert.Len(t, first, 1)
	assert.Empty(t, second, "same moment repeat must be suppressed")
	assert.Equal(t, 1, h.Len())
}

func TestRenotifyThreshold(t *testing.T) {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		elapsed    time.Duration
		wantNotify bool
	}{
		{name: "6 days 23 hours suppressed", elapsed: 6*24*time.Hour + 23*time.Hour, wantNotify: false},
		{name: "exactly 7 days re-included", elapsed: 7 * 24 * time.Hour, wantNotify: true},
		{name: "8 days re-included", elapsed: 8 * 24 * time.Hour, wantNotify: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(zerolog.Nop())
			alert := testAlert("a1", SeverityCritical)
			h.AdmitAndFilter([]Alert{alert}, now)

			later := now.Add(tt.elapsed)
			fresh := h.AdmitAndFilter([]Alert{alert}, later)

			entry, _ := h.Entry("a1")
			if tt.wantNotify {
				assert.Len(t, fresh, 1)
				assert.Equal(t, later, entry.LastNotified, "LastNotified advances on re-notify")
			} else {
				assert.Empty(t, fresh)
				assert.Equal(t, now, entry.LastNotified, "suppressed alert leaves entry untouched")
			}
			assert.Equal(t, now, entry.FirstDetected, "FirstDetected is set once")
		})
	}
}

func TestThrottleIgnoresSeverity(t *testing.T) {
	// A critical alert re-notifies on the same cadence as an info alert
	h := NewHistory(zerolog.Nop())
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	batch := []Alert{testAlert("crit", SeverityCritical), testAlert("info", SeverityInfo)}

	h.AdmitAndFilter(batch, now)
	fresh := h.AdmitAndFilter(batch, now.Add(3*24*time.Hour))
	assert.Empty(t, fresh)

	fresh = h.AdmitAndFilter(batch, now.Add(8*24*time.Hour))
	assert.Len(t, fresh, 2)
}

func TestNonRecurringAlertsAreLeftUntouched(t *testing.T) {
	h := NewHistory(zerolog.Nop())
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	h.AdmitAndFilter([]Alert{testAlert("a1", SeverityWarning)}, now)

	// Next scan does not include a1; its entry must survive unchanged
	h.AdmitAndFilter([]Alert{testAlert("a2", SeverityWarning)}, now.Add(24*time.Hour))

	entry, ok := h.Entry("a1")
	require.True(t, ok, "ledger never removes an entry just because an alert did not recur")
	assert.Equal(t, now, entry.FirstDetected)
	assert.Equal(t, now, entry.LastNotified)
	assert.Equal(t, 2, h.Len())
}

func TestPruneRetention(t *testing.T) {
	h := NewHistory(zerolog.Nop())
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	h.AdmitAndFilter([]Alert{testAlert("young", SeverityWarning)}, now.Add(-29*24*time.Hour))
	h.AdmitAndFilter([]Alert{testAlert("old", SeverityWarning)}, now.Add(-30*24*time.Hour))
	h.AdmitAndFilter([]Alert{testAlert("ancient", SeverityWarning)}, now.Add(-45*24*time.Hour))

	// Recent notification does not save an aged entry
	h.AdmitAndFilter([]Alert{testAlert("ancient", SeverityWarning)}, now.Add(-1*24*time.Hour))

	removed := h.Prune(now)

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, h.Len())
	_, ok := h.Entry("young")
	assert.True(t, ok, "29-day-old entry survives")
	_, ok = h.Entry("old")
	assert.False(t, ok, "30-day-old entry is removed")
	_, ok = h.Entry("ancient")
	assert.False(t, ok, "pruning ignores LastNotified recency")
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.msgpack")
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	h := NewHistory(zerolog.Nop())
	h.AdmitAndFilter([]Alert{testAlert("a1", SeverityCritical), testAlert("a2", SeverityInfo)}, now)
	require.NoError(t, h.SaveSnapshot(path))

	restored := NewHistory(zerolog.Nop())
	require.NoError(t, restored.LoadSnapshot(path))

	assert.Equal(t, 2, restored.Len())
	entry, ok := restored.Entry("a1")
	require.True(t, ok)
	assert.True(t, entry.FirstDetected.Equal(now))
	assert.True(t, entry.LastNotified.Equal(now))

	// Throttle state survives the restart
	fresh := restored.AdmitAndFilter([]Alert{testAlert("a1", SeverityCritical)}, now.Add(24*time.Hour))
	assert.Empty(t, fresh)
}

func TestLoadSnapshotMissingFileIsFreshStart(t *testing.T) {
	h := NewHistory(zerolog.Nop())
	err := h.LoadSnapshot(filepath.Join(t.TempDir(), "does-not-exist.msgpack"))
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())
}
