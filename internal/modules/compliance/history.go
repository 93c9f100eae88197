package compliance

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// renotifyAfter is the throttle window: minimum time between repeat
	// notifications for the same tracked alert. Fixed policy, not derived
	// from severity.
	renotifyAfter = 7 * 24 * time.Hour

	// retainFor is the retention window: entries whose first detection is
	// older than this are pruned regardless of notification recency.
	retainFor = 30 * 24 * time.Hour
)

// HistoryEntry tracks one alert identity across scan runs
type HistoryEntry struct {
	FirstDetected time.Time `msgpack:"first_detected" json:"first_detected"`
	LastNotified  time.Time `msgpack:"last_notified" json:"last_notified"`
}

// History is the alert history ledger. It records first-detection and
// last-notification time per distinct alert identity and decides which
// alerts in a scan batch are "new" enough to notify.
//
// The ledger is the only mutable state shared between the scan job and the
// cleanup job; a single mutex around lookup-and-update is sufficient at the
// expected cardinality (a few entries per household).
type History struct {
	mu      sync.Mutex
	entries map[string]*HistoryEntry
	log     zerolog.Logger
}

// NewHistory creates an empty alert history ledger
func NewHistory(log zerolog.Logger) *History {
	return &History{
		entries: make(map[string]*HistoryEntry),
		log:     log.With().Str("component", "alert_history").Logger(),
	}
}

// AdmitAndFilter records the incoming batch and returns the subset that
// should be notified now:
//   - unseen alert ids are tracked and always included (first sighting notifies)
//   - tracked ids are included only when at least the throttle window has
//     passed since the last notification, in which case LastNotified advances
//   - suppressed alerts leave their entry untouched
//
// Ids absent from the batch are never modified or removed here; only the
// age-based prune removes entries.
func (h *History) AdmitAndFilter(alerts []Alert, now time.Time) []Alert {
	h.mu.Lock()
	defer h.mu.Unlock()

	var fresh []Alert
	for _, alert := range alerts {
		entry, tracked := h.entries[alert.ID]
		if !tracked {
			h.entries[alert.ID] = &HistoryEntry{
				FirstDetected: now,
				LastNotified:  now,
			}
			fresh = append(fresh, alert)
			continue
		}

		if now.Sub(entry.LastNotified) >= renotifyAfter {
			entry.LastNotified = now
			fresh = append(fresh, alert)
		}
	}

	return fresh
}

// Prune removes every entry whose first detection is older than the
// retention window, regardless of LastNotified recency. Returns the number
// of entries removed.
func (h *History) Prune(now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for id, entry := range h.entries {
		if now.Sub(entry.FirstDetected) >= retainFor {
			delete(h.entries, id)
			removed++
		}
	}

	return removed
}

// Len returns the number of tracked entries
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entry returns a copy of the tracked entry for an alert id, if present
func (h *History) Entry(id string) (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry, ok := h.entries[id]
	if !ok {
		return HistoryEntry{}, false
	}
	return *entry, true
}

// SaveSnapshot persists the ledger to disk so throttle state survives a
// process restart. Written atomically via a temp file rename.
func (h *History) SaveSnapshot(path string) error {
	h.mu.Lock()
	count := len(h.entries)
	data, err := msgpack.Marshal(h.entries)
	h.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal alert history: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write alert history snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace alert history snapshot: %w", err)
	}

	h.log.Debug().Str("path", path).Int("entries", count).Msg("Alert history snapshot saved")
	return nil
}

// LoadSnapshot restores the ledger from a snapshot file. A missing file is
// not an error (fresh start).
func (h *History) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read alert history snapshot: %w", err)
	}

	entries := make(map[string]*HistoryEntry)
	if err := msgpack.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to unmarshal alert history snapshot: %w", err)
	}

	h.mu.Lock()
	h.entries = entries
	h.mu.Unlock()

	h.log.Info().Str("path", path).Int("entries", len(entries)).Msg("Alert history snapshot loaded")
	return nil
}
