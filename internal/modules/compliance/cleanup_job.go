package compliance

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
)

// CleanupJob prunes aged alert history entries on an hourly cadence. It
// shares the ledger with the scan job and nothing else; the ledger's mutex
// makes it safe to run while a scan is in flight.
type CleanupJob struct {
	history      *History
	snapshotPath string // Empty disables snapshot persistence
	log          zerolog.Logger
	now          func() time.Time
}

// NewCleanupJob creates a new ledger cleanup job
func NewCleanupJob(history *History, snapshotPath string, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		history:      history,
		snapshotPath: snapshotPath,
		log:          log.With().Str("job", "alert_history_cleanup").Logger(),
		now:          time.Now,
	}
}

// Name returns the job name for the scheduler
func (j *CleanupJob) Name() string {
	return "alert_history_cleanup"
}

// Run removes entries older than the retention window and logs the removed
// count plus current process memory usage.
func (j *CleanupJob) Run() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("alert history cleanup panicked: %v", p)
		}
	}()

	removed := j.history.Prune(j.now())
	remaining := j.history.Len()

	event := j.log.Info().
		Int("removed", removed).
		Int("remaining", remaining)
	if rss, memErr := processMemoryMB(); memErr == nil {
		event = event.Float64("process_mem_mb", rss)
	}
	event.Msg("Alert history cleanup completed")

	if j.snapshotPath != "" {
		if err := j.history.SaveSnapshot(j.snapshotPath); err != nil {
			j.log.Error().Err(err).Msg("Failed to save alert history snapshot")
		}
	}

	return nil
}

// processMemoryMB returns the resident memory of this process in megabytes
func processMemoryMB() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return float64(memInfo.RSS) / 1024 / 1024, nil
}
