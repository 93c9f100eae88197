package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/meridianwm/advisor-sentinel/internal/domain"
	"github.com/rs/zerolog"
)

// ScanJob is the daily compliance scan. Each firing scans every advisor's
// households, passes the findings through the alert history ledger, and
// dispatches per-advisor digests for the alerts that cleared the throttle.
//
// Errors never escape the job body unreported: any failure is sent to the
// system owner and the job is simply re-armed for its next natural firing.
type ScanJob struct {
	service    *Service
	history    *History
	dispatcher *Dispatcher
	notifier   domain.Notifier
	owner      string
	log        zerolog.Logger
	now        func() time.Time
}

// ScanRunResult accumulates run-level totals for the owner summary
type ScanRunResult struct {
	AdvisorsScanned int
	AlertsFound     int
	CriticalCount   int
	NewAlerts       int
	DispatchErrors  int
}

// NewScanJob creates a new daily scan job
func NewScanJob(
	service *Service,
	history *History,
	dispatcher *Dispatcher,
	notifier domain.Notifier,
	owner string,
	log zerolog.Logger,
) *ScanJob {
	return &ScanJob{
		service:    service,
		history:    history,
		dispatcher: dispatcher,
		notifier:   notifier,
		owner:      owner,
		log:        log.With().Str("job", "compliance_scan").Logger(),
		now:        time.Now,
	}
}

// Name returns the job name for the scheduler
func (j *ScanJob) Name() string {
	return "compliance_scan"
}

// Run executes one full scan cycle. It is also the body behind the manual
// trigger endpoint.
func (j *ScanJob) Run() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("compliance scan panicked: %v", p)
		}
		if err != nil {
			j.reportFailure(err)
		}
	}()

	ctx := context.Background()
	j.log.Info().Msg("Starting compliance scan")

	result, err := j.runScan(ctx)
	if err != nil {
		return err
	}

	j.log.Info().
		Int("advisors_scanned", result.AdvisorsScanned).
		Int("alerts_found", result.AlertsFound).
		Int("critical", result.CriticalCount).
		Int("new_alerts", result.NewAlerts).
		Int("dispatch_errors", result.DispatchErrors).
		Msg("Compliance scan completed")

	if result.AlertsFound > 0 {
		j.reportSummary(ctx, result)
	}

	return nil
}

// runScan iterates all advisors and processes each one independently
func (j *ScanJob) runScan(ctx context.Context) (ScanRunResult, error) {
	var result ScanRunResult

	advisors, err := j.service.ListAdvisors(ctx)
	if err != nil {
		return result, err
	}

	now := j.now()
	for _, advisor := range advisors {
		advisorID := advisor.ID
		alerts, err := j.service.ScanAdvisorPortfolios(ctx, &advisorID)
		if err != nil {
			// Reader unavailability is fatal for the whole run
			return result, fmt.Errorf("scan failed for advisor %s: %w", advisor.ID, err)
		}

		result.AdvisorsScanned++
		result.AlertsFound += len(alerts)
		for _, alert := range alerts {
			if alert.Severity == SeverityCritical {
				result.CriticalCount++
			}
		}

		fresh := j.history.AdmitAndFilter(alerts, now)
		result.NewAlerts += len(fresh)

		if err := j.dispatcher.DispatchAdvisorDigest(ctx, advisor, fresh); err != nil {
			// Dispatch failure is isolated per advisor
			j.log.Error().Err(err).Str("advisor_id", advisor.ID).Msg("Failed to dispatch advisor digest")
			result.DispatchErrors++
		}
	}

	return result, nil
}

// reportSummary notifies the system owner with run totals
func (j *ScanJob) reportSummary(ctx context.Context, result ScanRunResult) {
	body := fmt.Sprintf(
		"Advisors scanned: %d\nAlerts found: %d\nCritical: %d\nNewly notified: %d\nDispatch errors: %d\n",
		result.AdvisorsScanned, result.AlertsFound, result.CriticalCount, result.NewAlerts, result.DispatchErrors,
	)
	title := fmt.Sprintf("Compliance scan summary: %d alerts", result.AlertsFound)

	if err := j.notifier.Send(ctx, j.owner, title, body); err != nil {
		j.log.Error().Err(err).Msg("Failed to send scan summary notification")
	}
}

// reportFailure notifies the system owner that the run failed
func (j *ScanJob) reportFailure(runErr error) {
	j.log.Error().Err(runErr).Msg("Compliance scan failed")

	body := fmt.Sprintf("The scheduled compliance scan failed:\n\n%v\n", runErr)
	if err := j.notifier.Send(context.Background(), j.owner, "Compliance scan failed", body); err != nil {
		j.log.Error().Err(err).Msg("Failed to send scan failure notification")
	}
}
