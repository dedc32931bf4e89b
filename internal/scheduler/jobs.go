// FilePath: internal/scheduler/jobs.go
package scheduler

import (
	"context"
	"time"

	"github.com/gearlog/wican-hub/internal/config"
	"github.com/gearlog/wican-hub/internal/hubservice"
	"github.com/gearlog/wican-hub/internal/notify"
	"github.com/gearlog/wican-hub/internal/settings"
	nuts "github.com/vaudience/go-nuts"
)

// BuildJobs assembles the hub's job roster: session-timeout sweep,
// device-offline sweep, firmware check, telemetry pruning and the daily
// rollup for the previous day.
func BuildJobs(svc *hubservice.HubService, cfg config.JobsConfig) []Job {
	sessionTimeout := time.Duration(cfg.SessionTimeoutMinutes) * time.Minute
	deviceTimeout := time.Duration(cfg.DeviceTimeoutMinutes) * time.Minute

	return []Job{
		{
			Name:     "session-timeout-sweep",
			Interval: cfg.SessionSweepInterval,
			Run: func(ctx context.Context, snap *settings.Snapshot) error {
				closed, err := svc.CheckSessionTimeouts(ctx, sessionTimeout)
				if err != nil {
					return err
				}
				if len(closed) > 0 {
					nuts.L.Infof("[Jobs] Closed %d timed-out sessions", len(closed))
				}
				return nil
			},
		},
		{
			Name:     "device-offline-sweep",
			Interval: cfg.OfflineSweepInterval,
			Run: func(ctx context.Context, snap *settings.Snapshot) error {
				notifyOffline := snap.Bool(settings.KeyOfflineNotify, false)
				flipped, err := svc.SweepOfflineDevices(ctx, deviceTimeout, notifyOffline)
				if err != nil {
					return err
				}
				if len(flipped) > 0 {
					nuts.L.Infof("[Jobs] Marked %d devices offline", len(flipped))
				}
				return nil
			},
		},
		{
			Name:     "firmware-check",
			Interval: cfg.FirmwareCheckInterval,
			Run: func(ctx context.Context, snap *settings.Snapshot) error {
				release, err := svc.Firmware.CheckFirmwareUpdates(ctx)
				if err != nil {
					// Upstream outages leave the cache stale; nothing to retry
					// before the next scheduled run.
					nuts.L.Warnf("[Jobs] Firmware check skipped: %v", err)
					return nil
				}
				if !snap.Bool(settings.KeyFirmwareNotify, false) {
					return nil
				}
				outdated, err := svc.Firmware.GetDevicesNeedingUpdate(ctx)
				if err != nil {
					return err
				}
				for _, status := range outdated {
					event := notify.AlertEvent{
						Name:     notify.EventFirmwareOutdated,
						DeviceID: status.DeviceID,
						Message:  "firmware " + status.CurrentVersion + " behind latest " + release.LatestVersion,
					}
					if status.VIN != nil {
						event.VIN = *status.VIN
					}
					svc.Notify.Emit(event)
				}
				return nil
			},
		},
		{
			Name:     "telemetry-prune",
			Interval: cfg.PruneInterval,
			Run: func(ctx context.Context, snap *settings.Snapshot) error {
				_, err := svc.PruneOldTelemetry(ctx, cfg.RetentionDays)
				return err
			},
		},
		{
			Name:     "daily-telemetry-summary",
			Interval: cfg.SummaryInterval,
			Run: func(ctx context.Context, snap *settings.Snapshot) error {
				yesterday := time.Now().UTC().AddDate(0, 0, -1)
				_, err := svc.GenerateDailySummary(ctx, yesterday)
				return err
			},
		},
	}
}
