// FilePath: internal/scheduler/scheduler.go
// Package scheduler drives the hub's fixed roster of named periodic
// jobs. Each job ticks on its own interval, loads its own settings
// snapshot, and fails in isolation: an error or panic is logged and the
// next tick is the retry. Runs are not coordinated across service
// instances; running multiple replicas would duplicate sweeps and
// upstream polls.
package scheduler

import (
	"context"
	"time"

	"github.com/gearlog/wican-hub/internal/settings"
	nuts "github.com/vaudience/go-nuts"
)

// Job is one named periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context, snap *settings.Snapshot) error
}

// Scheduler owns the job roster.
type Scheduler struct {
	jobs     []Job
	settings *settings.Loader
}

func New(settingsLoader *settings.Loader, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:     jobs,
		settings: settingsLoader,
	}
}

// Start launches one ticker goroutine per job and returns immediately.
// Jobs stop when the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		go s.runLoop(ctx, job)
	}
	nuts.L.Infof("[Scheduler] Started %d jobs", len(s.jobs))
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	nuts.L.Infof("[Scheduler] Job %s every %v", job.Name, job.Interval)
	for {
		select {
		case <-ctx.Done():
			nuts.L.Infof("[Scheduler] Job %s stopped", job.Name)
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

// runOnce executes a single job run with panic isolation and the master
// feature-flag gate.
func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			nuts.L.Errorf("[Scheduler] Job %s panicked: %v", job.Name, r)
		}
	}()

	snap, err := s.settings.Load(ctx)
	if err != nil {
		nuts.L.Errorf("[Scheduler] Job %s: settings unavailable: %v", job.Name, err)
		return
	}
	if !snap.Enabled() {
		return
	}

	started := time.Now()
	if err := job.Run(ctx, snap); err != nil {
		nuts.L.Errorf("[Scheduler] Job %s failed after %v: %v", job.Name, time.Since(started), err)
		return
	}
	nuts.L.Debugf("[Scheduler] Job %s completed in %v", job.Name, time.Since(started))
}
