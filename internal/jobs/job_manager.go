package jobs

import (
	"fmt"
)

// JobManager starts and stops the background jobs together.
type JobManager struct {
	trackingSweepJob *TrackingSweepJob
	pickupScheduler  *PickupCompletionScheduler
}

func NewJobManager(trackingSweepJob *TrackingSweepJob, pickupScheduler *PickupCompletionScheduler) *JobManager {
	return &JobManager{
		trackingSweepJob: trackingSweepJob,
		pickupScheduler:  pickupScheduler,
	}
}

// StartAll starts the scheduled jobs. The pickup scheduler needs no start;
// it is driven by order changes.
func (jm *JobManager) StartAll() error {
	if err := jm.trackingSweepJob.Start(); err != nil {
		return fmt.Errorf("failed to start tracking sweep job: %w", err)
	}
	return nil
}

// StopAll stops the sweep and cancels pending pickup completions.
func (jm *JobManager) StopAll() {
	jm.trackingSweepJob.Stop()
	jm.pickupScheduler.Stop()
}
