package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// TrackingSweepSpec runs the sweep at minute 0 and 30 of every hour.
const TrackingSweepSpec = "0 */30 * * * *"

type sessionSweeper interface {
	Sweep(ctx context.Context) int
}

// TrackingSweepJob closes idle tracking sessions on a schedule.
type TrackingSweepJob struct {
	sweeper sessionSweeper
	spec    string
	cron    *cron.Cron
	logger  *slog.Logger
}

func NewTrackingSweepJob(sweeper sessionSweeper, spec string, logger *slog.Logger) *TrackingSweepJob {
	if spec == "" {
		spec = TrackingSweepSpec
	}
	return &TrackingSweepJob{
		sweeper: sweeper,
		spec:    spec,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "tracking_sweep_job"),
	}
}

func (j *TrackingSweepJob) Start() error {
	_, err := j.cron.AddFunc(j.spec, j.run)
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Tracking sweep job started", "spec", j.spec)
	return nil
}

func (j *TrackingSweepJob) run() {
	ctx := context.Background()
	if closed := j.sweeper.Sweep(ctx); closed > 0 {
		j.logger.InfoContext(ctx, "Idle tracking sessions closed", "count", closed)
	}
}

// Stop waits for a running sweep to finish.
func (j *TrackingSweepJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Tracking sweep job stopped")
}
