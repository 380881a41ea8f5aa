// Package jobs provides the background work of the order service.
//
// # Available Jobs
//
//  1. TrackingSweepJob closes tracking sessions idle for more than two hours.
//     It runs on a robfig/cron schedule, every 30 minutes by default.
//  2. PickupCompletionScheduler completes pickup orders a fixed delay after
//     they were picked up. It is a post-commit hook that arms a timer per
//     order; the timer issues CompletePickupOrderCommand, which re-reads the
//     order and skips it if it is no longer picked_up.
//
// # Usage
//
//	scheduler := jobs.NewPickupCompletionScheduler(completeHandler, delay, logger)
//	hooks.Register(scheduler)
//	jobManager := jobs.NewJobManager(jobs.NewTrackingSweepJob(manager, "", logger), scheduler)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// A completion that lost against a cancellation is logged at debug level.
// Any other failure is logged as an error; nothing is retried.
package jobs
