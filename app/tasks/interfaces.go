package tasks

// SchedulerInterface defines the lifecycle of the background refresh loop.
// Used by the main application to start and stop periodic refreshes.
// Example usage:
//
//	scheduler := NewScheduler(channelRepo, jobManager)
//	scheduler.Start()
//	defer scheduler.Stop()
type SchedulerInterface interface {
	Start()
	Stop()
}
