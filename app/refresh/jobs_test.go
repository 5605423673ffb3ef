package refresh

import (
	"context"
	"sync"
	"testing"
	"time"
)

type scriptedRefresher struct {
	mu       sync.Mutex
	calls    int
	onSecond func()
	outcome  Outcome
}

func (s *scriptedRefresher) RefreshChannel(_ context.Context, channelID int64, _ bool) Result {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()

	if call == 2 && s.onSecond != nil {
		s.onSecond()
	}
	return Result{Outcome: s.outcome, Message: "done", ChannelTitle: "channel"}
}

func waitFinished(t *testing.T, m *JobManager, jobID string) JobStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, err := m.GetStatus(jobID)
		if err != nil {
			t.Fatalf("GetStatus: %v", err)
		}
		if status.Finished {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never finished")
	return JobStatus{}
}

func TestJobRunsAllChannels(t *testing.T) {
	refresher := &scriptedRefresher{outcome: OutcomeRefreshed}
	m := NewJobManager(refresher)

	jobID := m.StartJob([]int64{1, 2, 3}, false)
	status := waitFinished(t, m, jobID)

	if status.Done != 3 || status.Refreshed != 3 || status.Failed != 0 {
		t.Errorf("status = %+v, want 3 refreshed", status)
	}
	if status.Cancelled {
		t.Error("job should not be cancelled")
	}
	if status.Refreshed+status.Skipped+status.Failed != status.Done {
		t.Error("counters must add up to done")
	}
}

func TestJobCancelStopsAtChannelBoundary(t *testing.T) {
	m := NewJobManager(nil)
	jobIDs := make(chan string, 1)
	refresher := &scriptedRefresher{
		outcome: OutcomeRefreshed,
		onSecond: func() {
			if err := m.RequestCancel(<-jobIDs); err != nil {
				t.Errorf("RequestCancel: %v", err)
			}
		},
	}
	m.refresher = refresher

	jobID := m.StartJob([]int64{1, 2, 3, 4, 5}, false)
	jobIDs <- jobID
	status := waitFinished(t, m, jobID)

	if !status.Cancelled {
		t.Error("job should finish cancelled")
	}
	if status.Done < 2 || status.Done > 3 {
		t.Errorf("done = %d, want 2 or 3", status.Done)
	}
	if status.Refreshed+status.Skipped+status.Failed != status.Done {
		t.Error("counters must add up to done")
	}
}

// blockingRefresher requests cancellation of its own job mid-refresh, then
// reports whether the context it was handed got cancelled.
type blockingRefresher struct {
	cancelJob   func()
	interrupted chan bool
}

func (b *blockingRefresher) RefreshChannel(ctx context.Context, _ int64, _ bool) Result {
	b.cancelJob()
	select {
	case <-ctx.Done():
		b.interrupted <- true
	case <-time.After(50 * time.Millisecond):
		b.interrupted <- false
	}
	return Result{Outcome: OutcomeRefreshed, ChannelTitle: "channel"}
}

func TestJobCancelDoesNotInterruptInFlightRefresh(t *testing.T) {
	m := NewJobManager(nil)
	jobIDs := make(chan string, 1)
	refresher := &blockingRefresher{
		cancelJob: func() {
			if err := m.RequestCancel(<-jobIDs); err != nil {
				t.Errorf("RequestCancel: %v", err)
			}
		},
		interrupted: make(chan bool, 1),
	}
	m.refresher = refresher

	jobID := m.StartJob([]int64{1, 2}, false)
	jobIDs <- jobID

	if <-refresher.interrupted {
		t.Error("a cancel request must not abort the in-flight channel refresh")
	}

	status := waitFinished(t, m, jobID)
	if !status.Cancelled {
		t.Error("job should finish cancelled")
	}
	if status.Done != 1 || status.Refreshed != 1 {
		t.Errorf("done = %d refreshed = %d, want the first channel completed", status.Done, status.Refreshed)
	}
}

func TestJobStatusUnknownID(t *testing.T) {
	m := NewJobManager(&scriptedRefresher{})
	if _, err := m.GetStatus("nope"); err != ErrJobNotFound {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
	if err := m.RequestCancel("nope"); err != ErrJobNotFound {
		t.Errorf("cancel err = %v, want ErrJobNotFound", err)
	}
}

func TestJobGCPurgesExpired(t *testing.T) {
	refresher := &scriptedRefresher{outcome: OutcomeRefreshed}
	m := NewJobManager(refresher)

	jobID := m.StartJob([]int64{1}, false)
	waitFinished(t, m, jobID)

	m.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if _, err := m.GetStatus(jobID); err != ErrJobNotFound {
		t.Errorf("err = %v, want ErrJobNotFound after the TTL", err)
	}
}

func TestJobGCKeepsRecentFinished(t *testing.T) {
	refresher := &scriptedRefresher{outcome: OutcomeSkipped}
	m := NewJobManager(refresher)

	jobID := m.StartJob([]int64{1}, false)
	status := waitFinished(t, m, jobID)
	if status.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", status.Skipped)
	}

	if _, err := m.GetStatus(jobID); err != nil {
		t.Errorf("a freshly finished job must survive GC, got %v", err)
	}
}
