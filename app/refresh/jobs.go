package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrJobNotFound is returned for unknown or already purged job ids.
var ErrJobNotFound = errors.New("job not found")

const (
	jobTTL         = 24 * time.Hour
	maxFinishedJob = 200
)

// JobStatus is the polled view of one batch refresh job.
type JobStatus struct {
	ID              string     `json:"job_id"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	Finished        bool       `json:"finished"`
	Cancelled       bool       `json:"cancelled"`
	CancelRequested bool       `json:"cancel_requested"`
	Done            int        `json:"done"`
	Total           int        `json:"total"`
	Refreshed       int        `json:"refreshed"`
	Skipped         int        `json:"skipped"`
	Failed          int        `json:"failed"`
	Current         string     `json:"current"`
	Message         string     `json:"message"`
}

type job struct {
	status JobStatus
}

// ChannelRefresher is the slice of the refresher the job worker needs.
type ChannelRefresher interface {
	RefreshChannel(ctx context.Context, channelID int64, force bool) Result
}

// JobManager owns the in-memory job table. One mutex guards the table;
// critical sections only touch the table, never the network. Batch workers
// run as independent goroutines, channels within one job sequentially.
type JobManager struct {
	mu        sync.Mutex
	jobs      map[string]*job
	refresher ChannelRefresher
	now       func() time.Time
}

func NewJobManager(refresher ChannelRefresher) *JobManager {
	return &JobManager{
		jobs:      make(map[string]*job),
		refresher: refresher,
		now:       time.Now,
	}
}

// StartJob launches a background batch refresh over the given channels and
// returns its id immediately.
func (m *JobManager) StartJob(channelIDs []int64, force bool) string {
	j := &job{
		status: JobStatus{
			ID:        uuid.NewString(),
			StartedAt: m.now().UTC(),
			Total:     len(channelIDs),
		},
	}

	m.mu.Lock()
	m.gcLocked()
	m.jobs[j.status.ID] = j
	m.mu.Unlock()

	slog.Info("Batch refresh started", "job_id", j.status.ID, "channels", len(channelIDs), "force", force)
	go m.runJob(j.status.ID, channelIDs, force)
	return j.status.ID
}

// GetStatus returns a snapshot of the job's counters.
func (m *JobManager) GetStatus(jobID string) (JobStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gcLocked()

	j, ok := m.jobs[jobID]
	if !ok {
		return JobStatus{}, ErrJobNotFound
	}
	return j.status, nil
}

// RequestCancel flips the cooperative cancel flag and nothing else: an
// in-flight channel fetch always runs to completion, and the worker stops
// at the next channel boundary.
func (m *JobManager) RequestCancel(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	if !j.status.Finished {
		j.status.CancelRequested = true
	}
	return nil
}

func (m *JobManager) runJob(jobID string, channelIDs []int64, force bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			slog.Error("Batch refresh panicked", "job_id", jobID, "panic", recovered)
			m.finalize(jobID, false, "unexpected refresh error")
		}
	}()

	for _, channelID := range channelIDs {
		if m.cancelRequested(jobID) {
			m.finalize(jobID, true, "cancelled")
			return
		}

		m.setCurrent(jobID, channelID)
		result := m.refresher.RefreshChannel(context.Background(), channelID, force)
		m.recordResult(jobID, result)
	}
	m.finalize(jobID, false, "completed")
}

func (m *JobManager) cancelRequested(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	return ok && j.status.CancelRequested
}

func (m *JobManager) setCurrent(jobID string, channelID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[jobID]; ok {
		j.status.Current = "channel " + strconv.FormatInt(channelID, 10)
	}
}

func (m *JobManager) recordResult(jobID string, result Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return
	}
	j.status.Done++
	if result.ChannelTitle != "" {
		j.status.Current = result.ChannelTitle
	}
	switch result.Outcome {
	case OutcomeRefreshed:
		j.status.Refreshed++
	case OutcomeSkipped:
		j.status.Skipped++
	default:
		j.status.Failed++
	}
}

func (m *JobManager) finalize(jobID string, cancelled bool, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.status.Finished {
		return
	}
	finishedAt := m.now().UTC()
	j.status.Finished = true
	j.status.Cancelled = cancelled
	j.status.FinishedAt = &finishedAt
	j.status.Message = message
	j.status.Current = ""
	slog.Info("Batch refresh finished",
		"job_id", jobID, "cancelled", cancelled,
		"refreshed", j.status.Refreshed, "skipped", j.status.Skipped, "failed", j.status.Failed)
}

// gcLocked purges finished jobs past the TTL, then enforces the finished-job
// cap by dropping the oldest-finished first. Caller holds the mutex.
func (m *JobManager) gcLocked() {
	now := m.now().UTC()

	var finished []*job
	for id, j := range m.jobs {
		if !j.status.Finished {
			continue
		}
		if j.status.FinishedAt != nil && now.Sub(*j.status.FinishedAt) > jobTTL {
			delete(m.jobs, id)
			continue
		}
		finished = append(finished, j)
	}

	if len(finished) <= maxFinishedJob {
		return
	}
	sort.Slice(finished, func(i, k int) bool {
		return jobFinishTime(finished[i]).Before(jobFinishTime(finished[k]))
	})
	for _, j := range finished[:len(finished)-maxFinishedJob] {
		delete(m.jobs, j.status.ID)
	}
}

func jobFinishTime(j *job) time.Time {
	if j.status.FinishedAt != nil {
		return *j.status.FinishedAt
	}
	return j.status.StartedAt
}
