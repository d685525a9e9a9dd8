package api

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusComplete   = "complete"
	JobStatusFailed     = "failed"

	FileStatusPending    = "pending"
	FileStatusProcessing = "processing"
	FileStatusComplete   = "complete"
	FileStatusError      = "error"
)

// jobRetention bounds how long a finished job stays pollable. Clients
// poll every few seconds while a job runs, so an hour leaves ample slack
// for a tab left open after completion.
const jobRetention = time.Hour

// UploadJob tracks the progress of an extraction request across
// multiple uploaded files.
type UploadJob struct {
	ID        string           `json:"jobId"`
	UserID    int64            `json:"-"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Files     []FileProgress   `json:"files"`
	Results   []DocumentResult `json:"results,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// FileProgress captures per-file progress updates that the frontend polls.
type FileProgress struct {
	Index   int             `json:"index"`
	Name    string          `json:"name"`
	Status  string          `json:"status"`
	Step    string          `json:"step,omitempty"`
	Message string          `json:"message,omitempty"`
	Current int             `json:"current"`
	Total   int             `json:"total"`
	Percent int             `json:"percent"`
	Result  *DocumentResult `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// JobManager keeps in-flight upload jobs in memory. Each job is scoped
// to the user who created it, and terminal jobs older than the
// retention window are pruned on the next CreateJob, so the map stays
// bounded over the process lifetime.
type JobManager struct {
	mu        sync.RWMutex
	jobs      map[string]*UploadJob
	retention time.Duration
	now       func() time.Time
}

func NewJobManager() *JobManager {
	return &JobManager{
		jobs:      make(map[string]*UploadJob),
		retention: jobRetention,
		now:       time.Now,
	}
}

func (m *JobManager) CreateJob(userID int64, fileNames []string) (string, *UploadJob) {
	files := make([]FileProgress, len(fileNames))
	for i, name := range fileNames {
		files[i] = FileProgress{
			Index:  i,
			Name:   name,
			Status: FileStatusPending,
		}
	}
	now := m.now().UTC()
	job := &UploadJob{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Files:     files,
	}

	m.mu.Lock()
	m.pruneLocked(now)
	m.jobs[job.ID] = job
	m.mu.Unlock()

	return job.ID, job.snapshot()
}

// GetJob returns a detached copy of the job; callers never see live
// state that the worker goroutine is still mutating.
func (m *JobManager) GetJob(id string) (*UploadJob, bool) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return job.snapshot(), true
}

func (m *JobManager) MarkProcessing(id string) {
	m.update(id, func(job *UploadJob) {
		job.Status = JobStatusProcessing
	})
}

func (m *JobManager) MarkCompleted(id string) {
	m.update(id, func(job *UploadJob) {
		job.Status = JobStatusComplete
	})
}

func (m *JobManager) MarkFailed(id string, msg string) {
	m.update(id, func(job *UploadJob) {
		job.Status = JobStatusFailed
		job.Error = strings.TrimSpace(msg)
	})
}

func (m *JobManager) MarkFileStarted(id string, index int) {
	m.updateFile(id, index, func(_ *UploadJob, file *FileProgress) {
		file.Status = FileStatusProcessing
		file.Step = ""
		file.Message = "Starting"
		file.Current = 0
		file.Total = 100
		file.Percent = 0
		file.Error = ""
	})
}

func (m *JobManager) UpdateFileProgress(id string, index int, step, message string, current, total int) {
	m.updateFile(id, index, func(_ *UploadJob, file *FileProgress) {
		file.Status = FileStatusProcessing
		file.Step = step
		file.Message = message
		file.Current = current
		file.Total = total
		file.Percent = progressPercent(current, total)
	})
}

func (m *JobManager) MarkFileComplete(id string, index int, result DocumentResult) {
	m.updateFile(id, index, func(job *UploadJob, file *FileProgress) {
		file.Status = FileStatusComplete
		file.Step = "complete"
		file.Message = "Processing complete"
		file.Current = 100
		file.Total = 100
		file.Percent = 100
		file.Result = cloneResult(result)
		file.Error = ""
		job.Results = append(job.Results, result)
	})
}

func (m *JobManager) MarkFileError(id string, index int, message string, result DocumentResult) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = "processing error"
	}
	m.updateFile(id, index, func(job *UploadJob, file *FileProgress) {
		file.Status = FileStatusError
		file.Step = "error"
		file.Message = msg
		file.Error = msg
		file.Current = 100
		file.Total = 100
		file.Percent = 100
		file.Result = cloneResult(result)

		result.Status = FileStatusError
		if result.Message == "" {
			result.Message = msg
		}
		job.Results = append(job.Results, result)
	})
}

func (m *JobManager) update(id string, fn func(job *UploadJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = m.now().UTC()
}

func (m *JobManager) updateFile(id string, index int, fn func(job *UploadJob, file *FileProgress)) {
	m.update(id, func(job *UploadJob) {
		if index < 0 || index >= len(job.Files) {
			return
		}
		fn(job, &job.Files[index])
	})
}

// pruneLocked drops complete and failed jobs past the retention window.
// Callers hold mu; running jobs are never pruned.
func (m *JobManager) pruneLocked(now time.Time) {
	for id, job := range m.jobs {
		if job.Status != JobStatusComplete && job.Status != JobStatusFailed {
			continue
		}
		if now.Sub(job.UpdatedAt) > m.retention {
			delete(m.jobs, id)
		}
	}
}

func (job *UploadJob) snapshot() *UploadJob {
	if job == nil {
		return nil
	}
	copyJob := &UploadJob{
		ID:        job.ID,
		UserID:    job.UserID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
		Error:     job.Error,
	}
	if len(job.Files) > 0 {
		copyJob.Files = make([]FileProgress, len(job.Files))
		for i, file := range job.Files {
			copyJob.Files[i] = file
			if file.Result != nil {
				res := *file.Result
				copyJob.Files[i].Result = &res
			}
		}
	}
	if len(job.Results) > 0 {
		copyJob.Results = make([]DocumentResult, len(job.Results))
		copy(copyJob.Results, job.Results)
	}
	return copyJob
}

func cloneResult(result DocumentResult) *DocumentResult {
	res := result
	return &res
}

func progressPercent(current, total int) int {
	if total <= 0 {
		if current <= 0 {
			return 0
		}
		if current > 100 {
			return 100
		}
		return current
	}
	if current <= 0 {
		return 0
	}
	if current >= total {
		return 100
	}
	return int((float64(current) / float64(total)) * 100)
}
