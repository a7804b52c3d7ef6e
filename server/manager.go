package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codeguardian-hq/codeguardian/core"
	"github.com/codeguardian-hq/codeguardian/core/findings"
	"github.com/codeguardian-hq/codeguardian/core/report"
	"github.com/codeguardian-hq/codeguardian/core/stats"
	"github.com/codeguardian-hq/codeguardian/core/workspace"
)

// JobStatus tracks a scan job through its lifecycle.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job is one requested scan with its state. The completed report lives in
// the manager, not on the job, so listing jobs stays cheap.
type Job struct {
	ID            string     `json:"scan_id"`
	RepositoryURL string     `json:"repository_url,omitempty"`
	LocalPath     string     `json:"local_path,omitempty"`
	Branch        string     `json:"branch,omitempty"`
	Depth         int        `json:"depth,omitempty"`
	ScanType      string     `json:"scan_type,omitempty"`
	RequestedBy   string     `json:"requested_by"`
	Status        JobStatus  `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// ScanRequest describes what to scan. Either RepositoryURL (cloned into a
// temporary workspace) or LocalPath (scanned in place) must be set.
type ScanRequest struct {
	RepositoryURL string `json:"repository_url"`
	LocalPath     string `json:"local_path"`
	Branch        string `json:"branch"`
	Depth         int    `json:"depth"`
	ScanType      string `json:"scan_type"`
}

// Manager owns the in-flight and completed scan registries. Scans run
// fire-and-forget in their own goroutines; callers poll job status and
// fetch reports once completed. Reports live in memory for the process
// lifetime only.
type Manager struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	order   []string
	reports map[string]report.ScanReport
	cancels map[string]context.CancelFunc

	log *zap.SugaredLogger
}

// NewManager returns an empty Manager logging through the given logger.
func NewManager(log *zap.SugaredLogger) *Manager {
	return &Manager{
		jobs:    make(map[string]*Job),
		reports: make(map[string]report.ScanReport),
		cancels: make(map[string]context.CancelFunc),
		log:     log,
	}
}

// StartScan registers a new job and launches its scan in the background.
// The returned job snapshot carries the ID the caller polls with.
func (m *Manager) StartScan(req ScanRequest, requestedBy string) Job {
	job := &Job{
		ID:            uuid.NewString(),
		RepositoryURL: req.RepositoryURL,
		LocalPath:     req.LocalPath,
		Branch:        req.Branch,
		Depth:         req.Depth,
		ScanType:      req.ScanType,
		RequestedBy:   requestedBy,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	m.cancels[job.ID] = cancel
	m.mu.Unlock()

	m.log.Infow("scan requested",
		"scan_id", job.ID,
		"repository", req.RepositoryURL,
		"requested_by", requestedBy,
	)

	go m.execute(ctx, job.ID, req)
	return *job
}

// execute runs one scan to completion and records the outcome. The
// workspace is released on every exit path, and the job's cancel func is
// retired so Cancel and CancelAll only reach live scans.
func (m *Manager) execute(ctx context.Context, jobID string, req ScanRequest) {
	defer m.retireCancel(jobID)

	m.setRunning(jobID)

	var (
		ws  *workspace.Workspace
		err error
	)
	if req.RepositoryURL != "" {
		ws, err = workspace.Fetch(ctx, workspace.FetchOptions{
			URL:    req.RepositoryURL,
			Branch: req.Branch,
			Depth:  req.Depth,
		})
	} else {
		ws, err = workspace.Open(req.LocalPath)
	}
	if err != nil {
		m.setFailed(jobID, err)
		return
	}
	defer ws.Close()

	result, err := core.RunScanWithOptions(ctx, ws.Root, core.ScanOptions{
		ScanID:   jobID,
		ScanType: req.ScanType,
	})
	if err != nil {
		m.setFailed(jobID, err)
		return
	}

	now := time.Now().UTC()
	m.mu.Lock()
	m.reports[jobID] = result.Report
	if job, ok := m.jobs[jobID]; ok {
		job.Status = StatusCompleted
		job.CompletedAt = &now
	}
	m.mu.Unlock()

	m.log.Infow("scan completed",
		"scan_id", jobID,
		"findings", len(result.Report.Vulnerabilities),
		"risk_score", result.Report.RiskScore,
	)
}

// Cancel requests cooperative cancellation of a running scan. It returns
// false when the job does not exist or has already finished.
func (m *Manager) Cancel(jobID string) bool {
	m.mu.Lock()
	cancel, ok := m.cancels[jobID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// CancelAll cancels every scan still running. Called on server shutdown so
// no clone or detection goroutine outlives the process drain.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(m.cancels))
	for _, cancel := range m.cancels {
		cancels = append(cancels, cancel)
	}
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// retireCancel releases the job's cancel func once the scan has finished.
func (m *Manager) retireCancel(jobID string) {
	m.mu.Lock()
	cancel, ok := m.cancels[jobID]
	delete(m.cancels, jobID)
	m.mu.Unlock()
	if ok {
		cancel()
	}
}

func (m *Manager) setRunning(jobID string) {
	now := time.Now().UTC()
	m.mu.Lock()
	if job, ok := m.jobs[jobID]; ok {
		job.Status = StatusRunning
		job.StartedAt = &now
	}
	m.mu.Unlock()
}

func (m *Manager) setFailed(jobID string, err error) {
	now := time.Now().UTC()
	m.mu.Lock()
	if job, ok := m.jobs[jobID]; ok {
		job.Status = StatusFailed
		job.CompletedAt = &now
		job.Error = err.Error()
	}
	m.mu.Unlock()

	m.log.Errorw("scan failed", "scan_id", jobID, "error", err)
}

// Job returns a snapshot of the job with the given ID.
func (m *Manager) Job(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Jobs lists the jobs requested by the given user, oldest first.
func (m *Manager) Jobs(requestedBy string) []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Job, 0, len(m.order))
	for _, id := range m.order {
		job := m.jobs[id]
		if job.RequestedBy != requestedBy {
			continue
		}
		out = append(out, *job)
	}
	return out
}

// Report returns the completed report for a scan, if any.
func (m *Manager) Report(id string) (report.ScanReport, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	return r, ok
}

// DashboardStats aggregates all of a user's completed scans into overall
// statistics and trend series.
type DashboardStats struct {
	OverallStats stats.Stats       `json:"overall_stats"`
	Trends       stats.TrendSeries `json:"trends"`
	ScanCount    int               `json:"scan_count"`
}

// Dashboard builds the aggregated dashboard view for one user.
func (m *Manager) Dashboard(requestedBy string) DashboardStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var scanIDs []string
	var combined []findings.Finding
	summaries := make(map[string]stats.ScanSummary)
	for _, id := range m.order {
		job := m.jobs[id]
		if job.RequestedBy != requestedBy || job.Status != StatusCompleted {
			continue
		}
		scanIDs = append(scanIDs, id)
		if r, ok := m.reports[id]; ok {
			summaries[id] = r.Summary()
			combined = append(combined, r.Vulnerabilities...)
		}
	}

	return DashboardStats{
		OverallStats: stats.Generate(combined),
		Trends:       stats.Trend(scanIDs, summaries),
		ScanCount:    len(scanIDs),
	}
}
