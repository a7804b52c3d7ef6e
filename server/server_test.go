package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const vulnerableApp = `import os

password = "hardcoded_secret123"

def run(user_input):
    os.system("echo " + user_input)
`

func testAuth() *AuthService {
	return &AuthService{
		secret:   []byte("test-secret"),
		username: "demo_user",
		password: "demo_pass",
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	log := zap.NewNop().Sugar()
	return New(Config{Addr: ":0"}, NewManager(log), testAuth(), log)
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server) string {
	t.Helper()
	rec := doJSON(t, s.Handler(), http.MethodPost, "/token", "", tokenRequest{
		Username: "demo_user",
		Password: "demo_pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	assert.Equal(t, "bearer", resp["token_type"])
	return resp["access_token"]
}

func writeFixtureTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte(vulnerableApp), 0o644))
	return dir
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	rec := doJSON(t, s.Handler(), http.MethodPost, "/token", "", tokenRequest{
		Username: "demo_user",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	for _, path := range []string{"/api/v1/scans", "/api/v1/dashboard/stats"} {
		rec := doJSON(t, s.Handler(), http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/scans", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScanLifecycle(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	token := login(t, s)
	dir := writeFixtureTree(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/scans", token, ScanRequest{LocalPath: dir})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var started map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	scanID := started["scan_id"]
	require.NotEmpty(t, scanID)
	assert.Equal(t, "scan_started", started["status"])

	// Poll until the background scan completes.
	require.Eventually(t, func() bool {
		job, ok := s.manager.Job(scanID)
		return ok && job.Status == StatusCompleted
	}, 10*time.Second, 20*time.Millisecond)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/scans/"+scanID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Status  JobStatus `json:"status"`
		Results struct {
			ScanID          string  `json:"scan_id"`
			RiskScore       float64 `json:"risk_score"`
			Vulnerabilities []struct {
				Type string `json:"type"`
			} `json:"vulnerabilities"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, StatusCompleted, status.Status)
	assert.Equal(t, scanID, status.Results.ScanID)
	assert.NotEmpty(t, status.Results.Vulnerabilities)
	assert.Greater(t, status.Results.RiskScore, 0.0)
}

func TestScanValidation(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	token := login(t, s)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/scans", token, ScanRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetScanNotFound(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	token := login(t, s)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/scans/no-such-scan", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFailedScanReportsError(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	token := login(t, s)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/scans", token, ScanRequest{
		LocalPath: filepath.Join(t.TempDir(), "absent"),
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var started map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	scanID := started["scan_id"]

	require.Eventually(t, func() bool {
		job, ok := s.manager.Job(scanID)
		return ok && job.Status == StatusFailed
	}, 10*time.Second, 20*time.Millisecond)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/v1/scans/"+scanID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, string(StatusFailed), status["status"])
	assert.NotEmpty(t, status["error"])
}

func TestListScansFiltersByUser(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	token := login(t, s)
	dir := writeFixtureTree(t)

	// One scan for the API user, one planted for someone else.
	doJSON(t, s.Handler(), http.MethodPost, "/api/v1/scans", token, ScanRequest{LocalPath: dir})
	s.manager.StartScan(ScanRequest{LocalPath: dir}, "other_user")

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/scans", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Scans []Job `json:"scans"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Scans, 1)
	assert.Equal(t, "demo_user", resp.Scans[0].RequestedBy)
}

func TestDashboardAggregatesCompletedScans(t *testing.T) {
	t.Parallel()

	s := testServer(t)
	token := login(t, s)
	dir := writeFixtureTree(t)

	var scanIDs []string
	for i := 0; i < 2; i++ {
		rec := doJSON(t, s.Handler(), http.MethodPost, "/api/v1/scans", token, ScanRequest{LocalPath: dir})
		require.Equal(t, http.StatusAccepted, rec.Code)
		var started map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
		scanIDs = append(scanIDs, started["scan_id"])
	}

	require.Eventually(t, func() bool {
		for _, id := range scanIDs {
			job, ok := s.manager.Job(id)
			if !ok || job.Status != StatusCompleted {
				return false
			}
		}
		return true
	}, 10*time.Second, 20*time.Millisecond)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/v1/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dash DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, 2, dash.ScanCount)
	assert.Greater(t, dash.OverallStats.TotalVulnerabilities, 0)
	assert.Len(t, dash.Trends.Dates, 2)
	assert.Len(t, dash.Trends.RiskScores, 2)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	log := zap.NewNop().Sugar()
	s := New(Config{Addr: ":0", RequestsPerSecond: 1, Burst: 1}, NewManager(log), testAuth(), log)

	first := doJSON(t, s.Handler(), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, s.Handler(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	auth := testAuth()
	token, err := auth.IssueToken("demo_user")
	require.NoError(t, err)

	username, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "demo_user", username)

	_, err = auth.ValidateToken(token + "tampered")
	assert.Error(t, err)

	other := &AuthService{secret: []byte("different"), username: "x", password: "y"}
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestManagerCancelUnknownJob(t *testing.T) {
	t.Parallel()

	m := NewManager(zap.NewNop().Sugar())
	assert.False(t, m.Cancel("no-such-job"))
}

func TestManagerScanObservesCancellation(t *testing.T) {
	t.Parallel()

	m := NewManager(zap.NewNop().Sugar())
	dir := writeFixtureTree(t)

	job := &Job{
		ID:          "job-cancelled",
		LocalPath:   dir,
		RequestedBy: "demo_user",
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	m.cancels[job.ID] = cancel
	m.mu.Unlock()

	cancel()
	m.execute(ctx, job.ID, ScanRequest{LocalPath: dir})

	got, ok := m.Job(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Contains(t, got.Error, "context canceled")

	// The cancel func is retired once the scan finishes.
	assert.False(t, m.Cancel(job.ID))
}

func TestManagerCancelAllReleasesRunningScans(t *testing.T) {
	t.Parallel()

	m := NewManager(zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.cancels["job-live"] = cancel
	m.mu.Unlock()

	m.CancelAll()

	select {
	case <-ctx.Done():
	default:
		t.Fatal("CancelAll left a running scan uncancelled")
	}
}

func TestManagerRetiresCancelAfterCompletion(t *testing.T) {
	t.Parallel()

	m := NewManager(zap.NewNop().Sugar())
	job := m.StartScan(ScanRequest{LocalPath: writeFixtureTree(t)}, "demo_user")

	require.Eventually(t, func() bool {
		got, ok := m.Job(job.ID)
		return ok && got.Status == StatusCompleted
	}, 10*time.Second, 20*time.Millisecond)

	assert.False(t, m.Cancel(job.ID))
}
