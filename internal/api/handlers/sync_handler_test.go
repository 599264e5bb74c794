package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/dorian5656/nhsa-crm-sync/internal/model"
)

type fakeRunner struct {
	summary *model.RunSummary
	err     error
	last    *model.RunSummary
}

func (f *fakeRunner) Run(context.Context) (*model.RunSummary, error) {
	return f.summary, f.err
}

func (f *fakeRunner) LastRun() *model.RunSummary { return f.last }

type historyEntry struct {
	syncType string
	status   string
	details  json.RawMessage
}

type fakeHistoryStore struct {
	mu      sync.Mutex
	entries []historyEntry
	history []model.SyncHistory
	err     error
}

func (f *fakeHistoryStore) CreateSyncHistory(_ context.Context, syncType, status string, _ int64, details json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, historyEntry{syncType: syncType, status: status, details: details})
	return nil
}

func (f *fakeHistoryStore) GetSyncHistory(context.Context, int) ([]model.SyncHistory, error) {
	return f.history, f.err
}

func (f *fakeHistoryStore) statuses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.status)
	}
	return out
}

func newSyncRouter(h *SyncHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/sync/crm", h.TriggerSync)
	r.GET("/api/v1/sync/history", h.GetSyncHistory)
	r.GET("/api/v1/sync/last", h.GetLastRun)
	return r
}

func TestTriggerSync(t *testing.T) {
	store := &fakeHistoryStore{}
	runner := &fakeRunner{summary: &model.RunSummary{Total: 3, SuccessCount: 3}}
	r := newSyncRouter(NewSyncHandler(runner, store))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/crm", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Eventually(t, func() bool {
		s := store.statuses()
		return len(s) == 2 && s[0] == "running" && s[1] == "success"
	}, time.Second, 10*time.Millisecond)
}

func TestTriggerSyncRunFailure(t *testing.T) {
	store := &fakeHistoryStore{}
	runner := &fakeRunner{err: errors.New("auth rejected")}
	r := newSyncRouter(NewSyncHandler(runner, store))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sync/crm", nil))

	// The trigger still answers 202; the failure lands in sync_history.
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Eventually(t, func() bool {
		s := store.statuses()
		return len(s) == 2 && s[1] == "failed"
	}, time.Second, 10*time.Millisecond)

	store.mu.Lock()
	defer store.mu.Unlock()
	var details SyncDetails
	require.NoError(t, json.Unmarshal(store.entries[1].details, &details))
	require.Equal(t, "auth rejected", details.Error)
}

func TestGetSyncHistory(t *testing.T) {
	store := &fakeHistoryStore{history: []model.SyncHistory{{ID: 1, SyncType: "crm-push", Status: "success"}}}
	r := newSyncRouter(NewSyncHandler(&fakeRunner{}, store))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync/history", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var history []model.SyncHistory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
	require.Equal(t, "crm-push", history[0].SyncType)
}

func TestGetSyncHistoryBadLimit(t *testing.T) {
	r := newSyncRouter(NewSyncHandler(&fakeRunner{}, &fakeHistoryStore{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync/history?limit=abc", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLastRun(t *testing.T) {
	r := newSyncRouter(NewSyncHandler(&fakeRunner{}, &fakeHistoryStore{}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync/last", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	r = newSyncRouter(NewSyncHandler(&fakeRunner{last: &model.RunSummary{Total: 5, SuccessCount: 4, FailCount: 1}}, &fakeHistoryStore{}))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sync/last", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var summary model.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	require.Equal(t, 5, summary.Total)
}
