package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dorian5656/nhsa-crm-sync/internal/model"
	"github.com/dorian5656/nhsa-crm-sync/internal/utils"
)

type SyncDetails struct {
	Message     string         `json:"message"`
	Error       string         `json:"error,omitempty"`
	ItemsSynced map[string]int `json:"items_synced,omitempty"`
}

// SyncRunner defines the interface for the sync service. It lets the
// handler run against the real implementation or a mock.
type SyncRunner interface {
	Run(ctx context.Context) (*model.RunSummary, error)
	LastRun() *model.RunSummary
}

// HistoryStore is the slice of the repository the handler needs for run
// bookkeeping.
type HistoryStore interface {
	CreateSyncHistory(ctx context.Context, syncType, status string, durationMs int64, details json.RawMessage) error
	GetSyncHistory(ctx context.Context, limit int) ([]model.SyncHistory, error)
}

type SyncHandler struct {
	Service SyncRunner
	Repo    HistoryStore
}

func NewSyncHandler(s SyncRunner, r HistoryStore) *SyncHandler {
	return &SyncHandler{
		Service: s,
		Repo:    r,
	}
}

// TriggerSync starts a full CRM push in the background.
// POST /api/v1/sync/crm
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	go func() {
		// New context for the goroutine; the request context dies with the
		// 202 response.
		ctx := context.Background()
		startTime := time.Now()

		detailsStart, _ := json.Marshal(SyncDetails{Message: "sync run started"})
		h.Repo.CreateSyncHistory(ctx, "crm-push", "running", 0, detailsStart)

		summary, err := h.Service.Run(ctx)
		durationMs := time.Since(startTime).Milliseconds()

		if err != nil {
			log.Printf("ERROR: sync run failed: %v", err)
			detailsEnd, _ := json.Marshal(SyncDetails{Message: "sync run failed", Error: err.Error()})
			h.Repo.CreateSyncHistory(ctx, "crm-push", "failed", durationMs, detailsEnd)
			return
		}

		detailsEnd, _ := json.Marshal(SyncDetails{
			Message:     "sync run completed",
			ItemsSynced: utils.ConvertSummaryToItems(*summary),
		})
		h.Repo.CreateSyncHistory(ctx, "crm-push", "success", durationMs, detailsEnd)
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "CRM sync has been started in the background."})
}

// GetSyncHistory lists recent runs.
// GET /api/v1/sync/history
func (h *SyncHandler) GetSyncHistory(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}

	history, err := h.Repo.GetSyncHistory(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get sync history"})
		return
	}

	c.JSON(http.StatusOK, history)
}

// GetLastRun returns the summary of the most recent finished run.
// GET /api/v1/sync/last
func (h *SyncHandler) GetLastRun(c *gin.Context) {
	summary := h.Service.LastRun()
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sync run has finished yet"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
