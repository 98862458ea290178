package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sshcollectorpro/consoleprov/internal/database"
	"github.com/sshcollectorpro/consoleprov/internal/model"
)

// RunStore 运行记录查询
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]model.ProvisionRun, error)
	GetRun(ctx context.Context, id string) (*model.ProvisionRun, error)
	ListOutcomes(ctx context.Context, runID string) ([]model.ProvisionOutcome, error)
	ListStatusRecords(ctx context.Context, serial string, limit int) ([]model.StatusRecord, error)
}

// RunHandler 批量运行与状态记录的只读接口
type RunHandler struct {
	store RunStore
}

// NewRunHandler 创建处理器
func NewRunHandler(store RunStore) *RunHandler {
	return &RunHandler{store: store}
}

func queryLimit(c *gin.Context) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.DefaultQuery("limit", "100")))
	if err != nil {
		return 100
	}
	return n
}

// ListRuns GET /api/v1/runs
func (h *RunHandler) ListRuns(c *gin.Context) {
	runs, err := h.store.ListRuns(c.Request.Context(), queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(runs), "items": runs})
}

// ListOutcomes GET /api/v1/runs/:id/outcomes
func (h *RunHandler) ListOutcomes(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	run, err := h.store.GetRun(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found", "id": id})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	rows, err := h.store.ListOutcomes(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "items": rows})
}

// ListStatusRecords GET /api/v1/status-records?serial=
func (h *RunHandler) ListStatusRecords(c *gin.Context) {
	rows, err := h.store.ListStatusRecords(c.Request.Context(), strings.TrimSpace(c.Query("serial")), queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(rows), "items": rows})
}
