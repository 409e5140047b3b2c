package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/civicdesk/backend/internal/cache"
	"github.com/civicdesk/backend/internal/dashboard"
	"github.com/civicdesk/backend/internal/db"
	"github.com/civicdesk/backend/internal/models"
	"github.com/civicdesk/backend/internal/service"
)

type Handler struct {
	Store       *db.Store
	Intake      *service.IntakeService
	Processor   *service.ProcessingService
	Escalations *service.EscalationService
	Grid        *dashboard.PressureGrid
	Cache       *cache.SummaryCache
	Validator   *validator.Validate
	Logger      zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Submit a complaint
// @Description Citizen files a civic complaint; it is classified on the next processing run
// @Tags complaints
// @Accept json
// @Produce json
// @Param complaint body service.SubmitInput true "complaint"
// @Success 201 {object} models.Complaint
// @Failure 400 {object} map[string]any
// @Router /api/complaints [post]
func (h *Handler) SubmitComplaint(c *gin.Context) {
	var in service.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(in); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	complaint, err := h.Intake.Submit(c.Request.Context(), in)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to store complaint", err.Error())
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

func (h *Handler) ComplaintsList(c *gin.Context) {
	status := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	department := strings.TrimSpace(c.Query("department"))
	severity := strings.ToLower(strings.TrimSpace(c.Query("severity")))
	q := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Store.ListComplaints(c.Request.Context(), status, department, severity, q, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list complaints", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) ComplaintDetails(c *gin.Context) {
	id := c.Param("id")
	result, err := h.Store.GetComplaintDetails(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Complaint not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get complaint", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Complaint progress steps
// @Tags complaints
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/complaints/{id}/progress [get]
func (h *Handler) ComplaintProgress(c *gin.Context) {
	id := c.Param("id")
	complaint, err := h.Store.GetComplaint(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Complaint not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get complaint", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"complaint_id": id,
		"status":       complaint.Status,
		"steps":        dashboard.Progress(complaint.Status),
	})
}

// @Summary Run classification and escalation sweep
// @Tags process
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/process [post]
func (h *Handler) Process(c *gin.Context) {
	runID, err := h.Store.CreateRun(c.Request.Context(), "RUNNING")
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to create run")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create run", err.Error())
		return
	}

	classSummary, classErr := h.Processor.Run(c.Request.Context())
	sweepSummary, sweepErr := h.Escalations.Sweep(c.Request.Context(), time.Now().UTC())

	result := gin.H{
		"classification": classSummary,
		"escalation":     sweepSummary,
	}
	status := "SUCCESS"
	if classErr != nil || sweepErr != nil {
		status = "FAILED"
	}
	b, _ := json.Marshal(result)
	if finishErr := h.Store.FinishRun(c.Request.Context(), runID, status, b); finishErr != nil {
		h.Logger.Error().Err(finishErr).Msg("failed to finish run")
	}

	if classErr != nil {
		writeError(c, http.StatusInternalServerError, "PROCESSING_ERROR", "Classification run failed", classErr.Error())
		return
	}
	if sweepErr != nil {
		writeError(c, http.StatusInternalServerError, "PROCESSING_ERROR", "Escalation sweep failed", sweepErr.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) RunsLatest(c *gin.Context) {
	result, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
	Actor  string `json:"actor"`
}

func (h *Handler) SetStatus(c *gin.Context) {
	id := c.Param("id")
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	status := models.Status(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown status", req.Status)
		return
	}

	if err := h.Intake.SetStatus(c.Request.Context(), id, status, models.ActorAdmin, req.Actor); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Complaint not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to update status", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Resolve(c *gin.Context) {
	id := c.Param("id")
	actor := c.Query("actor")
	if err := h.Intake.SetStatus(c.Request.Context(), id, models.StatusResolved, models.ActorAdmin, actor); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Complaint not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to resolve", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type EscalateRequest struct {
	Reason string `json:"reason" validate:"required"`
	Actor  string `json:"actor"`
}

// @Summary Manually escalate a complaint
// @Tags escalation
// @Accept json
// @Produce json
// @Success 200 {object} models.EscalationEvent
// @Router /api/complaints/{id}/escalate [post]
func (h *Handler) Escalate(c *gin.Context) {
	id := c.Param("id")
	var req EscalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	ev, err := h.Escalations.Escalate(c.Request.Context(), id, req.Reason, models.ActorAdmin, req.Actor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Complaint not found", nil)
			return
		}
		if errors.Is(err, db.ErrStaleEscalation) {
			writeError(c, http.StatusConflict, "STALE_ESCALATION", "Escalation level changed concurrently or is already at the maximum", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to escalate", err.Error())
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (h *Handler) DashboardPressure(c *gin.Context) {
	active, tickedAt := h.Grid.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"active":    active,
		"grid_size": 100,
		"ticked_at": tickedAt,
	})
}

type dashboardSummary struct {
	ByStatus   []db.StatusCount   `json:"by_status"`
	BySeverity []db.SeverityCount `json:"by_severity"`
	Overdue    int                `json:"overdue"`
	At         time.Time          `json:"at"`
}

const summaryCacheKey = "dashboard:summary"

// @Summary Dashboard summary
// @Tags dashboard
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/dashboard/summary [get]
func (h *Handler) DashboardSummary(c *gin.Context) {
	ctx := c.Request.Context()

	var cached dashboardSummary
	if h.Cache.Get(ctx, summaryCacheKey, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	byStatus, err := h.Store.CountByStatus(ctx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load summary", err.Error())
		return
	}
	bySeverity, err := h.Store.CountBySeverity(ctx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load summary", err.Error())
		return
	}
	overdue, err := h.Store.CountOverdue(ctx, time.Now().UTC())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load summary", err.Error())
		return
	}

	summary := dashboardSummary{
		ByStatus:   byStatus,
		BySeverity: bySeverity,
		Overdue:    overdue,
		At:         time.Now().UTC(),
	}
	h.Cache.Set(ctx, summaryCacheKey, summary)
	h.Grid.SetLoad(overdue)
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) RolesList(c *gin.Context) {
	roles, err := dashboard.Roles(c.Query("selected"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown role", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": roles})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
