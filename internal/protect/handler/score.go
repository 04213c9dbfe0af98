// Package handler exposes the protect score engine over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cybx-security/protect/internal/protect/engine"
	"github.com/cybx-security/protect/internal/protect/model"
)

// ScoreHandler handles HTTP requests for device protection scores.
type ScoreHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(eng *engine.Engine, logger *zap.Logger) *ScoreHandler {
	return &ScoreHandler{engine: eng, logger: logger}
}

// Register registers all score routes on the given router group.
func (h *ScoreHandler) Register(rg *gin.RouterGroup) {
	devices := rg.Group("/devices/:deviceId")
	{
		devices.GET("/score", h.GetScore)
		devices.POST("/score/preview", h.PreviewScore)
		devices.GET("/score/weekly-progress", h.WeeklyProgress)
		devices.GET("/protection-summary", h.ProtectionSummary)
		devices.POST("/engagement-events", h.RecordEvent)
	}
}

// deviceID parses the :deviceId path param, responding 400 on malformed input.
func (h *ScoreHandler) deviceID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("deviceId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device ID"})
		return uuid.Nil, false
	}
	return id, true
}

// GetScore handles GET /devices/:deviceId/score — recomputes the device's
// score from its full active-threat set and persists the result.
func (h *ScoreHandler) GetScore(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	result, err := h.engine.Calculate(c.Request.Context(), deviceID)
	if err != nil {
		h.logger.Error("calculate score", zap.String("device_id", deviceID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "score calculation failed"})
		return
	}

	RecordScoreCalculation("commit")
	ObserveTotalScore(result.TotalScore)
	c.JSON(http.StatusOK, result)
}

// PreviewScore handles POST /devices/:deviceId/score/preview — computes a
// what-if score over the supplied threat subset without persisting anything.
// The body must carry a non-empty list of UUIDv4 threat IDs.
func (h *ScoreHandler) PreviewScore(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	var req model.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.ThreatIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threat_ids must be a non-empty array"})
		return
	}

	threatIDs := make([]uuid.UUID, 0, len(req.ThreatIDs))
	for _, raw := range req.ThreatIDs {
		id, err := uuid.Parse(raw)
		if err != nil || id.Version() != 4 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threat_ids must contain only UUIDv4 strings"})
			return
		}
		threatIDs = append(threatIDs, id)
	}

	ignoreOthers := true
	if req.IgnoreOtherThreats != nil {
		ignoreOthers = *req.IgnoreOtherThreats
	}

	result, err := h.engine.Preview(c.Request.Context(), deviceID, threatIDs, ignoreOthers)
	if err != nil {
		h.logger.Error("preview score", zap.String("device_id", deviceID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "score preview failed"})
		return
	}

	RecordScoreCalculation("preview")
	c.JSON(http.StatusOK, result)
}

// WeeklyProgress handles GET /devices/:deviceId/score/weekly-progress.
func (h *ScoreHandler) WeeklyProgress(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	progress, err := h.engine.WeeklyProgress(c.Request.Context(), deviceID)
	if err != nil {
		h.logger.Error("weekly progress", zap.String("device_id", deviceID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load weekly progress"})
		return
	}

	c.JSON(http.StatusOK, progress)
}

// ProtectionSummary handles GET /devices/:deviceId/protection-summary.
// The scope query param is accepted for forward compatibility; both the
// active and lifetime blocks are always returned.
func (h *ScoreHandler) ProtectionSummary(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}
	_ = c.Query("scope")

	summary, err := h.engine.Summary(c.Request.Context(), deviceID)
	if err != nil {
		h.logger.Error("protection summary", zap.String("device_id", deviceID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load protection summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RecordEvent handles POST /devices/:deviceId/engagement-events — appends an
// engagement event, defaulting points from the configured rule for the type.
func (h *ScoreHandler) RecordEvent(c *gin.Context) {
	deviceID, ok := h.deviceID(c)
	if !ok {
		return
	}

	var req model.RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Points != nil && *req.Points < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "points must not be negative"})
		return
	}

	ev, err := h.engine.RecordEvent(c.Request.Context(), deviceID, &req)
	if err != nil {
		h.logger.Error("record engagement event", zap.String("device_id", deviceID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record event"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event": ev})
}
