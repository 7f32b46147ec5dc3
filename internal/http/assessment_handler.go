package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"psy-assess/internal/catalog"
	"psy-assess/internal/domain"
	"psy-assess/internal/engine"
	"psy-assess/internal/service"
)

// AssessmentHandler expone las corridas de evaluación sobre HTTP.
type AssessmentHandler struct {
	logger *zap.Logger
	svc    *service.AssessmentService
	tokens *service.RunTokenService
}

// NewAssessmentHandler crea una instancia de AssessmentHandler con dependencias necesarias.
func NewAssessmentHandler(logger *zap.Logger, svc *service.AssessmentService, tokens *service.RunTokenService) *AssessmentHandler {
	return &AssessmentHandler{
		logger: logger,
		svc:    svc,
		tokens: tokens,
	}
}

// Start maneja POST /assessments.
func (h *AssessmentHandler) Start(c *gin.Context) {
	view, err := h.svc.Start(c.Request.Context(), c.ClientIP())
	if err != nil {
		h.writeError(c, "start assessment", err)
		return
	}
	token, expiresAt, err := h.tokens.Issue(view.RunID)
	if err != nil {
		h.logger.Error("issue run token failed", zap.String("run_id", view.RunID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue run token"})
		return
	}
	runsStartedTotal.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"run_id":     view.RunID,
		"token":      token,
		"expires_at": expiresAt,
		"run":        view,
	})
}

// Get maneja GET /assessments/:id.
func (h *AssessmentHandler) Get(c *gin.Context) {
	view, err := h.svc.View(c.Request.Context(), runID(c))
	if err != nil {
		h.writeError(c, "get assessment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": view})
}

// SelectGender maneja POST /assessments/:id/gender.
func (h *AssessmentHandler) SelectGender(c *gin.Context) {
	var req struct {
		Gender string `json:"gender" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid gender request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	gender, ok := domain.ParseGender(req.Gender)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown gender"})
		return
	}
	view, err := h.svc.SelectGender(c.Request.Context(), runID(c), gender)
	if err != nil {
		h.writeError(c, "select gender", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": view})
}

// SelectBracket maneja POST /assessments/:id/bracket. Un bracket vacío es válido.
func (h *AssessmentHandler) SelectBracket(c *gin.Context) {
	var req struct {
		Bracket string `json:"bracket"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid bracket request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	bracket, ok := domain.ParseBracket(req.Bracket)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown bracket"})
		return
	}
	view, err := h.svc.SelectBracket(c.Request.Context(), runID(c), bracket)
	if err != nil {
		h.writeError(c, "select bracket", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": view})
}

// Answer maneja POST /assessments/:id/answers con un AnswerValue
// ({"kind":"single","index":1}, {"kind":"multi","indices":[0,2]} o {"kind":"scale","value":4}).
func (h *AssessmentHandler) Answer(c *gin.Context) {
	var req domain.AnswerValue
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid answer request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	switch req.Kind {
	case domain.AnswerSingle, domain.AnswerMulti, domain.AnswerScale:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown answer kind"})
		return
	}
	view, err := h.svc.Answer(c.Request.Context(), runID(c), req)
	if err != nil {
		h.writeError(c, "answer", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": view})
}

// Next maneja POST /assessments/:id/next.
func (h *AssessmentHandler) Next(c *gin.Context) {
	view, err := h.svc.Next(c.Request.Context(), runID(c))
	if err != nil {
		h.writeError(c, "next", err)
		return
	}
	if view.State == domain.StateFinalized {
		runsFinalizedTotal.WithLabelValues(string(view.Gender)).Inc()
	}
	c.JSON(http.StatusOK, gin.H{"run": view})
}

// Prev maneja POST /assessments/:id/prev.
func (h *AssessmentHandler) Prev(c *gin.Context) {
	view, err := h.svc.Prev(c.Request.Context(), runID(c))
	if err != nil {
		h.writeError(c, "prev", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": view})
}

// Finalize maneja POST /assessments/:id/finalize.
func (h *AssessmentHandler) Finalize(c *gin.Context) {
	res, err := h.svc.Finalize(c.Request.Context(), runID(c))
	if err != nil {
		h.writeError(c, "finalize", err)
		return
	}
	runsFinalizedTotal.WithLabelValues(string(res.Gender)).Inc()
	c.JSON(http.StatusOK, gin.H{"result": res})
}

// Result maneja GET /assessments/:id/result.
func (h *AssessmentHandler) Result(c *gin.Context) {
	res, err := h.svc.Result(c.Request.Context(), runID(c))
	if err != nil {
		h.writeError(c, "result", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}

// Export maneja GET /assessments/:id/export.
func (h *AssessmentHandler) Export(c *gin.Context) {
	exp, err := h.svc.Export(c.Request.Context(), runID(c))
	if err != nil {
		h.writeError(c, "export", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"export": exp})
}

// Abandon maneja DELETE /assessments/:id.
func (h *AssessmentHandler) Abandon(c *gin.Context) {
	if err := h.svc.Abandon(c.Request.Context(), runID(c)); err != nil {
		h.writeError(c, "abandon", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func runID(c *gin.Context) string {
	if claims, ok := GetRunClaims(c); ok {
		return claims.RunID
	}
	return c.Param("id")
}

// writeError traduce los errores del servicio y del motor a códigos HTTP.
func (h *AssessmentHandler) writeError(c *gin.Context, op string, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, engine.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, engine.ErrAlreadyFinalized):
		status, msg = http.StatusConflict, "assessment already finalized"
	case errors.Is(err, engine.ErrInvalidState):
		status, msg = http.StatusConflict, "operation not allowed in current state"
	case errors.Is(err, service.ErrResultNotReady):
		status, msg = http.StatusConflict, "assessment not finalized"
	case errors.Is(err, service.ErrRunNotFound):
		status, msg = http.StatusNotFound, "assessment not found"
	case errors.Is(err, service.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, "too many assessments started"
		runsRejectedTotal.WithLabelValues("rate_limited").Inc()
	case errors.Is(err, catalog.ErrCatalogLoad):
		status, msg = http.StatusServiceUnavailable, "catalog unavailable"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", zap.String("run_id", c.Param("id")), zap.Error(err))
	} else {
		h.logger.Warn(op+" rejected", zap.String("run_id", c.Param("id")), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}
