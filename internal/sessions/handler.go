package sessions

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/decision"
	"sourcing-backend/internal/shared/server/middleware"
	"sourcing-backend/internal/shared/server/respond"
	"sourcing-backend/internal/workflow"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.create)

	s := rg.Group("/sessions/:id")
	s.Use(func(c *gin.Context) {
		middleware.SetSessionID(c, c.Param("id"))
		c.Next()
	})
	s.GET("", h.get)
	s.DELETE("", h.delete)
	s.POST("/activities", h.addActivity)
	s.PATCH("/activities/:activityId", h.updateField)
	s.DELETE("/activities/:activityId", h.removeActivity)
	s.POST("/activities/:activityId/edit", h.enterEdit)
	s.DELETE("/edit", h.cancelEdit)
	s.POST("/navigation/next", h.next)
	s.POST("/navigation/back", h.back)
	s.POST("/navigation/skip", h.skip)
	s.POST("/submit", h.submit)
	s.GET("/results", h.results)
	s.GET("/results/summary", h.summary)
	s.GET("/export", h.export)
}

func (h *Handler) create(c *gin.Context) {
	snap, err := h.Svc.Create(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetSessionID(c, snap.ID)
	respond.JSON(c, http.StatusCreated, snap)
}

func (h *Handler) get(c *gin.Context) {
	snap, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, snap)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addActivity(c *gin.Context) {
	snap, err := h.Svc.AddActivity(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, snap)
}

type updateFieldRequest struct {
	Field string  `json:"field"`
	Value *string `json:"value"`
}

func (h *Handler) updateField(c *gin.Context) {
	activityID, ok := activityParam(c)
	if !ok {
		return
	}
	var req updateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Field == "" || req.Value == nil {
		respond.Error(c, http.StatusBadRequest, decision.ErrorCodeValidation, "field and value are required", nil)
		return
	}
	snap, err := h.Svc.UpdateField(c.Request.Context(), c.Param("id"), activityID, req.Field, *req.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, snap)
}

func (h *Handler) removeActivity(c *gin.Context) {
	activityID, ok := activityParam(c)
	if !ok {
		return
	}
	snap, err := h.Svc.RemoveActivity(c.Request.Context(), c.Param("id"), activityID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, snap)
}

func (h *Handler) enterEdit(c *gin.Context) {
	activityID, ok := activityParam(c)
	if !ok {
		return
	}
	snap, err := h.Svc.EnterEdit(c.Request.Context(), c.Param("id"), activityID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, snap)
}

func (h *Handler) cancelEdit(c *gin.Context) {
	snap, err := h.Svc.CancelEdit(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, snap)
}

func (h *Handler) next(c *gin.Context) {
	snap, err := h.Svc.Next(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, snap)
}

func (h *Handler) back(c *gin.Context) {
	snap, err := h.Svc.Back(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, snap)
}

type skipRequest struct {
	ActivityIndex *int `json:"activityIndex"`
}

func (h *Handler) skip(c *gin.Context) {
	var req skipRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ActivityIndex == nil {
		respond.Error(c, http.StatusBadRequest, decision.ErrorCodeValidation, "activityIndex is required", nil)
		return
	}
	snap, err := h.Svc.SkipTo(c.Request.Context(), c.Param("id"), *req.ActivityIndex)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, snap)
}

type submitRequest struct {
	ActivityIndex *int `json:"activityIndex"`
}

func (h *Handler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, decision.ErrorCodeValidation, "invalid request body", nil)
		return
	}
	res, err := h.Svc.Submit(c.Request.Context(), c.Param("id"), req.ActivityIndex)
	if err != nil {
		middleware.SetStatusTransition(c, failedTransition(err))
		writeError(c, err)
		return
	}
	switch {
	case res.Duplicate:
		middleware.SetStatusTransition(c, "deduplicating->idle")
	case res.Discarded:
		middleware.SetStatusTransition(c, "pending->discarded")
	default:
		middleware.SetStatusTransition(c, "pending->accepted")
		middleware.SetActivityID(c, res.Result.OriginalActivityID)
	}
	respond.OK(c, res)
}

func (h *Handler) results(c *gin.Context) {
	view, err := h.Svc.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"results": view})
}

func (h *Handler) summary(c *gin.Context) {
	groups, err := h.Svc.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"groups": groups})
}

func (h *Handler) export(c *gin.Context) {
	doc, err := h.Svc.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Attachment(c, doc.Filename, doc.MimeType, doc.Data)
}

func activityParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("activityId"))
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, decision.ErrorCodeValidation, "activityId must be a positive integer", nil)
		return 0, false
	}
	middleware.SetActivityID(c, id)
	return id, true
}

func failedTransition(err error) string {
	var verr *workflow.ValidationError
	switch {
	case errors.As(err, &verr):
		return "validating->idle"
	case errors.Is(err, workflow.ErrActivityLocked), errors.Is(err, workflow.ErrSubmissionPending):
		return "idle->idle"
	default:
		return "pending->failed"
	}
}

func writeError(c *gin.Context, err error) {
	var (
		verr      *workflow.ValidationError
		rejection *decision.RejectionError
		transport *decision.TransportError
	)
	switch {
	case errors.As(err, &verr):
		details := make([]decision.FieldProblem, 0, len(verr.Fields))
		for _, key := range verr.Keys() {
			details = append(details, decision.FieldProblem{Field: key, Issue: "required"})
		}
		respond.Error(c, http.StatusUnprocessableEntity, decision.ErrorCodeValidation, verr.Error(), details)
	case errors.As(err, &rejection):
		respond.Error(c, http.StatusUnprocessableEntity, decision.ErrorCodeRejected, rejection.Message, rejection.Problems)
	case errors.As(err, &transport), decision.IsRetryable(err):
		respond.Error(c, http.StatusBadGateway, decision.ErrorCodeUnavailable, "decision service unavailable, please try again", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
	case errors.Is(err, workflow.ErrActivityNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, workflow.ErrNothingToShow):
		respond.Error(c, http.StatusNotFound, "no_results", "No submitted results to show yet", nil)
	case errors.Is(err, workflow.ErrIndexOutOfRange), errors.Is(err, workflow.ErrUnknownField):
		respond.Error(c, http.StatusBadRequest, decision.ErrorCodeValidation, err.Error(), nil)
	case errors.Is(err, workflow.ErrActivityLocked):
		respond.Error(c, http.StatusConflict, "activity_locked", err.Error(), nil)
	case errors.Is(err, workflow.ErrSubmissionPending):
		respond.Error(c, http.StatusConflict, "submission_pending", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected server error", nil)
	}
}
