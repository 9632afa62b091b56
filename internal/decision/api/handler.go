// Package api exposes the in-process decision rules over HTTP.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/decision"
	"sourcing-backend/internal/export"
	"sourcing-backend/internal/shared/server/respond"
)

// Handler serves the decision collaborator endpoints.
type Handler struct {
	Decider  decision.Collaborator
	Exporter export.Exporter
}

// NewHandler constructs a Handler.
func NewHandler(decider decision.Collaborator, exporter export.Exporter) *Handler {
	return &Handler{Decider: decider, Exporter: exporter}
}

// Request is the batch payload accepted by both endpoints.
type Request struct {
	Inputs []decision.Answers `json:"inputs"`
}

// Response carries one result per input, in order.
type Response struct {
	Results []decision.Result `json:"results"`
}

// RegisterRoutes attaches decision routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/decision/determine", h.determine)
	rg.POST("/decision/export", h.exportWorkbook)
}

func (h *Handler) determine(c *gin.Context) {
	results, ok := h.decide(c)
	if !ok {
		return
	}
	respond.OK(c, Response{Results: results})
}

func (h *Handler) exportWorkbook(c *gin.Context) {
	if h.Exporter == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "export not configured", nil)
		return
	}
	results, ok := h.decide(c)
	if !ok {
		return
	}
	rows := make([]export.Row, 0, len(results))
	for _, r := range results {
		row := export.Row{Answers: r.Answers, HasResult: true, Outcome: r.Outcome}
		if r.Timestamp != nil {
			row.Timestamp = *r.Timestamp
		}
		rows = append(rows, row)
	}
	doc, err := h.Exporter.Export(c.Request.Context(), rows)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "export_failed", "failed to export decisions", nil)
		return
	}
	respond.Attachment(c, doc.Filename, doc.MimeType, doc.Data)
}

func (h *Handler) decide(c *gin.Context) ([]decision.Result, bool) {
	if h.Decider == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "decision engine not configured", nil)
		return nil, false
	}
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, decision.ErrorCodeValidation, "invalid request body", nil)
		return nil, false
	}
	if len(req.Inputs) == 0 {
		respond.Error(c, http.StatusBadRequest, decision.ErrorCodeValidation, "inputs must not be empty", nil)
		return nil, false
	}

	results, err := h.Decider.Decide(c.Request.Context(), req.Inputs)
	if err != nil {
		var rejection *decision.RejectionError
		if errors.As(err, &rejection) {
			respond.Error(c, http.StatusBadRequest, decision.ErrorCodeValidation, rejection.Message, rejection.Problems)
			return nil, false
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to determine outcomes", nil)
		return nil, false
	}
	return results, true
}
