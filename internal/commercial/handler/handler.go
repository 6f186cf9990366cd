// Package handler exposes the commercial HTTP endpoints.
package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"iei_backend/internal/commercial/service"
	"iei_backend/internal/commercial/transport"
	"iei_backend/platform/apperr"
	"iei_backend/platform/httpkit"
	"iei_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
)

// Handler handles HTTP requests for the commercial lifecycle.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new commercial handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeValidation, msgInvalidLeadID, nil)
		return uuid.Nil, false
	}
	return id, true
}

// CreateAgency registers an agency.
// POST /api/v1/admin/agencies
func (h *Handler) CreateAgency(c *gin.Context) {
	var req transport.CreateAgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeValidation, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeValidation, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateAgency(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListAgencies lists registered agencies.
// GET /api/v1/admin/agencies
func (h *Handler) ListAgencies(c *gin.Context) {
	result, err := h.svc.ListAgencies(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"agencies": result, "total": len(result)})
}

// Reserve places a reservation on a lead.
// POST /api/v1/admin/leads/:leadId/reserve
func (h *Handler) Reserve(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}
	var req transport.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeValidation, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeValidation, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Reserve(c.Request.Context(), leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Release drops whatever reservation a lead carries.
// POST /api/v1/admin/leads/:leadId/release
func (h *Handler) Release(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	result, err := h.svc.Release(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Sell records a sale.
// POST /api/v1/admin/leads/:leadId/sell
func (h *Handler) Sell(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}
	var req transport.SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeValidation, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeValidation, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Sell(c.Request.Context(), leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// State reports the commercial state of a lead.
// GET /api/v1/admin/leads/:leadId/commercial
func (h *Handler) State(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}
	result, err := h.svc.State(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ExportSales streams the sales export as CSV.
// GET /api/v1/admin/exports/sales.csv?from=...&to=...
func (h *Handler) ExportSales(c *gin.Context) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, apperr.CodeValidation, "invalid from timestamp", nil)
			return
		}
		from = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, apperr.CodeValidation, "invalid to timestamp", nil)
			return
		}
		to = &parsed
	}

	filename := fmt.Sprintf("sales-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.svc.ExportSalesCSV(c.Request.Context(), from, to, c.Writer); err != nil {
		// Headers are already out; the truncated body is the best signal left.
		c.Abort()
	}
}
