// Package handler exposes the zones HTTP endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"iei_backend/internal/zones/service"
	"iei_backend/internal/zones/transport"
	"iei_backend/platform/apperr"
	"iei_backend/platform/httpkit"
	"iei_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for zones.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new zones handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListActiveZones lists the active zones the public intake form offers.
// GET /api/v1/zones
func (h *Handler) ListActiveZones(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context(), false)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListZones lists all zones including inactive ones.
// GET /api/v1/admin/zones
func (h *Handler) ListZones(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	result, err := h.svc.List(c.Request.Context(), includeInactive)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetZone retrieves one zone by key.
// GET /api/v1/admin/zones/:zoneKey
func (h *Handler) GetZone(c *gin.Context) {
	result, err := h.svc.Get(c.Request.Context(), c.Param("zoneKey"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateZone creates a zone.
// POST /api/v1/admin/zones
func (h *Handler) CreateZone(c *gin.Context) {
	var req transport.CreateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeValidation, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeValidation, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// PatchZone patches a zone by key.
// PATCH /api/v1/admin/zones/:zoneKey
func (h *Handler) PatchZone(c *gin.Context) {
	var req transport.UpdateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeValidation, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeValidation, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Patch(c.Request.Context(), c.Param("zoneKey"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
