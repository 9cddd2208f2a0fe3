package handler

import (
	"net/http"

	"casedesk_backend/internal/audit/service"
	"casedesk_backend/internal/audit/transport"
	"casedesk_backend/platform/httpkit"
	"casedesk_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type leadNumberURI struct {
	LeadNumber string `uri:"leadNumber" validate:"required,max=64"`
}

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/leads/:leadNumber/audit", h.GetAuditTrail)
}

// GetAuditTrail returns the reconciled, time-ordered audit events for a lead.
func (h *Handler) GetAuditTrail(c *gin.Context) {
	var uri leadNumberURI
	if err := c.ShouldBindUri(&uri); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(uri); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	events, err := h.svc.Trail(c.Request.Context(), uri.LeadNumber)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.AuditTrailResponse{
		LeadNumber: uri.LeadNumber,
		Events:     events,
	})
}
