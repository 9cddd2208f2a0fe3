package handler

import (
	"net/http"

	"casedesk_backend/internal/hierarchy/service"
	"casedesk_backend/internal/hierarchy/transport"
	"casedesk_backend/internal/refcache"
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

type stageURI struct {
	ID string `uri:"id" validate:"required,max=64"`
}

type Handler struct {
	svc  *service.Service
	refs *refcache.Cache
	val  *validator.Validator
}

func New(svc *service.Service, refs *refcache.Cache, val *validator.Validator) *Handler {
	return &Handler{svc: svc, refs: refs, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/hierarchy/:leadNumber", h.ResolveHierarchy)
	rg.GET("/stages/:id", h.GetStage)
}

// ResolveHierarchy returns the ordered master plus sub-lead list for a base
// lead number.
func (h *Handler) ResolveHierarchy(c *gin.Context) {
	var uri leadNumberURI
	if err := c.ShouldBindUri(&uri); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(uri); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Resolve(c.Request.Context(), uri.LeadNumber)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// GetStage is the standalone stage name/colour lookup.
func (h *Handler) GetStage(c *gin.Context) {
	var uri stageURI
	if err := c.ShouldBindUri(&uri); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(uri); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	httpkit.OK(c, transport.StageResponse{
		ID:     uri.ID,
		Name:   h.refs.StageName(c.Request.Context(), uri.ID),
		Colour: h.refs.StageColour(c.Request.Context(), uri.ID),
	})
}
