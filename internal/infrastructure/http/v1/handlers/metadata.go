package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/metadata"
)

// MetadataHandler serves entity descriptions.
type MetadataHandler struct {
	BaseHandler
	registry *metadata.Registry
}

// NewMetadataHandler creates a new metadata handler.
func NewMetadataHandler(registry *metadata.Registry) *MetadataHandler {
	return &MetadataHandler{registry: registry}
}

// List handles GET /meta/entities
func (h *MetadataHandler) List(c *gin.Context) {
	h.OK(c, h.registry.List())
}

// Get handles GET /meta/entities/:name
func (h *MetadataHandler) Get(c *gin.Context) {
	name := c.Param("name")
	def, ok := h.registry.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("entity", name))
		return
	}
	h.OK(c, def)
}
