package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/contenido"
)

// ContenidoHandler serves site content by section.
type ContenidoHandler struct {
	*EntityHandler
	service *contenido.Service
}

// NewContenidoHandler creates a new content handler.
func NewContenidoHandler(service *contenido.Service) *ContenidoHandler {
	return &ContenidoHandler{
		EntityHandler: NewEntityHandler(service.Coordinator),
		service:       service,
	}
}

// GetBySection handles GET /contenido/seccion/:seccion
func (h *ContenidoHandler) GetBySection(c *gin.Context) {
	rec, err := h.service.GetBySection(c.Request.Context(), c.Param("seccion"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}
