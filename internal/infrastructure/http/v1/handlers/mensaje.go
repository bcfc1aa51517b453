package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/mensaje"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/http/v1/dto"
)

// MensajeHandler adds per-group listing to the message CRUD.
type MensajeHandler struct {
	*EntityHandler
	service *mensaje.Service
}

// NewMensajeHandler creates a new message handler.
func NewMensajeHandler(service *mensaje.Service) *MensajeHandler {
	return &MensajeHandler{
		EntityHandler: NewEntityHandler(service.Coordinator),
		service:       service,
	}
}

// ListByGroup handles GET /grupos/:id/mensajes
func (h *MensajeHandler) ListByGroup(c *gin.Context) {
	grupoID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	lf, ok := h.ParseListFilter(c)
	if !ok {
		return
	}
	res, err := h.service.ListByGroup(c.Request.Context(), grupoID, lf)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}
