package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/dispositivo"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/http/v1/dto"
)

// DispositivoHandler adds push token resolution to the device CRUD.
type DispositivoHandler struct {
	*EntityHandler
	service *dispositivo.Service
}

// NewDispositivoHandler creates a new device handler.
func NewDispositivoHandler(service *dispositivo.Service) *DispositivoHandler {
	return &DispositivoHandler{
		EntityHandler: NewEntityHandler(service.Coordinator),
		service:       service,
	}
}

// Resolve handles POST /dispositivos/resolve
func (h *DispositivoHandler) Resolve(c *gin.Context) {
	var req dto.ResolveTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}
	rec, err := h.service.ResolveToken(c.Request.Context(), req.Token)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}
