package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/notificacion"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/http/v1/dto"
)

// NotificacionHandler adds delivery transitions to the notification CRUD.
type NotificacionHandler struct {
	*EntityHandler
	service *notificacion.Service
}

// NewNotificacionHandler creates a new notification handler.
func NewNotificacionHandler(service *notificacion.Service) *NotificacionHandler {
	return &NotificacionHandler{
		EntityHandler: NewEntityHandler(service.Coordinator),
		service:       service,
	}
}

// Transition handles POST /notificaciones/:id/estado
func (h *NotificacionHandler) Transition(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if !h.RequireOwned(c, id) {
		return
	}
	rec, err := h.service.Transition(c.Request.Context(), id, req.Estado)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}
