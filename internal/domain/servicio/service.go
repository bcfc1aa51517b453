package servicio

import (
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

type Service struct {
	*domain.Coordinator
}

func NewService(deps domain.Deps) *Service {
	return &Service{Coordinator: domain.NewCoordinator(Schema, deps)}
}
