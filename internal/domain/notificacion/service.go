package notificacion

import (
	"context"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

// Service provides notificaciones persistence.
type Service struct {
	*domain.Coordinator
}

func NewService(deps domain.Deps) *Service {
	return &Service{Coordinator: domain.NewCoordinator(Schema, deps)}
}

// Transition moves a notification along its delivery lifecycle on both halves.
func (s *Service) Transition(ctx context.Context, id int64, estado string) (entity.Record, error) {
	if _, err := entity.ParseStatus(estado); err != nil {
		return entity.Record{}, apperror.NewFieldValidation(domain.ColStatus, err.Error())
	}
	return s.Update(ctx, id, entity.Fields{domain.ColStatus: estado})
}
