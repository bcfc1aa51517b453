package contenido

import (
	"context"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
)

type Service struct {
	*domain.Coordinator
}

func NewService(deps domain.Deps) *Service {
	return &Service{Coordinator: domain.NewCoordinator(Schema, deps)}
}

// GetBySection returns the active content of a site section.
func (s *Service) GetBySection(ctx context.Context, seccion string) (entity.Record, error) {
	res, err := s.List(ctx, domain.ListFilter{
		Filters: []filter.Item{filter.Eq(FieldSeccion, seccion)},
		Limit:   1,
	})
	if err != nil {
		return entity.Record{}, err
	}
	if len(res.Items) == 0 {
		return entity.Record{}, apperror.NewNotFound(Schema.Entity, seccion)
	}
	return res.Items[0], nil
}
