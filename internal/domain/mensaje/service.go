package mensaje

import (
	"context"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
)

// Service provides mensajes persistence.
type Service struct {
	*domain.Coordinator
}

func NewService(deps domain.Deps) *Service {
	return &Service{Coordinator: domain.NewCoordinator(Schema, deps)}
}

// ListByGroup lists the active messages posted to a group, newest first.
func (s *Service) ListByGroup(ctx context.Context, grupoID int64, lf domain.ListFilter) (domain.ListResult, error) {
	lf.Filters = append(append([]filter.Item(nil), lf.Filters...), filter.Eq(FieldGrupoID, grupoID))
	return s.List(ctx, lf)
}
