package dispositivo

import (
	"context"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

// Service provides dispositivos persistence and token resolution.
type Service struct {
	*domain.Coordinator
}

func NewService(deps domain.Deps) *Service {
	return &Service{Coordinator: domain.NewCoordinator(Schema, deps)}
}

// ResolveToken returns the most recently registered active device whose token matches.
func (s *Service) ResolveToken(ctx context.Context, token string) (entity.Record, error) {
	q, err := Schema.QueryFor(FieldToken, token)
	if err != nil {
		return entity.Record{}, apperror.NewInternal(err)
	}
	row, found, err := s.Lookup().First(ctx, q)
	if err != nil {
		return entity.Record{}, err
	}
	if !found {
		return entity.Record{}, apperror.NewNotFound(Schema.Entity, "token")
	}
	id, _ := entity.CoerceInt(row[Schema.IDColumn])
	return s.Get(ctx, id, domain.ReadOptions{})
}
