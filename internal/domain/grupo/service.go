package grupo

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

// Service provides grupos persistence.
type Service struct {
	*domain.Coordinator
}

func NewService(deps domain.Deps) *Service {
	s := &Service{Coordinator: domain.NewCoordinator(Schema, deps)}
	s.Hooks().On(domain.BeforeCreate, assignAccessCode)
	return s
}

// assignAccessCode gives every new group a shareable code unless one was supplied.
func assignAccessCode(_ context.Context, _ int64, fields entity.Fields) error {
	if strings.TrimSpace(fields.GetString(FieldCodigoAcceso)) == "" {
		fields[FieldCodigoAcceso] = strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	}
	return nil
}
