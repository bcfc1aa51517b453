package usuario

import (
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/auth"
)

// Service provides usuarios persistence.
type Service struct {
	*domain.Coordinator
}

// NewService creates the usuarios service with the credential policy installed.
func NewService(deps domain.Deps, creds *auth.Credentials) *Service {
	c := domain.NewCoordinator(Schema, deps)
	creds.Install(c)
	return &Service{Coordinator: c}
}
