package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	appctx "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/context"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/pkg/logger"
)

// LoginResult is returned by a successful Authenticate.
type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	UserID      int64     `json:"id"`
	Kind        string    `json:"kind"`
	Nombre      string    `json:"nombre"`
}

// Service authenticates usuarios and clientes against their encrypted credentials.
type Service struct {
	accounts map[string]*domain.Coordinator
	creds    *Credentials
	jwt      *JWTService
	log      *logger.Logger
}

// NewService creates an auth service. accounts maps principal kind to its coordinator.
func NewService(accounts map[string]*domain.Coordinator, creds *Credentials, jwt *JWTService, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{accounts: accounts, creds: creds, jwt: jwt, log: log.WithComponent("auth")}
}

func (s *Service) account(kind string) (*domain.Coordinator, error) {
	c, ok := s.accounts[kind]
	if !ok {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown account kind %q", kind))
	}
	return c, nil
}

// Authenticate finds the active account whose decrypted correo matches and
// compares the presented password with the stored credential.
func (s *Service) Authenticate(ctx context.Context, kind, correo, password string) (*LoginResult, error) {
	coord, err := s.account(kind)
	if err != nil {
		return nil, err
	}
	q, err := coord.Schema().QueryFor(FieldCorreo, correo)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	row, found, err := coord.Lookup().First(ctx, q)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	id, _ := entity.CoerceInt(row[coord.Schema().IDColumn])
	stored, err := coord.Codec().Decrypt(row.GetString(FieldPassword))
	if err != nil {
		s.log.WithContext(ctx).Warnw("stored credential cannot be decoded", "kind", kind, "id", id)
		return nil, apperror.NewUnauthorized("invalid credentials")
	}
	if !s.creds.Matches(stored, password) {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	userID := strconv.FormatInt(id, 10)
	token, expiresAt, err := s.jwt.GenerateAccessToken(userID, kind, []string{kind})
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	s.log.WithContext(ctx).Infow("login", "kind", kind, "id", id)

	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		UserID:      id,
		Kind:        kind,
		Nombre:      coord.Codec().SafeDecrypt(row.GetString(FieldNombre)),
	}, nil
}

// ChangePassword replaces the credential after verifying the current one.
// A stored credential that cannot be decoded is reported, never silently replaced.
func (s *Service) ChangePassword(ctx context.Context, kind string, id int64, current, next string) error {
	coord, err := s.account(kind)
	if err != nil {
		return err
	}
	row, err := coord.Row(ctx, id)
	if err != nil {
		return err
	}
	stored, err := coord.Codec().Decrypt(row.GetString(FieldPassword))
	if err != nil {
		return apperror.NewDecode(FieldPassword, err)
	}
	if !s.creds.Matches(stored, current) {
		return apperror.NewUnauthorized("current password does not match")
	}
	_, err = coord.Update(ctx, id, entity.Fields{FieldPassword: next})
	return err
}

// ValidateToken implements the HTTP layer's token validator.
func (s *Service) ValidateToken(token string) (*appctx.UserContext, error) {
	return s.jwt.ValidateToken(token)
}
