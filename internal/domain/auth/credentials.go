package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

// Account field names shared by usuarios and clientes.
const (
	FieldNombre   = "nombre"
	FieldCorreo   = "correo"
	FieldCedula   = "cedula_identidad"
	FieldPassword = "contrasena"
)

// PasswordMode selects what is encrypted into the credential column.
type PasswordMode string

const (
	// ModeReversible stores the password itself, encrypted like any sensitive field.
	ModeReversible PasswordMode = "reversible"
	// ModeBcrypt stores an encrypted bcrypt hash of the password.
	ModeBcrypt PasswordMode = "bcrypt"
)

// bcryptTag marks a stored credential as a bcrypt hash.
const bcryptTag = "bcrypt:"

// AccountFields returns the identity and credential fields of an account table.
func AccountFields() []domain.Field {
	return []domain.Field{
		{Name: FieldNombre, Kind: domain.KindString, Sensitive: true, Required: true},
		{Name: FieldCorreo, Kind: domain.KindString, Sensitive: true, Indexed: true, Unique: true, Required: true},
		{Name: FieldCedula, Kind: domain.KindString, Sensitive: true, Indexed: true, Unique: true, Required: true},
		{Name: FieldPassword, Kind: domain.KindString, Sensitive: true, Required: true, Credential: true},
	}
}

// Credentials prepares and verifies stored passwords.
type Credentials struct {
	mode      PasswordMode
	minLength int
	cost      int
}

// NewCredentials creates a credential policy. Unknown modes fall back to reversible.
func NewCredentials(mode PasswordMode, minLength int) *Credentials {
	if mode != ModeBcrypt {
		mode = ModeReversible
	}
	return &Credentials{mode: mode, minLength: minLength, cost: bcrypt.DefaultCost}
}

// Mode returns the configured password mode.
func (c *Credentials) Mode() PasswordMode { return c.mode }

// Prepare checks the password policy and returns the value to encrypt.
func (c *Credentials) Prepare(plain string) (string, error) {
	if utf8.RuneCountInString(plain) < c.minLength {
		return "", apperror.NewFieldValidation(FieldPassword, fmt.Sprintf("password must be at least %d characters", c.minLength))
	}
	if c.mode == ModeReversible {
		return plain, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), c.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return bcryptTag + string(hash), nil
}

// Matches compares a decrypted stored credential with a presented password.
// Reversible mode always compares plaintext. Bcrypt mode verifies tagged hashes and
// still accepts untagged plaintext credentials written before the switch.
func (c *Credentials) Matches(stored, presented string) bool {
	if c.mode == ModeBcrypt {
		if hash, ok := strings.CutPrefix(stored, bcryptTag); ok {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte(presented)) == nil
		}
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}

// Install registers the credential hooks on an account coordinator.
func (c *Credentials) Install(coord *domain.Coordinator) {
	prepare := func(_ context.Context, _ int64, fields entity.Fields) error {
		plain, ok := fields[FieldPassword].(string)
		if !ok {
			return nil
		}
		prepared, err := c.Prepare(plain)
		if err != nil {
			return err
		}
		fields[FieldPassword] = prepared
		return nil
	}
	coord.Hooks().On(domain.BeforeCreate, prepare)
	coord.Hooks().On(domain.BeforeUpdate, prepare)
}
