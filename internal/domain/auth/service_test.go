package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	appctx "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/context"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/domaintest"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/pkg/logger"
)

func newAuthFixture(t *testing.T, mode PasswordMode) (*Service, *domain.Coordinator, *domaintest.Env) {
	t.Helper()
	env := domaintest.NewEnv(t)
	schema := &domain.Schema{
		Entity:        "clientes",
		Table:         "clientes",
		IDColumn:      "id",
		Collection:    "clientes",
		RefField:      "idClienteSql",
		InitialStatus: entity.StatusActive,
		Fields:        AccountFields(),
	}
	coord := domain.NewCoordinator(schema, env.Deps())
	creds := NewCredentials(mode, 8)
	creds.Install(coord)

	svc := NewService(
		map[string]*domain.Coordinator{appctx.KindCliente: coord},
		creds,
		NewJWTService(DefaultJWTConfig("test-secret")),
		logger.Nop(),
	)
	return svc, coord, env
}

func createAccount(t *testing.T, coord *domain.Coordinator, correo, password string) entity.Record {
	t.Helper()
	rec, err := coord.Create(context.Background(), entity.Fields{
		FieldNombre:   "Carla Ruiz",
		FieldCorreo:   correo,
		FieldCedula:   "0102030405",
		FieldPassword: password,
	})
	require.NoError(t, err)
	return rec
}

func TestAuthenticate(t *testing.T) {
	for _, mode := range []PasswordMode{ModeReversible, ModeBcrypt} {
		t.Run(string(mode), func(t *testing.T) {
			svc, coord, env := newAuthFixture(t, mode)
			ctx := context.Background()
			rec := createAccount(t, coord, "carla@example.com", "s3cret-pass")
			assert.NotContains(t, rec.Fields, FieldPassword, "credentials are never composed")

			stored, err := env.Codec.Decrypt(env.Relational.Raw("clientes", rec.ID).GetString(FieldPassword))
			require.NoError(t, err)
			assert.Equal(t, mode == ModeBcrypt, strings.HasPrefix(stored, "bcrypt:$2"))

			res, err := svc.Authenticate(ctx, appctx.KindCliente, "carla@example.com", "s3cret-pass")
			require.NoError(t, err)
			assert.Equal(t, rec.ID, res.UserID)
			assert.Equal(t, "Carla Ruiz", res.Nombre)

			user, err := svc.ValidateToken(res.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, appctx.KindCliente, user.Kind)
			id, ok := user.NumericID()
			assert.True(t, ok)
			assert.Equal(t, rec.ID, id)

			_, err = svc.Authenticate(ctx, appctx.KindCliente, "carla@example.com", "wrong-pass")
			assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

			_, err = svc.Authenticate(ctx, appctx.KindCliente, "nobody@example.com", "s3cret-pass")
			assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
		})
	}
}

func TestAuthenticate_CorreoMustMatchExactly(t *testing.T) {
	svc, coord, _ := newAuthFixture(t, ModeReversible)
	ctx := context.Background()
	createAccount(t, coord, "carla@example.com", "s3cret-pass")

	for _, correo := range []string{"Carla@Example.com", " carla@example.com", "carla@example.com "} {
		_, err := svc.Authenticate(ctx, appctx.KindCliente, correo, "s3cret-pass")
		assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized), correo)
	}
}

func TestAuthenticate_ReversiblePasswordsThatLookHashed(t *testing.T) {
	for _, password := range []string{"$2y-secret-pass", "$2a$10$not-a-hash", "bcrypt:$2a$10$x"} {
		t.Run(password, func(t *testing.T) {
			svc, coord, _ := newAuthFixture(t, ModeReversible)
			ctx := context.Background()
			rec := createAccount(t, coord, "carla@example.com", password)

			res, err := svc.Authenticate(ctx, appctx.KindCliente, "carla@example.com", password)
			require.NoError(t, err)
			assert.Equal(t, rec.ID, res.UserID)

			_, err = svc.Authenticate(ctx, appctx.KindCliente, "carla@example.com", "wrong-pass")
			assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
		})
	}
}

func TestCredentials_Matches(t *testing.T) {
	reversible := NewCredentials(ModeReversible, 8)
	bcrypted := NewCredentials(ModeBcrypt, 8)

	hashed, err := bcrypted.Prepare("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, "bcrypt:"))

	assert.True(t, bcrypted.Matches(hashed, "s3cret-pass"))
	assert.False(t, bcrypted.Matches(hashed, "wrong-pass"))
	assert.True(t, bcrypted.Matches("legacy-plain", "legacy-plain"), "untagged credentials predate the switch")

	assert.False(t, reversible.Matches(hashed, "s3cret-pass"), "reversible mode never runs bcrypt")
	assert.True(t, reversible.Matches("$2y-secret-pass", "$2y-secret-pass"))
	assert.False(t, reversible.Matches("s3cret-pass", "S3cret-pass"))
}

func TestAuthenticate_DeletedAccountCannotLogin(t *testing.T) {
	svc, coord, _ := newAuthFixture(t, ModeReversible)
	ctx := context.Background()
	rec := createAccount(t, coord, "carla@example.com", "s3cret-pass")
	require.NoError(t, coord.Delete(ctx, rec.ID))

	_, err := svc.Authenticate(ctx, appctx.KindCliente, "carla@example.com", "s3cret-pass")
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestCredentials_PolicyAppliesOnCreate(t *testing.T) {
	_, coord, _ := newAuthFixture(t, ModeReversible)
	_, err := coord.Create(context.Background(), entity.Fields{
		FieldNombre:   "Carla",
		FieldCorreo:   "c@example.com",
		FieldCedula:   "1",
		FieldPassword: "short",
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestChangePassword(t *testing.T) {
	svc, coord, env := newAuthFixture(t, ModeBcrypt)
	ctx := context.Background()
	rec := createAccount(t, coord, "carla@example.com", "s3cret-pass")

	err := svc.ChangePassword(ctx, appctx.KindCliente, rec.ID, "not-it-at-all", "another-pass")
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	require.NoError(t, svc.ChangePassword(ctx, appctx.KindCliente, rec.ID, "s3cret-pass", "another-pass"))
	_, err = svc.Authenticate(ctx, appctx.KindCliente, "carla@example.com", "another-pass")
	assert.NoError(t, err)

	_, err = env.Relational.Update(ctx, domain.Table{Name: "clientes", IDColumn: "id"},
		domain.Row{FieldPassword: "broken"}, []filter.Item{filter.Eq("id", rec.ID)})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, appctx.KindCliente, rec.ID, "another-pass", "third-pass")
	assert.True(t, apperror.IsDecode(err))
}

func TestJWT_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret-a"))
	token, _, err := svc.GenerateAccessToken("5", appctx.KindUsuario, nil)
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("secret-b")).ValidateToken(token)
	assert.Error(t, err)

	svc.now = func() time.Time { return time.Now().Add(13 * time.Hour) }
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
