package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Almacen-api/internal/application/auth"
	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	pkgjwt "github.com/jhoicas/Almacen-api/pkg/jwt"
)

type memUsers struct {
	byUsername map[string]*entity.User
}

func newMemUsers() *memUsers { return &memUsers{byUsername: map[string]*entity.User{}} }

func (r *memUsers) Create(_ context.Context, u *entity.User) (*entity.User, error) {
	cp := *u
	r.byUsername[u.Username] = &cp
	return u, nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	for _, u := range r.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	u, ok := r.byUsername[username]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func newAuthUC() (*auth.AuthUseCase, *memUsers) {
	users := newMemUsers()
	uc := auth.NewAuthUseCase(users, auth.JWTConfig{
		Secret:     "secret-de-test",
		ExpMinutes: 60,
		Issuer:     "almacen-api-test",
	})
	return uc, users
}

func TestRegisterUser_HasheaPassword(t *testing.T) {
	uc, users := newAuthUC()

	out, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Username: "maria",
		Password: "secreta123",
	})
	require.NoError(t, err)

	assert.Equal(t, "maria", out.Username)
	assert.Equal(t, entity.RoleUser, out.Role, "sin rol explícito queda como user")
	assert.NotEmpty(t, out.ID)

	stored := users.byUsername["maria"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secreta123", stored.PasswordHash, "nunca se guarda el password plano")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secreta123")))
}

func TestRegisterUser_RolAdminExplicito(t *testing.T) {
	uc, _ := newAuthUC()

	out, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Username: "jefa",
		Password: "x12345",
		Role:     entity.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, out.Role)
}

func TestRegisterUser_RolDesconocidoDegradaAUser(t *testing.T) {
	uc, _ := newAuthUC()

	out, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Username: "raro",
		Password: "x12345",
		Role:     "superuser",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, out.Role)
}

func TestRegisterUser_UsernameDuplicado(t *testing.T) {
	uc, _ := newAuthUC()
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Username: "maria", Password: "a1"})
	require.NoError(t, err)

	_, err = uc.RegisterUser(context.Background(), dto.RegisterRequest{Username: "maria", Password: "b2"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestRegisterUser_CamposObligatorios(t *testing.T) {
	uc, _ := newAuthUC()
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Username: "", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrMissingField)

	_, err = uc.RegisterUser(context.Background(), dto.RegisterRequest{Username: "x", Password: ""})
	assert.ErrorIs(t, err, domain.ErrMissingField)
}

func TestLogin_TokenConClaims(t *testing.T) {
	uc, _ := newAuthUC()
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{
		Username: "maria", Password: "secreta123", Role: entity.RoleAdmin,
	})
	require.NoError(t, err)

	out, err := uc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "secreta123"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Token)
	assert.Equal(t, "maria", out.User.Username)

	_, username, role, err := pkgjwt.Parse("secret-de-test", out.Token)
	require.NoError(t, err)
	assert.Equal(t, "maria", username)
	assert.Equal(t, entity.RoleAdmin, role)
}

func TestLogin_PasswordIncorrecto(t *testing.T) {
	uc, _ := newAuthUC()
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Username: "maria", Password: "secreta123"})
	require.NoError(t, err)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Username: "maria", Password: "otra"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UsuarioInexistente(t *testing.T) {
	uc, _ := newAuthUC()
	_, err := uc.Login(context.Background(), dto.LoginRequest{Username: "fantasma", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
