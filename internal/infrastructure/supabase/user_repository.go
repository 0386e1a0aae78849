package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const usersTable = "users"

// UserRepo implementación del puerto UserRepository sobre la API de tablas.
type UserRepo struct {
	c *Client
}

// NewUserRepository construye el adaptador de usuarios.
func NewUserRepository(c *Client) *UserRepo {
	return &UserRepo{c: c}
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	var rows []userRow
	if err := r.c.insertRow(ctx, usersTable, userToRow(user), &rows); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if len(rows) > 0 {
		return rows[0].toEntity(), nil
	}
	return user, nil
}

// GetByID obtiene un usuario por ID. Retorna (nil, nil) si no existe.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, eq(nil, "id", id), "get user")
}

// FindByUsername obtiene un usuario por nombre. Retorna (nil, nil) si no existe.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, eq(nil, "username", username), "find user by username")
}

func (r *UserRepo) getOne(ctx context.Context, q url.Values, op string) (*entity.User, error) {
	q.Set("limit", "1")
	var rows []userRow
	if err := r.c.selectRows(ctx, usersTable, q, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toEntity(), nil
}
