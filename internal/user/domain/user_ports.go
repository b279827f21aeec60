package domain

import (
	"context"
	"errors"
	"fmt"

	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// ---------- Interfaces (Ports) ----------

// UserRepository define las operaciones persistentes para User.
type UserRepository interface {
	// Debe devolver ErrEmailAlreadyExists si el email ya está registrado.
	Create(ctx context.Context, u *User, evt sharedDomain.OutboxEvent) error

	// Debe devolver ErrUserNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Debe devolver ErrUserNotFound si el usuario no existe.
	Update(ctx context.Context, u *User, evt sharedDomain.OutboxEvent) error

	// Debe devolver ErrUserNotFound si el usuario no existe.
	DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error

	// List devuelve los usuarios que pasan los filtros del repositorio.
	// La búsqueda global, el orden y la paginación son del pipeline REST,
	// no del repositorio.
	List(ctx context.Context, f UserFilter) ([]*User, error)
}

// UserCache abstrae la caché de usuarios por ID.
type UserCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error
	Delete(ctx context.Context, key string) error
}

// ---------- Filtros ----------

// UserFilter agrupa los filtros que UserRepository.List aplica en SQL.
// Nombre y apellido se comparan como substring sin acentos ni mayúsculas;
// el email como substring sin mayúsculas.
type UserFilter struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("user:id:%s", id.String())
}
