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
	ErrPostNotFound  = errors.New("post not found")
	ErrOwnerNotFound = errors.New("owner not found")
)

// ---------- Interfaces (Ports) ----------

// PostRepository define las operaciones persistentes para Post.
// Las lecturas devuelven siempre el resumen del autor embebido.
type PostRepository interface {
	Create(ctx context.Context, p *Post, evt sharedDomain.OutboxEvent) error

	// Debe devolver ErrPostNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)

	// Debe devolver ErrPostNotFound si el post no existe.
	Update(ctx context.Context, p *Post, evt sharedDomain.OutboxEvent) error

	// Debe devolver ErrPostNotFound si el post no existe.
	DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error

	// List devuelve los posts que pasan los filtros del repositorio.
	// La búsqueda global, el orden y la paginación son del pipeline REST.
	List(ctx context.Context, f PostFilter) ([]*Post, error)

	// OwnerExists comprueba que el usuario propietario existe.
	OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error)
}

// PostCache abstrae la caché de posts por ID.
type PostCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error
	Delete(ctx context.Context, key string) error
}

// ---------- Filtros ----------

// PostFilter agrupa los filtros que PostRepository.List aplica en SQL.
// owner_id y publishDate se comparan por igualdad literal; cada tag se
// busca como substring `"tag"` dentro de la columna JSON de tags.
type PostFilter struct {
	OwnerID     *string
	Likes       *int
	PublishDate *string
	Tags        []string
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("post:id:%s", id.String())
}
