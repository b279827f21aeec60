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
	ErrCommentNotFound = errors.New("comment not found")
	ErrParentNotFound  = errors.New("user or post not found")
)

// ---------- Interfaces (Ports) ----------

// CommentRepository define las operaciones persistentes para Comment.
// Las lecturas devuelven siempre el resumen del autor embebido.
type CommentRepository interface {
	Create(ctx context.Context, c *Comment, evt sharedDomain.OutboxEvent) error

	// Debe devolver ErrCommentNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Comment, error)

	// Debe devolver ErrCommentNotFound si el comentario no existe.
	Update(ctx context.Context, c *Comment, evt sharedDomain.OutboxEvent) error

	// Debe devolver ErrCommentNotFound si el comentario no existe.
	DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error

	// List devuelve los comentarios que pasan los filtros del repositorio.
	// La búsqueda global, el orden y la paginación son del pipeline REST.
	List(ctx context.Context, f CommentFilter) ([]*Comment, error)

	// ParentsExist comprueba que el usuario y el post referenciados existen.
	ParentsExist(ctx context.Context, ownerID, postID uuid.UUID) (bool, error)

	// OwnerExists comprueba que el usuario existe.
	OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error)

	// PostExists comprueba que el post existe.
	PostExists(ctx context.Context, postID uuid.UUID) (bool, error)
}

// CommentCache abstrae la caché de comentarios por ID.
type CommentCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error
	Delete(ctx context.Context, key string) error
}

// ---------- Filtros ----------

// CommentFilter agrupa los filtros que CommentRepository.List aplica en SQL.
// Todos se comparan por igualdad literal.
type CommentFilter struct {
	OwnerID     *string
	PostID      *string
	PublishDate *string
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("comment:id:%s", id.String())
}
