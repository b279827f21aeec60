package domain

import (
	"time"

	sharedBus "github.com/davicafu/sociolab/internal/shared/platform/bus"
	"github.com/google/uuid"
)

// OwnerSummary es la proyección del autor que viaja embebida en el comentario.
type OwnerSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Title     string    `json:"title"`
	Picture   *string   `json:"picture"`
}

// Comment representa un comentario de un usuario sobre un post.
type Comment struct {
	ID          uuid.UUID    `json:"id"`
	Message     string       `json:"message"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	PostID      uuid.UUID    `json:"post_id"`
	PublishDate time.Time    `json:"publishDate"`
	Owner       OwnerSummary `json:"owner"`
}

func (c *Comment) PartitionKey() string {
	return c.ID.String()
}

// Verificación estática para asegurar que Comment implementa la interfaz
var _ sharedBus.Keyer = (*Comment)(nil)
