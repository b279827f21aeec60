package domain

import (
	"time"

	sharedBus "github.com/davicafu/sociolab/internal/shared/platform/bus"
	"github.com/google/uuid"
)

// OwnerSummary es la proyección del autor que viaja embebida en posts y comentarios.
type OwnerSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Title     string    `json:"title"`
	Picture   *string   `json:"picture"`
}

// Post representa una publicación de un usuario.
type Post struct {
	ID          uuid.UUID    `json:"id"`
	Text        string       `json:"text"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	PublishDate time.Time    `json:"publishDate"`
	Image       *string      `json:"image,omitempty"`
	Likes       int          `json:"likes"`
	Link        *string      `json:"link,omitempty"`
	Tags        []string     `json:"tags"`
	Owner       OwnerSummary `json:"user"`
}

func (p *Post) PartitionKey() string {
	return p.ID.String()
}

// Verificación estática para asegurar que Post implementa la interfaz
var _ sharedBus.Keyer = (*Post)(nil)
