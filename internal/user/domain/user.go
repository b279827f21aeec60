package domain

import (
	"time"

	sharedBus "github.com/davicafu/sociolab/internal/shared/platform/bus"
	"github.com/google/uuid"
)

// Location es la dirección opcional de un usuario.
type Location struct {
	Street   string `json:"street,omitempty"`
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country"`
	Timezone string `json:"timezone,omitempty"` // formato +HH:MM o -HH:MM
}

// User representa un usuario del sistema.
type User struct {
	ID           uuid.UUID  `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	Title        string     `json:"title"`
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty"`
	RegisterDate time.Time  `json:"registerDate"`
	Phone        *string    `json:"phone,omitempty"`
	Picture      *string    `json:"picture,omitempty"`
	Location     *Location  `json:"location,omitempty"`
}

func (u *User) PartitionKey() string {
	return u.ID.String()
}

// Verificación estática para asegurar que User implementa la interfaz
var _ sharedBus.Keyer = (*User)(nil)
