package models

import (
	"time"

	"github.com/google/uuid"
)

// EmergencyContact - экстренный контакт пользователя.
// Каналы опциональны: email и/или whatsapp.
type EmergencyContact struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	WhatsApp  string    `json:"whatsapp,omitempty"`
	Priority  int       `json:"priority"` // чем больше, тем раньше контакт в рассылке
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
