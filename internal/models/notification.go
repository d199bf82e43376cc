package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationChannel - канал доставки уведомления
type NotificationChannel string

const (
	ChannelEmail    NotificationChannel = "email"
	ChannelWhatsApp NotificationChannel = "whatsapp"
)

// NotificationResult - результат одной попытки доставки по каналу.
// Агрегируется по циклу рассылки; никогда не является источником истины
// для статуса оповещения, используется только для логирования и отчетности.
type NotificationResult struct {
	AlertID   uuid.UUID           `json:"alert_id"`
	ContactID uuid.UUID           `json:"contact_id"`
	Channel   NotificationChannel `json:"channel"`
	Success   bool                `json:"success"`
	Error     string              `json:"error,omitempty"`
	SentAt    time.Time           `json:"sent_at"`
}
