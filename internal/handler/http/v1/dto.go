package v1

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleCheckInRequest DTO для планирования чек-ина безопасности
// @Description DTO для планирования чек-ина безопасности
type ScheduleCheckInRequest struct {
	UserID        string    `json:"user_id" validate:"required"`
	ScheduledTime time.Time `json:"scheduled_time" validate:"required"`
}

// ConfirmCheckInRequest DTO для подтверждения "я в безопасности"
// @Description DTO для подтверждения чек-ина
type ConfirmCheckInRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// CheckInResponse DTO для ответа с информацией о чек-ине
// @Description DTO для ответа с информацией о чек-ине
type CheckInResponse struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// TriggerAlertRequest DTO для ручного/голосового запуска эскалации
// @Description DTO для запуска экстренной эскалации
type TriggerAlertRequest struct {
	UserID    string   `json:"user_id" validate:"required"`
	Source    string   `json:"source" validate:"required,oneof=manual voice ai"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Address   string   `json:"address,omitempty"`
}

// AlertResponse DTO для ответа с информацией об оповещении
// @Description DTO для ответа с информацией об оповещении
type AlertResponse struct {
	ID           uuid.UUID  `json:"id"`
	UserID       string     `json:"user_id"`
	AlertType    string     `json:"alert_type"`
	Status       string     `json:"status"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	Address      string     `json:"address,omitempty"`
	BatteryLevel *int       `json:"battery_level,omitempty"`
	NetworkType  string     `json:"network_type,omitempty"`
	TriggeredAt  time.Time  `json:"triggered_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// ThreatReportRequest DTO для приема детекции угрозы от устройства
// @Description DTO для приема детекции угрозы
type ThreatReportRequest struct {
	UserID     string  `json:"user_id" validate:"required"`
	Type       string  `json:"type" validate:"required"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// ThreatReportResponse DTO для решения монитора угроз
// @Description DTO для решения монитора угроз
type ThreatReportResponse struct {
	Escalated bool       `json:"escalated"`
	AlertID   *uuid.UUID `json:"alert_id,omitempty"`
}

// AttachSegmentRequest DTO для регистрации аудиосегмента оповещения
// @Description DTO для регистрации аудиосегмента
type AttachSegmentRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// DeviceStateRequest DTO для репорта состояния устройства
// @Description DTO для репорта состояния устройства
type DeviceStateRequest struct {
	UserID       string   `json:"user_id" validate:"required"`
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Address      string   `json:"address,omitempty"`
	BatteryLevel *int     `json:"battery_level,omitempty" validate:"omitempty,gte=0,lte=100"`
	NetworkType  string   `json:"network_type,omitempty"`
}

// CreateContactRequest DTO для создания экстренного контакта
// @Description DTO для создания экстренного контакта
type CreateContactRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	WhatsApp string `json:"whatsapp,omitempty" validate:"omitempty,e164"`
	Priority int    `json:"priority" validate:"gte=0"`
}

// UpdateContactRequest DTO для обновления экстренного контакта
// @Description DTO для обновления экстренного контакта
type UpdateContactRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	WhatsApp string `json:"whatsapp,omitempty" validate:"omitempty,e164"`
	Priority int    `json:"priority" validate:"gte=0"`
}

// ContactResponse DTO для ответа с информацией о контакте
// @Description DTO для ответа с информацией о контакте
type ContactResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	WhatsApp  string    `json:"whatsapp,omitempty"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatsResponse DTO для ответа со статистикой оповещений
// @Description DTO для ответа со статистикой
type StatsResponse struct {
	AlertCount int `json:"alert_count"`
}
