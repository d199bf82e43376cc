package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/safety_escalation_system/internal/models"
)

//go:generate mockgen -source=contracts.go -destination=mocks/mock_contracts.go -package=mocks

var (
	// ErrNoContacts - список контактов пуст, оповестить некого
	ErrNoContacts = errors.New("no contacts to notify")
	// ErrAllContactsFailed - все каналы всех контактов завершились неудачей
	ErrAllContactsFailed = errors.New("all notification attempts failed")
)

// AlertPayload - данные оповещения, передаваемые в каналы доставки
type AlertPayload struct {
	AlertID      uuid.UUID            `json:"alert_id"`
	UserID       string               `json:"user_id"`
	AlertType    models.TriggerSource `json:"alert_type"`
	TriggeredAt  time.Time            `json:"triggered_at"`
	Location     *models.Location     `json:"location,omitempty"`
	BatteryLevel *int                 `json:"battery_level,omitempty"`
	NetworkType  string               `json:"network_type,omitempty"`
	SegmentURL   string               `json:"segment_url,omitempty"`
	Message      string               `json:"message"`
}

// Channel - канал доставки уведомления (email, whatsapp)
type Channel interface {
	Name() models.NotificationChannel
	// Applicable сообщает, настроен ли этот канал у контакта
	Applicable(contact *models.EmergencyContact) bool
	Send(ctx context.Context, contact *models.EmergencyContact, payload AlertPayload) error
}

// Fanout - веерная рассылка оповещения по контактам и каналам
type Fanout interface {
	// Send возвращает результаты по каждой паре контакт/канал. Ошибка
	// возвращается только при пустом списке контактов (ErrNoContacts)
	// или полном провале всех контактов (ErrAllContactsFailed);
	// частичные сбои отражаются в результатах и не являются ошибкой.
	Send(ctx context.Context, payload AlertPayload, contacts []*models.EmergencyContact) ([]models.NotificationResult, error)
}

// EventPublisher - публикация событий жизненного цикла оповещения
// в очередь для ops-вебхука
type EventPublisher interface {
	Publish(ctx context.Context, event AlertEvent) error
}

// ChannelError - ошибка попытки доставки по каналу.
// Transient определяет, имеет ли смысл повторная попытка.
type ChannelError struct {
	Channel    models.NotificationChannel
	StatusCode int
	Transient  bool
	Message    string
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s channel error (status %d): %s", e.Channel, e.StatusCode, e.Message)
}

// IsTransient сообщает, стоит ли повторять попытку доставки.
// Сетевые ошибки (не *ChannelError) считаются транзиентными.
func IsTransient(err error) bool {
	var chErr *ChannelError
	if errors.As(err, &chErr) {
		return chErr.Transient
	}
	return true
}
