package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/safety_escalation_system/internal/models"
)

const alertEventQueueKey = "alert_events"

// Типы событий жизненного цикла оповещения
const (
	EventAlertOpened       = "alert_opened"
	EventFanoutCycleDone   = "fanout_cycle_done"
	EventTotalNotifyFailed = "total_notification_failure"
	EventCaptureCapReached = "capture_cap_reached"
	EventAlertResolved     = "alert_resolved"
)

// AlertEvent - событие жизненного цикла оповещения для ops-вебхука
type AlertEvent struct {
	Type      string               `json:"type"`
	AlertID   uuid.UUID            `json:"alert_id"`
	UserID    string               `json:"user_id"`
	AlertType models.TriggerSource `json:"alert_type,omitempty"`
	Notified  int                  `json:"notified,omitempty"`
	Failed    int                  `json:"failed,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// RedisEventPublisher - реализация EventPublisher, использующая очередь Redis
type RedisEventPublisher struct {
	redisClient *redis.Client
}

// NewRedisEventPublisher создает новый RedisEventPublisher
func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{
		redisClient: client,
	}
}

// Publish публикует событие оповещения в очередь Redis
func (p *RedisEventPublisher) Publish(ctx context.Context, event AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	// Используем LPUSH для добавления события в левую часть списка (очереди)
	if err := p.redisClient.LPush(ctx, alertEventQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish alert event to Redis: %w", err)
	}
	return nil
}
