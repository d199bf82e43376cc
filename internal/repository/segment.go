package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/safety_escalation_system/internal/service"
)

const segmentListTTL = 24 * time.Hour

// SegmentStore хранит ссылки на загруженные устройством аудиосегменты
// в списке Redis (свежие в голове списка)
type SegmentStore struct {
	redisClient *redis.Client
}

func NewSegmentStore(redisClient *redis.Client) service.SegmentStore {
	return &SegmentStore{redisClient: redisClient}
}

func segmentListKey(alertID uuid.UUID) string {
	return fmt.Sprintf("alert_segments:%s", alertID.String())
}

// PushSegment регистрирует ссылку на новый сегмент оповещения
func (s *SegmentStore) PushSegment(ctx context.Context, alertID uuid.UUID, url string) error {
	key := segmentListKey(alertID)
	pipe := s.redisClient.TxPipeline()
	pipe.LPush(ctx, key, url)
	pipe.Expire(ctx, key, segmentListTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push segment: %w", err)
	}
	return nil
}

// LatestSegment возвращает ссылку на самый свежий сегмент или "", если сегментов еще нет
func (s *SegmentStore) LatestSegment(ctx context.Context, alertID uuid.UUID) (string, error) {
	url, err := s.redisClient.LIndex(ctx, segmentListKey(alertID), 0).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get latest segment: %w", err)
	}
	return url, nil
}
