package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/safety_escalation_system/internal/models"
	"github.com/shenikar/safety_escalation_system/internal/service"
)

const activeAlertCacheTTL = 5 * time.Minute

type AlertRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewAlertRepository(db *pgxpool.Pool, redisClient *redis.Client) service.AlertRepository {
	return &AlertRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// CreateAlert создает новую запись active оповещения.
// Инвариант "одно active оповещение на пользователя" обеспечивается частичным
// уникальным индексом, конфликт транслируется в service.ErrActiveAlertExists.
func (r *AlertRepository) CreateAlert(ctx context.Context, alert *models.SOSAlert) error {
	contextJSON, err := json.Marshal(alert.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal alert context: %w", err)
	}

	query := `
		INSERT INTO sos_alerts (id, user_id, alert_type, status, context, triggered_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err = r.db.Exec(ctx, query,
		alert.ID,
		alert.UserID,
		alert.AlertType,
		alert.Status,
		contextJSON,
		alert.TriggeredAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return service.ErrActiveAlertExists
		}
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetAlertByID возвращает оповещение по его UUID
func (r *AlertRepository) GetAlertByID(ctx context.Context, id uuid.UUID) (*models.SOSAlert, error) {
	query := `
		SELECT id, user_id, alert_type, status, context, triggered_at, resolved_at
		FROM sos_alerts
		WHERE id = $1;
	`
	alert, err := r.scanAlert(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get alert by id: %w", err)
	}
	return alert, nil
}

// GetActiveAlertByUser возвращает active оповещение пользователя или nil, если его нет
func (r *AlertRepository) GetActiveAlertByUser(ctx context.Context, userID string) (*models.SOSAlert, error) {
	query := `
		SELECT id, user_id, alert_type, status, context, triggered_at, resolved_at
		FROM sos_alerts
		WHERE user_id = $1 AND status = 'active';
	`
	alert, err := r.scanAlert(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active alert by user: %w", err)
	}
	return alert, nil
}

// ResolveAlert атомарно переводит active -> resolved и возвращает обновленную запись.
// Возвращает nil без ошибки, если оповещение уже resolved или id неизвестен -
// повторный stop является идемпотентным no-op.
func (r *AlertRepository) ResolveAlert(ctx context.Context, id uuid.UUID, resolvedAt time.Time) (*models.SOSAlert, error) {
	query := `
		UPDATE sos_alerts SET status = 'resolved', resolved_at = $2
		WHERE id = $1 AND status = 'active'
		RETURNING id, user_id, alert_type, status, context, triggered_at, resolved_at;
	`
	alert, err := r.scanAlert(r.db.QueryRow(ctx, query, id, resolvedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}
	return alert, nil
}

// CountAlertsSince возвращает количество оповещений, открытых за временное окно
func (r *AlertRepository) CountAlertsSince(ctx context.Context, minutes int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM sos_alerts
		WHERE triggered_at >= NOW() - ($1 * INTERVAL '1 minute');
	`
	var count int
	err := r.db.QueryRow(ctx, query, minutes).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return count, nil
}

// SaveNotificationResults сохраняет результаты цикла рассылки для отчетности.
// Таблица notification_log не является источником истины для статуса оповещения.
func (r *AlertRepository) SaveNotificationResults(ctx context.Context, results []models.NotificationResult) error {
	if len(results) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO notification_log (alert_id, contact_id, channel, success, error, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	for _, res := range results {
		batch.Queue(query, res.AlertID, res.ContactID, res.Channel, res.Success, res.Error, res.SentAt)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save notification results: %w", err)
	}
	return nil
}

// GetActiveAlertFromCache пытается получить active оповещение пользователя из Redis
func (r *AlertRepository) GetActiveAlertFromCache(ctx context.Context, userID string) (*models.SOSAlert, error) {
	key := fmt.Sprintf("active_alert:%s", userID)
	val, err := r.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active alert from cache: %w", err)
	}

	alert := &models.SOSAlert{}
	if err := json.Unmarshal(val, alert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert from cache: %w", err)
	}
	return alert, nil
}

// SetActiveAlertCache сохраняет active оповещение пользователя в Redis
func (r *AlertRepository) SetActiveAlertCache(ctx context.Context, alert *models.SOSAlert) error {
	key := fmt.Sprintf("active_alert:%s", alert.UserID)
	val, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, key, val, activeAlertCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set alert in cache: %w", err)
	}
	return nil
}

// InvalidateActiveAlertCache удаляет active оповещение пользователя из Redis кэша
func (r *AlertRepository) InvalidateActiveAlertCache(ctx context.Context, userID string) error {
	key := fmt.Sprintf("active_alert:%s", userID)
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate alert cache: %w", err)
	}
	return nil
}

func (r *AlertRepository) scanAlert(row pgx.Row) (*models.SOSAlert, error) {
	alert := &models.SOSAlert{}
	var contextJSON []byte
	err := row.Scan(
		&alert.ID,
		&alert.UserID,
		&alert.AlertType,
		&alert.Status,
		&contextJSON,
		&alert.TriggeredAt,
		&alert.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &alert.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert context: %w", err)
		}
	}
	return alert, nil
}
