package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/safety_escalation_system/internal/models"
	"github.com/shenikar/safety_escalation_system/internal/service"
)

type CheckInRepository struct {
	db *pgxpool.Pool
}

func NewCheckInRepository(db *pgxpool.Pool) service.CheckInRepository {
	return &CheckInRepository{db: db}
}

// Create создает новую запись pending чек-ина.
// Инвариант "один pending на пользователя" обеспечивается частичным уникальным
// индексом, конфликт транслируется в service.ErrAlreadyScheduled.
func (r *CheckInRepository) Create(ctx context.Context, checkIn *models.CheckIn) error {
	query := `
		INSERT INTO check_ins (id, user_id, scheduled_time, status)
		VALUES ($1, $2, $3, $4) RETURNING created_at;
	`
	err := r.db.QueryRow(ctx, query,
		checkIn.ID,
		checkIn.UserID,
		checkIn.ScheduledTime,
		checkIn.Status,
	).Scan(&checkIn.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return service.ErrAlreadyScheduled
		}
		return fmt.Errorf("failed to create check-in: %w", err)
	}
	return nil
}

// GetPending возвращает pending чек-ин пользователя или nil, если его нет
func (r *CheckInRepository) GetPending(ctx context.Context, userID string) (*models.CheckIn, error) {
	checkIn := &models.CheckIn{}
	query := `
		SELECT id, user_id, scheduled_time, status, created_at
		FROM check_ins
		WHERE user_id = $1 AND status = 'pending';
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&checkIn.ID,
		&checkIn.UserID,
		&checkIn.ScheduledTime,
		&checkIn.Status,
		&checkIn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending check-in: %w", err)
	}
	return checkIn, nil
}

// CompletePending атомарно переводит pending -> completed.
// Возвращает false, если pending чек-ина уже нет (гонка проиграна).
func (r *CheckInRepository) CompletePending(ctx context.Context, userID string) (bool, error) {
	query := `
		UPDATE check_ins SET status = 'completed'
		WHERE user_id = $1 AND status = 'pending';
	`
	cmdTag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to complete check-in: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// DeletePending атомарно удаляет pending чек-ин пользователя.
// Возвращает false, если статус уже перешел в overdue/completed.
func (r *CheckInRepository) DeletePending(ctx context.Context, userID string) (bool, error) {
	query := `
		DELETE FROM check_ins
		WHERE user_id = $1 AND status = 'pending';
	`
	cmdTag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete pending check-in: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// MarkOverdue атомарно переводит pending -> overdue.
// Ровно один вызов для данного чек-ина вернет true, конкурентный
// cancel/confirm проигрывает compare-and-set и наблюдает false.
func (r *CheckInRepository) MarkOverdue(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE check_ins SET status = 'overdue'
		WHERE id = $1 AND status = 'pending';
	`
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark check-in overdue: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// ListDue возвращает pending чек-ины, дедлайн которых уже наступил
func (r *CheckInRepository) ListDue(ctx context.Context, now time.Time) ([]*models.CheckIn, error) {
	query := `
		SELECT id, user_id, scheduled_time, status, created_at
		FROM check_ins
		WHERE status = 'pending' AND scheduled_time <= $1
		ORDER BY scheduled_time;
	`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due check-ins: %w", err)
	}
	defer rows.Close()

	checkIns := make([]*models.CheckIn, 0)
	for rows.Next() {
		checkIn := &models.CheckIn{}
		err := rows.Scan(
			&checkIn.ID,
			&checkIn.UserID,
			&checkIn.ScheduledTime,
			&checkIn.Status,
			&checkIn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in row: %w", err)
		}
		checkIns = append(checkIns, checkIn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in ListDue: %w", err)
	}
	return checkIns, nil
}
