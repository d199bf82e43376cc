package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/safety_escalation_system/internal/config"
	"github.com/shenikar/safety_escalation_system/internal/models"
	"github.com/shenikar/safety_escalation_system/pkg/clock"
	"github.com/sirupsen/logrus"
)

type checkInService struct {
	repo       CheckInRepository
	escalation EscalationService
	logger     *logrus.Logger
	cfg        *config.Config
	clock      clock.Clock
}

func NewCheckInService(repo CheckInRepository, escalation EscalationService, logger *logrus.Logger, cfg *config.Config, clk clock.Clock) CheckInService {
	return &checkInService{
		repo:       repo,
		escalation: escalation,
		logger:     logger,
		cfg:        cfg,
		clock:      clk,
	}
}

// Schedule создает pending чек-ин с дедлайном scheduledTime.
// Возвращает ErrAlreadyScheduled, если pending чек-ин уже существует.
func (s *checkInService) Schedule(ctx context.Context, userID string, scheduledTime time.Time) (*models.CheckIn, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "checkin",
		"method":  "Schedule",
		"user_id": userID,
	})
	log.Info("Attempting to schedule a check-in")

	// Остаток времени всегда выводится из часов, а не из счетчика
	remaining := scheduledTime.Sub(s.clock.Now())
	if remaining <= 0 {
		log.Warn("Requested check-in time is in the past")
		return nil, ErrScheduleInPast
	}

	checkIn := &models.CheckIn{
		ID:            uuid.New(),
		UserID:        userID,
		ScheduledTime: scheduledTime,
		Status:        models.CheckInStatusPending,
	}
	if err := s.repo.Create(ctx, checkIn); err != nil {
		if errors.Is(err, ErrAlreadyScheduled) {
			log.Warn("User already has a pending check-in")
			return nil, ErrAlreadyScheduled
		}
		log.WithError(err).Error("Failed to create check-in in repository")
		return nil, fmt.Errorf("service: could not schedule check-in: %w", err)
	}

	log.WithField("check_in_id", checkIn.ID).WithField("remaining", remaining).Info("Check-in scheduled successfully")
	return checkIn, nil
}

// Confirm переводит pending чек-ин в completed ("я в безопасности").
// Возвращает ErrNoPendingCheckIn, если подтверждать нечего - например,
// дедлайн уже сработал и чек-ин перешел в overdue.
func (s *checkInService) Confirm(ctx context.Context, userID string) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "checkin",
		"method":  "Confirm",
		"user_id": userID,
	})

	won, err := s.repo.CompletePending(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Failed to complete check-in in repository")
		return fmt.Errorf("service: could not confirm check-in: %w", err)
	}
	if !won {
		log.Warn("No pending check-in to confirm")
		return ErrNoPendingCheckIn
	}

	log.Info("Check-in confirmed successfully")
	return nil
}

// Cancel удаляет pending чек-ин пользователя. Если статус уже перешел в
// overdue (эскалация в полете), отмена молча становится no-op - ровно одна
// из сторон {cancel, escalate} выигрывает гонку.
func (s *checkInService) Cancel(ctx context.Context, userID string) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "checkin",
		"method":  "Cancel",
		"user_id": userID,
	})

	won, err := s.repo.DeletePending(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Failed to delete pending check-in in repository")
		return fmt.Errorf("service: could not cancel check-in: %w", err)
	}
	if !won {
		log.Info("No pending check-in to cancel, escalation may already be in flight")
		return nil
	}

	log.Info("Check-in cancelled successfully")
	return nil
}

// GetPending возвращает pending чек-ин пользователя или nil
func (s *checkInService) GetPending(ctx context.Context, userID string) (*models.CheckIn, error) {
	checkIn, err := s.repo.GetPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: could not get pending check-in: %w", err)
	}
	return checkIn, nil
}

// Run запускает фоновый цикл обнаружения просроченных чек-инов.
// Каждый тик остаток времени пересчитывается от часов, поэтому
// приостановка процесса не сдвигает момент срабатывания.
func (s *checkInService) Run(ctx context.Context) {
	s.logger.Info("Starting check-in watcher...")
	go func() {
		ticker := time.NewTicker(s.cfg.CheckInPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Stopping check-in watcher.")
				return
			case <-ticker.C:
				s.sweepDue(ctx)
			}
		}
	}()
}

// sweepDue находит просроченные чек-ины и эскалирует каждый ровно один раз
func (s *checkInService) sweepDue(ctx context.Context) {
	due, err := s.repo.ListDue(ctx, s.clock.Now())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list due check-ins")
		return
	}

	for _, checkIn := range due {
		log := s.logger.WithFields(logrus.Fields{
			"service":     "checkin",
			"method":      "sweepDue",
			"check_in_id": checkIn.ID,
			"user_id":     checkIn.UserID,
		})

		// Compare-and-set: конкурентный cancel/confirm мог успеть раньше,
		// тогда эскалация не эмитится
		won, err := s.repo.MarkOverdue(ctx, checkIn.ID)
		if err != nil {
			log.WithError(err).Error("Failed to mark check-in overdue")
			continue
		}
		if !won {
			log.Info("Check-in transition lost the race, no escalation")
			continue
		}

		log.Warn("Check-in is overdue, escalating")
		if _, _, err := s.escalation.Trigger(ctx, checkIn.UserID, models.TriggerSourceAI, nil); err != nil {
			// Триггер не должен пропасть молча: просроченный чек-ин уже
			// в терминальном статусе, повторной эмиссии не будет
			log.WithError(err).Error("CRITICAL: failed to escalate overdue check-in")
		}
	}
}
