package service

import (
	"context"
	"fmt"

	"github.com/shenikar/safety_escalation_system/internal/config"
	"github.com/shenikar/safety_escalation_system/internal/models"
	"github.com/sirupsen/logrus"
)

// threatService - монитор угроз. Применяет пороговую политику к детекциям
// и инициирует эскалацию. Намеренно не знает о жизненном цикле оповещений:
// подавление дублей выполняет координатор.
type threatService struct {
	escalation EscalationService
	detector   Detector
	logger     *logrus.Logger
	threshold  float64
	types      map[models.ThreatType]bool
}

// NewThreatService создает монитор угроз. detector может быть nil,
// тогда детекции принимаются только через Evaluate (HTTP ingest).
func NewThreatService(escalation EscalationService, detector Detector, logger *logrus.Logger, cfg *config.Config) ThreatService {
	types := make(map[models.ThreatType]bool, len(cfg.ThreatTriggerType))
	for _, t := range cfg.ThreatTriggerType {
		types[models.ThreatType(t)] = true
	}
	return &threatService{
		escalation: escalation,
		detector:   detector,
		logger:     logger,
		threshold:  cfg.ThreatThreshold,
		types:      types,
	}
}

// Evaluate применяет пороговую политику к детекции.
// Возвращает оповещение, если детекция привела к эскалации, иначе nil.
func (s *threatService) Evaluate(ctx context.Context, detection models.ThreatDetection) (*models.SOSAlert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "threat",
		"method":     "Evaluate",
		"user_id":    detection.UserID,
		"type":       detection.Type,
		"confidence": detection.Confidence,
	})

	if !s.types[detection.Type] {
		log.Debug("Detection type is not configured for escalation")
		return nil, nil
	}
	if detection.Confidence < s.threshold {
		log.Debug("Detection confidence is below threshold")
		return nil, nil
	}

	log.Warn("Threat detection above threshold, triggering escalation")
	alert, created, err := s.escalation.Trigger(ctx, detection.UserID, models.TriggerSourceAI, nil)
	if err != nil {
		log.WithError(err).Error("Failed to trigger escalation from threat detection")
		return nil, fmt.Errorf("service: could not escalate threat detection: %w", err)
	}
	if !created {
		// Оповещение уже active, триггер поглощен координатором
		log.WithField("alert_id", alert.ID).Info("Trigger absorbed by active alert")
	}
	return alert, nil
}

// Run потребляет непрерывный поток детекций внешнего детектора
func (s *threatService) Run(ctx context.Context) {
	if s.detector == nil {
		s.logger.Info("No threat detector configured, HTTP ingest only")
		return
	}

	s.logger.Info("Starting threat monitor...")
	go func() {
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Stopping threat monitor.")
				return
			case detection, ok := <-s.detector.Detections():
				if !ok {
					s.logger.Warn("Threat detector stream closed")
					return
				}
				if _, err := s.Evaluate(ctx, detection); err != nil {
					s.logger.WithError(err).Error("Failed to evaluate threat detection")
				}
			}
		}
	}()
}
