package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/safety_escalation_system/internal/config"
	"github.com/shenikar/safety_escalation_system/internal/models"
	"github.com/shenikar/safety_escalation_system/internal/notifier"
	"github.com/shenikar/safety_escalation_system/pkg/clock"
	"github.com/sirupsen/logrus"
)

// escalationService - координатор экстренной эскалации.
// Единственный владелец жизненного цикла оповещения: все источники
// (manual, voice, ai) проходят через Trigger, разрешение - только через Resolve.
type escalationService struct {
	alerts   AlertRepository
	contacts ContactRepository
	segments SegmentStore
	device   DeviceGateway
	recorder Recorder
	fanout   notifier.Fanout
	events   notifier.EventPublisher
	logger   *logrus.Logger
	cfg      *config.Config
	clock    clock.Clock

	// родительский контекст для циклов захвата, задается в Start
	loopCtx context.Context

	mu    sync.Mutex
	loops map[uuid.UUID]context.CancelFunc
}

func NewEscalationService(
	alerts AlertRepository,
	contacts ContactRepository,
	segments SegmentStore,
	device DeviceGateway,
	recorder Recorder,
	fanout notifier.Fanout,
	events notifier.EventPublisher,
	logger *logrus.Logger,
	cfg *config.Config,
	clk clock.Clock,
) EscalationService {
	return &escalationService{
		alerts:   alerts,
		contacts: contacts,
		segments: segments,
		device:   device,
		recorder: recorder,
		fanout:   fanout,
		events:   events,
		logger:   logger,
		cfg:      cfg,
		clock:    clk,
		loopCtx:  context.Background(),
		loops:    make(map[uuid.UUID]context.CancelFunc),
	}
}

// Start задает родительский контекст для циклов захвата.
// Отмена контекста останавливает все активные циклы при завершении приложения.
func (s *escalationService) Start(ctx context.Context) {
	s.loopCtx = ctx
}

// Trigger - единая точка входа для всех источников эскалации.
// Идемпотентная дедупликация: при существующем active оповещении возвращается
// его id и created=false, второе оповещение не создается.
func (s *escalationService) Trigger(ctx context.Context, userID string, source models.TriggerSource, loc *models.Location) (*models.SOSAlert, bool, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "escalation",
		"method":  "Trigger",
		"user_id": userID,
		"source":  source,
	})
	log.Warn("Escalation trigger received")

	// Дедупликация: сначала кеш, затем бд
	if existing := s.findActive(ctx, userID, log); existing != nil {
		log.WithField("alert_id", existing.ID).Info("Active alert already exists, trigger absorbed")
		return existing, false, nil
	}

	alert := &models.SOSAlert{
		ID:          uuid.New(),
		UserID:      userID,
		AlertType:   source,
		Status:      models.AlertStatusActive,
		Context:     s.snapshotContext(ctx, userID, loc, log),
		TriggeredAt: s.clock.Now(),
	}

	// Оповещение, которое не удалось надежно записать, не должно пропасть
	// молча: ограниченные повторы, затем критическая ошибка наверх
	if err := s.persistAlert(ctx, alert, log); err != nil {
		if errors.Is(err, ErrActiveAlertExists) {
			// Гонка с конкурентным триггером: победитель уже создал оповещение
			if existing := s.findActive(ctx, userID, log); existing != nil {
				log.WithField("alert_id", existing.ID).Info("Concurrent trigger won the race, returning its alert")
				return existing, false, nil
			}
		}
		log.WithError(err).Error("CRITICAL: failed to durably record the alert")
		return nil, false, fmt.Errorf("service: could not persist alert: %w", err)
	}

	if err := s.alerts.SetActiveAlertCache(ctx, alert); err != nil {
		log.WithError(err).Warn("Failed to cache active alert")
	}

	if err := s.events.Publish(ctx, notifier.AlertEvent{
		Type:      notifier.EventAlertOpened,
		AlertID:   alert.ID,
		UserID:    alert.UserID,
		AlertType: alert.AlertType,
		Timestamp: s.clock.Now(),
	}); err != nil {
		log.WithError(err).Warn("Failed to publish alert opened event")
	}

	if err := s.recorder.StartRecording(ctx, alert.ID, alert.UserID); err != nil {
		// Отсутствие записи не блокирует оповещение
		log.WithError(err).Warn("Failed to start audio recording")
	}

	s.startCaptureLoop(alert)

	log.WithField("alert_id", alert.ID).Warn("Emergency alert opened")
	return alert, true, nil
}

// Resolve выполняет идемпотентный переход active -> resolved.
// Повторный вызов и неизвестный id являются no-op без ошибки.
func (s *escalationService) Resolve(ctx context.Context, alertID uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "escalation",
		"method":   "Resolve",
		"alert_id": alertID,
	})

	alert, err := s.alerts.ResolveAlert(ctx, alertID, s.clock.Now())
	if err != nil {
		log.WithError(err).Error("Failed to resolve alert in repository")
		return fmt.Errorf("service: could not resolve alert: %w", err)
	}
	if alert == nil {
		log.Info("Alert already resolved or unknown, resolve is a no-op")
		return nil
	}

	s.stopCaptureLoop(alertID)

	if err := s.alerts.InvalidateActiveAlertCache(ctx, alert.UserID); err != nil {
		log.WithError(err).Warn("Failed to invalidate active alert cache")
	}
	if err := s.recorder.StopRecording(ctx, alert.ID, alert.UserID); err != nil {
		log.WithError(err).Warn("Failed to stop audio recording")
	}
	if err := s.events.Publish(ctx, notifier.AlertEvent{
		Type:      notifier.EventAlertResolved,
		AlertID:   alert.ID,
		UserID:    alert.UserID,
		Timestamp: s.clock.Now(),
	}); err != nil {
		log.WithError(err).Warn("Failed to publish alert resolved event")
	}

	log.Info("Alert resolved successfully")
	return nil
}

// GetAlert возвращает оповещение по id
func (s *escalationService) GetAlert(ctx context.Context, alertID uuid.UUID) (*models.SOSAlert, error) {
	alert, err := s.alerts.GetAlertByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, ErrAlertNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("service: could not get alert: %w", err)
	}
	return alert, nil
}

// AttachSegment регистрирует ссылку на аудиосегмент, загруженный устройством
func (s *escalationService) AttachSegment(ctx context.Context, alertID uuid.UUID, url string) error {
	if _, err := s.alerts.GetAlertByID(ctx, alertID); err != nil {
		if errors.Is(err, ErrAlertNotFound) {
			return ErrAlertNotFound
		}
		return fmt.Errorf("service: could not get alert for segment: %w", err)
	}
	if err := s.segments.PushSegment(ctx, alertID, url); err != nil {
		return fmt.Errorf("service: could not attach segment: %w", err)
	}
	return nil
}

// GetStats возвращает количество оповещений за настроенное временное окно
func (s *escalationService) GetStats(ctx context.Context) (int, error) {
	count, err := s.alerts.CountAlertsSince(ctx, s.cfg.StatsTimeWindowMinutes)
	if err != nil {
		return 0, fmt.Errorf("service: could not get alert stats: %w", err)
	}
	return count, nil
}

// findActive ищет active оповещение пользователя. Источник истины - бд:
// запись кеша, пережившая resolve, не должна поглотить новый триггер.
// Кеш используется как fallback, когда бд недоступна.
func (s *escalationService) findActive(ctx context.Context, userID string, log *logrus.Entry) *models.SOSAlert {
	cached, err := s.alerts.GetActiveAlertFromCache(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("Failed to read active alert cache")
	}

	alert, err := s.alerts.GetActiveAlertByUser(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("Failed to read active alert from repository")
		return cached
	}

	if alert == nil && cached != nil {
		// Устаревшая запись кеша: инвалидация на resolve не прошла
		log.WithField("alert_id", cached.ID).Warn("Stale active alert cache entry, invalidating")
		if err := s.alerts.InvalidateActiveAlertCache(ctx, userID); err != nil {
			log.WithError(err).Warn("Failed to invalidate stale active alert cache")
		}
	}
	return alert
}

// snapshotContext собирает best-effort снимок контекста: локация, батарея,
// сеть. Отсутствие любого значения никогда не блокирует создание оповещения.
func (s *escalationService) snapshotContext(ctx context.Context, userID string, loc *models.Location, log *logrus.Entry) models.AlertContext {
	snapshot := models.AlertContext{Location: loc}

	if snapshot.Location == nil {
		location, err := s.device.CurrentLocation(ctx, userID)
		if err != nil {
			log.WithError(err).Warn("Failed to get current location for context snapshot")
		}
		snapshot.Location = location
	}

	battery, err := s.device.BatteryLevel(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("Failed to get battery level for context snapshot")
	}
	snapshot.BatteryLevel = battery

	network, err := s.device.NetworkType(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("Failed to get network type for context snapshot")
	}
	snapshot.NetworkType = network

	return snapshot
}

// persistAlert записывает оповещение с ограниченными повторами
func (s *escalationService) persistAlert(ctx context.Context, alert *models.SOSAlert, log *logrus.Entry) error {
	var lastErr error
	for attempt := 0; attempt < s.cfg.PersistRetries; attempt++ {
		err := s.alerts.CreateAlert(ctx, alert)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrActiveAlertExists) {
			return err
		}
		lastErr = err
		log.WithError(err).Warnf("Failed to persist alert, attempt %d of %d", attempt+1, s.cfg.PersistRetries)
	}
	return lastErr
}

// startCaptureLoop запускает цикл захват-рассылка для оповещения
func (s *escalationService) startCaptureLoop(alert *models.SOSAlert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.loops[alert.ID]; running {
		return
	}

	loopCtx, cancel := context.WithCancel(s.loopCtx)
	s.loops[alert.ID] = cancel
	go s.captureLoop(loopCtx, alert)
}

// stopCaptureLoop останавливает цикл захвата оповещения, если он запущен
func (s *escalationService) stopCaptureLoop(alertID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, running := s.loops[alertID]; running {
		cancel()
		delete(s.loops, alertID)
	}
}

// captureLoop каждые cfg.CaptureInterval прикрепляет свежий аудиосегмент и
// рассылает оповещение контактам. Работает до Resolve или до предохранителя
// максимальной длительности.
func (s *escalationService) captureLoop(ctx context.Context, alert *models.SOSAlert) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "escalation",
		"method":   "captureLoop",
		"alert_id": alert.ID,
		"user_id":  alert.UserID,
	})
	log.Info("Capture/fan-out loop started")

	ticker := time.NewTicker(s.cfg.CaptureInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(s.cfg.MaxAlertDuration)
	defer deadline.Stop()

	// Первый цикл рассылки выполняется сразу, не дожидаясь первого тика
	s.runFanoutCycle(ctx, alert, log)

	for {
		select {
		case <-ctx.Done():
			log.Info("Capture/fan-out loop stopped")
			return
		case <-deadline.C:
			// Предохранитель: цикл останавливается, но оповещение остается
			// active до явного Resolve
			log.Warn("Max alert duration reached, stopping capture loop")
			s.stopCaptureLoop(alert.ID)
			// Контекст цикла только что отменен, команда стопа идет от loopCtx
			if err := s.recorder.StopRecording(s.loopCtx, alert.ID, alert.UserID); err != nil {
				log.WithError(err).Warn("Failed to stop audio recording at capture cap")
			}
			s.publishEvent(log, notifier.AlertEvent{
				Type:      notifier.EventCaptureCapReached,
				AlertID:   alert.ID,
				UserID:    alert.UserID,
				Timestamp: s.clock.Now(),
			})
			return
		case <-ticker.C:
			s.runFanoutCycle(ctx, alert, log)
		}
	}
}

// runFanoutCycle выполняет один цикл: свежий сегмент + веерная рассылка
func (s *escalationService) runFanoutCycle(ctx context.Context, alert *models.SOSAlert, log *logrus.Entry) {
	segmentURL, err := s.segments.LatestSegment(ctx, alert.ID)
	if err != nil {
		log.WithError(err).Warn("Failed to get latest audio segment")
	}

	contacts, err := s.contacts.ListContacts(ctx, alert.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to list emergency contacts for fan-out")
		return
	}

	payload := notifier.AlertPayload{
		AlertID:      alert.ID,
		UserID:       alert.UserID,
		AlertType:    alert.AlertType,
		TriggeredAt:  alert.TriggeredAt,
		Location:     alert.Context.Location,
		BatteryLevel: alert.Context.BatteryLevel,
		NetworkType:  alert.Context.NetworkType,
		SegmentURL:   segmentURL,
		Message:      fmt.Sprintf("Emergency alert (%s) for user %s, please respond immediately", alert.AlertType, alert.UserID),
	}

	results, err := s.fanout.Send(ctx, payload, contacts)

	// Если оповещение уже разрешено, результат цикла отбрасывается
	if ctx.Err() != nil {
		log.Info("Alert resolved during fan-out cycle, discarding results")
		return
	}

	notified, failed := countResults(results)
	switch {
	case errors.Is(err, notifier.ErrNoContacts), errors.Is(err, notifier.ErrAllContactsFailed):
		// Полный провал рассылки эскалируется как критическое, видимое
		// пользователю состояние, но само оповещение остается active
		log.WithError(err).Error("CRITICAL: total notification failure")
		s.publishEvent(log, notifier.AlertEvent{
			Type:      notifier.EventTotalNotifyFailed,
			AlertID:   alert.ID,
			UserID:    alert.UserID,
			Failed:    failed,
			Timestamp: s.clock.Now(),
		})
	case err != nil:
		log.WithError(err).Error("Fan-out cycle failed")
	default:
		log.WithFields(logrus.Fields{"notified": notified, "failed": failed}).Info("Fan-out cycle completed")
		s.publishEvent(log, notifier.AlertEvent{
			Type:      notifier.EventFanoutCycleDone,
			AlertID:   alert.ID,
			UserID:    alert.UserID,
			Notified:  notified,
			Failed:    failed,
			Timestamp: s.clock.Now(),
		})
	}

	if len(results) > 0 {
		if err := s.alerts.SaveNotificationResults(ctx, results); err != nil {
			log.WithError(err).Warn("Failed to save notification results")
		}
	}
}

func (s *escalationService) publishEvent(log *logrus.Entry, event notifier.AlertEvent) {
	// События публикуются от loopCtx: контекст цикла к этому моменту
	// может быть уже отменен
	if err := s.events.Publish(s.loopCtx, event); err != nil {
		log.WithError(err).Warn("Failed to publish alert event")
	}
}

func countResults(results []models.NotificationResult) (notified, failed int) {
	for _, res := range results {
		if res.Success {
			notified++
		} else {
			failed++
		}
	}
	return notified, failed
}
