package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/shenikar/safety_escalation_system/internal/config"
	"github.com/shenikar/safety_escalation_system/internal/models"
	"github.com/shenikar/safety_escalation_system/pkg/clock"
	"github.com/sirupsen/logrus"
)

// fanout рассылает оповещение всем контактам независимо друг от друга.
// Сбой одного контакта/канала никогда не блокирует остальных.
type fanout struct {
	channels   []Channel
	logger     *logrus.Logger
	clock      clock.Clock
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
}

// NewFanout создает рассылку с каналами в порядке приоритета
func NewFanout(channels []Channel, logger *logrus.Logger, cfg *config.Config, clk clock.Clock) Fanout {
	return &fanout{
		channels:   channels,
		logger:     logger,
		clock:      clk,
		maxRetries: cfg.NotifyMaxRetries,
		baseDelay:  cfg.NotifyBaseDelay,
		timeout:    cfg.NotifyTimeout,
	}
}

// Send доставляет оповещение каждому контакту конкурентно, каналы пробуются
// в порядке приоритета до первого успеха. Возвращает результаты всех попыток.
func (f *fanout) Send(ctx context.Context, payload AlertPayload, contacts []*models.EmergencyContact) ([]models.NotificationResult, error) {
	log := f.logger.WithFields(logrus.Fields{
		"component": "fanout",
		"alert_id":  payload.AlertID,
	})

	if len(contacts) == 0 {
		log.Error("Contact list is empty, nobody to notify")
		return nil, ErrNoContacts
	}

	var (
		mu         sync.Mutex
		results    []models.NotificationResult
		anySuccess bool
	)

	var wg sync.WaitGroup
	for _, contact := range contacts {
		wg.Add(1)
		go func(contact *models.EmergencyContact) {
			defer wg.Done()
			contactResults, contactOK := f.notifyContact(ctx, payload, contact)

			mu.Lock()
			defer mu.Unlock()
			results = append(results, contactResults...)
			if contactOK {
				anySuccess = true
			}
		}(contact)
	}
	wg.Wait()

	if !anySuccess {
		log.WithField("contacts", len(contacts)).Error("All notification channels failed for all contacts")
		return results, ErrAllContactsFailed
	}
	return results, nil
}

// notifyContact пробует каналы контакта в порядке приоритета.
// Успех любого канала делает контакт оповещенным, дальнейшие каналы не пробуются.
func (f *fanout) notifyContact(ctx context.Context, payload AlertPayload, contact *models.EmergencyContact) ([]models.NotificationResult, bool) {
	log := f.logger.WithFields(logrus.Fields{
		"component":  "fanout",
		"alert_id":   payload.AlertID,
		"contact_id": contact.ID,
	})

	results := make([]models.NotificationResult, 0, len(f.channels))
	for _, channel := range f.channels {
		if !channel.Applicable(contact) {
			continue
		}

		err := f.attemptWithRetry(ctx, channel, contact, payload)
		result := models.NotificationResult{
			AlertID:   payload.AlertID,
			ContactID: contact.ID,
			Channel:   channel.Name(),
			Success:   err == nil,
			SentAt:    f.clock.Now(),
		}
		if err != nil {
			result.Error = err.Error()
			log.WithError(err).WithField("channel", channel.Name()).Warn("Channel delivery failed, trying next channel")
			results = append(results, result)
			continue
		}

		log.WithField("channel", channel.Name()).Info("Contact notified successfully")
		results = append(results, result)
		return results, true
	}

	log.Warn("No channel succeeded for contact")
	return results, false
}

// attemptWithRetry выполняет попытки доставки с экспоненциальной задержкой.
// Повторяются только транзиентные ошибки, окончательный отказ провайдера
// возвращается сразу.
func (f *fanout) attemptWithRetry(ctx context.Context, channel Channel, contact *models.EmergencyContact, payload AlertPayload) error {
	delay := f.baseDelay
	var lastErr error

	for attempt := 0; attempt < f.maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
		err := channel.Send(attemptCtx, contact, payload)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err

		if !IsTransient(err) {
			return err
		}

		// Ждем перед повторной попыткой, уважая отмену цикла захвата
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}
