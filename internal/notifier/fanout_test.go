package notifier_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/safety_escalation_system/internal/config"
	"github.com/shenikar/safety_escalation_system/internal/models"
	"github.com/shenikar/safety_escalation_system/internal/notifier"
	"github.com/shenikar/safety_escalation_system/internal/notifier/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fixedClock — фиксированный источник времени для проверки меток результатов
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var testSentAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestFanout — вспомогательная функция для создания рассылки с мокированными каналами.
func newTestFanout(t *testing.T) (notifier.Fanout, *mocks.MockChannel, *mocks.MockChannel) {
	ctrl := gomock.NewController(t)
	emailMock := mocks.NewMockChannel(ctrl)
	whatsappMock := mocks.NewMockChannel(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		NotifyMaxRetries: 2,
		NotifyBaseDelay:  time.Millisecond,
		NotifyTimeout:    time.Second,
	}

	// Каналы в порядке приоритета: сначала email, затем whatsapp
	fanout := notifier.NewFanout([]notifier.Channel{emailMock, whatsappMock}, logger, cfg, fixedClock{now: testSentAt})
	return fanout, emailMock, whatsappMock
}

func permanentError(channel models.NotificationChannel) error {
	return &notifier.ChannelError{
		Channel:    channel,
		StatusCode: 422,
		Transient:  false,
		Message:    "provider rejected the request",
	}
}

func TestFanoutSend_PartialFailureIsNotAnError(t *testing.T) {
	// Подготовка
	fanout, emailMock, whatsappMock := newTestFanout(t)
	ctx := context.Background()
	payload := notifier.AlertPayload{AlertID: uuid.New(), UserID: "user-1"}

	contactA := &models.EmergencyContact{ID: uuid.New(), Name: "Анна", Email: "anna@example.com", WhatsApp: "+79990000001"}
	contactB := &models.EmergencyContact{ID: uuid.New(), Name: "Борис", Email: "boris@example.com", WhatsApp: "+79990000002"}
	contactC := &models.EmergencyContact{ID: uuid.New(), Name: "Вера", Email: "vera@example.com"}

	// Ожидания
	emailMock.EXPECT().Name().Return(models.ChannelEmail).AnyTimes()
	whatsappMock.EXPECT().Name().Return(models.ChannelWhatsApp).AnyTimes()
	emailMock.EXPECT().
		Applicable(gomock.Any()).
		DoAndReturn(func(c *models.EmergencyContact) bool { return c.Email != "" }).
		AnyTimes()
	whatsappMock.EXPECT().
		Applicable(gomock.Any()).
		DoAndReturn(func(c *models.EmergencyContact) bool { return c.WhatsApp != "" }).
		AnyTimes()

	// A: email отказывает окончательно, whatsapp доставляет
	emailMock.EXPECT().Send(gomock.Any(), contactA, payload).Return(permanentError(models.ChannelEmail)).Times(1)
	whatsappMock.EXPECT().Send(gomock.Any(), contactA, payload).Return(nil).Times(1)

	// B: оба канала отказывают
	emailMock.EXPECT().Send(gomock.Any(), contactB, payload).Return(permanentError(models.ChannelEmail)).Times(1)
	whatsappMock.EXPECT().Send(gomock.Any(), contactB, payload).Return(permanentError(models.ChannelWhatsApp)).Times(1)

	// C: email доставляет с первой попытки, whatsapp не настроен
	emailMock.EXPECT().Send(gomock.Any(), contactC, payload).Return(nil).Times(1)

	// Действие
	results, err := fanout.Send(ctx, payload, []*models.EmergencyContact{contactA, contactB, contactC})

	// Проверки
	// Частичный сбой не является ошибкой рассылки
	require.NoError(t, err)
	require.Len(t, results, 5)

	succeeded := map[uuid.UUID]bool{}
	failed := 0
	for _, res := range results {
		assert.Equal(t, payload.AlertID, res.AlertID)
		// Метка времени результата берется из инжектированных часов
		assert.Equal(t, testSentAt, res.SentAt)
		if res.Success {
			succeeded[res.ContactID] = true
		} else {
			failed++
			assert.NotEmpty(t, res.Error)
		}
	}
	assert.True(t, succeeded[contactA.ID])
	assert.True(t, succeeded[contactC.ID])
	assert.False(t, succeeded[contactB.ID])
	assert.Equal(t, 3, failed)
}

func TestFanoutSend_NoContacts(t *testing.T) {
	// Подготовка
	fanout, _, _ := newTestFanout(t)
	ctx := context.Background()

	// Действие
	results, err := fanout.Send(ctx, notifier.AlertPayload{AlertID: uuid.New()}, nil)

	// Проверки
	require.ErrorIs(t, err, notifier.ErrNoContacts)
	assert.Empty(t, results)
}

func TestFanoutSend_AllContactsFailed(t *testing.T) {
	// Подготовка
	fanout, emailMock, whatsappMock := newTestFanout(t)
	ctx := context.Background()
	payload := notifier.AlertPayload{AlertID: uuid.New(), UserID: "user-1"}
	contact := &models.EmergencyContact{ID: uuid.New(), Name: "Анна", Email: "anna@example.com"}

	// Ожидания
	emailMock.EXPECT().Name().Return(models.ChannelEmail).AnyTimes()
	emailMock.EXPECT().Applicable(contact).Return(true).AnyTimes()
	whatsappMock.EXPECT().Applicable(contact).Return(false).AnyTimes()
	emailMock.EXPECT().
		Send(gomock.Any(), contact, payload).
		Return(permanentError(models.ChannelEmail)).
		Times(1)

	// Действие
	results, err := fanout.Send(ctx, payload, []*models.EmergencyContact{contact})

	// Проверки
	require.ErrorIs(t, err, notifier.ErrAllContactsFailed)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
}

func TestFanoutSend_TransientErrorIsRetried(t *testing.T) {
	// Подготовка
	fanout, emailMock, whatsappMock := newTestFanout(t)
	ctx := context.Background()
	payload := notifier.AlertPayload{AlertID: uuid.New(), UserID: "user-1"}
	contact := &models.EmergencyContact{ID: uuid.New(), Name: "Анна", Email: "anna@example.com"}
	transient := &notifier.ChannelError{
		Channel:    models.ChannelEmail,
		StatusCode: 503,
		Transient:  true,
		Message:    "temporarily unavailable",
	}

	// Ожидания
	emailMock.EXPECT().Name().Return(models.ChannelEmail).AnyTimes()
	emailMock.EXPECT().Applicable(contact).Return(true).AnyTimes()
	whatsappMock.EXPECT().Applicable(contact).Return(false).AnyTimes()

	gomock.InOrder(
		emailMock.EXPECT().Send(gomock.Any(), contact, payload).Return(transient).Times(1),
		emailMock.EXPECT().Send(gomock.Any(), contact, payload).Return(nil).Times(1),
	)

	// Действие
	results, err := fanout.Send(ctx, payload, []*models.EmergencyContact{contact})

	// Проверки
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestFanoutSend_PermanentErrorIsNotRetried(t *testing.T) {
	// Подготовка
	fanout, emailMock, whatsappMock := newTestFanout(t)
	ctx := context.Background()
	payload := notifier.AlertPayload{AlertID: uuid.New(), UserID: "user-1"}
	contact := &models.EmergencyContact{ID: uuid.New(), Name: "Анна", Email: "anna@example.com", WhatsApp: "+79990000001"}

	// Ожидания
	emailMock.EXPECT().Name().Return(models.ChannelEmail).AnyTimes()
	whatsappMock.EXPECT().Name().Return(models.ChannelWhatsApp).AnyTimes()
	emailMock.EXPECT().Applicable(contact).Return(true).AnyTimes()
	whatsappMock.EXPECT().Applicable(contact).Return(true).AnyTimes()

	// Окончательный отказ провайдера возвращается сразу, ровно одна попытка
	emailMock.EXPECT().Send(gomock.Any(), contact, payload).Return(permanentError(models.ChannelEmail)).Times(1)
	whatsappMock.EXPECT().Send(gomock.Any(), contact, payload).Return(nil).Times(1)

	// Действие
	results, err := fanout.Send(ctx, payload, []*models.EmergencyContact{contact})

	// Проверки
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestIsTransient(t *testing.T) {
	// Сетевая ошибка без классификации считается транзиентной
	assert.True(t, notifier.IsTransient(fmt.Errorf("connection refused")))
	assert.True(t, notifier.IsTransient(&notifier.ChannelError{Transient: true}))
	assert.False(t, notifier.IsTransient(&notifier.ChannelError{Transient: false}))
}
