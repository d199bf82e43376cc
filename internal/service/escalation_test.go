package service

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
	notifier_mocks "github.com/shenikar/safety_escalation_system/internal/notifier/mocks"
	"github.com/shenikar/safety_escalation_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type escalationMocks struct {
	alerts   *mocks.MockAlertRepository
	contacts *mocks.MockContactRepository
	segments *mocks.MockSegmentStore
	device   *mocks.MockDeviceGateway
	recorder *mocks.MockRecorder
	fanout   *notifier_mocks.MockFanout
	events   *notifier_mocks.MockEventPublisher
}

// newTestEscalationService — вспомогательная функция для создания координатора с моками.
func newTestEscalationService(t *testing.T) (*escalationService, *escalationMocks, *fakeClock) {
	ctrl := gomock.NewController(t)
	m := &escalationMocks{
		alerts:   mocks.NewMockAlertRepository(ctrl),
		contacts: mocks.NewMockContactRepository(ctrl),
		segments: mocks.NewMockSegmentStore(ctrl),
		device:   mocks.NewMockDeviceGateway(ctrl),
		recorder: mocks.NewMockRecorder(ctrl),
		fanout:   notifier_mocks.NewMockFanout(ctrl),
		events:   notifier_mocks.NewMockEventPublisher(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		PersistRetries:         3,
		CaptureInterval:        time.Minute,
		MaxAlertDuration:       2 * time.Hour,
		StatsTimeWindowMinutes: 60,
	}
	clk := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	service := NewEscalationService(m.alerts, m.contacts, m.segments, m.device, m.recorder, m.fanout, m.events, logger, cfg, clk)
	return service.(*escalationService), m, clk
}

func TestTrigger_CreatesAlert(t *testing.T) {
	// Подготовка
	service, m, clk := newTestEscalationService(t)
	ctx := context.Background()
	userID := "user-1"
	loc := &models.Location{Latitude: 55.75, Longitude: 37.61}
	battery := 42

	// Цикл захвата стартует от уже отмененного контекста: первый цикл рассылки
	// выполняется и сразу завершается, тест дожидается его через done
	loopCtx, cancel := context.WithCancel(context.Background())
	cancel()
	service.Start(loopCtx)
	done := make(chan struct{})

	// Ожидания
	// Дедупликация: активного оповещения нет ни в кеше, ни в бд
	m.alerts.EXPECT().GetActiveAlertFromCache(ctx, userID).Return(nil, nil).Times(1)
	m.alerts.EXPECT().GetActiveAlertByUser(ctx, userID).Return(nil, nil).Times(1)

	// Снимок контекста: локация передана вызывающим, остальное берется с устройства
	m.device.EXPECT().BatteryLevel(ctx, userID).Return(&battery, nil).Times(1)
	m.device.EXPECT().NetworkType(ctx, userID).Return("wifi", nil).Times(1)

	m.alerts.EXPECT().
		CreateAlert(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, alert *models.SOSAlert) error {
			assert.Equal(t, userID, alert.UserID)
			assert.Equal(t, models.TriggerSourceManual, alert.AlertType)
			assert.Equal(t, models.AlertStatusActive, alert.Status)
			assert.Equal(t, loc, alert.Context.Location)
			assert.Equal(t, &battery, alert.Context.BatteryLevel)
			assert.Equal(t, clk.Now(), alert.TriggeredAt)
			return nil
		}).Times(1)
	m.alerts.EXPECT().SetActiveAlertCache(ctx, gomock.Any()).Return(nil).Times(1)

	m.events.EXPECT().
		Publish(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, event notifier.AlertEvent) error {
			assert.Equal(t, notifier.EventAlertOpened, event.Type)
			return nil
		}).Times(1)
	m.recorder.EXPECT().StartRecording(ctx, gomock.Any(), userID).Return(nil).Times(1)

	// Первый цикл рассылки в отмененном контексте: результаты отбрасываются
	m.segments.EXPECT().LatestSegment(gomock.Any(), gomock.Any()).Return("", nil).AnyTimes()
	m.contacts.EXPECT().ListContacts(gomock.Any(), userID).Return(nil, nil).AnyTimes()
	m.fanout.EXPECT().
		Send(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, notifier.AlertPayload, []*models.EmergencyContact) ([]models.NotificationResult, error) {
			close(done)
			return nil, notifier.ErrNoContacts
		}).Times(1)

	// Действие
	alert, created, err := service.Trigger(ctx, userID, models.TriggerSourceManual, loc)

	// Проверки
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.True(t, created)
	assert.Equal(t, models.AlertStatusActive, alert.Status)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("capture loop did not run its first fan-out cycle")
	}
}

func TestTrigger_AbsorbedByActiveAlert(t *testing.T) {
	// Подготовка
	service, m, _ := newTestEscalationService(t)
	ctx := context.Background()
	existing := &models.SOSAlert{
		ID:     uuid.New(),
		UserID: "user-1",
		Status: models.AlertStatusActive,
	}

	// Ожидания
	// Попадание в кеш подтверждается бд: второе оповещение не создается
	m.alerts.EXPECT().GetActiveAlertFromCache(ctx, "user-1").Return(existing, nil).Times(1)
	m.alerts.EXPECT().GetActiveAlertByUser(ctx, "user-1").Return(existing, nil).Times(1)
	m.alerts.EXPECT().CreateAlert(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	alert, created, err := service.Trigger(ctx, "user-1", models.TriggerSourceVoice, nil)

	// Проверки
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, alert.ID)
}

func TestTrigger_StaleCacheEntryDoesNotAbsorbTrigger(t *testing.T) {
	// Подготовка
	service, m, _ := newTestEscalationService(t)
	ctx := context.Background()
	userID := "user-1"
	// Запись кеша пережила resolve: инвалидация при разрешении не прошла
	stale := &models.SOSAlert{
		ID:     uuid.New(),
		UserID: userID,
		Status: models.AlertStatusActive,
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	cancel()
	service.Start(loopCtx)
	done := make(chan struct{})

	// Ожидания
	// Источник истины - бд: устаревший кеш инвалидируется, триггер не поглощается
	m.alerts.EXPECT().GetActiveAlertFromCache(ctx, userID).Return(stale, nil).Times(1)
	m.alerts.EXPECT().GetActiveAlertByUser(ctx, userID).Return(nil, nil).Times(1)
	m.alerts.EXPECT().InvalidateActiveAlertCache(ctx, userID).Return(nil).Times(1)

	m.device.EXPECT().CurrentLocation(ctx, userID).Return(nil, nil).Times(1)
	m.device.EXPECT().BatteryLevel(ctx, userID).Return(nil, nil).Times(1)
	m.device.EXPECT().NetworkType(ctx, userID).Return("", nil).Times(1)

	m.alerts.EXPECT().CreateAlert(ctx, gomock.Any()).Return(nil).Times(1)
	m.alerts.EXPECT().SetActiveAlertCache(ctx, gomock.Any()).Return(nil).Times(1)
	m.events.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)
	m.recorder.EXPECT().StartRecording(ctx, gomock.Any(), userID).Return(nil).Times(1)

	m.segments.EXPECT().LatestSegment(gomock.Any(), gomock.Any()).Return("", nil).AnyTimes()
	m.contacts.EXPECT().ListContacts(gomock.Any(), userID).Return(nil, nil).AnyTimes()
	m.fanout.EXPECT().
		Send(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, notifier.AlertPayload, []*models.EmergencyContact) ([]models.NotificationResult, error) {
			close(done)
			return nil, notifier.ErrNoContacts
		}).Times(1)

	// Действие
	alert, created, err := service.Trigger(ctx, userID, models.TriggerSourceManual, nil)

	// Проверки
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.True(t, created)
	assert.NotEqual(t, stale.ID, alert.ID)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("capture loop did not run its first fan-out cycle")
	}
}

func TestTrigger_CacheIsFallbackWhenRepositoryUnavailable(t *testing.T) {
	// Подготовка
	service, m, _ := newTestEscalationService(t)
	ctx := context.Background()
	existing := &models.SOSAlert{
		ID:     uuid.New(),
		UserID: "user-1",
		Status: models.AlertStatusActive,
	}

	// Ожидания
	// Бд недоступна: кеш остается последним источником дедупликации
	m.alerts.EXPECT().GetActiveAlertFromCache(ctx, "user-1").Return(existing, nil).Times(1)
	m.alerts.EXPECT().GetActiveAlertByUser(ctx, "user-1").Return(nil, fmt.Errorf("db is down")).Times(1)
	m.alerts.EXPECT().CreateAlert(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	alert, created, err := service.Trigger(ctx, "user-1", models.TriggerSourceVoice, nil)

	// Проверки
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, alert.ID)
}

func TestCaptureLoop_MaxDurationStopsRecorder(t *testing.T) {
	// Подготовка
	service, m, _ := newTestEscalationService(t)
	service.cfg.MaxAlertDuration = 20 * time.Millisecond
	service.cfg.CaptureInterval = time.Hour
	alert := &models.SOSAlert{
		ID:     uuid.New(),
		UserID: "user-1",
		Status: models.AlertStatusActive,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	service.Start(ctx)

	// Ожидания
	// Первый цикл рассылки обрывается на списке контактов
	m.segments.EXPECT().LatestSegment(gomock.Any(), alert.ID).Return("", nil).AnyTimes()
	m.contacts.EXPECT().ListContacts(gomock.Any(), "user-1").Return(nil, fmt.Errorf("db is down")).AnyTimes()

	var stopCtxErr error
	published := make(chan struct{})
	m.recorder.EXPECT().
		StopRecording(gomock.Any(), alert.ID, "user-1").
		DoAndReturn(func(stopCtx context.Context, _ uuid.UUID, _ string) error {
			stopCtxErr = stopCtx.Err()
			return nil
		}).Times(1)
	m.events.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event notifier.AlertEvent) error {
			assert.Equal(t, notifier.EventCaptureCapReached, event.Type)
			close(published)
			return nil
		}).Times(1)

	// Действие
	service.startCaptureLoop(alert)

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("max duration breaker did not fire")
	}

	// Проверки
	// Команда стопа ушла на живом контексте, а не на отмененном контексте цикла
	require.NoError(t, stopCtxErr)
}

func TestTrigger_ConcurrentRaceReturnsWinner(t *testing.T) {
	// Подготовка
	service, m, _ := newTestEscalationService(t)
	ctx := context.Background()
	userID := "user-1"
	loc := &models.Location{Latitude: 1, Longitude: 2}
	winner := &models.SOSAlert{
		ID:     uuid.New(),
		UserID: userID,
		Status: models.AlertStatusActive,
	}

	// Ожидания
	// Первая проверка дедупликации промахивается
	m.alerts.EXPECT().GetActiveAlertFromCache(ctx, userID).Return(nil, nil).Times(1)
	m.alerts.EXPECT().GetActiveAlertByUser(ctx, userID).Return(nil, nil).Times(1)
	m.device.EXPECT().BatteryLevel(ctx, userID).Return(nil, nil).Times(1)
	m.device.EXPECT().NetworkType(ctx, userID).Return("", nil).Times(1)

	// Конкурентный триггер выиграл гонку на частичном уникальном индексе
	m.alerts.EXPECT().CreateAlert(ctx, gomock.Any()).Return(ErrActiveAlertExists).Times(1)

	// Повторный поиск возвращает оповещение победителя
	m.alerts.EXPECT().GetActiveAlertFromCache(ctx, userID).Return(nil, nil).Times(1)
	m.alerts.EXPECT().GetActiveAlertByUser(ctx, userID).Return(winner, nil).Times(1)

	// Действие
	alert, created, err := service.Trigger(ctx, userID, models.TriggerSourceManual, loc)

	// Проверки
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner.ID, alert.ID)
}

func TestTrigger_PersistFailureIsSurfaced(t *testing.T) {
	// Подготовка
	service, m, _ := newTestEscalationService(t)
	ctx := context.Background()
	userID := "user-1"

	// Ожидания
	m.alerts.EXPECT().GetActiveAlertFromCache(ctx, userID).Return(nil, nil).Times(1)
	m.alerts.EXPECT().GetActiveAlertByUser(ctx, userID).Return(nil, nil).Times(1)
	m.device.EXPECT().CurrentLocation(ctx, userID).Return(nil, nil).Times(1)
	m.device.EXPECT().BatteryLevel(ctx, userID).Return(nil, nil).Times(1)
	m.device.EXPECT().NetworkType(ctx, userID).Return("", nil).Times(1)

	// Все попытки записи исчерпаны
	m.alerts.EXPECT().
		CreateAlert(ctx, gomock.Any()).
		Return(fmt.Errorf("db is down")).
		Times(3)
	m.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
	m.recorder.EXPECT().StartRecording(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Действие
	alert, created, err := service.Trigger(ctx, userID, models.TriggerSourceManual, nil)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, alert)
	assert.False(t, created)
	assert.ErrorContains(t, err, "could not persist alert")
}

func TestResolve_Success(t *testing.T) {
	// Подготовка
	service, m, clk := newTestEscalationService(t)
	ctx := context.Background()
	alertID := uuid.New()
	resolved := &models.SOSAlert{
		ID:     alertID,
		UserID: "user-1",
		Status: models.AlertStatusResolved,
	}

	// Ожидания
	m.alerts.EXPECT().ResolveAlert(ctx, alertID, clk.Now()).Return(resolved, nil).Times(1)
	m.alerts.EXPECT().InvalidateActiveAlertCache(ctx, "user-1").Return(nil).Times(1)
	m.recorder.EXPECT().StopRecording(ctx, alertID, "user-1").Return(nil).Times(1)
	m.events.EXPECT().
		Publish(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, event notifier.AlertEvent) error {
			assert.Equal(t, notifier.EventAlertResolved, event.Type)
			return nil
		}).Times(1)

	// Действие
	err := service.Resolve(ctx, alertID)

	// Проверки
	require.NoError(t, err)
}

func TestResolve_IsIdempotent(t *testing.T) {
	// Подготовка
	service, m, clk := newTestEscalationService(t)
	ctx := context.Background()
	alertID := uuid.New()

	// Ожидания
	// Переход уже выполнен ранее: no-op без побочных эффектов
	m.alerts.EXPECT().ResolveAlert(ctx, alertID, clk.Now()).Return(nil, nil).Times(1)
	m.alerts.EXPECT().InvalidateActiveAlertCache(gomock.Any(), gomock.Any()).Times(0)
	m.recorder.EXPECT().StopRecording(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	m.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	err := service.Resolve(ctx, alertID)

	// Проверки
	require.NoError(t, err)
}

func TestRunFanoutCycle_PartialFailureKeepsGoing(t *testing.T) {
	// Подготовка
	service, m, clk := newTestEscalationService(t)
	ctx := context.Background()
	alert := &models.SOSAlert{
		ID:          uuid.New(),
		UserID:      "user-1",
		AlertType:   models.TriggerSourceManual,
		Status:      models.AlertStatusActive,
		TriggeredAt: clk.Now(),
	}
	contacts := []*models.EmergencyContact{
		{ID: uuid.New(), UserID: "user-1", Name: "Анна", Email: "anna@example.com"},
		{ID: uuid.New(), UserID: "user-1", Name: "Борис", WhatsApp: "+79990000000"},
	}
	results := []models.NotificationResult{
		{AlertID: alert.ID, ContactID: contacts[0].ID, Channel: models.ChannelEmail, Success: true},
		{AlertID: alert.ID, ContactID: contacts[1].ID, Channel: models.ChannelWhatsApp, Success: false, Error: "provider rejected"},
	}

	// Ожидания
	m.segments.EXPECT().LatestSegment(ctx, alert.ID).Return("https://cdn.example.com/seg-1.m4a", nil).Times(1)
	m.contacts.EXPECT().ListContacts(ctx, "user-1").Return(contacts, nil).Times(1)
	m.fanout.EXPECT().
		Send(ctx, gomock.Any(), contacts).
		DoAndReturn(func(_ context.Context, payload notifier.AlertPayload, _ []*models.EmergencyContact) ([]models.NotificationResult, error) {
			assert.Equal(t, alert.ID, payload.AlertID)
			assert.Equal(t, "https://cdn.example.com/seg-1.m4a", payload.SegmentURL)
			return results, nil
		}).Times(1)
	m.events.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event notifier.AlertEvent) error {
			assert.Equal(t, notifier.EventFanoutCycleDone, event.Type)
			assert.Equal(t, 1, event.Notified)
			assert.Equal(t, 1, event.Failed)
			return nil
		}).Times(1)
	m.alerts.EXPECT().SaveNotificationResults(ctx, results).Return(nil).Times(1)

	// Действие
	service.runFanoutCycle(ctx, alert, service.logger.WithField("test", t.Name()))
}

func TestRunFanoutCycle_TotalFailureEmitsCriticalEvent(t *testing.T) {
	// Подготовка
	service, m, clk := newTestEscalationService(t)
	ctx := context.Background()
	alert := &models.SOSAlert{
		ID:          uuid.New(),
		UserID:      "user-1",
		AlertType:   models.TriggerSourceAI,
		Status:      models.AlertStatusActive,
		TriggeredAt: clk.Now(),
	}
	contacts := []*models.EmergencyContact{
		{ID: uuid.New(), UserID: "user-1", Name: "Анна", Email: "anna@example.com"},
	}
	results := []models.NotificationResult{
		{AlertID: alert.ID, ContactID: contacts[0].ID, Channel: models.ChannelEmail, Success: false, Error: "timeout"},
	}

	// Ожидания
	m.segments.EXPECT().LatestSegment(ctx, alert.ID).Return("", nil).Times(1)
	m.contacts.EXPECT().ListContacts(ctx, "user-1").Return(contacts, nil).Times(1)
	m.fanout.EXPECT().
		Send(ctx, gomock.Any(), contacts).
		Return(results, notifier.ErrAllContactsFailed).
		Times(1)
	m.events.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event notifier.AlertEvent) error {
			assert.Equal(t, notifier.EventTotalNotifyFailed, event.Type)
			assert.Equal(t, 1, event.Failed)
			return nil
		}).Times(1)
	m.alerts.EXPECT().SaveNotificationResults(ctx, results).Return(nil).Times(1)

	// Действие
	service.runFanoutCycle(ctx, alert, service.logger.WithField("test", t.Name()))
}

func TestAttachSegment_Success(t *testing.T) {
	// Подготовка
	service, m, _ := newTestEscalationService(t)
	ctx := context.Background()
	alertID := uuid.New()

	// Ожидания
	m.alerts.EXPECT().
		GetAlertByID(ctx, alertID).
		Return(&models.SOSAlert{ID: alertID, Status: models.AlertStatusActive}, nil).
		Times(1)
	m.segments.EXPECT().
		PushSegment(ctx, alertID, "https://cdn.example.com/seg-2.m4a").
		Return(nil).
		Times(1)

	// Действие
	err := service.AttachSegment(ctx, alertID, "https://cdn.example.com/seg-2.m4a")

	// Проверки
	require.NoError(t, err)
}

func TestAttachSegment_AlertNotFound(t *testing.T) {
	// Подготовка
	service, m, _ := newTestEscalationService(t)
	ctx := context.Background()
	alertID := uuid.New()

	// Ожидания
	m.alerts.EXPECT().GetAlertByID(ctx, alertID).Return(nil, ErrAlertNotFound).Times(1)
	m.segments.EXPECT().PushSegment(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Действие
	err := service.AttachSegment(ctx, alertID, "https://cdn.example.com/seg-3.m4a")

	// Проверки
	require.ErrorIs(t, err, ErrAlertNotFound)
}

func TestGetStats_Success(t *testing.T) {
	// Подготовка
	service, m, _ := newTestEscalationService(t)
	ctx := context.Background()

	// Ожидания
	m.alerts.EXPECT().CountAlertsSince(ctx, 60).Return(5, nil).Times(1)

	// Действие
	count, err := service.GetStats(ctx)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
