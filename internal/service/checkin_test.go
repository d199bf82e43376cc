package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/safety_escalation_system/internal/config"
	"github.com/shenikar/safety_escalation_system/internal/models"
	"github.com/shenikar/safety_escalation_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeClock — управляемые часы для тестов. Остаток времени до дедлайна
// всегда выводится из часов, поэтому тесты двигают время явно.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestCheckInService — вспомогательная функция для создания инстанса сервиса с моками.
func newTestCheckInService(t *testing.T) (*checkInService, *mocks.MockCheckInRepository, *mocks.MockEscalationService, *fakeClock) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockCheckInRepository(ctrl)
	escalationMock := mocks.NewMockEscalationService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		CheckInPollInterval: 5 * time.Second,
	}
	clk := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	service := NewCheckInService(repoMock, escalationMock, logger, cfg, clk)
	return service.(*checkInService), repoMock, escalationMock, clk
}

func TestScheduleCheckIn_Success(t *testing.T) {
	// Подготовка
	service, repoMock, _, clk := newTestCheckInService(t)
	ctx := context.Background()
	userID := "user-1"
	scheduledTime := clk.Now().Add(30 * time.Minute)

	// Ожидания
	repoMock.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, checkIn *models.CheckIn) error {
			assert.Equal(t, userID, checkIn.UserID)
			assert.Equal(t, models.CheckInStatusPending, checkIn.Status)
			assert.Equal(t, scheduledTime, checkIn.ScheduledTime)
			return nil
		}).Times(1)

	// Действие
	checkIn, err := service.Schedule(ctx, userID, scheduledTime)

	// Проверки
	require.NoError(t, err)
	require.NotNil(t, checkIn)
	assert.NotEqual(t, uuid.Nil, checkIn.ID)
	assert.Equal(t, models.CheckInStatusPending, checkIn.Status)
}

func TestScheduleCheckIn_InPast(t *testing.T) {
	// Подготовка
	service, repoMock, _, clk := newTestCheckInService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	checkIn, err := service.Schedule(ctx, "user-1", clk.Now().Add(-time.Minute))

	// Проверки
	require.ErrorIs(t, err, ErrScheduleInPast)
	assert.Nil(t, checkIn)
}

func TestScheduleCheckIn_AlreadyScheduled(t *testing.T) {
	// Подготовка
	service, repoMock, _, clk := newTestCheckInService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().
		Create(ctx, gomock.Any()).
		Return(ErrAlreadyScheduled).
		Times(1)

	// Действие
	checkIn, err := service.Schedule(ctx, "user-1", clk.Now().Add(time.Hour))

	// Проверки
	require.ErrorIs(t, err, ErrAlreadyScheduled)
	assert.Nil(t, checkIn)
}

func TestConfirmCheckIn_Success(t *testing.T) {
	// Подготовка
	service, repoMock, _, _ := newTestCheckInService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().
		CompletePending(ctx, "user-1").
		Return(true, nil).
		Times(1)

	// Действие
	err := service.Confirm(ctx, "user-1")

	// Проверки
	require.NoError(t, err)
}

func TestConfirmCheckIn_NoPending(t *testing.T) {
	// Подготовка
	service, repoMock, _, _ := newTestCheckInService(t)
	ctx := context.Background()

	// Ожидания
	// Дедлайн мог уже сработать: pending чек-ина больше нет
	repoMock.EXPECT().
		CompletePending(ctx, "user-1").
		Return(false, nil).
		Times(1)

	// Действие
	err := service.Confirm(ctx, "user-1")

	// Проверки
	require.ErrorIs(t, err, ErrNoPendingCheckIn)
}

func TestCancelCheckIn_Success(t *testing.T) {
	// Подготовка
	service, repoMock, _, _ := newTestCheckInService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().
		DeletePending(ctx, "user-1").
		Return(true, nil).
		Times(1)

	// Действие
	err := service.Cancel(ctx, "user-1")

	// Проверки
	require.NoError(t, err)
}

func TestCancelCheckIn_LostRaceIsNoOp(t *testing.T) {
	// Подготовка
	service, repoMock, _, _ := newTestCheckInService(t)
	ctx := context.Background()

	// Ожидания
	// Чек-ин уже перешел в overdue: отмена молча становится no-op
	repoMock.EXPECT().
		DeletePending(ctx, "user-1").
		Return(false, nil).
		Times(1)

	// Действие
	err := service.Cancel(ctx, "user-1")

	// Проверки
	require.NoError(t, err)
}

func TestSweepDue_EscalatesExactlyOnce(t *testing.T) {
	// Подготовка
	service, repoMock, escalationMock, clk := newTestCheckInService(t)
	ctx := context.Background()
	overdue := &models.CheckIn{
		ID:            uuid.New(),
		UserID:        "user-1",
		ScheduledTime: clk.Now().Add(-time.Minute),
		Status:        models.CheckInStatusPending,
	}

	// Ожидания
	repoMock.EXPECT().
		ListDue(ctx, clk.Now()).
		Return([]*models.CheckIn{overdue}, nil).
		Times(1)

	// CAS выигран: эскалация эмитится ровно один раз
	repoMock.EXPECT().
		MarkOverdue(ctx, overdue.ID).
		Return(true, nil).
		Times(1)

	escalationMock.EXPECT().
		Trigger(ctx, "user-1", models.TriggerSourceAI, nil).
		Return(&models.SOSAlert{ID: uuid.New(), UserID: "user-1"}, true, nil).
		Times(1)

	// Действие
	service.sweepDue(ctx)

	// Повторный проход: чек-ин уже в терминальном статусе и не возвращается
	repoMock.EXPECT().
		ListDue(ctx, clk.Now()).
		Return(nil, nil).
		Times(1)
	service.sweepDue(ctx)
}

func TestSweepDue_LostRaceSkipsEscalation(t *testing.T) {
	// Подготовка
	service, repoMock, escalationMock, clk := newTestCheckInService(t)
	ctx := context.Background()
	checkIn := &models.CheckIn{
		ID:     uuid.New(),
		UserID: "user-1",
	}

	// Ожидания
	repoMock.EXPECT().
		ListDue(ctx, clk.Now()).
		Return([]*models.CheckIn{checkIn}, nil).
		Times(1)

	// Конкурентный cancel/confirm успел раньше: эскалации быть не должно
	repoMock.EXPECT().
		MarkOverdue(ctx, checkIn.ID).
		Return(false, nil).
		Times(1)

	escalationMock.EXPECT().
		Trigger(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Times(0)

	// Действие
	service.sweepDue(ctx)
}

func TestSweepDue_TriggerFailureDoesNotStopSweep(t *testing.T) {
	// Подготовка
	service, repoMock, escalationMock, clk := newTestCheckInService(t)
	ctx := context.Background()
	first := &models.CheckIn{ID: uuid.New(), UserID: "user-1"}
	second := &models.CheckIn{ID: uuid.New(), UserID: "user-2"}

	// Ожидания
	repoMock.EXPECT().
		ListDue(ctx, clk.Now()).
		Return([]*models.CheckIn{first, second}, nil).
		Times(1)

	repoMock.EXPECT().MarkOverdue(ctx, first.ID).Return(true, nil).Times(1)
	repoMock.EXPECT().MarkOverdue(ctx, second.ID).Return(true, nil).Times(1)

	escalationMock.EXPECT().
		Trigger(ctx, "user-1", models.TriggerSourceAI, nil).
		Return(nil, false, fmt.Errorf("db is down")).
		Times(1)
	escalationMock.EXPECT().
		Trigger(ctx, "user-2", models.TriggerSourceAI, nil).
		Return(&models.SOSAlert{ID: uuid.New(), UserID: "user-2"}, true, nil).
		Times(1)

	// Действие
	service.sweepDue(ctx)
}
