package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/safety_escalation_system/internal/config"
	"github.com/shenikar/safety_escalation_system/internal/models"
	"github.com/shenikar/safety_escalation_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestThreatService — вспомогательная функция для создания монитора угроз с моками.
func newTestThreatService(t *testing.T) (*threatService, *mocks.MockEscalationService) {
	ctrl := gomock.NewController(t)
	escalationMock := mocks.NewMockEscalationService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		ThreatThreshold:   0.85,
		ThreatTriggerType: []string{"fall", "distress_audio"},
	}

	service := NewThreatService(escalationMock, nil, logger, cfg)
	return service.(*threatService), escalationMock
}

func TestEvaluate_AboveThresholdEscalates(t *testing.T) {
	// Подготовка
	service, escalationMock := newTestThreatService(t)
	ctx := context.Background()
	detection := models.ThreatDetection{
		UserID:     "user-1",
		Type:       models.ThreatTypeFall,
		Confidence: 0.92,
	}
	expected := &models.SOSAlert{
		ID:        uuid.New(),
		UserID:    "user-1",
		AlertType: models.TriggerSourceAI,
		Status:    models.AlertStatusActive,
	}

	// Ожидания
	escalationMock.EXPECT().
		Trigger(ctx, "user-1", models.TriggerSourceAI, nil).
		Return(expected, true, nil).
		Times(1)

	// Действие
	alert, err := service.Evaluate(ctx, detection)

	// Проверки
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, expected.ID, alert.ID)
}

func TestEvaluate_ExactlyAtThresholdEscalates(t *testing.T) {
	// Подготовка
	service, escalationMock := newTestThreatService(t)
	ctx := context.Background()
	detection := models.ThreatDetection{
		UserID:     "user-1",
		Type:       models.ThreatTypeDistressAudio,
		Confidence: 0.85,
	}

	// Ожидания
	// Порог включительный: confidence == threshold эскалирует
	escalationMock.EXPECT().
		Trigger(ctx, "user-1", models.TriggerSourceAI, nil).
		Return(&models.SOSAlert{ID: uuid.New(), UserID: "user-1"}, true, nil).
		Times(1)

	// Действие
	alert, err := service.Evaluate(ctx, detection)

	// Проверки
	require.NoError(t, err)
	assert.NotNil(t, alert)
}

func TestEvaluate_BelowThresholdIsIgnored(t *testing.T) {
	// Подготовка
	service, escalationMock := newTestThreatService(t)
	ctx := context.Background()
	detection := models.ThreatDetection{
		UserID:     "user-1",
		Type:       models.ThreatTypeFall,
		Confidence: 0.84,
	}

	// Ожидания
	escalationMock.EXPECT().
		Trigger(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Times(0)

	// Действие
	alert, err := service.Evaluate(ctx, detection)

	// Проверки
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestEvaluate_UnconfiguredTypeIsIgnored(t *testing.T) {
	// Подготовка
	service, escalationMock := newTestThreatService(t)
	ctx := context.Background()
	detection := models.ThreatDetection{
		UserID:     "user-1",
		Type:       models.ThreatType("loud_music"),
		Confidence: 0.99,
	}

	// Ожидания
	escalationMock.EXPECT().
		Trigger(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Times(0)

	// Действие
	alert, err := service.Evaluate(ctx, detection)

	// Проверки
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestEvaluate_AbsorbedByActiveAlert(t *testing.T) {
	// Подготовка
	service, escalationMock := newTestThreatService(t)
	ctx := context.Background()
	detection := models.ThreatDetection{
		UserID:     "user-1",
		Type:       models.ThreatTypeFall,
		Confidence: 0.95,
	}
	existing := &models.SOSAlert{
		ID:     uuid.New(),
		UserID: "user-1",
		Status: models.AlertStatusActive,
	}

	// Ожидания
	// Координатор поглощает триггер: повторная детекция не порождает второе оповещение
	escalationMock.EXPECT().
		Trigger(ctx, "user-1", models.TriggerSourceAI, nil).
		Return(existing, false, nil).
		Times(1)

	// Действие
	alert, err := service.Evaluate(ctx, detection)

	// Проверки
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, existing.ID, alert.ID)
}
