package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/safety_escalation_system/internal/models"
)

const (
	deviceStateTTL      = 15 * time.Minute
	recorderCommandsKey = "recorder_commands"
)

// DeviceGateway хранит последнее известное состояние устройства в Redis и
// публикует команды управления записью в очередь шлюза устройств.
// Реализует service.DeviceGateway и service.Recorder.
type DeviceGateway struct {
	redisClient *redis.Client
}

func NewDeviceGateway(redisClient *redis.Client) *DeviceGateway {
	return &DeviceGateway{redisClient: redisClient}
}

func deviceStateKey(userID string) string {
	return fmt.Sprintf("device_state:%s", userID)
}

// SetState сохраняет срез состояния устройства с TTL
func (g *DeviceGateway) SetState(ctx context.Context, state *models.DeviceState) error {
	val, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal device state: %w", err)
	}
	if err := g.redisClient.Set(ctx, deviceStateKey(state.UserID), val, deviceStateTTL).Err(); err != nil {
		return fmt.Errorf("failed to set device state: %w", err)
	}
	return nil
}

func (g *DeviceGateway) getState(ctx context.Context, userID string) (*models.DeviceState, error) {
	val, err := g.redisClient.Get(ctx, deviceStateKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get device state: %w", err)
	}
	state := &models.DeviceState{}
	if err := json.Unmarshal(val, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device state: %w", err)
	}
	return state, nil
}

// CurrentLocation возвращает последнюю известную локацию или nil
func (g *DeviceGateway) CurrentLocation(ctx context.Context, userID string) (*models.Location, error) {
	state, err := g.getState(ctx, userID)
	if err != nil || state == nil {
		return nil, err
	}
	return state.Location, nil
}

// BatteryLevel возвращает последний известный уровень заряда или nil
func (g *DeviceGateway) BatteryLevel(ctx context.Context, userID string) (*int, error) {
	state, err := g.getState(ctx, userID)
	if err != nil || state == nil {
		return nil, err
	}
	return state.BatteryLevel, nil
}

// NetworkType возвращает последний известный тип сети или ""
func (g *DeviceGateway) NetworkType(ctx context.Context, userID string) (string, error) {
	state, err := g.getState(ctx, userID)
	if err != nil || state == nil {
		return "", err
	}
	return state.NetworkType, nil
}

type recorderCommand struct {
	Action   string    `json:"action"` // start | stop
	AlertID  uuid.UUID `json:"alert_id"`
	UserID   string    `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}

func (g *DeviceGateway) pushCommand(ctx context.Context, cmd recorderCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal recorder command: %w", err)
	}
	if err := g.redisClient.LPush(ctx, recorderCommandsKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to push recorder command: %w", err)
	}
	return nil
}

// StartRecording командует устройству начать цикл записи аудиосегментов
func (g *DeviceGateway) StartRecording(ctx context.Context, alertID uuid.UUID, userID string) error {
	return g.pushCommand(ctx, recorderCommand{Action: "start", AlertID: alertID, UserID: userID, IssuedAt: time.Now()})
}

// StopRecording командует устройству завершить запись и освободить рекордер
func (g *DeviceGateway) StopRecording(ctx context.Context, alertID uuid.UUID, userID string) error {
	return g.pushCommand(ctx, recorderCommand{Action: "stop", AlertID: alertID, UserID: userID, IssuedAt: time.Now()})
}
