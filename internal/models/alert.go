package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertStatus - статус экстренного оповещения
type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
)

// TriggerSource - закрытое множество источников эскалации
type TriggerSource string

const (
	TriggerSourceManual TriggerSource = "manual"
	TriggerSourceVoice  TriggerSource = "voice"
	TriggerSourceAI     TriggerSource = "ai"
)

// Location - координаты пользователя на момент срабатывания
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// AlertContext - best-effort снимок состояния устройства.
// Отсутствие любого поля не блокирует создание оповещения.
type AlertContext struct {
	Location     *Location `json:"location,omitempty"`
	BatteryLevel *int      `json:"battery_level,omitempty"`
	NetworkType  string    `json:"network_type,omitempty"`
}

// SOSAlert представляет активное экстренное оповещение.
// Инвариант: не более одного active оповещения на пользователя.
type SOSAlert struct {
	ID          uuid.UUID     `json:"id"`
	UserID      string        `json:"user_id"`
	AlertType   TriggerSource `json:"alert_type"`
	Status      AlertStatus   `json:"status"`
	Context     AlertContext  `json:"context"`
	TriggeredAt time.Time     `json:"triggered_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
}
