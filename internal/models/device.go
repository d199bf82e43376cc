package models

import "time"

// DeviceState - последнее известное состояние устройства пользователя.
// Периодически репортится устройством, читается best-effort при снятии
// снимка контекста оповещения.
type DeviceState struct {
	UserID       string    `json:"user_id"`
	Location     *Location `json:"location,omitempty"`
	BatteryLevel *int      `json:"battery_level,omitempty"`
	NetworkType  string    `json:"network_type,omitempty"`
	ReportedAt   time.Time `json:"reported_at"`
}
