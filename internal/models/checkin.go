package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckInStatus - статус чек-ина безопасности
type CheckInStatus string

const (
	CheckInStatusPending   CheckInStatus = "pending"
	CheckInStatusCompleted CheckInStatus = "completed"
	CheckInStatusOverdue   CheckInStatus = "overdue"
)

// CheckIn представляет обещание пользователя подтвердить безопасность к дедлайну.
// Инвариант: не более одного pending чек-ина на пользователя.
type CheckIn struct {
	ID            uuid.UUID     `json:"id"`
	UserID        string        `json:"user_id"`
	ScheduledTime time.Time     `json:"scheduled_time"`
	Status        CheckInStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}
