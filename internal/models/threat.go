package models

import "time"

// ThreatType - тип угрозы, распознанной детектором
type ThreatType string

const (
	ThreatTypeFall          ThreatType = "fall"
	ThreatTypeDistressAudio ThreatType = "distress_audio"
)

// ThreatDetection - эфемерное событие детектора угроз.
// Ядро не персистит детекции, они потребляются сразу для решения об эскалации.
type ThreatDetection struct {
	UserID     string     `json:"user_id"`
	Type       ThreatType `json:"type"`
	Confidence float64    `json:"confidence"` // в диапазоне [0,1]
	Timestamp  time.Time  `json:"timestamp"`
}
