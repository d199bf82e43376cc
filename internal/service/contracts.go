package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/safety_escalation_system/internal/models"
)

//go:generate mockgen -source=contracts.go -destination=mocks/mock_contracts.go -package=mocks

// CheckInRepository определяет контракт для работы с бд чек-инов.
// Переходы статусов выполняются атомарно (compare-and-set по текущему статусу),
// возвращаемый bool означает, что переход выиграл гонку.
type CheckInRepository interface {
	Create(ctx context.Context, checkIn *models.CheckIn) error
	GetPending(ctx context.Context, userID string) (*models.CheckIn, error)
	CompletePending(ctx context.Context, userID string) (bool, error)
	DeletePending(ctx context.Context, userID string) (bool, error)
	MarkOverdue(ctx context.Context, id uuid.UUID) (bool, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.CheckIn, error)
}

// AlertRepository определяет контракт для работы с бд экстренных оповещений
type AlertRepository interface {
	CreateAlert(ctx context.Context, alert *models.SOSAlert) error
	GetAlertByID(ctx context.Context, id uuid.UUID) (*models.SOSAlert, error)
	GetActiveAlertByUser(ctx context.Context, userID string) (*models.SOSAlert, error)
	// ResolveAlert выполняет CAS active -> resolved и возвращает обновленное
	// оповещение, либо nil если переход уже был выполнен ранее или id неизвестен.
	ResolveAlert(ctx context.Context, id uuid.UUID, resolvedAt time.Time) (*models.SOSAlert, error)
	CountAlertsSince(ctx context.Context, minutes int) (int, error)
	SaveNotificationResults(ctx context.Context, results []models.NotificationResult) error
	GetActiveAlertFromCache(ctx context.Context, userID string) (*models.SOSAlert, error)
	SetActiveAlertCache(ctx context.Context, alert *models.SOSAlert) error
	InvalidateActiveAlertCache(ctx context.Context, userID string) error
}

// ContactRepository определяет контракт для работы с бд экстренных контактов
type ContactRepository interface {
	CreateContact(ctx context.Context, contact *models.EmergencyContact) error
	GetContact(ctx context.Context, id uuid.UUID) (*models.EmergencyContact, error)
	ListContacts(ctx context.Context, userID string) ([]*models.EmergencyContact, error)
	UpdateContact(ctx context.Context, contact *models.EmergencyContact) error
	DeleteContact(ctx context.Context, id uuid.UUID) error
}

// SegmentStore - хранилище ссылок на аудиосегменты, загружаемые устройством
type SegmentStore interface {
	PushSegment(ctx context.Context, alertID uuid.UUID, url string) error
	// LatestSegment возвращает "" если сегментов для оповещения еще нет
	LatestSegment(ctx context.Context, alertID uuid.UUID) (string, error)
}

// DeviceGateway - best-effort доступ к последнему известному состоянию устройства.
// Любой метод чтения может вернуть nil/"" — отсутствие данных не является ошибкой уровня эскалации.
type DeviceGateway interface {
	SetState(ctx context.Context, state *models.DeviceState) error
	CurrentLocation(ctx context.Context, userID string) (*models.Location, error)
	BatteryLevel(ctx context.Context, userID string) (*int, error)
	NetworkType(ctx context.Context, userID string) (string, error)
}

// Recorder - управление циклом записи аудио на устройстве
type Recorder interface {
	StartRecording(ctx context.Context, alertID uuid.UUID, userID string) error
	StopRecording(ctx context.Context, alertID uuid.UUID, userID string) error
}

// Detector - внешний источник непрерывного потока детекций угроз
type Detector interface {
	Detections() <-chan models.ThreatDetection
}

// CheckInService определяет контракт бизнес-логики чек-инов безопасности
type CheckInService interface {
	Schedule(ctx context.Context, userID string, scheduledTime time.Time) (*models.CheckIn, error)
	Confirm(ctx context.Context, userID string) error
	Cancel(ctx context.Context, userID string) error
	GetPending(ctx context.Context, userID string) (*models.CheckIn, error)
	// Run запускает фоновый цикл обнаружения просроченных чек-инов
	Run(ctx context.Context)
}

// EscalationService определяет контракт координатора экстренной эскалации
type EscalationService interface {
	// Start задает родительский контекст для фоновых циклов захвата
	Start(ctx context.Context)
	// Trigger идемпотентен: при существующем active оповещении возвращает его
	// и created=false, новое оповещение не создается.
	Trigger(ctx context.Context, userID string, source models.TriggerSource, loc *models.Location) (alert *models.SOSAlert, created bool, err error)
	// Resolve идемпотентен: повторный вызов и неизвестный id являются no-op
	Resolve(ctx context.Context, alertID uuid.UUID) error
	GetAlert(ctx context.Context, alertID uuid.UUID) (*models.SOSAlert, error)
	AttachSegment(ctx context.Context, alertID uuid.UUID, url string) error
	GetStats(ctx context.Context) (int, error)
}

// ThreatService определяет контракт монитора угроз
type ThreatService interface {
	// Evaluate возвращает оповещение, если детекция привела к эскалации, иначе nil
	Evaluate(ctx context.Context, detection models.ThreatDetection) (*models.SOSAlert, error)
	// Run потребляет поток детекций внешнего детектора
	Run(ctx context.Context)
}

// ContactService определяет контракт управления экстренными контактами
type ContactService interface {
	CreateContact(ctx context.Context, contact *models.EmergencyContact) error
	GetContact(ctx context.Context, id uuid.UUID) (*models.EmergencyContact, error)
	ListContacts(ctx context.Context, userID string) ([]*models.EmergencyContact, error)
	UpdateContact(ctx context.Context, contact *models.EmergencyContact) error
	DeleteContact(ctx context.Context, id uuid.UUID) error
}
