package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/safety_escalation_system/internal/models"
	"github.com/shenikar/safety_escalation_system/internal/service"
)

type ContactRepository struct {
	db *pgxpool.Pool
}

func NewContactRepository(db *pgxpool.Pool) service.ContactRepository {
	return &ContactRepository{db: db}
}

// CreateContact создает новую запись экстренного контакта
func (r *ContactRepository) CreateContact(ctx context.Context, contact *models.EmergencyContact) error {
	query := `
		INSERT INTO emergency_contacts (id, user_id, name, email, whatsapp, priority)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		contact.ID,
		contact.UserID,
		contact.Name,
		contact.Email,
		contact.WhatsApp,
		contact.Priority,
	).Scan(&contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// GetContact возвращает контакт по его UUID
func (r *ContactRepository) GetContact(ctx context.Context, id uuid.UUID) (*models.EmergencyContact, error) {
	contact := &models.EmergencyContact{}
	query := `
		SELECT id, user_id, name, email, whatsapp, priority, created_at, updated_at
		FROM emergency_contacts
		WHERE id = $1;
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&contact.ID,
		&contact.UserID,
		&contact.Name,
		&contact.Email,
		&contact.WhatsApp,
		&contact.Priority,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact by id: %w", err)
	}
	return contact, nil
}

// ListContacts возвращает контакты пользователя, отсортированные по приоритету
func (r *ContactRepository) ListContacts(ctx context.Context, userID string) ([]*models.EmergencyContact, error) {
	query := `
		SELECT id, user_id, name, email, whatsapp, priority, created_at, updated_at
		FROM emergency_contacts
		WHERE user_id = $1
		ORDER BY priority DESC, created_at;
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]*models.EmergencyContact, 0)
	for rows.Next() {
		contact := &models.EmergencyContact{}
		err := rows.Scan(
			&contact.ID,
			&contact.UserID,
			&contact.Name,
			&contact.Email,
			&contact.WhatsApp,
			&contact.Priority,
			&contact.CreatedAt,
			&contact.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in ListContacts: %w", err)
	}
	return contacts, nil
}

// UpdateContact обновляет существующий контакт
func (r *ContactRepository) UpdateContact(ctx context.Context, contact *models.EmergencyContact) error {
	query := `
		UPDATE emergency_contacts SET
			name = $1,
			email = $2,
			whatsapp = $3,
			priority = $4,
			updated_at = NOW()
		WHERE id = $5;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		contact.Name,
		contact.Email,
		contact.WhatsApp,
		contact.Priority,
		contact.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return service.ErrContactNotFound
	}
	return nil
}

// DeleteContact удаляет контакт
func (r *ContactRepository) DeleteContact(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM emergency_contacts
		WHERE id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return service.ErrContactNotFound
	}
	return nil
}
