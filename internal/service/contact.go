package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shenikar/safety_escalation_system/internal/models"
	"github.com/sirupsen/logrus"
)

type contactService struct {
	repo   ContactRepository
	logger *logrus.Logger
}

func NewContactService(repo ContactRepository, logger *logrus.Logger) ContactService {
	return &contactService{
		repo:   repo,
		logger: logger,
	}
}

// CreateContact создает экстренный контакт
func (s *contactService) CreateContact(ctx context.Context, contact *models.EmergencyContact) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "contact",
		"method":  "CreateContact",
		"user_id": contact.UserID,
	})

	if contact.Email == "" && contact.WhatsApp == "" {
		return fmt.Errorf("service: contact must have at least one channel")
	}

	contact.ID = uuid.New()
	if err := s.repo.CreateContact(ctx, contact); err != nil {
		log.WithError(err).Error("Failed to create contact in repository")
		return fmt.Errorf("service: could not create contact: %w", err)
	}

	log.WithField("contact_id", contact.ID).Info("Contact created successfully")
	return nil
}

// GetContact возвращает контакт по id
func (s *contactService) GetContact(ctx context.Context, id uuid.UUID) (*models.EmergencyContact, error) {
	contact, err := s.repo.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// ListContacts возвращает контакты пользователя по приоритету
func (s *contactService) ListContacts(ctx context.Context, userID string) ([]*models.EmergencyContact, error) {
	contacts, err := s.repo.ListContacts(ctx, userID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list contacts from repository")
		return nil, fmt.Errorf("service: could not list contacts: %w", err)
	}
	return contacts, nil
}

// UpdateContact обновляет существующий контакт
func (s *contactService) UpdateContact(ctx context.Context, contact *models.EmergencyContact) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "contact",
		"method":     "UpdateContact",
		"contact_id": contact.ID,
	})

	if err := s.repo.UpdateContact(ctx, contact); err != nil {
		log.WithError(err).Warn("Failed to update contact in repository")
		return err
	}

	log.Info("Contact updated successfully")
	return nil
}

// DeleteContact удаляет контакт
func (s *contactService) DeleteContact(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "contact",
		"method":     "DeleteContact",
		"contact_id": id,
	})

	if err := s.repo.DeleteContact(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to delete contact in repository")
		return err
	}

	log.Info("Contact deleted successfully")
	return nil
}
