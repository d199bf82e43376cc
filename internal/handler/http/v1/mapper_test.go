package v1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDTOToContactModel(t *testing.T) {
	// Подготовка
	dto := CreateContactRequest{
		UserID:   "user-1",
		Name:     "Анна",
		Email:    "anna@example.com",
		WhatsApp: "+79990000001",
		Priority: 2,
	}

	// Действие
	model := DTOToContactModel(dto)

	// Проверки
	require.NotNil(t, model)
	assert.Equal(t, "user-1", model.UserID)
	assert.Equal(t, "Анна", model.Name)
	assert.Equal(t, "anna@example.com", model.Email)
	assert.Equal(t, "+79990000001", model.WhatsApp)
	assert.Equal(t, 2, model.Priority)
}

func TestDTOToContactUpdate(t *testing.T) {
	// Подготовка
	dto := UpdateContactRequest{
		Name:     "Борис",
		WhatsApp: "+79990000002",
		Priority: 1,
	}

	// Действие
	model := DTOToContactUpdate(dto)

	// Проверки
	// Владелец контакта при обновлении не меняется и задается хэндлером
	require.NotNil(t, model)
	assert.Empty(t, model.UserID)
	assert.Equal(t, "Борис", model.Name)
	assert.Equal(t, "+79990000002", model.WhatsApp)
	assert.Equal(t, 1, model.Priority)
}
