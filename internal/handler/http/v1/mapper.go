package v1

import "github.com/shenikar/safety_escalation_system/internal/models"

// ModelToCheckInResponse преобразует доменную модель чек-ина в DTO для ответа
func ModelToCheckInResponse(model *models.CheckIn) *CheckInResponse {
	return &CheckInResponse{
		ID:            model.ID,
		UserID:        model.UserID,
		ScheduledTime: model.ScheduledTime,
		Status:        string(model.Status),
		CreatedAt:     model.CreatedAt,
	}
}

// ModelToAlertResponse преобразует доменную модель оповещения в DTO для ответа
func ModelToAlertResponse(model *models.SOSAlert) *AlertResponse {
	resp := &AlertResponse{
		ID:           model.ID,
		UserID:       model.UserID,
		AlertType:    string(model.AlertType),
		Status:       string(model.Status),
		BatteryLevel: model.Context.BatteryLevel,
		NetworkType:  model.Context.NetworkType,
		TriggeredAt:  model.TriggeredAt,
		ResolvedAt:   model.ResolvedAt,
	}
	if loc := model.Context.Location; loc != nil {
		resp.Latitude = &loc.Latitude
		resp.Longitude = &loc.Longitude
		resp.Address = loc.Address
	}
	return resp
}

// DTOToTriggerLocation извлекает локацию из запроса триггера, если она передана
func DTOToTriggerLocation(dto TriggerAlertRequest) *models.Location {
	if dto.Latitude == nil || dto.Longitude == nil {
		return nil
	}
	return &models.Location{
		Latitude:  *dto.Latitude,
		Longitude: *dto.Longitude,
		Address:   dto.Address,
	}
}

// DTOToDeviceState преобразует DTO репорта устройства в доменную модель
func DTOToDeviceState(dto DeviceStateRequest) *models.DeviceState {
	state := &models.DeviceState{
		UserID:       dto.UserID,
		BatteryLevel: dto.BatteryLevel,
		NetworkType:  dto.NetworkType,
	}
	if dto.Latitude != nil && dto.Longitude != nil {
		state.Location = &models.Location{
			Latitude:  *dto.Latitude,
			Longitude: *dto.Longitude,
			Address:   dto.Address,
		}
	}
	return state
}

// DTOToContactModel преобразует DTO создания контакта в доменную модель
func DTOToContactModel(dto CreateContactRequest) *models.EmergencyContact {
	return &models.EmergencyContact{
		UserID:   dto.UserID,
		Name:     dto.Name,
		Email:    dto.Email,
		WhatsApp: dto.WhatsApp,
		Priority: dto.Priority,
	}
}

// DTOToContactUpdate преобразует DTO обновления контакта в доменную модель
func DTOToContactUpdate(dto UpdateContactRequest) *models.EmergencyContact {
	return &models.EmergencyContact{
		Name:     dto.Name,
		Email:    dto.Email,
		WhatsApp: dto.WhatsApp,
		Priority: dto.Priority,
	}
}

// ModelToContactResponse преобразует доменную модель контакта в DTO для ответа
func ModelToContactResponse(model *models.EmergencyContact) *ContactResponse {
	return &ContactResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Name:      model.Name,
		Email:     model.Email,
		WhatsApp:  model.WhatsApp,
		Priority:  model.Priority,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// ModelsToContactResponses преобразует слайс моделей в слайс DTO
func ModelsToContactResponses(models []*models.EmergencyContact) []*ContactResponse {
	responses := make([]*ContactResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToContactResponse(model)
	}
	return responses
}
