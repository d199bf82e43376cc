package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/safety_escalation_system/internal/config"
	"github.com/shenikar/safety_escalation_system/internal/models"
	"github.com/shenikar/safety_escalation_system/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	checkInService service.CheckInService
	escalation     service.EscalationService
	threatService  service.ThreatService
	contactService service.ContactService
	deviceGateway  service.DeviceGateway
	logger         *logrus.Logger
	validate       *validator.Validate
	cfg            *config.Config
}

func NewHandler(
	checkInService service.CheckInService,
	escalation service.EscalationService,
	threatService service.ThreatService,
	contactService service.ContactService,
	deviceGateway service.DeviceGateway,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		checkInService: checkInService,
		escalation:     escalation,
		threatService:  threatService,
		contactService: contactService,
		deviceGateway:  deviceGateway,
		logger:         logger,
		validate:       validator.New(),
		cfg:            cfg,
	}
}

// @Summary Schedule a safety check-in
// @Description Schedule a check-in deadline for a user. Only one pending check-in per user is allowed. Requires API key.
// @Tags CheckIns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param checkin body ScheduleCheckInRequest true "Check-in schedule request"
// @Success 201 {object} CheckInResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Pending check-in already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /checkins [post]
func (h *Handler) scheduleCheckIn(c *gin.Context) {
	var input ScheduleCheckInRequest
	log := h.logger.WithField("method", "scheduleCheckIn")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checkIn, err := h.checkInService.Schedule(c.Request.Context(), input.UserID, input.ScheduledTime)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyScheduled):
			c.JSON(http.StatusConflict, gin.H{"error": "pending check-in already exists"})
		case errors.Is(err, service.ErrScheduleInPast):
			c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled time is in the past"})
		default:
			log.WithError(err).Error("Failed to schedule check-in in service")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}
	c.JSON(http.StatusCreated, ModelToCheckInResponse(checkIn))
}

// @Summary Confirm a safety check-in
// @Description Confirm "I'm safe" for the pending check-in of a user. Requires API key.
// @Tags CheckIns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param confirm body ConfirmCheckInRequest true "Check-in confirm request"
// @Success 200 "OK"
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No pending check-in"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /checkins/confirm [post]
func (h *Handler) confirmCheckIn(c *gin.Context) {
	var input ConfirmCheckInRequest
	log := h.logger.WithField("method", "confirmCheckIn")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.checkInService.Confirm(c.Request.Context(), input.UserID); err != nil {
		if errors.Is(err, service.ErrNoPendingCheckIn) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no pending check-in"})
			return
		}
		log.WithError(err).Error("Failed to confirm check-in in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusOK)
}

// @Summary Cancel a safety check-in
// @Description Cancel the pending check-in of a user. A no-op if escalation is already in flight. Requires API key.
// @Tags CheckIns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "User ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /checkins/{user_id} [delete]
func (h *Handler) cancelCheckIn(c *gin.Context) {
	userID := c.Param("user_id")
	log := h.logger.WithField("method", "cancelCheckIn").WithField("user_id", userID)

	if err := h.checkInService.Cancel(c.Request.Context(), userID); err != nil {
		log.WithError(err).Error("Failed to cancel check-in in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Get the pending check-in of a user
// @Description Get the pending check-in of a user, if any. Requires API key.
// @Tags CheckIns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param user_id path string true "User ID"
// @Success 200 {object} CheckInResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No pending check-in"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /checkins/{user_id} [get]
func (h *Handler) getPendingCheckIn(c *gin.Context) {
	userID := c.Param("user_id")
	log := h.logger.WithField("method", "getPendingCheckIn").WithField("user_id", userID)

	checkIn, err := h.checkInService.GetPending(c.Request.Context(), userID)
	if err != nil {
		log.WithError(err).Error("Failed to get pending check-in from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if checkIn == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pending check-in"})
		return
	}
	c.JSON(http.StatusOK, ModelToCheckInResponse(checkIn))
}

// @Summary Trigger an emergency escalation
// @Description Open an emergency alert for a user. Idempotent: returns the existing active alert if one exists. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param trigger body TriggerAlertRequest true "Alert trigger request"
// @Success 200 {object} AlertResponse "Existing active alert"
// @Success 201 {object} AlertResponse "New alert opened"
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/trigger [post]
func (h *Handler) triggerAlert(c *gin.Context) {
	var input TriggerAlertRequest
	log := h.logger.WithField("method", "triggerAlert")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, created, err := h.escalation.Trigger(
		c.Request.Context(),
		input.UserID,
		models.TriggerSource(input.Source),
		DTOToTriggerLocation(input),
	)
	if err != nil {
		log.WithError(err).Error("Failed to trigger alert in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, ModelToAlertResponse(alert))
}

// @Summary Resolve an emergency alert
// @Description Stop an active alert. Idempotent: resolving twice or an unknown id is a no-op. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Alert ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid alert ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/{id}/resolve [post]
func (h *Handler) resolveAlert(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert ID"})
		return
	}
	log := h.logger.WithField("method", "resolveAlert").WithField("id", id)

	if err := h.escalation.Resolve(c.Request.Context(), id); err != nil {
		log.WithError(err).Error("Failed to resolve alert in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Get alert by ID
// @Description Get a single alert by its ID. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} AlertResponse
// @Failure 400 {object} map[string]string "Invalid alert ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Alert not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/{id} [get]
func (h *Handler) getAlert(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert ID"})
		return
	}
	log := h.logger.WithField("method", "getAlert").WithField("id", id)

	alert, err := h.escalation.GetAlert(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
			return
		}
		log.WithError(err).Error("Failed to get alert from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ModelToAlertResponse(alert))
}

// @Summary Attach an audio segment to an alert
// @Description Register an uploaded audio segment reference for an active alert. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Alert ID"
// @Param segment body AttachSegmentRequest true "Segment reference"
// @Success 202 "Accepted"
// @Failure 400 {object} map[string]string "Invalid alert ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Alert not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/{id}/segments [post]
func (h *Handler) attachSegment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert ID"})
		return
	}
	log := h.logger.WithField("method", "attachSegment").WithField("id", id)

	var input AttachSegmentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.escalation.AttachSegment(c.Request.Context(), id, input.URL); err != nil {
		if errors.Is(err, service.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
			return
		}
		log.WithError(err).Error("Failed to attach segment in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusAccepted)
}

// @Summary Report a threat detection
// @Description Submit an AI threat detection for threshold evaluation. Requires API key.
// @Tags Threats
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param threat body ThreatReportRequest true "Threat detection report"
// @Success 202 {object} ThreatReportResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /threats [post]
func (h *Handler) reportThreat(c *gin.Context) {
	var input ThreatReportRequest
	log := h.logger.WithField("method", "reportThreat")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	detection := models.ThreatDetection{
		UserID:     input.UserID,
		Type:       models.ThreatType(input.Type),
		Confidence: input.Confidence,
	}
	alert, err := h.threatService.Evaluate(c.Request.Context(), detection)
	if err != nil {
		log.WithError(err).Error("Failed to evaluate threat in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := ThreatReportResponse{Escalated: alert != nil}
	if alert != nil {
		resp.AlertID = &alert.ID
	}
	c.JSON(http.StatusAccepted, resp)
}

// @Summary Report device state
// @Description Submit the latest device location, battery and network state. Requires API key.
// @Tags Device
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param state body DeviceStateRequest true "Device state report"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /device/state [post]
func (h *Handler) reportDeviceState(c *gin.Context) {
	var input DeviceStateRequest
	log := h.logger.WithField("method", "reportDeviceState")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state := DTOToDeviceState(input)
	state.ReportedAt = time.Now()
	if err := h.deviceGateway.SetState(c.Request.Context(), state); err != nil {
		log.WithError(err).Error("Failed to set device state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Create an emergency contact
// @Description Create a new emergency contact with at least one channel. Requires API key.
// @Tags Contacts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param contact body CreateContactRequest true "Contact creation request"
// @Success 201 {object} ContactResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /contacts [post]
func (h *Handler) createContact(c *gin.Context) {
	var input CreateContactRequest
	log := h.logger.WithField("method", "createContact")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := DTOToContactModel(input)
	if err := h.contactService.CreateContact(c.Request.Context(), model); err != nil {
		log.WithError(err).Error("Failed to create contact in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, ModelToContactResponse(model))
}

// @Summary List emergency contacts of a user
// @Description Get the emergency contacts of a user ordered by priority. Requires API key.
// @Tags Contacts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param user_id query string true "User ID"
// @Success 200 {array} ContactResponse
// @Failure 400 {object} map[string]string "Missing user_id"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /contacts [get]
func (h *Handler) listContacts(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}
	log := h.logger.WithField("method", "listContacts").WithField("user_id", userID)

	contacts, err := h.contactService.ListContacts(c.Request.Context(), userID)
	if err != nil {
		log.WithError(err).Error("Failed to list contacts from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ModelsToContactResponses(contacts))
}

// @Summary Update an emergency contact
// @Description Update an existing emergency contact by ID. Requires API key.
// @Tags Contacts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Contact ID"
// @Param contact body UpdateContactRequest true "Contact update request"
// @Success 200 "OK"
// @Failure 400 {object} map[string]string "Invalid contact ID or request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Contact not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /contacts/{id} [put]
func (h *Handler) updateContact(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contact ID"})
		return
	}
	log := h.logger.WithField("method", "updateContact").WithField("id", id)

	var input UpdateContactRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := DTOToContactUpdate(input)
	model.ID = id

	if err := h.contactService.UpdateContact(c.Request.Context(), model); err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
			return
		}
		log.WithError(err).Error("Failed to update contact in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusOK)
}

// @Summary Delete an emergency contact
// @Description Delete an emergency contact by its ID. Requires API key.
// @Tags Contacts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Contact ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid contact ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Contact not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /contacts/{id} [delete]
func (h *Handler) deleteContact(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contact ID"})
		return
	}
	log := h.logger.WithField("method", "deleteContact").WithField("id", id)

	if err := h.contactService.DeleteContact(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrContactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
			return
		}
		log.WithError(err).Error("Failed to delete contact in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Get alert statistics
// @Description Get the count of alerts opened within the configured time window. Requires API key.
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} StatsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")

	alertCount, err := h.escalation.GetStats(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get stats from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, StatsResponse{AlertCount: alertCount})
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
