package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shenikar/safety_escalation_system/internal/config"
	"github.com/shenikar/safety_escalation_system/internal/models"
)

// EmailChannel доставляет оповещения через HTTP-шлюз почтового релея.
// Тело запроса подписывается HMAC-SHA256, если задан ключ шлюза.
type EmailChannel struct {
	httpClient *http.Client
	url        string
	apiKey     string
}

func NewEmailChannel(cfg *config.Config) *EmailChannel {
	return &EmailChannel{
		httpClient: &http.Client{Timeout: cfg.NotifyTimeout},
		url:        cfg.EmailGatewayURL,
		apiKey:     cfg.EmailGatewayKey,
	}
}

func (c *EmailChannel) Name() models.NotificationChannel {
	return models.ChannelEmail
}

func (c *EmailChannel) Applicable(contact *models.EmergencyContact) bool {
	return contact.Email != ""
}

type emailRequest struct {
	To      string       `json:"to"`
	Subject string       `json:"subject"`
	Body    string       `json:"body"`
	Alert   AlertPayload `json:"alert"`
}

func (c *EmailChannel) Send(ctx context.Context, contact *models.EmergencyContact, payload AlertPayload) error {
	if c.url == "" {
		return &ChannelError{Channel: models.ChannelEmail, Transient: false, Message: "email gateway is not configured"}
	}

	reqBody := emailRequest{
		To:      contact.Email,
		Subject: fmt.Sprintf("SOS: emergency alert for user %s", payload.UserID),
		Body:    payload.Message,
		Alert:   payload,
	}
	rawBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(rawBody))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("X-Signature", generateHMACSHA256(string(rawBody), c.apiKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Сетевая ошибка - транзиентная
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	return classifyStatus(models.ChannelEmail, resp.StatusCode)
}

// classifyStatus транслирует HTTP-статус провайдера в ошибку канала.
// 5xx и 429 - транзиентные, остальные 4xx - окончательный отказ провайдера.
func classifyStatus(channel models.NotificationChannel, statusCode int) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusTooManyRequests || statusCode >= 500:
		return &ChannelError{Channel: channel, StatusCode: statusCode, Transient: true, Message: "provider temporary failure"}
	default:
		return &ChannelError{Channel: channel, StatusCode: statusCode, Transient: false, Message: "provider rejected the message"}
	}
}
