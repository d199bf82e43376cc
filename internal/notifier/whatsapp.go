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

// WhatsAppChannel доставляет оповещения через WhatsApp Business Cloud API
type WhatsAppChannel struct {
	httpClient *http.Client
	url        string
	token      string
}

func NewWhatsAppChannel(cfg *config.Config) *WhatsAppChannel {
	return &WhatsAppChannel{
		httpClient: &http.Client{Timeout: cfg.NotifyTimeout},
		url:        cfg.WhatsAppAPIURL,
		token:      cfg.WhatsAppToken,
	}
}

func (c *WhatsAppChannel) Name() models.NotificationChannel {
	return models.ChannelWhatsApp
}

func (c *WhatsAppChannel) Applicable(contact *models.EmergencyContact) bool {
	return contact.WhatsApp != ""
}

type whatsAppText struct {
	Body string `json:"body"`
}

type whatsAppRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

func (c *WhatsAppChannel) Send(ctx context.Context, contact *models.EmergencyContact, payload AlertPayload) error {
	if c.url == "" {
		return &ChannelError{Channel: models.ChannelWhatsApp, Transient: false, Message: "whatsapp api is not configured"}
	}

	text := payload.Message
	if payload.SegmentURL != "" {
		text = fmt.Sprintf("%s\nAudio: %s", text, payload.SegmentURL)
	}

	reqBody := whatsAppRequest{
		MessagingProduct: "whatsapp",
		To:               contact.WhatsApp,
		Type:             "text",
		Text:             whatsAppText{Body: text},
	}
	rawBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal whatsapp request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(rawBody))
	if err != nil {
		return fmt.Errorf("failed to create whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	return classifyStatus(models.ChannelWhatsApp, resp.StatusCode)
}
