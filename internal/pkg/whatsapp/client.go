// Package whatsapp sends text messages through the WhatsApp Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/config"
	"github.com/cmlabs-hris/hours-report/internal/pkg/httpretry"
	"github.com/cmlabs-hris/hours-report/internal/pkg/redact"
	"github.com/cmlabs-hris/hours-report/internal/pkg/validator"
)

type Client struct {
	baseURL       string
	phoneNumberID string
	token         string
	http          httpretry.Doer
	logger        *slog.Logger
}

func NewClient(cfg config.WhatsAppConfig, doer httpretry.Doer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		phoneNumberID: cfg.PhoneNumberID,
		token:         cfg.AccessToken,
		http:          doer,
		logger:        logger.With("stage", "alert", "channel", "whatsapp"),
	}
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Send delivers text to the phone number in handle. The number is normalized to
// digits only.
func (c *Client) Send(ctx context.Context, handle, text string) error {
	to := validator.NormalizePhoneNumber(handle)
	if !validator.IsValidPhoneNumber(to) {
		return fmt.Errorf("whatsapp: invalid phone number %s", redact.Phone(to))
	}

	msg := textMessage{MessagingProduct: "whatsapp", To: to, Type: "text"}
	msg.Text.Body = text
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("whatsapp: failed to encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("whatsapp: HTTP %d: %s (code %d)", resp.StatusCode, apiErr.Error.Message, apiErr.Error.Code)
		}
		return fmt.Errorf("whatsapp: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	io.Copy(io.Discard, resp.Body)
	c.logger.Info("WhatsApp message sent", "to", redact.Phone(to))
	return nil
}
