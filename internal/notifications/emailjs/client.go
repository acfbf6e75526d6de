// Package emailjs sends template emails through the EmailJS REST API.
package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

var ErrNotConfigured = errors.New("emailjs not configured")

// Config holds the account settings. PrivateKey is optional and enables
// server-side sends when the account enforces it.
type Config struct {
	Endpoint   string
	PrivateKey string
	Timeout    time.Duration
}

// Client posts template sends to EmailJS.
type Client struct {
	endpoint   string
	privateKey string
	httpClient *http.Client
}

// New builds a client. A nil httpClient gets a default with cfg.Timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{endpoint: endpoint, privateKey: cfg.PrivateKey, httpClient: httpClient}
}

type sendRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	AccessToken    string         `json:"accessToken,omitempty"`
	TemplateParams map[string]any `json:"template_params"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("emailjs returned %d: %s", e.StatusCode, e.Body)
}

// Send delivers one template email.
func (c *Client) Send(ctx context.Context, serviceID, templateID string, vars map[string]any, publicKey string) error {
	if strings.TrimSpace(serviceID) == "" || strings.TrimSpace(publicKey) == "" {
		return ErrNotConfigured
	}
	if strings.TrimSpace(templateID) == "" {
		return fmt.Errorf("emailjs template id required")
	}
	payload, err := json.Marshal(sendRequest{
		ServiceID:      serviceID,
		TemplateID:     templateID,
		UserID:         publicKey,
		AccessToken:    c.privateKey,
		TemplateParams: vars,
	})
	if err != nil {
		return fmt.Errorf("encode emailjs payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
