// Package brevo sends transactional email through the Brevo SMTP API.
package brevo

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

const DefaultEndpoint = "https://api.brevo.com/v3/smtp/email"

var (
	ErrNotConfigured = errors.New("brevo not configured")
	// ErrSenderUnvalidated means Brevo refused the sender address. Retrying
	// will not help until the sender is verified in the Brevo account.
	ErrSenderUnvalidated = errors.New("brevo sender not validated")
)

// Contact is a sender or recipient address.
type Contact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Email is one transactional message.
type Email struct {
	Sender  Contact
	To      []Contact
	ReplyTo *Contact
	Subject string
	HTML    string
	Text    string
	Tags    []string
}

type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

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
	return &Client{endpoint: endpoint, apiKey: strings.TrimSpace(cfg.APIKey), httpClient: httpClient}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type sendRequest struct {
	Sender      Contact   `json:"sender"`
	To          []Contact `json:"to"`
	ReplyTo     *Contact  `json:"replyTo,omitempty"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
	TextContent string    `json:"textContent,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is a non-2xx Brevo response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("brevo returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Send delivers msg and returns the provider message id.
func (c *Client) Send(ctx context.Context, msg Email) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(msg.Sender.Email) == "" {
		return "", fmt.Errorf("%w: sender email missing", ErrSenderUnvalidated)
	}
	if len(msg.To) == 0 {
		return "", fmt.Errorf("brevo: at least one recipient required")
	}

	payload, err := json.Marshal(sendRequest{
		Sender:      msg.Sender,
		To:          msg.To,
		ReplyTo:     msg.ReplyTo,
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
		TextContent: msg.Text,
		Tags:        msg.Tags,
	})
	if err != nil {
		return "", fmt.Errorf("encode brevo payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build brevo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("brevo request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		_ = json.Unmarshal(body, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		out := &APIError{StatusCode: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Message}
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "sender") {
			return "", fmt.Errorf("%w: %w", ErrSenderUnvalidated, out)
		}
		return "", out
	}

	var ok sendResponse
	if err := json.Unmarshal(body, &ok); err != nil {
		return "", fmt.Errorf("decode brevo response: %w", err)
	}
	return ok.MessageID, nil
}
