// Package mail delivers transactional email through the Brevo HTTP API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ledgerly/account-service/pkg/httpclient"
)

const brevoAPIURL = "https://api.brevo.com/v3/smtp/email"

// Mailer sends account emails. Implementations return the provider's message
// ID so callers can confirm the message was accepted for delivery.
type Mailer interface {
	// SendPasswordReset sends the reset link for the account.
	SendPasswordReset(ctx context.Context, toEmail, resetURL string) (string, error)

	// SendPasswordChanged sends a confirmation after a successful reset.
	SendPasswordChanged(ctx context.Context, toEmail string) (string, error)
}

// BrevoMailer implements Mailer against the Brevo transactional API. Outbound
// calls go through a circuit breaker so a degraded provider cannot pile up
// requests.
type BrevoMailer struct {
	apiKey    string
	fromEmail string
	fromName  string
	baseURL   string
	client    *httpclient.CircuitBreakerClient
	logger    *slog.Logger
}

// NewBrevoMailer creates a Brevo-backed mailer.
func NewBrevoMailer(apiKey, fromEmail, fromName string, logger *slog.Logger) *BrevoMailer {
	client := httpclient.New(httpclient.DefaultConfig())
	return &BrevoMailer{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   brevoAPIURL,
		client:    httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("brevo"), logger),
		logger:    logger,
	}
}

// WithBaseURL overrides the API endpoint. Used in tests.
func (m *BrevoMailer) WithBaseURL(url string) *BrevoMailer {
	m.baseURL = url
	return m
}

type sendEmailRequest struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

type sendEmailResponse struct {
	MessageID string `json:"messageId"`
}

// SendPasswordReset sends the reset link email.
func (m *BrevoMailer) SendPasswordReset(ctx context.Context, toEmail, resetURL string) (string, error) {
	return m.send(ctx, toEmail, "Password Reset Request", resetTemplate(resetURL))
}

// SendPasswordChanged sends the post-reset confirmation email.
func (m *BrevoMailer) SendPasswordChanged(ctx context.Context, toEmail string) (string, error) {
	return m.send(ctx, toEmail, "Password Reset Successful", changedTemplate())
}

func (m *BrevoMailer) send(ctx context.Context, toEmail, subject, html string) (string, error) {
	if m.apiKey == "" {
		return "", fmt.Errorf("mailer not configured: missing API key")
	}

	body, err := json.Marshal(sendEmailRequest{
		Sender:      map[string]string{"email": m.fromEmail, "name": m.fromName},
		To:          []map[string]string{{"email": toEmail}},
		Subject:     subject,
		HTMLContent: html,
	})
	if err != nil {
		return "", fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("api-key", m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("brevo API error: status %d, body %s", resp.StatusCode, raw)
	}

	var out sendEmailResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode email response: %w", err)
	}
	if out.MessageID == "" {
		return "", fmt.Errorf("brevo accepted request but returned no message ID")
	}

	m.logger.InfoContext(ctx, "email sent", "to", toEmail, "subject", subject, "message_id", out.MessageID)
	return out.MessageID, nil
}
