package mail

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendPasswordReset(t *testing.T) {
	var captured sendEmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<msg-123@brevo>"}`))
	}))
	defer srv.Close()

	m := NewBrevoMailer("test-key", "no-reply@ledgerly.io", "Ledgerly", discardLogger()).WithBaseURL(srv.URL)

	id, err := m.SendPasswordReset(context.Background(), "alice@example.com", "http://localhost:3000/reset-password?token=abc")

	require.NoError(t, err)
	assert.Equal(t, "<msg-123@brevo>", id)
	assert.Equal(t, "Password Reset Request", captured.Subject)
	assert.Equal(t, "alice@example.com", captured.To[0]["email"])
	assert.Contains(t, captured.HTMLContent, "reset-password?token=abc")
	assert.Contains(t, captured.HTMLContent, "15 minutes")
}

func TestSendPasswordChanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<msg-456@brevo>"}`))
	}))
	defer srv.Close()

	m := NewBrevoMailer("test-key", "no-reply@ledgerly.io", "Ledgerly", discardLogger()).WithBaseURL(srv.URL)

	id, err := m.SendPasswordChanged(context.Background(), "alice@example.com")

	require.NoError(t, err)
	assert.Equal(t, "<msg-456@brevo>", id)
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized","message":"Key not found"}`))
	}))
	defer srv.Close()

	m := NewBrevoMailer("bad-key", "no-reply@ledgerly.io", "Ledgerly", discardLogger()).WithBaseURL(srv.URL)

	id, err := m.SendPasswordReset(context.Background(), "alice@example.com", "http://example.com/reset")

	assert.Empty(t, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestSend_MissingMessageID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	m := NewBrevoMailer("test-key", "no-reply@ledgerly.io", "Ledgerly", discardLogger()).WithBaseURL(srv.URL)

	_, err := m.SendPasswordChanged(context.Background(), "alice@example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no message ID")
}

func TestSend_NotConfigured(t *testing.T) {
	m := NewBrevoMailer("", "no-reply@ledgerly.io", "Ledgerly", discardLogger())

	_, err := m.SendPasswordReset(context.Background(), "alice@example.com", "http://example.com/reset")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
