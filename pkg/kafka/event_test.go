package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registeredPayload struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

func TestNewEvent_PopulatesEnvelope(t *testing.T) {
	evt, err := NewEvent("account.registered", "acc-1", "account", "account-service", registeredPayload{
		AccountID: "acc-1",
		Email:     "a@x.com",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, "account.registered", evt.EventType)
	assert.Equal(t, "acc-1", evt.AggregateID)
	assert.Equal(t, "account", evt.AggregateType)
	assert.Equal(t, 1, evt.Version)
	assert.Equal(t, "account-service", evt.Source)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestEvent_DataRoundTrip(t *testing.T) {
	evt, err := NewEvent("account.registered", "acc-1", "account", "account-service", registeredPayload{
		AccountID: "acc-1",
		Email:     "a@x.com",
	})
	require.NoError(t, err)

	var got registeredPayload
	require.NoError(t, evt.UnmarshalData(&got))
	assert.Equal(t, "a@x.com", got.Email)
}

func TestEvent_WithCorrelationID(t *testing.T) {
	evt, err := NewEvent("account.registered", "acc-1", "account", "account-service", nil)
	require.NoError(t, err)

	evt.WithCorrelationID("corr-42")
	assert.Equal(t, "corr-42", evt.CorrelationID)
}
