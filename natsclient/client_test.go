package natsclient

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/target-singer-jsonl/errors"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", client.URL())
	assert.Equal(t, StatusDisconnected, client.Status())
	assert.False(t, client.IsHealthy())
	assert.Nil(t, client.GetConnection())
}

func TestNewClient_EmptyURL(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestNewClient_Options(t *testing.T) {
	client, err := NewClient("nats://a:4222,nats://b:4222",
		WithMaxReconnects(-1),
		WithReconnectWait(time.Second),
		WithTimeout(3*time.Second),
		WithDrainTimeout(time.Second),
		WithCredentials("user", "pass"),
		WithToken("secret"),
		WithName("test"),
		WithLogger(slog.Default()),
	)
	require.NoError(t, err)

	assert.Equal(t, -1, client.maxReconnects)
	assert.Equal(t, 3*time.Second, client.timeout)
	assert.Equal(t, "user", client.username)
	assert.Equal(t, "secret", client.token)
	assert.Equal(t, "test", client.clientName)
	assert.NotEmpty(t, client.buildConnectionOptions())
}

func TestNewClient_InvalidOptions(t *testing.T) {
	_, err := NewClient("nats://localhost:4222", WithCredentials("user", ""))
	assert.Error(t, err)

	_, err = NewClient("nats://localhost:4222", WithTimeout(0))
	assert.Error(t, err)
}

func TestConnectionStatus_String(t *testing.T) {
	assert.Equal(t, "disconnected", StatusDisconnected.String())
	assert.Equal(t, "connecting", StatusConnecting.String())
	assert.Equal(t, "connected", StatusConnected.String())
	assert.Equal(t, "unknown", ConnectionStatus(99).String())
}

func TestObjectStore_NotConnected(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	_, err = client.JetStream()
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestConnect_Unreachable(t *testing.T) {
	client, err := NewClient("nats://127.0.0.1:1",
		WithMaxReconnects(0),
		WithTimeout(200*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = client.Connect(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, StatusDisconnected, client.Status())
}

func TestClose_Idempotent(t *testing.T) {
	client, err := NewClient("nats://localhost:4222", WithToken("secret"))
	require.NoError(t, err)

	require.NoError(t, client.Close(context.Background()))
	require.NoError(t, client.Close(context.Background()))
	assert.Empty(t, client.token)

	err = client.Connect(context.Background())
	assert.True(t, errors.IsFatal(err))
}
