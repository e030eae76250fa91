package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phumblot-gs/gs-webhook-2-events/internal/config"
)

func newTestClient(url string) *Client {
	return NewClient(&config.StreamAPIConfig{
		URL:         url,
		Token:       "test-token",
		Timeout:     5 * time.Second,
		Environment: "test",
	}, zap.NewNop())
}

func testInput() EventInput {
	return EventInput{
		AccountID:    42,
		EventType:    "picture.create",
		ResourceType: "picture",
		ResourceID:   "101",
		Payload: map[string]any{
			"filename":      "a.jpg",
			"originalTopic": "pictures/create",
			"originalType":  "picture",
		},
	}
}

func TestPublishEventSuccess(t *testing.T) {
	var captured Event
	var gotAuth, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result := client.PublishEvent(context.Background(), testInput())

	require.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "/api/events", gotPath)

	// Envelope construction
	_, err := uuid.Parse(captured.EventID)
	assert.NoError(t, err)
	assert.Equal(t, result.EventID, captured.EventID)
	assert.Equal(t, "picture.create", captured.EventType)
	_, err = time.Parse(time.RFC3339, captured.Timestamp)
	assert.NoError(t, err)
	assert.Equal(t, AppName, captured.Source.Application)
	assert.Equal(t, AppVersion, captured.Source.Version)
	assert.Equal(t, "test", captured.Source.Environment)
	assert.Equal(t, SystemUserID, captured.Actor.UserID)
	assert.Equal(t, "00000000-0000-0000-0000-000000000042", captured.Actor.AccountID)
	assert.Equal(t, "system", captured.Actor.Role)
	assert.Equal(t, "00000000-0000-0000-0000-000000000042", captured.Scope.AccountID)
	assert.Equal(t, "picture", captured.Scope.ResourceType)
	assert.Equal(t, "101", captured.Scope.ResourceID)
	assert.Equal(t, "a.jpg", captured.Payload["filename"])
	assert.Equal(t, "pictures/create", captured.Payload["originalTopic"])
	assert.NotNil(t, captured.Metadata)
}

func TestPublishEventHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("stream unavailable"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result := client.PublishEvent(context.Background(), testInput())

	require.False(t, result.Success)
	assert.NotEmpty(t, result.EventID)
	assert.Equal(t, "HTTP 500: stream unavailable", result.Error)
}

func TestPublishEventTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := newTestClient(server.URL)
	result := client.PublishEvent(context.Background(), testInput())

	require.False(t, result.Success)
	assert.NotEmpty(t, result.EventID)
	assert.NotEmpty(t, result.Error)
}

func TestPublishEventFreshIDPerAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	first := client.PublishEvent(context.Background(), testInput())
	second := client.PublishEvent(context.Background(), testInput())

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.NotEqual(t, first.EventID, second.EventID)
}
