package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookPayloadUnmarshal(t *testing.T) {
	raw := `{
		"account_id": 42,
		"topic": "pictures/create",
		"type": "picture",
		"ids": [101, "r2"],
		"data": {
			"101": {"filename": "a.jpg", "width": 800}
		}
	}`

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	assert.Equal(t, int64(42), payload.AccountID)
	assert.Equal(t, "pictures/create", payload.Topic)
	require.Len(t, payload.IDs, 2)
	assert.Equal(t, "101", payload.IDs[0].String())
	assert.Equal(t, "r2", payload.IDs[1].String())

	require.NoError(t, payload.Validate())
}

func TestResourceIDUnmarshalRejectsOtherTypes(t *testing.T) {
	var id ResourceID
	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &id))
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &id))
}

func TestWebhookPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload WebhookPayload
		wantErr bool
	}{
		{
			name: "valid",
			payload: WebhookPayload{
				Topic: "pictures/create",
				Type:  "picture",
				IDs:   []ResourceID{{value: "1"}},
			},
		},
		{
			name: "missing topic",
			payload: WebhookPayload{
				Type: "picture",
				IDs:  []ResourceID{{value: "1"}},
			},
			wantErr: true,
		},
		{
			name: "bad type",
			payload: WebhookPayload{
				Topic: "pictures/create",
				Type:  "order",
				IDs:   []ResourceID{{value: "1"}},
			},
			wantErr: true,
		},
		{
			name: "empty ids",
			payload: WebhookPayload{
				Topic: "pictures/create",
				Type:  "picture",
				IDs:   []ResourceID{},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestItemDataDefaultsToEmptyObject(t *testing.T) {
	payload := WebhookPayload{
		Data: map[string]map[string]any{
			"1": {"filename": "a.jpg"},
			"3": nil,
		},
	}

	assert.Equal(t, map[string]any{"filename": "a.jpg"}, payload.ItemData(ResourceID{value: "1"}))
	assert.Equal(t, map[string]any{}, payload.ItemData(ResourceID{value: "2"}))
	assert.Equal(t, map[string]any{}, payload.ItemData(ResourceID{value: "3"}))

	var nilData WebhookPayload
	assert.Equal(t, map[string]any{}, nilData.ItemData(ResourceID{value: "1"}))
}
