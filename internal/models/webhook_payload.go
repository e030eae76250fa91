package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ResourceID is a webhook resource identifier, which Grand Shooting sends
// either as a JSON number or as a string.
type ResourceID struct {
	value string
}

// UnmarshalJSON accepts both `123` and `"r123"`.
func (r *ResourceID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		r.value = v
	case float64:
		// JSON numbers decode as float64; ids are integral
		r.value = strconv.FormatInt(int64(v), 10)
	default:
		return fmt.Errorf("resource id must be a number or a string, got %T", raw)
	}
	return nil
}

func (r ResourceID) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value)
}

// String returns the canonical string form used to key the data map
// and to address the resource in the stream scope.
func (r ResourceID) String() string {
	return r.value
}

// WebhookPayload is the raw inbound webhook body.
type WebhookPayload struct {
	AccountID int64                     `json:"account_id"`
	Topic     string                    `json:"topic"`
	Type      string                    `json:"type"`
	IDs       []ResourceID              `json:"ids"`
	Data      map[string]map[string]any `json:"data,omitempty"`
	PictureID []int64                   `json:"picture_id,omitempty"`
}

// Validate checks the structural invariants the processor relies on.
// Shape validation beyond this (coercion, schema) is a boundary concern.
func (p *WebhookPayload) Validate() error {
	if p.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if p.Type != "picture" && p.Type != "reference" {
		return fmt.Errorf("type must be 'picture' or 'reference', got %q", p.Type)
	}
	if len(p.IDs) == 0 {
		return fmt.Errorf("ids must not be empty")
	}
	return nil
}

// ItemData returns the item data attached to a resource id, or an empty
// object when the payload carries none.
func (p *WebhookPayload) ItemData(id ResourceID) map[string]any {
	if data, ok := p.Data[id.String()]; ok && data != nil {
		return data
	}
	return map[string]any{}
}
