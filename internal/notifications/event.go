// Package notifications delivers realtime post events to websocket clients.
package notifications

import (
	"encoding/json"
	"fmt"
)

// BroadcastChannel is the Redis channel every server instance subscribes to.
const BroadcastChannel = "events:broadcast"

// Event types.
const (
	EventPostCreated     = "post_created"
	EventPostDeleted     = "post_deleted"
	EventPostLikeToggled = "post_like_toggled"
	EventCommentCreated  = "comment_created"
	EventCommentDeleted  = "comment_deleted"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps payload in an Event envelope.
func Encode(eventType string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	out, err := json.Marshal(Event{Type: eventType, Payload: raw})
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return string(out), nil
}
