package server

import (
	"context"
	"time"

	"postboard/internal/middleware"
	"postboard/internal/notifications"
)

// publishEvent fans an event out to websocket clients. With Redis the event
// goes through pub/sub so every instance, this one included, delivers it;
// without Redis, or when publishing fails, only local clients receive it.
func (s *Server) publishEvent(eventType string, payload map[string]interface{}) {
	message, err := notifications.Encode(eventType, payload)
	if err != nil {
		middleware.Logger.Error("failed to encode event", "type", eventType, "error", err)
		return
	}

	if s.notifier.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := s.notifier.PublishBroadcast(ctx, message)
		if err == nil {
			return
		}
		middleware.Logger.Warn("failed to publish event, delivering locally",
			"type", eventType, "error", err)
	}
	s.hub.BroadcastAll(message)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
