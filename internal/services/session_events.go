package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Publisher is the part of RedisService the event publisher needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// SessionEvent is published after a tool changes a session's working memory.
type SessionEvent struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"sessionId"`
	Branch     string    `json:"branch"`
	Tool       string    `json:"tool"`
	InstanceID string    `json:"instanceId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// SessionEventPublisher fans session changes out on session:<id>:events.
type SessionEventPublisher struct {
	publisher  Publisher
	instanceID string
}

// NewSessionEventPublisher creates a publisher tagged with this instance's id.
func NewSessionEventPublisher(publisher Publisher, instanceID string) *SessionEventPublisher {
	return &SessionEventPublisher{publisher: publisher, instanceID: instanceID}
}

// SessionChannel returns the channel events for sessionID are published on.
func SessionChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:events", sessionID)
}

// SessionChanged publishes a session_changed event.
func (p *SessionEventPublisher) SessionChanged(ctx context.Context, sessionID, branch, toolName string) error {
	payload, err := json.Marshal(SessionEvent{
		Type:       "session_changed",
		SessionID:  sessionID,
		Branch:     branch,
		Tool:       toolName,
		InstanceID: p.instanceID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}

	if err := p.publisher.Publish(ctx, SessionChannel(sessionID), payload); err != nil {
		log.Printf("⚠️ [PUBSUB] Failed to publish session event for %s: %v", sessionID, err)
		return fmt.Errorf("failed to publish session event: %w", err)
	}
	return nil
}
