package kafka

import (
	"encoding/json"
	"time"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string
}

// FactMessage is one conversation participation fact from the communications
// subsystem.
type FactMessage struct {
	TenantID       string    `json:"tenant_id"`
	ConversationID string    `json:"conversation_id"`
	ContactID      string    `json:"contact_id"`
	MessageAt      time.Time `json:"message_at"`
}

// ContactMessage is a contact snapshot from contact management.
type ContactMessage struct {
	TenantID    string    `json:"tenant_id"`
	ContactID   string    `json:"contact_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetTenantID returns the tenant ID, preferring the message body over headers.
func (m *IncomingMessage) GetTenantID() string {
	var envelope struct {
		TenantID string `json:"tenant_id"`
	}
	if err := json.Unmarshal(m.Value, &envelope); err == nil && envelope.TenantID != "" {
		return envelope.TenantID
	}
	return m.Headers["tenant_id"]
}

// ParseFactMessage parses the message value as a participation fact
func (m *IncomingMessage) ParseFactMessage() (*FactMessage, error) {
	var msg FactMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ParseContactMessage parses the message value as a contact snapshot
func (m *IncomingMessage) ParseContactMessage() (*ContactMessage, error) {
	var msg ContactMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
