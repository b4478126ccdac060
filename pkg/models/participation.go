package models

import "time"

// ParticipationFact is one message by one contact in one conversation, as fed
// by the communications subsystem.
type ParticipationFact struct {
	ID             string    `json:"id" db:"id"`
	TenantID       string    `json:"tenant_id" db:"tenant_id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	ContactID      string    `json:"contact_id" db:"contact_id"`
	MessageAt      time.Time `json:"message_at" db:"message_at"`
}

// PairStats are the mined co-occurrence statistics for one unordered canonical
// contact pair. A < B always holds.
type PairStats struct {
	A                   string
	B                   string
	SharedConversations int
	SharedMessages      int
	FirstInteraction    time.Time
	LastInteraction     time.Time
}
