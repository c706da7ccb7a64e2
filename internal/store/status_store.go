// Package store keeps webhook status events and inbound messages in memory
// for the lifetime of the process.
package store

import (
	"sync"

	"github.com/catalyst-engine/whatsapp-relay/internal/apperr"
)

// StatusEvent is a status record as delivered by the provider. Beyond "id"
// and "status" the fields are open-ended, so unknown keys are kept as-is.
type StatusEvent = map[string]any

// InboundMessage is a user-originated message extracted from a webhook.
type InboundMessage struct {
	ID        string         `json:"id"`
	From      string         `json:"from"`
	Type      string         `json:"type"`
	Timestamp string         `json:"timestamp,omitempty"`
	Name      string         `json:"name,omitempty"`
	Text      string         `json:"text,omitempty"`
	Media     map[string]any `json:"media"`
}

// MessageStatus is the tracked history for one sent message. Events are
// appended in arrival order, which is not necessarily provider-timestamp
// order.
type MessageStatus struct {
	MessageID   string        `json:"message_id"`
	RecipientID string        `json:"recipient_id,omitempty"`
	Events      []StatusEvent `json:"events"`
}

// Latest returns the status field of the most recent event, or "" when the
// history is empty.
func (m *MessageStatus) Latest() string {
	if len(m.Events) == 0 {
		return ""
	}
	s, _ := m.Events[len(m.Events)-1]["status"].(string)
	return s
}

func (m *MessageStatus) clone() *MessageStatus {
	cp := &MessageStatus{
		MessageID:   m.MessageID,
		RecipientID: m.RecipientID,
		Events:      make([]StatusEvent, len(m.Events)),
	}
	copy(cp.Events, m.Events)
	return cp
}

// StatusStore is a mutex-guarded map of message id to status history plus an
// append-only inbound list. A single process-wide instance is created at
// startup.
type StatusStore struct {
	mu       sync.Mutex
	statuses map[string]*MessageStatus
	order    []string
	inbound  []InboundMessage
}

func NewStatusStore() *StatusStore {
	return &StatusStore{
		statuses: make(map[string]*MessageStatus),
	}
}

// Upsert appends the event to the history for its message id, creating the
// entry on first sight. The recipient id is captured at creation only.
func (s *StatusStore) Upsert(event StatusEvent) (*MessageStatus, error) {
	id, _ := event["id"].(string)
	if id == "" {
		return nil, apperr.Validation("status event is missing an id field")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.statuses[id]
	if !ok {
		recipient, _ := event["recipient_id"].(string)
		st = &MessageStatus{MessageID: id, RecipientID: recipient}
		s.statuses[id] = st
		s.order = append(s.order, id)
	}
	st.Events = append(st.Events, event)

	return st.clone(), nil
}

// Get returns a snapshot of the status for the given message id.
func (s *StatusStore) Get(messageID string) (*MessageStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.statuses[messageID]
	if !ok {
		return nil, false
	}
	return st.clone(), true
}

// All returns snapshots of every tracked status in first-seen order.
func (s *StatusStore) All() []*MessageStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*MessageStatus, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.statuses[id].clone())
	}
	return out
}

// AddInbound appends an inbound message. Inbound messages are never
// deduplicated.
func (s *StatusStore) AddInbound(msg InboundMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbound = append(s.inbound, msg)
}

// InboundMessages returns a copy of the stored inbound messages.
func (s *StatusStore) InboundMessages() []InboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]InboundMessage, len(s.inbound))
	copy(out, s.inbound)
	return out
}
