package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names the change a RecordEvent announces.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// RecordEvent announces a change to one ledger record. It carries only the
// ID; consumers load the current state from the database.
type RecordEvent struct {
	ID        int64     `json:"id"`
	Type      EventType `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordEvent creates an event stamped with the current time.
func NewRecordEvent(id int64, typ EventType) *RecordEvent {
	return &RecordEvent{
		ID:        id,
		Type:      typ,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordEventFromJSON decodes and validates an event.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var msg RecordEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("invalid record id %d", msg.ID)
	}
	return &msg, nil
}
