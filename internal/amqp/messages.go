package amqp

import (
	"encoding/json"
	"time"
)

// RecordEventMessage is a lightweight notification that a record changed.
// It carries only the ID and version; the worker fetches the full row from
// the database before exporting.
type RecordEventMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Deleted   bool      `json:"deleted,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordEventMessage creates a change notification for a record.
func NewRecordEventMessage(id, version int64) *RecordEventMessage {
	return &RecordEventMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// NewRecordDeleteMessage creates a deletion notification for a record.
func NewRecordDeleteMessage(id int64) *RecordEventMessage {
	return &RecordEventMessage{
		ID:        id,
		Deleted:   true,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *RecordEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordEventMessageFromJSON parses a message from JSON bytes.
func RecordEventMessageFromJSON(data []byte) (*RecordEventMessage, error) {
	var msg RecordEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
