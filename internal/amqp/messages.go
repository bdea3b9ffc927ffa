package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// ChangeMessage announces a store change to other consumers. It carries the
// identity of what changed, never the entity itself.
type ChangeMessage struct {
	Resource  string    `json:"resource"`
	Op        string    `json:"op"`
	ID        int64     `json:"id,omitempty"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(ev core.ChangeEvent) *ChangeMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &ChangeMessage{
		Resource:  ev.Resource,
		Op:        string(ev.Op),
		ID:        ev.ID,
		Count:     ev.Count,
		Timestamp: ts,
	}
}

func (m *ChangeMessage) Event() core.ChangeEvent {
	return core.ChangeEvent{
		Resource: m.Resource,
		Op:       core.ChangeOp(m.Op),
		ID:       m.ID,
		Count:    m.Count,
		At:       m.Timestamp,
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
