package amqp

import (
	"encoding/json"
	"time"
)

// Change operations carried by ChangeEvent.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ChangeEvent announces a successful mutation. Instances sharing the exchange
// use it to drop cached reads of the resource.
type ChangeEvent struct {
	Resource  string    `json:"resource"`
	Op        string    `json:"op"`
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Origin    string    `json:"origin,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeEvent stamps an event with the current time.
func NewChangeEvent(resource, op, id, userID string) *ChangeEvent {
	return &ChangeEvent{
		Resource:  resource,
		Op:        op,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeEventFromJSON decodes an event published by any instance.
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var msg ChangeEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
