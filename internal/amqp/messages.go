package amqp

import (
	"encoding/json"
	"time"
)

// Entity and operation names carried by change events.
const (
	EntityTransaction = "transaction"
	EntityCategory    = "category"

	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ChangeEvent announces that a user's data changed. It carries identifiers
// only; consumers reload whatever they need from the database.
type ChangeEvent struct {
	UserID    int64     `json:"user_id"`
	Entity    string    `json:"entity"`
	Operation string    `json:"operation"`
	EntityID  int64     `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeEvent creates an event stamped with the current time.
func NewChangeEvent(userID int64, entity, operation string, entityID int64) *ChangeEvent {
	return &ChangeEvent{
		UserID:    userID,
		Entity:    entity,
		Operation: operation,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeEventFromJSON decodes an event published by ToJSON.
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var msg ChangeEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
