package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeGroupCreated    Type = "group.created"
	TypeGroupUpdated    Type = "group.updated"
	TypeGroupDeleted    Type = "group.deleted"
	TypeGroupToggled    Type = "group.toggled"
	TypeVariableSaved   Type = "variable.saved"
	TypeVariableDeleted Type = "variable.deleted"
	TypeTrashAdded      Type = "trash.added"
	TypeTrashRestored   Type = "trash.restored"
	TypeTrashDeleted    Type = "trash.deleted"
	TypeTrashPruned     Type = "trash.pruned"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}

// New stamps an event with a fresh id and the current time.
func New(typ Type, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Publish sends e on bus when bus is non-nil.
func Publish(bus Bus, typ Type, payload interface{}) {
	if bus == nil {
		return
	}
	bus.Publish(New(typ, payload))
}
