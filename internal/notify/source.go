// Package notify delivers address-change events to the dispatcher. Events
// originate from row triggers on the addresses table and arrive over
// Postgres LISTEN/NOTIFY or a Redis pub/sub channel, carrying a JSON payload
// with the row operation and the changed record.
package notify

import (
	"github.com/google/uuid"
)

// DefaultChannel is the channel the addresses trigger publishes to.
const DefaultChannel = "address_changes"

// Record is the changed addresses row as serialized by the trigger.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Address   string    `json:"address"`
	ChainName string    `json:"chain_name"`
}

// Event is one change notification.
type Event struct {
	Operation string `json:"operation"`
	Record    Record `json:"record"`
}

// Source is a stream of raw notification payloads. The channel closes when
// the source shuts down.
type Source interface {
	Notifications() <-chan []byte
	Close() error
}
