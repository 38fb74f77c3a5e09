package model

import (
	"time"

	"github.com/google/uuid"
)

// Address is a tracked ledger account. Rows are created externally; the
// indexer only ever touches inspected_on.
type Address struct {
	ID          uuid.UUID  `db:"id"`
	Chain       Chain      `db:"chain"`
	Address     string     `db:"address"`
	InspectedOn *time.Time `db:"inspected_on"`
	CreatedAt   time.Time  `db:"created_at"`
}
