package models

import (
	"time"

	"github.com/google/uuid"
)

// Relationship types linking a client to an instrument.
const (
	RelationshipInterested = "Interested"
	RelationshipSold       = "Sold"
	RelationshipBooked     = "Booked"
	RelationshipOwned      = "Owned"
)

// ValidRelationshipTypes lists every accepted relationship type.
var ValidRelationshipTypes = map[string]bool{
	RelationshipInterested: true,
	RelationshipSold:       true,
	RelationshipBooked:     true,
	RelationshipOwned:      true,
}

// ClientInstrument links a client to an instrument. The dashboard uses these
// links for the has-clients filter and the client deep-link anchor.
type ClientInstrument struct {
	ID               uuid.UUID `json:"id" db:"id"`
	TenantID         uuid.UUID `json:"tenant_id" db:"tenant_id"`
	ClientID         uuid.UUID `json:"client_id" db:"client_id"`
	InstrumentID     uuid.UUID `json:"instrument_id" db:"instrument_id"`
	RelationshipType string    `json:"relationship_type" db:"relationship_type"`
	Notes            *string   `json:"notes" db:"notes"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
