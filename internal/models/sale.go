package models

import (
	"time"

	"github.com/google/uuid"
)

// SaleAutoCreatedNote is the marker embedded in auto-created sale records. The
// instrument service checks for this substring to avoid recording the same
// sale twice on the same day when a status is toggled back and forth.
const SaleAutoCreatedNote = "Auto-created when instrument status changed to Sold"

// SaleRefundNote is appended to a record's notes when it is turned into a
// refund after an instrument reverts from Sold to Available.
const SaleRefundNote = "Auto-refunded when instrument status reverted to Available"

// SaleDateFormat is the date-only layout used for sale_date values.
const SaleDateFormat = "2006-01-02"

// SaleRecord is one entry in the sales-history ledger. SalePrice is signed:
// positive amounts are sales, negative amounts are refunds.
type SaleRecord struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TenantID     uuid.UUID `json:"tenant_id" db:"tenant_id"`
	InstrumentID uuid.UUID `json:"instrument_id" db:"instrument_id"`
	SalePrice    float64   `json:"sale_price" db:"sale_price"`
	SaleDate     string    `json:"sale_date" db:"sale_date"`
	Notes        *string   `json:"notes" db:"notes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// SaleSearchFilter holds search criteria for sales-history queries.
type SaleSearchFilter struct {
	InstrumentID *uuid.UUID `json:"instrument_id,omitempty" query:"instrument_id"`
	SaleDate     *string    `json:"sale_date,omitempty" query:"sale_date"`
	DateFrom     *string    `json:"date_from,omitempty" query:"date_from"`
	DateTo       *string    `json:"date_to,omitempty" query:"date_to"`
	RefundsOnly  bool       `json:"refunds_only,omitempty" query:"refunds_only"`
	Limit        int        `json:"limit,omitempty" query:"limit"`
	Offset       int        `json:"offset,omitempty" query:"offset"`
}
