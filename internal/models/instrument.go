package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Instrument status values. Status drives the sales-history side effects in the
// instrument service: a transition to Sold records a sale, a transition from
// Sold back to Available records a refund.
const (
	StatusAvailable   = "Available"
	StatusBooked      = "Booked"
	StatusSold        = "Sold"
	StatusReserved    = "Reserved"
	StatusMaintenance = "Maintenance"
)

// ValidInstrumentStatuses lists every accepted status value.
var ValidInstrumentStatuses = map[string]bool{
	StatusAvailable:   true,
	StatusBooked:      true,
	StatusSold:        true,
	StatusReserved:    true,
	StatusMaintenance: true,
}

// Price is a numeric amount that tolerates being sent as either a JSON number
// or a numeric string (form inputs produce strings). Coercion happens once,
// here, at the JSON boundary; everything downstream works with float64.
type Price float64

// UnmarshalJSON accepts 12000, "12000" and "12000.50". An empty or
// non-numeric string yields an error so the caller rejects the payload early.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(bytes.Trim(data, `"`)))
	if s == "" || s == "null" {
		return fmt.Errorf("price must be numeric, got %s", string(data))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("price must be numeric, got %s: %w", string(data), err)
	}
	*p = Price(v)
	return nil
}

// MarshalJSON renders the plain numeric form.
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(p))
}

// Float64 returns the coerced value.
func (p Price) Float64() float64 { return float64(p) }

// IsSellable reports whether the price is a finite positive amount. Zero,
// negative and non-finite prices never produce a sales-history record.
func (p Price) IsSellable() bool {
	v := float64(p)
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

type Instrument struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	TenantID        uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Status          string     `json:"status" db:"status"`
	Maker           *string    `json:"maker" db:"maker"`
	Type            *string    `json:"type" db:"type"`
	Subtype         *string    `json:"subtype" db:"subtype"`
	Ownership       *string    `json:"ownership" db:"ownership"`
	Year            *int       `json:"year" db:"year"`
	Price           *float64   `json:"price" db:"price"`
	Certificate     bool       `json:"certificate" db:"certificate"`
	CertificateName *string    `json:"certificate_name" db:"certificate_name"`
	HasCertificate  *bool      `json:"has_certificate" db:"has_certificate"`
	PhotoObject     *string    `json:"photo_object" db:"photo_object"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// EffectiveCertificate derives the single boolean the dashboard filters on
// from the three underlying certificate fields.
func (i *Instrument) EffectiveCertificate() bool {
	if i.HasCertificate != nil && *i.HasCertificate {
		return true
	}
	if i.CertificateName != nil && *i.CertificateName != "" {
		return true
	}
	return i.Certificate
}

// InstrumentUpdate is a partial update payload. A nil pointer means "field not
// present in the request"; the repository only touches supplied fields and the
// instrument service only runs status side effects when Status is present.
type InstrumentUpdate struct {
	Status          *string `json:"status,omitempty"`
	Maker           *string `json:"maker,omitempty"`
	Type            *string `json:"type,omitempty"`
	Subtype         *string `json:"subtype,omitempty"`
	Ownership       *string `json:"ownership,omitempty"`
	Year            *int    `json:"year,omitempty"`
	Price           *Price  `json:"price,omitempty"`
	Certificate     *bool   `json:"certificate,omitempty"`
	CertificateName *string `json:"certificate_name,omitempty"`
	HasCertificate  *bool   `json:"has_certificate,omitempty"`
	PhotoObject     *string `json:"photo_object,omitempty"`
}

// Empty reports whether the update carries no fields at all.
func (u *InstrumentUpdate) Empty() bool {
	return u.Status == nil && u.Maker == nil && u.Type == nil && u.Subtype == nil &&
		u.Ownership == nil && u.Year == nil && u.Price == nil && u.Certificate == nil &&
		u.CertificateName == nil && u.HasCertificate == nil && u.PhotoObject == nil
}
