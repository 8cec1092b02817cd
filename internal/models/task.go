package models

import (
	"time"

	"github.com/google/uuid"
)

// Maintenance task status values.
const (
	TaskStatusOpen      = "open"
	TaskStatusInProcess = "in_process"
	TaskStatusDone      = "done"
)

type MaintenanceTask struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	InstrumentID uuid.UUID  `json:"instrument_id" db:"instrument_id"`
	Title        string     `json:"title" db:"title"`
	Description  *string    `json:"description" db:"description"`
	DueDate      *time.Time `json:"due_date" db:"due_date"`
	Status       string     `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Overdue reports whether the task is past due and still not done.
func (t *MaintenanceTask) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.Status != TaskStatusDone && t.DueDate.Before(now)
}
