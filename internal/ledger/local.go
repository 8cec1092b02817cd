package ledger

import (
	"context"
	"errors"

	"luthier/internal/models"
	"luthier/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// localLedger writes sales history straight to the tenant's own database.
// It is the default when no external ledger endpoint is configured.
type localLedger struct {
	repo repositories.SalesRepository
}

func NewLocalLedger(repo repositories.SalesRepository) API {
	return &localLedger{repo: repo}
}

func (l *localLedger) ListByDate(ctx context.Context, tenantID, instrumentID uuid.UUID, saleDate string) ([]*models.SaleRecord, error) {
	return l.repo.ListByInstrumentAndDate(ctx, tenantID, instrumentID, saleDate)
}

func (l *localLedger) Latest(ctx context.Context, tenantID, instrumentID uuid.UUID) (*models.SaleRecord, error) {
	record, err := l.repo.Latest(ctx, tenantID, instrumentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return record, err
}

func (l *localLedger) Create(ctx context.Context, record *models.SaleRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return l.repo.Create(ctx, record)
}

func (l *localLedger) Update(ctx context.Context, tenantID, id uuid.UUID, salePrice float64, notes *string) error {
	return l.repo.UpdateAmountAndNotes(ctx, tenantID, id, salePrice, notes)
}
