package repositories

import (
	"context"
	"fmt"

	"luthier/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SalesRepository interface {
	Create(ctx context.Context, record *models.SaleRecord) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.SaleRecord, error)
	ListByInstrumentAndDate(ctx context.Context, tenantID, instrumentID uuid.UUID, saleDate string) ([]*models.SaleRecord, error)
	Latest(ctx context.Context, tenantID, instrumentID uuid.UUID) (*models.SaleRecord, error)
	UpdateAmountAndNotes(ctx context.Context, tenantID, id uuid.UUID, salePrice float64, notes *string) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	Search(ctx context.Context, tenantID uuid.UUID, filter *models.SaleSearchFilter) ([]*models.SaleRecord, error)
	RevenueBetween(ctx context.Context, tenantID uuid.UUID, from, to string) (float64, error)
}

type salesRepo struct {
	db Database
}

func NewSalesRepo(db Database) SalesRepository {
	return &salesRepo{db: db}
}

const saleColumns = `id, tenant_id, instrument_id, sale_price, sale_date, notes, created_at`

func scanSale(row pgx.Row) (*models.SaleRecord, error) {
	record := &models.SaleRecord{}
	err := row.Scan(&record.ID, &record.TenantID, &record.InstrumentID,
		&record.SalePrice, &record.SaleDate, &record.Notes, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *salesRepo) Create(ctx context.Context, record *models.SaleRecord) error {
	query := `
		INSERT INTO sales_history (id, tenant_id, instrument_id, sale_price, sale_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.db.Exec(ctx, query, record.ID, record.TenantID, record.InstrumentID,
		record.SalePrice, record.SaleDate, record.Notes)
	return err
}

func (r *salesRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.SaleRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sales_history
		WHERE tenant_id = $1 AND id = $2
	`, saleColumns)
	return scanSale(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *salesRepo) ListByInstrumentAndDate(ctx context.Context, tenantID, instrumentID uuid.UUID, saleDate string) ([]*models.SaleRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sales_history
		WHERE tenant_id = $1 AND instrument_id = $2 AND sale_date = $3
		ORDER BY created_at DESC
	`, saleColumns)
	rows, err := r.db.Query(ctx, query, tenantID, instrumentID, saleDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSales(rows)
}

// Latest returns the most recent ledger entry for the instrument, or
// pgx.ErrNoRows when the instrument has no sales history.
func (r *salesRepo) Latest(ctx context.Context, tenantID, instrumentID uuid.UUID) (*models.SaleRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sales_history
		WHERE tenant_id = $1 AND instrument_id = $2
		ORDER BY sale_date DESC, created_at DESC
		LIMIT 1
	`, saleColumns)
	return scanSale(r.db.QueryRow(ctx, query, tenantID, instrumentID))
}

func (r *salesRepo) UpdateAmountAndNotes(ctx context.Context, tenantID, id uuid.UUID, salePrice float64, notes *string) error {
	query := `
		UPDATE sales_history
		SET sale_price = $3, notes = $4
		WHERE tenant_id = $1 AND id = $2
	`
	tag, err := r.db.Exec(ctx, query, tenantID, id, salePrice, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *salesRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM sales_history WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

// Search filters the ledger with optional instrument, exact-date, date-range
// and refunds-only criteria, newest first.
func (r *salesRepo) Search(ctx context.Context, tenantID uuid.UUID, filter *models.SaleSearchFilter) ([]*models.SaleRecord, error) {
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	queryBase := fmt.Sprintf(`
		SELECT %s
		FROM sales_history
		WHERE tenant_id = $1
	`, saleColumns)
	args := []any{tenantID}
	conditionCount := 1

	if filter.InstrumentID != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND instrument_id = $%d`, conditionCount)
		args = append(args, *filter.InstrumentID)
	}
	if filter.SaleDate != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND sale_date = $%d`, conditionCount)
		args = append(args, *filter.SaleDate)
	}
	if filter.DateFrom != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND sale_date >= $%d`, conditionCount)
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND sale_date <= $%d`, conditionCount)
		args = append(args, *filter.DateTo)
	}
	if filter.RefundsOnly {
		queryBase += ` AND sale_price < 0`
	}

	queryBase += ` ORDER BY sale_date DESC, created_at DESC`

	conditionCount++
	queryBase += fmt.Sprintf(` LIMIT $%d`, conditionCount)
	args = append(args, filter.Limit)
	if filter.Offset > 0 {
		conditionCount++
		queryBase += fmt.Sprintf(` OFFSET $%d`, conditionCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSales(rows)
}

func (r *salesRepo) RevenueBetween(ctx context.Context, tenantID uuid.UUID, from, to string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(sale_price), 0)
		FROM sales_history
		WHERE tenant_id = $1 AND sale_date >= $2 AND sale_date <= $3
	`
	var revenue float64
	err := r.db.QueryRow(ctx, query, tenantID, from, to).Scan(&revenue)
	return revenue, err
}

func collectSales(rows pgx.Rows) ([]*models.SaleRecord, error) {
	var records []*models.SaleRecord
	for rows.Next() {
		record, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
