package repositories

import (
	"context"
	"fmt"

	"luthier/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InstrumentRepository interface {
	Create(ctx context.Context, instrument *models.Instrument) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Instrument, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, fields *models.InstrumentUpdate) (*models.Instrument, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Instrument, error)
	ListAll(ctx context.Context, tenantID uuid.UUID) ([]*models.Instrument, error)
}

type instrumentRepo struct {
	db Database
}

func NewInstrumentRepo(db Database) InstrumentRepository {
	return &instrumentRepo{db: db}
}

const instrumentColumns = `id, tenant_id, status, maker, type, subtype, ownership, year, price,
		certificate, certificate_name, has_certificate, photo_object, created_at, updated_at`

func scanInstrument(row pgx.Row) (*models.Instrument, error) {
	instrument := &models.Instrument{}
	err := row.Scan(
		&instrument.ID, &instrument.TenantID, &instrument.Status,
		&instrument.Maker, &instrument.Type, &instrument.Subtype, &instrument.Ownership,
		&instrument.Year, &instrument.Price,
		&instrument.Certificate, &instrument.CertificateName, &instrument.HasCertificate,
		&instrument.PhotoObject, &instrument.CreatedAt, &instrument.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return instrument, nil
}

func (r *instrumentRepo) Create(ctx context.Context, instrument *models.Instrument) error {
	query := `
		INSERT INTO instruments (id, tenant_id, status, maker, type, subtype, ownership, year, price,
			certificate, certificate_name, has_certificate, photo_object, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		instrument.ID, instrument.TenantID, instrument.Status,
		instrument.Maker, instrument.Type, instrument.Subtype, instrument.Ownership,
		instrument.Year, instrument.Price,
		instrument.Certificate, instrument.CertificateName, instrument.HasCertificate,
		instrument.PhotoObject,
	)
	return err
}

func (r *instrumentRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Instrument, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM instruments
		WHERE tenant_id = $1 AND id = $2
	`, instrumentColumns)
	return scanInstrument(r.db.QueryRow(ctx, query, tenantID, id))
}

// Update applies only the fields present in the partial payload and returns
// the updated row, or pgx.ErrNoRows when the instrument does not exist.
func (r *instrumentRepo) Update(ctx context.Context, tenantID, id uuid.UUID, fields *models.InstrumentUpdate) (*models.Instrument, error) {
	set := ""
	args := []any{tenantID, id}
	argCount := 2

	addSet := func(column string, value any) {
		argCount++
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("%s = $%d", column, argCount)
		args = append(args, value)
	}

	if fields.Status != nil {
		addSet("status", *fields.Status)
	}
	if fields.Maker != nil {
		addSet("maker", *fields.Maker)
	}
	if fields.Type != nil {
		addSet("type", *fields.Type)
	}
	if fields.Subtype != nil {
		addSet("subtype", *fields.Subtype)
	}
	if fields.Ownership != nil {
		addSet("ownership", *fields.Ownership)
	}
	if fields.Year != nil {
		addSet("year", *fields.Year)
	}
	if fields.Price != nil {
		addSet("price", fields.Price.Float64())
	}
	if fields.Certificate != nil {
		addSet("certificate", *fields.Certificate)
	}
	if fields.CertificateName != nil {
		addSet("certificate_name", *fields.CertificateName)
	}
	if fields.HasCertificate != nil {
		addSet("has_certificate", *fields.HasCertificate)
	}
	if fields.PhotoObject != nil {
		addSet("photo_object", *fields.PhotoObject)
	}

	if set == "" {
		// Nothing to change, return the current row.
		return r.GetByID(ctx, tenantID, id)
	}

	query := fmt.Sprintf(`
		UPDATE instruments
		SET %s, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
		RETURNING %s
	`, set, instrumentColumns)

	return scanInstrument(r.db.QueryRow(ctx, query, args...))
}

func (r *instrumentRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM instruments WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *instrumentRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Instrument, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM instruments
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, instrumentColumns)
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInstruments(rows)
}

// ListAll returns the tenant's full inventory. The collection store loads
// snapshots through this; dealer inventories are small enough that the
// dashboard works on the whole set in memory.
func (r *instrumentRepo) ListAll(ctx context.Context, tenantID uuid.UUID) ([]*models.Instrument, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM instruments
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`, instrumentColumns)
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInstruments(rows)
}

func collectInstruments(rows pgx.Rows) ([]*models.Instrument, error) {
	var instruments []*models.Instrument
	for rows.Next() {
		instrument, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, instrument)
	}
	return instruments, rows.Err()
}
