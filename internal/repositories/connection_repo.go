package repositories

import (
	"context"

	"luthier/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ConnectionRepository interface {
	Create(ctx context.Context, connection *models.ClientInstrument) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.ClientInstrument, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	ListByInstrument(ctx context.Context, tenantID, instrumentID uuid.UUID) ([]*models.ClientInstrument, error)
	ListByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]*models.ClientInstrument, error)
	ListAll(ctx context.Context, tenantID uuid.UUID) ([]*models.ClientInstrument, error)
}

type connectionRepo struct {
	db Database
}

func NewConnectionRepo(db Database) ConnectionRepository {
	return &connectionRepo{db: db}
}

const connectionColumns = `id, tenant_id, client_id, instrument_id, relationship_type, notes, created_at`

func scanConnection(row pgx.Row) (*models.ClientInstrument, error) {
	connection := &models.ClientInstrument{}
	err := row.Scan(&connection.ID, &connection.TenantID, &connection.ClientID,
		&connection.InstrumentID, &connection.RelationshipType, &connection.Notes, &connection.CreatedAt)
	if err != nil {
		return nil, err
	}
	return connection, nil
}

func (r *connectionRepo) Create(ctx context.Context, connection *models.ClientInstrument) error {
	query := `
		INSERT INTO client_instruments (id, tenant_id, client_id, instrument_id, relationship_type, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.db.Exec(ctx, query, connection.ID, connection.TenantID, connection.ClientID,
		connection.InstrumentID, connection.RelationshipType, connection.Notes)
	return err
}

func (r *connectionRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.ClientInstrument, error) {
	query := `
		SELECT id, tenant_id, client_id, instrument_id, relationship_type, notes, created_at
		FROM client_instruments
		WHERE tenant_id = $1 AND id = $2
	`
	return scanConnection(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *connectionRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM client_instruments WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *connectionRepo) ListByInstrument(ctx context.Context, tenantID, instrumentID uuid.UUID) ([]*models.ClientInstrument, error) {
	query := `
		SELECT id, tenant_id, client_id, instrument_id, relationship_type, notes, created_at
		FROM client_instruments
		WHERE tenant_id = $1 AND instrument_id = $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, tenantID, instrumentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectConnections(rows)
}

func (r *connectionRepo) ListByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]*models.ClientInstrument, error) {
	query := `
		SELECT id, tenant_id, client_id, instrument_id, relationship_type, notes, created_at
		FROM client_instruments
		WHERE tenant_id = $1 AND client_id = $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectConnections(rows)
}

// ListAll returns every client link of the tenant; the dashboard joins them
// onto instruments in memory before filtering.
func (r *connectionRepo) ListAll(ctx context.Context, tenantID uuid.UUID) ([]*models.ClientInstrument, error) {
	query := `
		SELECT id, tenant_id, client_id, instrument_id, relationship_type, notes, created_at
		FROM client_instruments
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectConnections(rows)
}

func collectConnections(rows pgx.Rows) ([]*models.ClientInstrument, error) {
	var connections []*models.ClientInstrument
	for rows.Next() {
		connection, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		connections = append(connections, connection)
	}
	return connections, rows.Err()
}
