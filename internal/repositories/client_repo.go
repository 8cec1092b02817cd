package repositories

import (
	"context"

	"luthier/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Client, error)
	Search(ctx context.Context, tenantID uuid.UUID, query string, limit, offset int) ([]*models.Client, error)
}

type clientRepo struct {
	db Database
}

func NewClientRepo(db Database) ClientRepository {
	return &clientRepo{db: db}
}

func scanClient(row pgx.Row) (*models.Client, error) {
	client := &models.Client{}
	err := row.Scan(&client.ID, &client.TenantID, &client.Name,
		&client.Email, &client.Phone, &client.Notes, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *clientRepo) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (id, tenant_id, name, email, phone, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, client.ID, client.TenantID, client.Name,
		client.Email, client.Phone, client.Notes)
	return err
}

func (r *clientRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	query := `
		SELECT id, tenant_id, name, email, phone, notes, created_at, updated_at
		FROM clients
		WHERE tenant_id = $1 AND id = $2
	`
	return scanClient(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *clientRepo) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET name = $3, email = $4, phone = $5, notes = $6, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`
	_, err := r.db.Exec(ctx, query, client.TenantID, client.ID, client.Name,
		client.Email, client.Phone, client.Notes)
	return err
}

func (r *clientRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM clients WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *clientRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Client, error) {
	query := `
		SELECT id, tenant_id, name, email, phone, notes, created_at, updated_at
		FROM clients
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectClients(rows)
}

func (r *clientRepo) Search(ctx context.Context, tenantID uuid.UUID, query string, limit, offset int) ([]*models.Client, error) {
	sql := `
		SELECT id, tenant_id, name, email, phone, notes, created_at, updated_at
		FROM clients
		WHERE tenant_id = $1 AND (name ILIKE $2 OR email ILIKE $2)
		ORDER BY name ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, sql, tenantID, "%"+query+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectClients(rows)
}

func collectClients(rows pgx.Rows) ([]*models.Client, error) {
	var clients []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}
