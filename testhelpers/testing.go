package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"luthier/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB holds the database connection for integration tests.
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB creates a pooled connection for testing.
func SetupTestDB(t *testing.T, connString string) *TestDB {
	t.Helper()

	if connString == "" {
		connString = os.Getenv("TEST_DATABASE_URL")
		if connString == "" {
			connString = "host=localhost port=5432 user=postgres password=postgres dbname=luthier_test sslmode=disable"
		}
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
}

// SetupTestTenant creates a test tenant.
func SetupTestTenant(t *testing.T, db *TestDB) uuid.UUID {
	t.Helper()

	tenantID := uuid.New()
	query := `
		INSERT INTO tenants (id, name, subdomain, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (subdomain) DO NOTHING
	`
	_, err := db.Pool.Exec(context.Background(), query, tenantID, "Test Tenant", "test-tenant", "active")
	if err != nil {
		t.Fatalf("Failed to create test tenant: %v", err)
	}

	return tenantID
}

// SetupTestInstrument creates an Available instrument with a price.
func SetupTestInstrument(t *testing.T, db *TestDB, tenantID uuid.UUID) *models.Instrument {
	t.Helper()

	maker := "Testore"
	instrumentType := "Violin"
	year := 1923
	price := 48000.0

	instrument := &models.Instrument{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Status:    models.StatusAvailable,
		Maker:     &maker,
		Type:      &instrumentType,
		Year:      &year,
		Price:     &price,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
		INSERT INTO instruments (id, tenant_id, status, maker, type, year, price, certificate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $9)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		instrument.ID, instrument.TenantID, instrument.Status, instrument.Maker,
		instrument.Type, instrument.Year, instrument.Price,
		instrument.CreatedAt, instrument.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test instrument: %v", err)
	}

	return instrument
}

// SetupTestClient creates a test client.
func SetupTestClient(t *testing.T, db *TestDB, tenantID uuid.UUID) *models.Client {
	t.Helper()

	email := "collector@example.com"
	client := &models.Client{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     "Test Collector",
		Email:    &email,
	}

	query := `
		INSERT INTO clients (id, tenant_id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := db.Pool.Exec(context.Background(), query, client.ID, client.TenantID, client.Name, client.Email)
	if err != nil {
		t.Fatalf("Failed to create test client: %v", err)
	}

	return client
}
