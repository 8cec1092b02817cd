package services

import (
	"context"
	"fmt"
	"time"

	"luthier/internal/models"
	"luthier/internal/repositories"

	"github.com/google/uuid"
)

// SalesService is the hosted side of the sales-history ledger.
type SalesService interface {
	Create(ctx context.Context, tenantID uuid.UUID, record *models.SaleRecord) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.SaleRecord, error)
	ListByInstrumentAndDate(ctx context.Context, tenantID, instrumentID uuid.UUID, saleDate string) ([]*models.SaleRecord, error)
	Latest(ctx context.Context, tenantID, instrumentID uuid.UUID) (*models.SaleRecord, error)
	UpdateAmountAndNotes(ctx context.Context, tenantID, id uuid.UUID, salePrice float64, notes *string) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	Search(ctx context.Context, tenantID uuid.UUID, filter *models.SaleSearchFilter) ([]*models.SaleRecord, error)
}

type salesService struct {
	salesRepo repositories.SalesRepository
}

func NewSalesService(salesRepo repositories.SalesRepository) SalesService {
	return &salesService{salesRepo: salesRepo}
}

func (s *salesService) Create(ctx context.Context, tenantID uuid.UUID, record *models.SaleRecord) error {
	if record.SaleDate == "" {
		record.SaleDate = time.Now().Format(models.SaleDateFormat)
	}
	if _, err := time.Parse(models.SaleDateFormat, record.SaleDate); err != nil {
		return fmt.Errorf("invalid sale date: %s", record.SaleDate)
	}

	record.ID = uuid.New()
	record.TenantID = tenantID
	return s.salesRepo.Create(ctx, record)
}

func (s *salesService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.SaleRecord, error) {
	return s.salesRepo.GetByID(ctx, tenantID, id)
}

func (s *salesService) ListByInstrumentAndDate(ctx context.Context, tenantID, instrumentID uuid.UUID, saleDate string) ([]*models.SaleRecord, error) {
	return s.salesRepo.ListByInstrumentAndDate(ctx, tenantID, instrumentID, saleDate)
}

func (s *salesService) Latest(ctx context.Context, tenantID, instrumentID uuid.UUID) (*models.SaleRecord, error) {
	return s.salesRepo.Latest(ctx, tenantID, instrumentID)
}

func (s *salesService) UpdateAmountAndNotes(ctx context.Context, tenantID, id uuid.UUID, salePrice float64, notes *string) error {
	return s.salesRepo.UpdateAmountAndNotes(ctx, tenantID, id, salePrice, notes)
}

func (s *salesService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.salesRepo.Delete(ctx, tenantID, id)
}

func (s *salesService) Search(ctx context.Context, tenantID uuid.UUID, filter *models.SaleSearchFilter) ([]*models.SaleRecord, error) {
	return s.salesRepo.Search(ctx, tenantID, filter)
}
