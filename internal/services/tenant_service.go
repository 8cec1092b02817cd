package services

import (
	"context"
	"fmt"
	"regexp"

	"luthier/internal/models"
	"luthier/internal/repositories"

	"github.com/google/uuid"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)

type TenantService interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
}

type tenantService struct {
	tenantRepo repositories.TenantRepository
}

func NewTenantService(tenantRepo repositories.TenantRepository) TenantService {
	return &tenantService{tenantRepo: tenantRepo}
}

func (s *tenantService) Create(ctx context.Context, tenant *models.Tenant) error {
	if !subdomainPattern.MatchString(tenant.Subdomain) {
		return fmt.Errorf("invalid subdomain: %s", tenant.Subdomain)
	}
	if existing, _ := s.tenantRepo.GetBySubdomain(ctx, tenant.Subdomain); existing != nil {
		return fmt.Errorf("subdomain already taken: %s", tenant.Subdomain)
	}

	tenant.ID = uuid.New()
	if tenant.Status == "" {
		tenant.Status = "active"
	}
	return s.tenantRepo.Create(ctx, tenant)
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenantRepo.GetByID(ctx, id)
}

func (s *tenantService) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	return s.tenantRepo.GetBySubdomain(ctx, subdomain)
}

func (s *tenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	return s.tenantRepo.List(ctx, limit, offset)
}
