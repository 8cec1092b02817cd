package services

import (
	"context"
	"time"

	"luthier/internal/caching"
	"luthier/internal/models"
	"luthier/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

type ClientService interface {
	Create(ctx context.Context, tenantID uuid.UUID, client *models.Client) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error)
	Update(ctx context.Context, tenantID uuid.UUID, client *models.Client) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Client, error)
	Search(ctx context.Context, tenantID uuid.UUID, query string, limit, offset int) ([]*models.Client, error)
}

type clientService struct {
	clientRepo   repositories.ClientRepository
	cacheService caching.CacheService
}

func NewClientService(clientRepo repositories.ClientRepository, cacheService caching.CacheService) ClientService {
	return &clientService{
		clientRepo:   clientRepo,
		cacheService: cacheService,
	}
}

func (s *clientService) Create(ctx context.Context, tenantID uuid.UUID, client *models.Client) error {
	client.ID = uuid.New()
	client.TenantID = tenantID
	return s.clientRepo.Create(ctx, client)
}

func (s *clientService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Client, error) {
	if cached, err := s.cacheService.GetClient(ctx, tenantID, id); cached != nil {
		return cached, nil
	} else if err != nil {
		log.Warnf("cache error for client %s: %v", id.String(), err)
	}

	client, err := s.clientRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cacheService.SetClient(ctx, tenantID, client, 10*time.Minute); cacheErr != nil {
		log.Warnf("failed to cache client %s: %v", id.String(), cacheErr)
	}
	return client, nil
}

func (s *clientService) Update(ctx context.Context, tenantID uuid.UUID, client *models.Client) error {
	client.TenantID = tenantID
	if err := s.clientRepo.Update(ctx, client); err != nil {
		return err
	}

	if cacheErr := s.cacheService.DeleteClient(ctx, tenantID, client.ID); cacheErr != nil {
		log.Warnf("failed to invalidate cache for client %s: %v", client.ID.String(), cacheErr)
	}
	return nil
}

func (s *clientService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.clientRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	if cacheErr := s.cacheService.DeleteClient(ctx, tenantID, id); cacheErr != nil {
		log.Warnf("failed to invalidate cache for client %s: %v", id.String(), cacheErr)
	}
	return nil
}

func (s *clientService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Client, error) {
	return s.clientRepo.List(ctx, tenantID, limit, offset)
}

func (s *clientService) Search(ctx context.Context, tenantID uuid.UUID, query string, limit, offset int) ([]*models.Client, error) {
	return s.clientRepo.Search(ctx, tenantID, query, limit, offset)
}
