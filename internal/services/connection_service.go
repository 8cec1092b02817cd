package services

import (
	"context"
	"fmt"

	"luthier/internal/models"
	"luthier/internal/repositories"

	"github.com/google/uuid"
)

// ConnectionService manages the links between clients and instruments.
type ConnectionService interface {
	Create(ctx context.Context, tenantID uuid.UUID, connection *models.ClientInstrument) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	ListByInstrument(ctx context.Context, tenantID, instrumentID uuid.UUID) ([]*models.ClientInstrument, error)
	ListByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]*models.ClientInstrument, error)
	ListAll(ctx context.Context, tenantID uuid.UUID) ([]*models.ClientInstrument, error)
}

type connectionService struct {
	connectionRepo repositories.ConnectionRepository
	clientRepo     repositories.ClientRepository
	instrumentRepo repositories.InstrumentRepository
}

func NewConnectionService(connectionRepo repositories.ConnectionRepository, clientRepo repositories.ClientRepository, instrumentRepo repositories.InstrumentRepository) ConnectionService {
	return &connectionService{
		connectionRepo: connectionRepo,
		clientRepo:     clientRepo,
		instrumentRepo: instrumentRepo,
	}
}

func (s *connectionService) Create(ctx context.Context, tenantID uuid.UUID, connection *models.ClientInstrument) error {
	if !models.ValidRelationshipTypes[connection.RelationshipType] {
		return fmt.Errorf("invalid relationship type: %s", connection.RelationshipType)
	}

	// Both ends must exist in this tenant.
	if _, err := s.clientRepo.GetByID(ctx, tenantID, connection.ClientID); err != nil {
		return fmt.Errorf("client not found: %w", err)
	}
	if _, err := s.instrumentRepo.GetByID(ctx, tenantID, connection.InstrumentID); err != nil {
		return fmt.Errorf("instrument not found: %w", err)
	}

	connection.ID = uuid.New()
	connection.TenantID = tenantID
	return s.connectionRepo.Create(ctx, connection)
}

func (s *connectionService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.connectionRepo.Delete(ctx, tenantID, id)
}

func (s *connectionService) ListByInstrument(ctx context.Context, tenantID, instrumentID uuid.UUID) ([]*models.ClientInstrument, error) {
	return s.connectionRepo.ListByInstrument(ctx, tenantID, instrumentID)
}

func (s *connectionService) ListByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]*models.ClientInstrument, error) {
	return s.connectionRepo.ListByClient(ctx, tenantID, clientID)
}

func (s *connectionService) ListAll(ctx context.Context, tenantID uuid.UUID) ([]*models.ClientInstrument, error) {
	return s.connectionRepo.ListAll(ctx, tenantID)
}
