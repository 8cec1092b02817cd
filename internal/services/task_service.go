package services

import (
	"context"
	"fmt"

	"luthier/internal/models"
	"luthier/internal/repositories"

	"github.com/google/uuid"
)

type TaskService interface {
	Create(ctx context.Context, tenantID uuid.UUID, task *models.MaintenanceTask) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.MaintenanceTask, error)
	Update(ctx context.Context, tenantID uuid.UUID, task *models.MaintenanceTask) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MaintenanceTask, error)
	ListOverdue(ctx context.Context, tenantID uuid.UUID) ([]*models.MaintenanceTask, error)
}

type taskService struct {
	taskRepo       repositories.TaskRepository
	instrumentRepo repositories.InstrumentRepository
}

func NewTaskService(taskRepo repositories.TaskRepository, instrumentRepo repositories.InstrumentRepository) TaskService {
	return &taskService{
		taskRepo:       taskRepo,
		instrumentRepo: instrumentRepo,
	}
}

func validTaskStatus(status string) bool {
	switch status {
	case models.TaskStatusOpen, models.TaskStatusInProcess, models.TaskStatusDone:
		return true
	}
	return false
}

func (s *taskService) Create(ctx context.Context, tenantID uuid.UUID, task *models.MaintenanceTask) error {
	if task.Status == "" {
		task.Status = models.TaskStatusOpen
	}
	if !validTaskStatus(task.Status) {
		return fmt.Errorf("invalid task status: %s", task.Status)
	}
	if _, err := s.instrumentRepo.GetByID(ctx, tenantID, task.InstrumentID); err != nil {
		return fmt.Errorf("instrument not found: %w", err)
	}

	task.ID = uuid.New()
	task.TenantID = tenantID
	return s.taskRepo.Create(ctx, task)
}

func (s *taskService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.MaintenanceTask, error) {
	return s.taskRepo.GetByID(ctx, tenantID, id)
}

func (s *taskService) Update(ctx context.Context, tenantID uuid.UUID, task *models.MaintenanceTask) error {
	if !validTaskStatus(task.Status) {
		return fmt.Errorf("invalid task status: %s", task.Status)
	}
	task.TenantID = tenantID
	return s.taskRepo.Update(ctx, task)
}

func (s *taskService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.taskRepo.Delete(ctx, tenantID, id)
}

func (s *taskService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MaintenanceTask, error) {
	return s.taskRepo.List(ctx, tenantID, limit, offset)
}

func (s *taskService) ListOverdue(ctx context.Context, tenantID uuid.UUID) ([]*models.MaintenanceTask, error) {
	return s.taskRepo.ListOverdue(ctx, tenantID)
}
