package repositories

import (
	"context"

	"luthier/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.MaintenanceTask) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.MaintenanceTask, error)
	Update(ctx context.Context, task *models.MaintenanceTask) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MaintenanceTask, error)
	ListOverdue(ctx context.Context, tenantID uuid.UUID) ([]*models.MaintenanceTask, error)
}

type taskRepo struct {
	db Database
}

func NewTaskRepo(db Database) TaskRepository {
	return &taskRepo{db: db}
}

const taskColumns = `id, tenant_id, instrument_id, title, description, due_date, status, created_at, updated_at`

func scanTask(row pgx.Row) (*models.MaintenanceTask, error) {
	task := &models.MaintenanceTask{}
	err := row.Scan(&task.ID, &task.TenantID, &task.InstrumentID, &task.Title,
		&task.Description, &task.DueDate, &task.Status, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepo) Create(ctx context.Context, task *models.MaintenanceTask) error {
	query := `
		INSERT INTO maintenance_tasks (id, tenant_id, instrument_id, title, description, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, task.ID, task.TenantID, task.InstrumentID,
		task.Title, task.Description, task.DueDate, task.Status)
	return err
}

func (r *taskRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.MaintenanceTask, error) {
	query := `
		SELECT id, tenant_id, instrument_id, title, description, due_date, status, created_at, updated_at
		FROM maintenance_tasks
		WHERE tenant_id = $1 AND id = $2
	`
	return scanTask(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *taskRepo) Update(ctx context.Context, task *models.MaintenanceTask) error {
	query := `
		UPDATE maintenance_tasks
		SET title = $3, description = $4, due_date = $5, status = $6, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`
	_, err := r.db.Exec(ctx, query, task.TenantID, task.ID, task.Title,
		task.Description, task.DueDate, task.Status)
	return err
}

func (r *taskRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM maintenance_tasks WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *taskRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.MaintenanceTask, error) {
	query := `
		SELECT id, tenant_id, instrument_id, title, description, due_date, status, created_at, updated_at
		FROM maintenance_tasks
		WHERE tenant_id = $1
		ORDER BY due_date ASC NULLS LAST
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (r *taskRepo) ListOverdue(ctx context.Context, tenantID uuid.UUID) ([]*models.MaintenanceTask, error) {
	query := `
		SELECT id, tenant_id, instrument_id, title, description, due_date, status, created_at, updated_at
		FROM maintenance_tasks
		WHERE tenant_id = $1 AND status != 'done' AND due_date IS NOT NULL AND due_date < NOW()
		ORDER BY due_date ASC
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]*models.MaintenanceTask, error) {
	var tasks []*models.MaintenanceTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
