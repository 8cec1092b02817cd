// Package background runs the periodic jobs: dashboard refresh, maintenance
// reminders, and expired refresh-token cleanup.
package background

import (
	"context"
	"log"
	"sync"
	"time"

	"luthier/internal/analytics"
	"luthier/internal/repositories"
	"luthier/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

type JobScheduler struct {
	scheduler    gocron.Scheduler
	analyticsSvc *analytics.Service
	taskSvc      services.TaskService
	authSvc      services.AuthService
	tenantRepo   repositories.TenantRepository
	jobs         map[string]gocron.Job
	mu           sync.RWMutex
}

func NewJobScheduler(analyticsSvc *analytics.Service, taskSvc services.TaskService,
	authSvc services.AuthService, tenantRepo repositories.TenantRepository) *JobScheduler {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		analyticsSvc: analyticsSvc,
		taskSvc:      taskSvc,
		authSvc:      authSvc,
		tenantRepo:   tenantRepo,
		jobs:         make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	dashboardJob, err := js.scheduler.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(js.refreshTenantDashboards, context.Background()),
		gocron.WithName("tenant-dashboard-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create dashboard refresh job: %v", err)
	} else {
		js.jobs["dashboard-refresh"] = dashboardJob
	}

	remindersJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.processMaintenanceReminders, context.Background()),
		gocron.WithName("maintenance-reminders"),
	)
	if err != nil {
		log.Printf("Failed to create maintenance reminders job: %v", err)
	} else {
		js.jobs["maintenance-reminders"] = remindersJob
	}

	tokenSweepJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.sweepExpiredTokens, context.Background()),
		gocron.WithName("expired-token-sweep"),
	)
	if err != nil {
		log.Printf("Failed to create token sweep job: %v", err)
	} else {
		js.jobs["token-sweep"] = tokenSweepJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// refreshTenantDashboards recomputes and caches every active tenant's
// dashboard so the first request after the cache expires stays fast.
func (js *JobScheduler) refreshTenantDashboards(ctx context.Context) error {
	tenants, err := js.tenantRepo.List(ctx, 1000, 0)
	if err != nil {
		log.Printf("Failed to get tenants for dashboard refresh: %v", err)
		return err
	}

	semaphore := make(chan struct{}, 5)
	var wg sync.WaitGroup

	for _, tenant := range tenants {
		if tenant.Status != "active" {
			continue
		}

		wg.Add(1)
		go func(tenantID uuid.UUID) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if _, err := js.analyticsSvc.TenantDashboard(ctx, tenantID); err != nil {
				log.Printf("Failed to refresh dashboard for tenant %s: %v", tenantID.String(), err)
			}
		}(tenant.ID)
	}

	wg.Wait()
	return nil
}

// processMaintenanceReminders surfaces overdue maintenance tasks per tenant.
func (js *JobScheduler) processMaintenanceReminders(ctx context.Context) error {
	tenants, err := js.tenantRepo.List(ctx, 1000, 0)
	if err != nil {
		log.Printf("Failed to get tenants for maintenance reminders: %v", err)
		return err
	}

	for _, tenant := range tenants {
		if tenant.Status != "active" {
			continue
		}

		overdue, err := js.taskSvc.ListOverdue(ctx, tenant.ID)
		if err != nil {
			log.Printf("Failed to list overdue tasks for tenant %s: %v", tenant.ID.String(), err)
			continue
		}

		if len(overdue) > 0 {
			log.Printf("REMINDER: Tenant %s has %d overdue maintenance tasks", tenant.Name, len(overdue))
		}
	}

	return nil
}

func (js *JobScheduler) sweepExpiredTokens(ctx context.Context) error {
	deleted, err := js.authSvc.CleanupExpiredTokens(ctx)
	if err != nil {
		log.Printf("Failed to sweep expired refresh tokens: %v", err)
		return err
	}
	if deleted > 0 {
		log.Printf("Removed %d expired refresh tokens", deleted)
	}
	return nil
}

// AddJob schedules a custom job at the given interval.
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}

	js.jobs[name] = job
	return nil
}

func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobs, name)
		return err
	}

	return nil
}

// GetJobStatus reports the currently scheduled jobs.
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	jobs := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		jobs = append(jobs, name)
	}

	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       jobs,
	}
}
