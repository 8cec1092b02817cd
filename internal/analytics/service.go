// Package analytics computes the dashboard numbers: status breakdown,
// inventory value, and sales revenue. Results are cached per tenant in Redis
// and recomputed on demand or by the background refresh job.
package analytics

import (
	"context"
	"time"

	"luthier/internal/caching"
	"luthier/internal/models"
	"luthier/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

const dashboardCacheTTL = 10 * time.Minute

type Service struct {
	instrumentRepo repositories.InstrumentRepository
	salesRepo      repositories.SalesRepository
	taskRepo       repositories.TaskRepository
	cacheService   caching.CacheService
}

// Dashboard is one tenant's computed overview.
type Dashboard struct {
	TenantID        uuid.UUID      `json:"tenant_id"`
	StatusCounts    map[string]int `json:"status_counts"`
	TotalItems      int            `json:"total_items"`
	InventoryValue  float64        `json:"inventory_value"`
	RevenueThisYear float64        `json:"revenue_this_year"`
	OverdueTasks    int            `json:"overdue_tasks"`
	LastUpdated     time.Time      `json:"last_updated"`
}

func NewService(instrumentRepo repositories.InstrumentRepository, salesRepo repositories.SalesRepository, taskRepo repositories.TaskRepository, cacheService caching.CacheService) *Service {
	return &Service{
		instrumentRepo: instrumentRepo,
		salesRepo:      salesRepo,
		taskRepo:       taskRepo,
		cacheService:   cacheService,
	}
}

// TenantDashboard returns the cached dashboard when fresh, computing and
// caching it otherwise.
func (s *Service) TenantDashboard(ctx context.Context, tenantID uuid.UUID) (*Dashboard, error) {
	if cached, err := s.cacheService.GetDashboard(ctx, tenantID); cached != nil {
		if dashboard := dashboardFromCache(tenantID, cached); dashboard != nil {
			return dashboard, nil
		}
	} else if err != nil {
		log.Warnf("dashboard cache error for tenant %s: %v", tenantID.String(), err)
	}

	dashboard, err := s.Compute(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cacheService.SetDashboard(ctx, tenantID, dashboard.toCache(), dashboardCacheTTL); cacheErr != nil {
		log.Warnf("failed to cache dashboard for tenant %s: %v", tenantID.String(), cacheErr)
	}
	return dashboard, nil
}

// Compute builds the dashboard from the database, bypassing the cache.
func (s *Service) Compute(ctx context.Context, tenantID uuid.UUID) (*Dashboard, error) {
	dashboard := &Dashboard{
		TenantID:     tenantID,
		StatusCounts: map[string]int{},
		LastUpdated:  time.Now(),
	}

	instruments, err := s.instrumentRepo.ListAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	dashboard.TotalItems = len(instruments)
	for _, instrument := range instruments {
		dashboard.StatusCounts[instrument.Status]++
		if instrument.Status != models.StatusSold && instrument.Price != nil {
			dashboard.InventoryValue += *instrument.Price
		}
	}

	yearStart := time.Date(time.Now().Year(), 1, 1, 0, 0, 0, 0, time.UTC).Format(models.SaleDateFormat)
	today := time.Now().Format(models.SaleDateFormat)
	revenue, err := s.salesRepo.RevenueBetween(ctx, tenantID, yearStart, today)
	if err != nil {
		log.Warnf("failed to compute revenue for tenant %s: %v", tenantID.String(), err)
	} else {
		dashboard.RevenueThisYear = revenue
	}

	overdue, err := s.taskRepo.ListOverdue(ctx, tenantID)
	if err != nil {
		log.Warnf("failed to list overdue tasks for tenant %s: %v", tenantID.String(), err)
	} else {
		dashboard.OverdueTasks = len(overdue)
	}

	return dashboard, nil
}

func (d *Dashboard) toCache() map[string]interface{} {
	counts := make(map[string]interface{}, len(d.StatusCounts))
	for status, count := range d.StatusCounts {
		counts[status] = count
	}
	return map[string]interface{}{
		"status_counts":     counts,
		"total_items":       d.TotalItems,
		"inventory_value":   d.InventoryValue,
		"revenue_this_year": d.RevenueThisYear,
		"overdue_tasks":     d.OverdueTasks,
		"last_updated":      d.LastUpdated.Format(time.RFC3339),
	}
}

func dashboardFromCache(tenantID uuid.UUID, cached map[string]interface{}) *Dashboard {
	dashboard := &Dashboard{
		TenantID:     tenantID,
		StatusCounts: map[string]int{},
	}

	counts, ok := cached["status_counts"].(map[string]interface{})
	if !ok {
		return nil
	}
	for status, raw := range counts {
		count, ok := raw.(float64)
		if !ok {
			return nil
		}
		dashboard.StatusCounts[status] = int(count)
	}

	if v, ok := cached["total_items"].(float64); ok {
		dashboard.TotalItems = int(v)
	}
	if v, ok := cached["inventory_value"].(float64); ok {
		dashboard.InventoryValue = v
	}
	if v, ok := cached["revenue_this_year"].(float64); ok {
		dashboard.RevenueThisYear = v
	}
	if v, ok := cached["overdue_tasks"].(float64); ok {
		dashboard.OverdueTasks = int(v)
	}
	if raw, ok := cached["last_updated"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			dashboard.LastUpdated = parsed
		}
	}
	return dashboard
}
