package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"luthier/internal/caching"
	"luthier/internal/collection"
	"luthier/internal/ledger"
	"luthier/internal/models"
	"luthier/internal/notify"
	"luthier/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

// LedgerOutcome reports what the sales-history side of an item update did.
// Ledger failures never fail the update; they surface here as warnings so
// the handler can log or return them without the service deciding how.
type LedgerOutcome struct {
	SaleRecorded   bool
	RefundRecorded bool
	Warnings       []string
}

func (o *LedgerOutcome) warnf(format string, args ...any) {
	o.Warnings = append(o.Warnings, fmt.Sprintf(format, args...))
}

type InstrumentService interface {
	CreateItem(ctx context.Context, tenantID uuid.UUID, instrument *models.Instrument) error
	GetItem(ctx context.Context, tenantID, id uuid.UUID) (*models.Instrument, error)
	ListItems(ctx context.Context, tenantID uuid.UUID) ([]*models.Instrument, error)
	UpdateItem(ctx context.Context, tenantID, id uuid.UUID, fields *models.InstrumentUpdate) (*models.Instrument, *LedgerOutcome, error)
	UpdateItemInline(ctx context.Context, tenantID, id uuid.UUID, field, value string) (*models.Instrument, *LedgerOutcome, error)
	DeleteItem(ctx context.Context, tenantID, id uuid.UUID) error
}

type instrumentService struct {
	instrumentRepo repositories.InstrumentRepository
	store          *collection.InstrumentStore
	ledger         ledger.API
	cacheService   caching.CacheService
	notifier       notify.Notifier
	now            func() time.Time
}

func NewInstrumentService(
	instrumentRepo repositories.InstrumentRepository,
	store *collection.InstrumentStore,
	ledgerAPI ledger.API,
	cacheService caching.CacheService,
	notifier notify.Notifier,
) InstrumentService {
	return &instrumentService{
		instrumentRepo: instrumentRepo,
		store:          store,
		ledger:         ledgerAPI,
		cacheService:   cacheService,
		notifier:       notifier,
		now:            time.Now,
	}
}

func (s *instrumentService) CreateItem(ctx context.Context, tenantID uuid.UUID, instrument *models.Instrument) error {
	instrument.ID = uuid.New()
	instrument.TenantID = tenantID
	if instrument.Status == "" {
		instrument.Status = models.StatusAvailable
	}
	if !models.ValidInstrumentStatuses[instrument.Status] {
		return fmt.Errorf("invalid status: %s", instrument.Status)
	}

	if err := s.instrumentRepo.Create(ctx, instrument); err != nil {
		s.notifier.HandleError(err, "Failed to create item")
		return err
	}

	s.store.Invalidate(tenantID)
	s.notifier.ShowSuccess("Instrument created")
	return nil
}

func (s *instrumentService) GetItem(ctx context.Context, tenantID, id uuid.UUID) (*models.Instrument, error) {
	if cached, err := s.cacheService.GetInstrument(ctx, tenantID, id); cached != nil {
		return cached, nil
	} else if err != nil {
		log.Warnf("cache error for instrument %s: %v", id.String(), err)
	}

	instrument, err := s.instrumentRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cacheService.SetInstrument(ctx, tenantID, instrument, 5*time.Minute); cacheErr != nil {
		log.Warnf("failed to cache instrument %s: %v", id.String(), cacheErr)
	}
	return instrument, nil
}

func (s *instrumentService) ListItems(ctx context.Context, tenantID uuid.UUID) ([]*models.Instrument, error) {
	return s.store.Snapshot(ctx, tenantID)
}

// UpdateItem applies a partial update and, when the update changes the
// status, records the matching sales-history movement. The primary mutation
// is the only fatal step: if it fails nothing touches the ledger, and if the
// ledger fails afterwards the caller still gets the updated instrument.
func (s *instrumentService) UpdateItem(ctx context.Context, tenantID, id uuid.UUID, fields *models.InstrumentUpdate) (*models.Instrument, *LedgerOutcome, error) {
	outcome := &LedgerOutcome{}

	if fields.Status != nil && !models.ValidInstrumentStatuses[*fields.Status] {
		err := fmt.Errorf("invalid status: %s", *fields.Status)
		s.notifier.HandleError(err, "Failed to update item")
		return nil, nil, err
	}

	previous := s.store.Current(tenantID, id)
	if previous == nil {
		if fromDB, err := s.instrumentRepo.GetByID(ctx, tenantID, id); err == nil {
			previous = fromDB
		}
	}

	updated, err := s.instrumentRepo.Update(ctx, tenantID, id, fields)
	if err != nil {
		s.notifier.HandleError(err, "Failed to update item")
		return nil, nil, err
	}

	if statusChanged(previous, fields) {
		switch *fields.Status {
		case models.StatusSold:
			s.recordSale(ctx, tenantID, id, fields, previous, outcome)
		case models.StatusAvailable:
			if previous != nil && previous.Status == models.StatusSold {
				s.recordRefund(ctx, tenantID, id, outcome)
			}
		}
	}

	s.store.MarkUpdated(tenantID, updated)
	if cacheErr := s.cacheService.DeleteInstrument(ctx, tenantID, id); cacheErr != nil {
		log.Warnf("failed to invalidate cache for instrument %s: %v", id.String(), cacheErr)
	}

	s.notifier.ShowSuccess("Instrument updated")
	return updated, outcome, nil
}

// statusChanged reports whether the update actually moves the status. An
// absent status field or a write of the current value is not a transition.
func statusChanged(previous *models.Instrument, fields *models.InstrumentUpdate) bool {
	if fields.Status == nil {
		return false
	}
	if previous == nil {
		return true
	}
	return previous.Status != *fields.Status
}

// recordSale appends a sale to the ledger for a transition into Sold. The
// amount comes from the update when present, otherwise from the previous
// price; without a positive finite amount there is nothing to record. At
// most one auto-created entry per instrument per day: an existing entry for
// today carrying the auto-created marker suppresses a second one.
func (s *instrumentService) recordSale(ctx context.Context, tenantID, instrumentID uuid.UUID, fields *models.InstrumentUpdate, previous *models.Instrument, outcome *LedgerOutcome) {
	price := effectivePrice(fields, previous)
	if !models.Price(price).IsSellable() {
		return
	}

	today := s.now().Format(models.SaleDateFormat)

	existing, err := s.ledger.ListByDate(ctx, tenantID, instrumentID, today)
	if err != nil {
		log.Warnf("sales-history lookup failed for instrument %s: %v", instrumentID.String(), err)
		existing = nil
	}
	for _, record := range existing {
		if record.Notes != nil && strings.Contains(*record.Notes, models.SaleAutoCreatedNote) {
			return
		}
	}

	notes := models.SaleAutoCreatedNote
	record := &models.SaleRecord{
		ID:           uuid.New(),
		TenantID:     tenantID,
		InstrumentID: instrumentID,
		SalePrice:    price,
		SaleDate:     today,
		Notes:        &notes,
	}
	if err := s.ledger.Create(ctx, record); err != nil {
		outcome.warnf("Failed to create sales history: %v", err)
		return
	}
	outcome.SaleRecorded = true
}

// recordRefund negates the instrument's most recent sale when it reverts
// from Sold to Available. A record that is already a refund, or an
// instrument with no history at all, leaves the ledger untouched.
func (s *instrumentService) recordRefund(ctx context.Context, tenantID, instrumentID uuid.UUID, outcome *LedgerOutcome) {
	latest, err := s.ledger.Latest(ctx, tenantID, instrumentID)
	if err != nil {
		outcome.warnf("Failed to auto-refund sales history: %v", err)
		return
	}
	if latest == nil || latest.SalePrice <= 0 {
		return
	}

	notes := models.SaleRefundNote
	if latest.Notes != nil && *latest.Notes != "" {
		notes = *latest.Notes + " | " + models.SaleRefundNote
	}
	if err := s.ledger.Update(ctx, tenantID, latest.ID, -latest.SalePrice, &notes); err != nil {
		outcome.warnf("Failed to auto-refund sales history: %v", err)
		return
	}
	outcome.RefundRecorded = true
}

// effectivePrice picks the sale amount: the price carried by the update when
// present, otherwise the instrument's stored price.
func effectivePrice(fields *models.InstrumentUpdate, previous *models.Instrument) float64 {
	if fields.Price != nil {
		return fields.Price.Float64()
	}
	if previous != nil && previous.Price != nil {
		return *previous.Price
	}
	return 0
}

// UpdateItemInline edits a single named field from its string form, routing
// through UpdateItem so status edits keep their ledger side effects.
func (s *instrumentService) UpdateItemInline(ctx context.Context, tenantID, id uuid.UUID, field, value string) (*models.Instrument, *LedgerOutcome, error) {
	fields := &models.InstrumentUpdate{}

	switch field {
	case "status":
		fields.Status = &value
	case "maker":
		fields.Maker = &value
	case "type":
		fields.Type = &value
	case "subtype":
		fields.Subtype = &value
	case "ownership":
		fields.Ownership = &value
	case "certificate_name":
		fields.CertificateName = &value
	case "year":
		year, err := strconv.Atoi(value)
		if err != nil {
			err = fmt.Errorf("invalid year: %q", value)
			s.notifier.HandleError(err, "Failed to update item")
			return nil, nil, err
		}
		fields.Year = &year
	case "price":
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			err = fmt.Errorf("invalid price: %q", value)
			s.notifier.HandleError(err, "Failed to update item")
			return nil, nil, err
		}
		price := models.Price(parsed)
		fields.Price = &price
	default:
		err := fmt.Errorf("field %q cannot be edited inline", field)
		s.notifier.HandleError(err, "Failed to update item")
		return nil, nil, err
	}

	return s.UpdateItem(ctx, tenantID, id, fields)
}

func (s *instrumentService) DeleteItem(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.instrumentRepo.Delete(ctx, tenantID, id); err != nil {
		s.notifier.HandleError(err, "Failed to delete item")
		return err
	}

	s.store.Remove(tenantID, id)
	if cacheErr := s.cacheService.DeleteInstrument(ctx, tenantID, id); cacheErr != nil {
		log.Warnf("failed to invalidate cache for instrument %s: %v", id.String(), cacheErr)
	}

	s.notifier.ShowSuccess("Instrument deleted")
	return nil
}
