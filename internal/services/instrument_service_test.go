package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"luthier/internal/collection"
	"luthier/internal/ledger"
	"luthier/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockInstrumentRepository struct {
	mock.Mock
}

func (m *MockInstrumentRepository) Create(ctx context.Context, instrument *models.Instrument) error {
	args := m.Called(ctx, instrument)
	return args.Error(0)
}

func (m *MockInstrumentRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Instrument, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Instrument), args.Error(1)
}

func (m *MockInstrumentRepository) Update(ctx context.Context, tenantID, id uuid.UUID, fields *models.InstrumentUpdate) (*models.Instrument, error) {
	args := m.Called(ctx, tenantID, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Instrument), args.Error(1)
}

func (m *MockInstrumentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockInstrumentRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Instrument, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]*models.Instrument), args.Error(1)
}

func (m *MockInstrumentRepository) ListAll(ctx context.Context, tenantID uuid.UUID) ([]*models.Instrument, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Instrument), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

var _ ledger.API = (*MockLedger)(nil)

func (m *MockLedger) ListByDate(ctx context.Context, tenantID, instrumentID uuid.UUID, saleDate string) ([]*models.SaleRecord, error) {
	args := m.Called(ctx, tenantID, instrumentID, saleDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SaleRecord), args.Error(1)
}

func (m *MockLedger) Latest(ctx context.Context, tenantID, instrumentID uuid.UUID) (*models.SaleRecord, error) {
	args := m.Called(ctx, tenantID, instrumentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SaleRecord), args.Error(1)
}

func (m *MockLedger) Create(ctx context.Context, record *models.SaleRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockLedger) Update(ctx context.Context, tenantID, id uuid.UUID, salePrice float64, notes *string) error {
	args := m.Called(ctx, tenantID, id, salePrice, notes)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetInstrument(ctx context.Context, tenantID, instrumentID uuid.UUID) (*models.Instrument, error) {
	args := m.Called(ctx, tenantID, instrumentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Instrument), args.Error(1)
}

func (m *MockCacheService) SetInstrument(ctx context.Context, tenantID uuid.UUID, instrument *models.Instrument, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, instrument, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteInstrument(ctx context.Context, tenantID, instrumentID uuid.UUID) error {
	args := m.Called(ctx, tenantID, instrumentID)
	return args.Error(0)
}

func (m *MockCacheService) GetClient(ctx context.Context, tenantID, clientID uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, tenantID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockCacheService) SetClient(ctx context.Context, tenantID uuid.UUID, client *models.Client, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, client, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteClient(ctx context.Context, tenantID, clientID uuid.UUID) error {
	args := m.Called(ctx, tenantID, clientID)
	return args.Error(0)
}

func (m *MockCacheService) GetDashboard(ctx context.Context, tenantID uuid.UUID) (map[string]interface{}, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockCacheService) SetDashboard(ctx context.Context, tenantID uuid.UUID, dashboard map[string]interface{}, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, dashboard, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockCacheService) SetSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	args := m.Called(ctx, sessionID, userID, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetSession(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// recordingNotifier captures outcome reports instead of logging them.
type recordingNotifier struct {
	errorLabels []string
	successes   []string
}

func (n *recordingNotifier) HandleError(err error, label string) {
	n.errorLabels = append(n.errorLabels, label)
}

func (n *recordingNotifier) ShowSuccess(message string) {
	n.successes = append(n.successes, message)
}

type InstrumentServiceTestSuite struct {
	suite.Suite
	mockInstrumentRepo *MockInstrumentRepository
	mockLedger         *MockLedger
	mockCache          *MockCacheService
	notifier           *recordingNotifier
	store              *collection.InstrumentStore
	service            InstrumentService
	tenantID           uuid.UUID
	instrumentID       uuid.UUID
	today              string
}

func (suite *InstrumentServiceTestSuite) SetupTest() {
	suite.mockInstrumentRepo = &MockInstrumentRepository{}
	suite.mockLedger = &MockLedger{}
	suite.mockCache = &MockCacheService{}
	suite.notifier = &recordingNotifier{}
	suite.store = collection.NewInstrumentStore(suite.mockInstrumentRepo, time.Minute)
	suite.service = NewInstrumentService(suite.mockInstrumentRepo, suite.store, suite.mockLedger, suite.mockCache, suite.notifier)
	suite.tenantID = uuid.New()
	suite.instrumentID = uuid.New()

	fixed := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	suite.service.(*instrumentService).now = func() time.Time { return fixed }
	suite.today = fixed.Format(models.SaleDateFormat)
}

func (suite *InstrumentServiceTestSuite) TearDownTest() {
	suite.mockInstrumentRepo.AssertExpectations(suite.T())
	suite.mockLedger.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func TestInstrumentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InstrumentServiceTestSuite))
}

func (suite *InstrumentServiceTestSuite) previousInstrument(status string, price *float64) *models.Instrument {
	return &models.Instrument{
		ID:       suite.instrumentID,
		TenantID: suite.tenantID,
		Status:   status,
		Price:    price,
	}
}

func (suite *InstrumentServiceTestSuite) updatedInstrument(status string) *models.Instrument {
	return &models.Instrument{
		ID:       suite.instrumentID,
		TenantID: suite.tenantID,
		Status:   status,
	}
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }

func (suite *InstrumentServiceTestSuite) TestUpdateItem_SoldCreatesSaleWithUpdatePrice() {
	prevPrice := floatPtr(30000)
	updatePrice := models.Price(42500)
	status := models.StatusSold
	fields := &models.InstrumentUpdate{Status: &status, Price: &updatePrice}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusAvailable, prevPrice), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusSold), nil).Once()
	suite.mockLedger.On("ListByDate", mock.Anything, suite.tenantID, suite.instrumentID, suite.today).
		Return([]*models.SaleRecord{}, nil).Once()
	suite.mockLedger.On("Create", mock.Anything, mock.MatchedBy(func(record *models.SaleRecord) bool {
		return record.SalePrice == 42500 &&
			record.SaleDate == suite.today &&
			record.Notes != nil && *record.Notes == models.SaleAutoCreatedNote
	})).Return(nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	updated, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusSold, updated.Status)
	assert.True(suite.T(), outcome.SaleRecorded)
	assert.Empty(suite.T(), outcome.Warnings)
	assert.Contains(suite.T(), suite.notifier.successes, "Instrument updated")
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_SoldFallsBackToPreviousPrice() {
	status := models.StatusSold
	fields := &models.InstrumentUpdate{Status: &status}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusAvailable, floatPtr(18000)), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusSold), nil).Once()
	suite.mockLedger.On("ListByDate", mock.Anything, suite.tenantID, suite.instrumentID, suite.today).
		Return([]*models.SaleRecord{}, nil).Once()
	suite.mockLedger.On("Create", mock.Anything, mock.MatchedBy(func(record *models.SaleRecord) bool {
		return record.SalePrice == 18000
	})).Return(nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), outcome.SaleRecorded)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_SoldWithZeroPriceSkipsLedger() {
	status := models.StatusSold
	fields := &models.InstrumentUpdate{Status: &status}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusAvailable, floatPtr(0)), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusSold), nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), outcome.SaleRecorded)
	assert.Empty(suite.T(), outcome.Warnings)
	suite.mockLedger.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_SoldWithNaNPriceSkipsLedger() {
	status := models.StatusSold
	price := models.Price(math.NaN())
	fields := &models.InstrumentUpdate{Status: &status, Price: &price}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusAvailable, floatPtr(25000)), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusSold), nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), outcome.SaleRecorded)
	suite.mockLedger.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_SameDayMarkerSuppressesSecondSale() {
	status := models.StatusSold
	fields := &models.InstrumentUpdate{Status: &status}
	existing := []*models.SaleRecord{
		{
			ID:           uuid.New(),
			InstrumentID: suite.instrumentID,
			SalePrice:    18000,
			SaleDate:     suite.today,
			Notes:        strPtr("Negotiated in person. " + models.SaleAutoCreatedNote),
		},
	}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusAvailable, floatPtr(18000)), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusSold), nil).Once()
	suite.mockLedger.On("ListByDate", mock.Anything, suite.tenantID, suite.instrumentID, suite.today).
		Return(existing, nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), outcome.SaleRecorded)
	suite.mockLedger.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_ManualRecordSameDayDoesNotSuppress() {
	status := models.StatusSold
	fields := &models.InstrumentUpdate{Status: &status}
	existing := []*models.SaleRecord{
		{
			ID:           uuid.New(),
			InstrumentID: suite.instrumentID,
			SalePrice:    18000,
			SaleDate:     suite.today,
			Notes:        strPtr("Entered by hand"),
		},
	}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusAvailable, floatPtr(18000)), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusSold), nil).Once()
	suite.mockLedger.On("ListByDate", mock.Anything, suite.tenantID, suite.instrumentID, suite.today).
		Return(existing, nil).Once()
	suite.mockLedger.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), outcome.SaleRecorded)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_LookupFailureStillCreatesSale() {
	status := models.StatusSold
	fields := &models.InstrumentUpdate{Status: &status}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusAvailable, floatPtr(9000)), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusSold), nil).Once()
	suite.mockLedger.On("ListByDate", mock.Anything, suite.tenantID, suite.instrumentID, suite.today).
		Return(nil, errors.New("ledger unreachable")).Once()
	suite.mockLedger.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), outcome.SaleRecorded)
	assert.Empty(suite.T(), outcome.Warnings)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_CreateFailureIsNonFatal() {
	status := models.StatusSold
	fields := &models.InstrumentUpdate{Status: &status}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusAvailable, floatPtr(9000)), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusSold), nil).Once()
	suite.mockLedger.On("ListByDate", mock.Anything, suite.tenantID, suite.instrumentID, suite.today).
		Return([]*models.SaleRecord{}, nil).Once()
	suite.mockLedger.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed")).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	updated, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), updated)
	assert.False(suite.T(), outcome.SaleRecorded)
	assert.Len(suite.T(), outcome.Warnings, 1)
	assert.Contains(suite.T(), outcome.Warnings[0], "Failed to create sales history:")
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_SoldToAvailableRefundsLatestSale() {
	status := models.StatusAvailable
	fields := &models.InstrumentUpdate{Status: &status}
	latest := &models.SaleRecord{
		ID:           uuid.New(),
		InstrumentID: suite.instrumentID,
		SalePrice:    18000,
		SaleDate:     suite.today,
		Notes:        strPtr("Sold at auction"),
	}
	wantNotes := "Sold at auction | " + models.SaleRefundNote

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusSold, floatPtr(18000)), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusAvailable), nil).Once()
	suite.mockLedger.On("Latest", mock.Anything, suite.tenantID, suite.instrumentID).Return(latest, nil).Once()
	suite.mockLedger.On("Update", mock.Anything, suite.tenantID, latest.ID, float64(-18000), mock.MatchedBy(func(notes *string) bool {
		return notes != nil && *notes == wantNotes
	})).Return(nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), outcome.RefundRecorded)
	assert.Empty(suite.T(), outcome.Warnings)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_RefundWithoutOriginalNotes() {
	status := models.StatusAvailable
	fields := &models.InstrumentUpdate{Status: &status}
	latest := &models.SaleRecord{
		ID:           uuid.New(),
		InstrumentID: suite.instrumentID,
		SalePrice:    7500,
		SaleDate:     suite.today,
	}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusSold, nil), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusAvailable), nil).Once()
	suite.mockLedger.On("Latest", mock.Anything, suite.tenantID, suite.instrumentID).Return(latest, nil).Once()
	suite.mockLedger.On("Update", mock.Anything, suite.tenantID, latest.ID, float64(-7500), mock.MatchedBy(func(notes *string) bool {
		return notes != nil && *notes == models.SaleRefundNote
	})).Return(nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), outcome.RefundRecorded)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_RefundSkipsWhenNoHistory() {
	status := models.StatusAvailable
	fields := &models.InstrumentUpdate{Status: &status}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusSold, nil), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusAvailable), nil).Once()
	suite.mockLedger.On("Latest", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil, nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), outcome.RefundRecorded)
	assert.Empty(suite.T(), outcome.Warnings)
	suite.mockLedger.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_RefundSkipsAlreadyRefundedRecord() {
	status := models.StatusAvailable
	fields := &models.InstrumentUpdate{Status: &status}
	latest := &models.SaleRecord{
		ID:           uuid.New(),
		InstrumentID: suite.instrumentID,
		SalePrice:    -18000,
		SaleDate:     suite.today,
		Notes:        strPtr(models.SaleRefundNote),
	}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusSold, nil), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusAvailable), nil).Once()
	suite.mockLedger.On("Latest", mock.Anything, suite.tenantID, suite.instrumentID).Return(latest, nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), outcome.RefundRecorded)
	suite.mockLedger.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_RefundLookupFailureWarns() {
	status := models.StatusAvailable
	fields := &models.InstrumentUpdate{Status: &status}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusSold, nil), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusAvailable), nil).Once()
	suite.mockLedger.On("Latest", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(nil, errors.New("ledger unreachable")).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), outcome.RefundRecorded)
	assert.Len(suite.T(), outcome.Warnings, 1)
	assert.Contains(suite.T(), outcome.Warnings[0], "Failed to auto-refund sales history:")
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_AvailableFromBookedDoesNotRefund() {
	status := models.StatusAvailable
	fields := &models.InstrumentUpdate{Status: &status}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusBooked, nil), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusAvailable), nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), outcome.RefundRecorded)
	suite.mockLedger.AssertNotCalled(suite.T(), "Latest", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_UnchangedStatusSkipsLedger() {
	status := models.StatusSold
	fields := &models.InstrumentUpdate{Status: &status}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusSold, floatPtr(18000)), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusSold), nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), outcome.SaleRecorded)
	suite.mockLedger.AssertNotCalled(suite.T(), "ListByDate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockLedger.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_NoStatusFieldSkipsLedger() {
	maker := "Vuillaume"
	fields := &models.InstrumentUpdate{Maker: &maker}

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusAvailable, floatPtr(18000)), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusAvailable), nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), outcome.SaleRecorded)
	assert.False(suite.T(), outcome.RefundRecorded)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_PrimaryFailureNeverTouchesLedger() {
	status := models.StatusSold
	fields := &models.InstrumentUpdate{Status: &status}
	updateErr := errors.New("row locked")

	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusAvailable, floatPtr(18000)), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(nil, updateErr).Once()

	updated, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.ErrorIs(suite.T(), err, updateErr)
	assert.Nil(suite.T(), updated)
	assert.Nil(suite.T(), outcome)
	assert.Contains(suite.T(), suite.notifier.errorLabels, "Failed to update item")
	suite.mockLedger.AssertNotCalled(suite.T(), "ListByDate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockLedger.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_InvalidStatusRejected() {
	status := "Shipped"
	fields := &models.InstrumentUpdate{Status: &status}

	_, _, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "invalid status")
	assert.Contains(suite.T(), suite.notifier.errorLabels, "Failed to update item")
}

func (suite *InstrumentServiceTestSuite) TestUpdateItem_UsesSnapshotForPreviousState() {
	prev := suite.previousInstrument(models.StatusAvailable, floatPtr(32000))
	suite.mockInstrumentRepo.On("ListAll", mock.Anything, suite.tenantID).
		Return([]*models.Instrument{prev}, nil).Once()
	_, loadErr := suite.store.Snapshot(context.Background(), suite.tenantID)
	assert.NoError(suite.T(), loadErr)

	status := models.StatusSold
	fields := &models.InstrumentUpdate{Status: &status}

	// No GetByID expectation: the loaded snapshot supplies the previous state.
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, fields).
		Return(suite.updatedInstrument(models.StatusSold), nil).Once()
	suite.mockLedger.On("ListByDate", mock.Anything, suite.tenantID, suite.instrumentID, suite.today).
		Return([]*models.SaleRecord{}, nil).Once()
	suite.mockLedger.On("Create", mock.Anything, mock.MatchedBy(func(record *models.SaleRecord) bool {
		return record.SalePrice == 32000
	})).Return(nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItem(context.Background(), suite.tenantID, suite.instrumentID, fields)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), outcome.SaleRecorded)
	suite.mockInstrumentRepo.AssertNotCalled(suite.T(), "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItemInline_StatusRoutesThroughLedger() {
	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusAvailable, floatPtr(5400)), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, mock.MatchedBy(func(fields *models.InstrumentUpdate) bool {
		return fields.Status != nil && *fields.Status == models.StatusSold
	})).Return(suite.updatedInstrument(models.StatusSold), nil).Once()
	suite.mockLedger.On("ListByDate", mock.Anything, suite.tenantID, suite.instrumentID, suite.today).
		Return([]*models.SaleRecord{}, nil).Once()
	suite.mockLedger.On("Create", mock.Anything, mock.MatchedBy(func(record *models.SaleRecord) bool {
		return record.SalePrice == 5400
	})).Return(nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	_, outcome, err := suite.service.UpdateItemInline(context.Background(), suite.tenantID, suite.instrumentID, "status", models.StatusSold)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), outcome.SaleRecorded)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItemInline_ParsesYearAndPrice() {
	suite.mockInstrumentRepo.On("GetByID", mock.Anything, suite.tenantID, suite.instrumentID).
		Return(suite.previousInstrument(models.StatusAvailable, nil), nil).Twice()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, mock.MatchedBy(func(fields *models.InstrumentUpdate) bool {
		return fields.Year != nil && *fields.Year == 1923
	})).Return(suite.updatedInstrument(models.StatusAvailable), nil).Once()
	suite.mockInstrumentRepo.On("Update", mock.Anything, suite.tenantID, suite.instrumentID, mock.MatchedBy(func(fields *models.InstrumentUpdate) bool {
		return fields.Price != nil && fields.Price.Float64() == 12500.50
	})).Return(suite.updatedInstrument(models.StatusAvailable), nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Twice()

	_, _, err := suite.service.UpdateItemInline(context.Background(), suite.tenantID, suite.instrumentID, "year", "1923")
	assert.NoError(suite.T(), err)

	_, _, err = suite.service.UpdateItemInline(context.Background(), suite.tenantID, suite.instrumentID, "price", "12500.50")
	assert.NoError(suite.T(), err)
}

func (suite *InstrumentServiceTestSuite) TestUpdateItemInline_RejectsBadValues() {
	_, _, err := suite.service.UpdateItemInline(context.Background(), suite.tenantID, suite.instrumentID, "year", "vintage")
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "invalid year")

	_, _, err = suite.service.UpdateItemInline(context.Background(), suite.tenantID, suite.instrumentID, "price", "a lot")
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "invalid price")

	_, _, err = suite.service.UpdateItemInline(context.Background(), suite.tenantID, suite.instrumentID, "created_at", "2024-01-01")
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "cannot be edited inline")
}

func (suite *InstrumentServiceTestSuite) TestCreateItem_DefaultsStatusAndAssignsIDs() {
	instrument := &models.Instrument{Maker: strPtr("Stradivari")}

	suite.mockInstrumentRepo.On("Create", mock.Anything, instrument).Return(nil).Once()

	err := suite.service.CreateItem(context.Background(), suite.tenantID, instrument)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.tenantID, instrument.TenantID)
	assert.NotEqual(suite.T(), uuid.Nil, instrument.ID)
	assert.Equal(suite.T(), models.StatusAvailable, instrument.Status)
	assert.Contains(suite.T(), suite.notifier.successes, "Instrument created")
}

func (suite *InstrumentServiceTestSuite) TestCreateItem_RejectsInvalidStatus() {
	instrument := &models.Instrument{Status: "Lost"}

	err := suite.service.CreateItem(context.Background(), suite.tenantID, instrument)

	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "invalid status")
}

func (suite *InstrumentServiceTestSuite) TestDeleteItem_RemovesFromSnapshotAndCache() {
	suite.mockInstrumentRepo.On("Delete", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()
	suite.mockCache.On("DeleteInstrument", mock.Anything, suite.tenantID, suite.instrumentID).Return(nil).Once()

	err := suite.service.DeleteItem(context.Background(), suite.tenantID, suite.instrumentID)

	assert.NoError(suite.T(), err)
	assert.Contains(suite.T(), suite.notifier.successes, "Instrument deleted")
}
