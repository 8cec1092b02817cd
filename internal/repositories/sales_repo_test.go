package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"luthier/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

var saleColumnNames = []string{"id", "tenant_id", "instrument_id", "sale_price", "sale_date", "notes", "created_at"}

type SalesRepoTestSuite struct {
	suite.Suite
	mock         pgxmock.PgxPoolIface
	repo         SalesRepository
	tenantID     uuid.UUID
	instrumentID uuid.UUID
	recordID     uuid.UUID
	ctx          context.Context
}

func (suite *SalesRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewSalesRepo(mock)
	suite.tenantID = uuid.New()
	suite.instrumentID = uuid.New()
	suite.recordID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *SalesRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestSalesRepoTestSuite(t *testing.T) {
	suite.Run(t, new(SalesRepoTestSuite))
}

func (suite *SalesRepoTestSuite) saleRow(salePrice float64, saleDate string, notes *string) *pgxmock.Rows {
	return pgxmock.NewRows(saleColumnNames).
		AddRow(suite.recordID, suite.tenantID, suite.instrumentID, salePrice, saleDate, notes, time.Now())
}

func (suite *SalesRepoTestSuite) TestCreate_Success() {
	notes := models.SaleAutoCreatedNote
	record := &models.SaleRecord{
		ID:           suite.recordID,
		TenantID:     suite.tenantID,
		InstrumentID: suite.instrumentID,
		SalePrice:    18000,
		SaleDate:     "2025-03-14",
		Notes:        &notes,
	}

	suite.mock.ExpectExec(`INSERT INTO sales_history`).
		WithArgs(record.ID, record.TenantID, record.InstrumentID, record.SalePrice, record.SaleDate, record.Notes).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.ctx, record)
	assert.NoError(suite.T(), err)
}

func (suite *SalesRepoTestSuite) TestCreate_DatabaseError() {
	record := &models.SaleRecord{
		ID:           suite.recordID,
		TenantID:     suite.tenantID,
		InstrumentID: suite.instrumentID,
		SalePrice:    18000,
		SaleDate:     "2025-03-14",
	}

	suite.mock.ExpectExec(`INSERT INTO sales_history`).
		WithArgs(record.ID, record.TenantID, record.InstrumentID, record.SalePrice, record.SaleDate, record.Notes).
		WillReturnError(errors.New("database connection failed"))

	err := suite.repo.Create(suite.ctx, record)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "database connection failed")
}

func (suite *SalesRepoTestSuite) TestListByInstrumentAndDate_Success() {
	notes := models.SaleAutoCreatedNote

	suite.mock.ExpectQuery(`SELECT (.+) FROM sales_history WHERE tenant_id = \$1 AND instrument_id = \$2 AND sale_date = \$3`).
		WithArgs(suite.tenantID, suite.instrumentID, "2025-03-14").
		WillReturnRows(suite.saleRow(18000, "2025-03-14", &notes))

	records, err := suite.repo.ListByInstrumentAndDate(suite.ctx, suite.tenantID, suite.instrumentID, "2025-03-14")
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), records, 1)
	assert.Equal(suite.T(), 18000.0, records[0].SalePrice)
	assert.Equal(suite.T(), models.SaleAutoCreatedNote, *records[0].Notes)
}

func (suite *SalesRepoTestSuite) TestListByInstrumentAndDate_Empty() {
	suite.mock.ExpectQuery(`SELECT (.+) FROM sales_history WHERE tenant_id = \$1 AND instrument_id = \$2 AND sale_date = \$3`).
		WithArgs(suite.tenantID, suite.instrumentID, "2025-03-14").
		WillReturnRows(pgxmock.NewRows(saleColumnNames))

	records, err := suite.repo.ListByInstrumentAndDate(suite.ctx, suite.tenantID, suite.instrumentID, "2025-03-14")
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), records)
}

func (suite *SalesRepoTestSuite) TestLatest_Success() {
	suite.mock.ExpectQuery(`SELECT (.+) FROM sales_history WHERE tenant_id = \$1 AND instrument_id = \$2 ORDER BY sale_date DESC, created_at DESC LIMIT 1`).
		WithArgs(suite.tenantID, suite.instrumentID).
		WillReturnRows(suite.saleRow(7500, "2025-03-01", nil))

	record, err := suite.repo.Latest(suite.ctx, suite.tenantID, suite.instrumentID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.recordID, record.ID)
	assert.Equal(suite.T(), 7500.0, record.SalePrice)
	assert.Nil(suite.T(), record.Notes)
}

func (suite *SalesRepoTestSuite) TestLatest_NoHistory() {
	suite.mock.ExpectQuery(`SELECT (.+) FROM sales_history WHERE tenant_id = \$1 AND instrument_id = \$2`).
		WithArgs(suite.tenantID, suite.instrumentID).
		WillReturnError(pgx.ErrNoRows)

	record, err := suite.repo.Latest(suite.ctx, suite.tenantID, suite.instrumentID)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), record)
}

func (suite *SalesRepoTestSuite) TestUpdateAmountAndNotes_Success() {
	notes := "Sold at auction | " + models.SaleRefundNote

	suite.mock.ExpectExec(`UPDATE sales_history SET sale_price = \$3, notes = \$4 WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(suite.tenantID, suite.recordID, -18000.0, &notes).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.UpdateAmountAndNotes(suite.ctx, suite.tenantID, suite.recordID, -18000, &notes)
	assert.NoError(suite.T(), err)
}

func (suite *SalesRepoTestSuite) TestUpdateAmountAndNotes_NotFound() {
	notes := models.SaleRefundNote

	suite.mock.ExpectExec(`UPDATE sales_history SET sale_price = \$3, notes = \$4 WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(suite.tenantID, suite.recordID, -18000.0, &notes).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.UpdateAmountAndNotes(suite.ctx, suite.tenantID, suite.recordID, -18000, &notes)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
}

func (suite *SalesRepoTestSuite) TestSearch_ByInstrumentAndRange() {
	from := "2025-01-01"
	to := "2025-03-31"
	filter := &models.SaleSearchFilter{
		InstrumentID: &suite.instrumentID,
		DateFrom:     &from,
		DateTo:       &to,
	}

	suite.mock.ExpectQuery(`SELECT (.+) FROM sales_history WHERE tenant_id = \$1 AND instrument_id = \$2 AND sale_date >= \$3 AND sale_date <= \$4 ORDER BY sale_date DESC, created_at DESC LIMIT \$5`).
		WithArgs(suite.tenantID, suite.instrumentID, from, to, 50).
		WillReturnRows(suite.saleRow(18000, "2025-03-14", nil))

	records, err := suite.repo.Search(suite.ctx, suite.tenantID, filter)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), records, 1)
}

func (suite *SalesRepoTestSuite) TestSearch_RefundsOnly() {
	filter := &models.SaleSearchFilter{RefundsOnly: true, Limit: 10}
	notes := models.SaleRefundNote

	suite.mock.ExpectQuery(`SELECT (.+) FROM sales_history WHERE tenant_id = \$1 AND sale_price < 0 ORDER BY sale_date DESC, created_at DESC LIMIT \$2`).
		WithArgs(suite.tenantID, 10).
		WillReturnRows(suite.saleRow(-18000, "2025-03-15", &notes))

	records, err := suite.repo.Search(suite.ctx, suite.tenantID, filter)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), records, 1)
	assert.Negative(suite.T(), records[0].SalePrice)
}

func (suite *SalesRepoTestSuite) TestSearch_WithOffset() {
	filter := &models.SaleSearchFilter{Limit: 20, Offset: 40}

	suite.mock.ExpectQuery(`SELECT (.+) FROM sales_history WHERE tenant_id = \$1 ORDER BY sale_date DESC, created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(suite.tenantID, 20, 40).
		WillReturnRows(pgxmock.NewRows(saleColumnNames))

	records, err := suite.repo.Search(suite.ctx, suite.tenantID, filter)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), records)
}

func (suite *SalesRepoTestSuite) TestRevenueBetween_Success() {
	suite.mock.ExpectQuery(`SELECT COALESCE\(SUM\(sale_price\), 0\) FROM sales_history WHERE tenant_id = \$1 AND sale_date >= \$2 AND sale_date <= \$3`).
		WithArgs(suite.tenantID, "2025-01-01", "2025-12-31").
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(125000.0))

	revenue, err := suite.repo.RevenueBetween(suite.ctx, suite.tenantID, "2025-01-01", "2025-12-31")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 125000.0, revenue)
}

func (suite *SalesRepoTestSuite) TestDelete_Success() {
	suite.mock.ExpectExec(`DELETE FROM sales_history WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(suite.tenantID, suite.recordID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := suite.repo.Delete(suite.ctx, suite.tenantID, suite.recordID)
	assert.NoError(suite.T(), err)
}
