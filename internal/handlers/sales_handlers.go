package handlers

import (
	"net/http"

	"luthier/internal/common"
	"luthier/internal/models"
	"luthier/internal/services"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// SalesHandlers serves the sales-history ledger endpoints. Responses use a
// data/error envelope so the ledger client can consume this API the same way
// it would an external one.
type SalesHandlers struct {
	salesService services.SalesService
}

func NewSalesHandlers(salesService services.SalesService) *SalesHandlers {
	return &SalesHandlers{salesService: salesService}
}

func dataResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, map[string]interface{}{"data": data})
}

func errorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]interface{}{"error": message})
}

// ListSales returns records filtered by instrument, exact date, date range
// and refunds-only criteria.
func (h *SalesHandlers) ListSales(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return errorResponse(c, http.StatusUnauthorized, "Tenant not found")
	}

	var filter models.SaleSearchFilter
	if err := c.Bind(&filter); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid query parameters")
	}

	// The common instrument+date lookup goes through the dedicated repo path.
	if filter.InstrumentID != nil && filter.SaleDate != nil {
		records, err := h.salesService.ListByInstrumentAndDate(ctx, tenantID, *filter.InstrumentID, *filter.SaleDate)
		if err != nil {
			return errorResponse(c, http.StatusInternalServerError, "Failed to list sales history")
		}
		return dataResponse(c, http.StatusOK, records)
	}

	records, err := h.salesService.Search(ctx, tenantID, &filter)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, "Failed to search sales history")
	}
	return dataResponse(c, http.StatusOK, records)
}

// LatestSale returns the instrument's most recent record, or data null when
// the instrument has no history.
func (h *SalesHandlers) LatestSale(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return errorResponse(c, http.StatusUnauthorized, "Tenant not found")
	}

	instrumentID, err := common.ValidateUUID(c.QueryParam("instrument_id"), "instrument ID")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}

	record, err := h.salesService.Latest(ctx, tenantID, instrumentID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return dataResponse(c, http.StatusOK, nil)
		}
		return errorResponse(c, http.StatusInternalServerError, "Failed to load sales history")
	}
	return dataResponse(c, http.StatusOK, record)
}

// CreateSaleRequest is the record creation payload. Price accepts numbers
// and numeric strings.
type CreateSaleRequest struct {
	InstrumentID string        `json:"instrument_id"`
	SalePrice    *models.Price `json:"sale_price"`
	SaleDate     string        `json:"sale_date"`
	Notes        *string       `json:"notes"`
}

func (h *SalesHandlers) CreateSale(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return errorResponse(c, http.StatusUnauthorized, "Tenant not found")
	}

	var req CreateSaleRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request format")
	}

	instrumentID, err := common.ValidateUUID(req.InstrumentID, "instrument ID")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}
	if req.SalePrice == nil {
		return errorResponse(c, http.StatusBadRequest, "sale_price is required")
	}

	record := &models.SaleRecord{
		InstrumentID: instrumentID,
		SalePrice:    req.SalePrice.Float64(),
		SaleDate:     req.SaleDate,
		Notes:        req.Notes,
	}
	if err := h.salesService.Create(ctx, tenantID, record); err != nil {
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}

	return dataResponse(c, http.StatusCreated, record)
}

// UpdateSaleRequest patches a record's amount and notes.
type UpdateSaleRequest struct {
	ID        string        `json:"id"`
	SalePrice *models.Price `json:"sale_price"`
	Notes     *string       `json:"notes"`
}

func (h *SalesHandlers) UpdateSale(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return errorResponse(c, http.StatusUnauthorized, "Tenant not found")
	}

	var req UpdateSaleRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request format")
	}

	recordID, err := common.ValidateUUID(req.ID, "sale record ID")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}
	if req.SalePrice == nil {
		return errorResponse(c, http.StatusBadRequest, "sale_price is required")
	}

	if err := h.salesService.UpdateAmountAndNotes(ctx, tenantID, recordID, req.SalePrice.Float64(), req.Notes); err != nil {
		if err == pgx.ErrNoRows {
			return errorResponse(c, http.StatusNotFound, "Sale record not found")
		}
		return errorResponse(c, http.StatusInternalServerError, "Failed to update sale record")
	}

	return dataResponse(c, http.StatusOK, map[string]string{"id": recordID.String()})
}

func (h *SalesHandlers) DeleteSale(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return errorResponse(c, http.StatusUnauthorized, "Tenant not found")
	}

	recordID, err := common.ValidateUUID(c.Param("id"), "sale record ID")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}

	if err := h.salesService.Delete(ctx, tenantID, recordID); err != nil {
		return errorResponse(c, http.StatusInternalServerError, "Failed to delete sale record")
	}

	return c.NoContent(http.StatusNoContent)
}
