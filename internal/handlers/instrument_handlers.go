package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"luthier/internal/common"
	"luthier/internal/inventory"
	"luthier/internal/models"
	"luthier/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// InstrumentHandlers handles instrument-related HTTP requests.
type InstrumentHandlers struct {
	instrumentService services.InstrumentService
	connectionService services.ConnectionService
	storageService    services.StorageService
}

func NewInstrumentHandlers(instrumentService services.InstrumentService, connectionService services.ConnectionService, storageService services.StorageService) *InstrumentHandlers {
	return &InstrumentHandlers{
		instrumentService: instrumentService,
		connectionService: connectionService,
		storageService:    storageService,
	}
}

// CreateInstrumentRequest is the instrument creation payload.
type CreateInstrumentRequest struct {
	Status          string        `json:"status"`
	Maker           *string       `json:"maker"`
	Type            *string       `json:"type"`
	Subtype         *string       `json:"subtype"`
	Ownership       *string       `json:"ownership"`
	Year            *int          `json:"year"`
	Price           *models.Price `json:"price"`
	Certificate     bool          `json:"certificate"`
	CertificateName *string       `json:"certificate_name"`
	HasCertificate  *bool         `json:"has_certificate"`
}

func (h *InstrumentHandlers) CreateItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateInstrumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if req.Year != nil {
		if err := common.ValidateYear(*req.Year); err != nil {
			return common.SendValidationError(c, "year", err.Error())
		}
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	instrument := &models.Instrument{
		Status:          req.Status,
		Maker:           req.Maker,
		Type:            req.Type,
		Subtype:         req.Subtype,
		Ownership:       req.Ownership,
		Year:            req.Year,
		Certificate:     req.Certificate,
		CertificateName: req.CertificateName,
		HasCertificate:  req.HasCertificate,
	}
	if req.Price != nil {
		price := req.Price.Float64()
		instrument.Price = &price
	}

	if err := h.instrumentService.CreateItem(ctx, tenantID, instrument); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, instrument)
}

func (h *InstrumentHandlers) GetItem(c echo.Context) error {
	ctx := c.Request().Context()

	instrumentID, err := common.ValidateUUID(c.Param("id"), "instrument ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	instrument, err := h.instrumentService.GetItem(ctx, tenantID, instrumentID)
	if err != nil {
		return common.SendNotFoundError(c, "instrument")
	}

	return c.JSON(http.StatusOK, instrument)
}

// DashboardView lists instruments through the full filter pipeline: search,
// categorical filters, price and date ranges, deep-link anchors, sorting and
// pagination, all driven by query parameters.
func (h *InstrumentHandlers) DashboardView(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	state, err := filterStateFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	instruments, err := h.instrumentService.ListItems(ctx, tenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list instruments")
	}

	connections, err := h.connectionService.ListAll(ctx, tenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list client connections")
	}

	byInstrument := make(map[uuid.UUID][]*models.ClientInstrument, len(connections))
	for _, connection := range connections {
		byInstrument[connection.InstrumentID] = append(byInstrument[connection.InstrumentID], connection)
	}

	items := make([]inventory.Item, 0, len(instruments))
	for _, instrument := range instruments {
		items = append(items, inventory.Item{
			Instrument: instrument,
			Clients:    byInstrument[instrument.ID],
		})
	}

	view := inventory.ComputeView(items, state)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":          view.PaginatedItems,
		"total_count":    view.TotalCount,
		"total_pages":    view.TotalPages,
		"page":           view.Page,
		"active_filters": state.ActiveCount(),
	})
}

// filterStateFromQuery maps the dashboard query parameters onto a filter
// state. Multi-value dimensions accept comma-separated lists.
func filterStateFromQuery(c echo.Context) (inventory.FilterState, error) {
	state := inventory.NewFilterState()

	state.SearchTerm = common.SanitizeSearchQuery(c.QueryParam("search"))
	state.Status = splitMulti(c.QueryParam("status"))
	state.Maker = splitMulti(c.QueryParam("maker"))
	state.Type = splitMulti(c.QueryParam("type"))
	state.Subtype = splitMulti(c.QueryParam("subtype"))
	state.Ownership = splitMulti(c.QueryParam("ownership"))
	state.Certificate = splitMulti(c.QueryParam("certificate"))
	state.PriceMin = c.QueryParam("price_min")
	state.PriceMax = c.QueryParam("price_max")
	state.DateFrom = c.QueryParam("date_from")
	state.DateTo = c.QueryParam("date_to")

	if raw := c.QueryParam("has_clients"); raw != "" {
		hasClients, err := strconv.ParseBool(raw)
		if err != nil {
			return state, err
		}
		state.HasClients = &hasClients
	}

	if raw := c.QueryParam("sort_by"); raw != "" {
		state.SortBy = raw
	}
	if raw := c.QueryParam("sort_order"); raw != "" {
		state.SortOrder = raw
	}
	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return state, err
		}
		state.Page = page
	}

	if raw := c.QueryParam("instrument_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return state, err
		}
		state.InstrumentID = &id
	}
	if raw := c.QueryParam("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return state, err
		}
		state.ClientID = &id
	}

	if err := common.ValidateDateFormat(state.DateFrom, "date_from"); err != nil {
		return state, err
	}
	if err := common.ValidateDateFormat(state.DateTo, "date_to"); err != nil {
		return state, err
	}

	return state, nil
}

func splitMulti(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	for _, value := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// UpdateItem applies a partial update. Any sales-history warnings produced
// by a status transition come back in the response body instead of failing
// the request.
func (h *InstrumentHandlers) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()

	instrumentID, err := common.ValidateUUID(c.Param("id"), "instrument ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var fields models.InstrumentUpdate
	if err := c.Bind(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if fields.Empty() {
		return echo.NewHTTPError(http.StatusBadRequest, "No fields to update")
	}
	if fields.Year != nil {
		if err := common.ValidateYear(*fields.Year); err != nil {
			return common.SendValidationError(c, "year", err.Error())
		}
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	updated, outcome, err := h.instrumentService.UpdateItem(ctx, tenantID, instrumentID, &fields)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, updateResponse(updated, outcome))
}

// InlineUpdateRequest edits one named field from its string form.
type InlineUpdateRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *InstrumentHandlers) UpdateItemInline(c echo.Context) error {
	ctx := c.Request().Context()

	instrumentID, err := common.ValidateUUID(c.Param("id"), "instrument ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req InlineUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Field == "" {
		return common.SendValidationError(c, "field", "field is required")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	updated, outcome, err := h.instrumentService.UpdateItemInline(ctx, tenantID, instrumentID, req.Field, req.Value)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, updateResponse(updated, outcome))
}

func updateResponse(instrument *models.Instrument, outcome *services.LedgerOutcome) map[string]interface{} {
	response := map[string]interface{}{
		"instrument": instrument,
	}
	if outcome != nil {
		if outcome.SaleRecorded {
			response["sale_recorded"] = true
		}
		if outcome.RefundRecorded {
			response["refund_recorded"] = true
		}
		if len(outcome.Warnings) > 0 {
			response["warnings"] = outcome.Warnings
		}
	}
	return response
}

func (h *InstrumentHandlers) DeleteItem(c echo.Context) error {
	ctx := c.Request().Context()

	instrumentID, err := common.ValidateUUID(c.Param("id"), "instrument ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	if err := h.instrumentService.DeleteItem(ctx, tenantID, instrumentID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete instrument")
	}

	return c.NoContent(http.StatusNoContent)
}

// UploadPhoto stores an instrument photo and links it to the instrument.
func (h *InstrumentHandlers) UploadPhoto(c echo.Context) error {
	ctx := c.Request().Context()

	instrumentID, err := common.ValidateUUID(c.Param("id"), "instrument ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Photo file is required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read photo file")
	}
	defer src.Close()

	objectName, err := h.storageService.UploadPhoto(ctx, tenantID, instrumentID, file.Filename, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store photo")
	}

	updated, _, err := h.instrumentService.UpdateItem(ctx, tenantID, instrumentID, &models.InstrumentUpdate{
		PhotoObject: &objectName,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to link photo")
	}

	return c.JSON(http.StatusOK, updated)
}

// PhotoURL returns a short-lived presigned link to the instrument's photo.
func (h *InstrumentHandlers) PhotoURL(c echo.Context) error {
	ctx := c.Request().Context()

	instrumentID, err := common.ValidateUUID(c.Param("id"), "instrument ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	instrument, err := h.instrumentService.GetItem(ctx, tenantID, instrumentID)
	if err != nil {
		return common.SendNotFoundError(c, "instrument")
	}
	if instrument.PhotoObject == nil {
		return common.SendNotFoundError(c, "photo")
	}

	url, err := h.storageService.PresignedURL(ctx, *instrument.PhotoObject, 15*time.Minute)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create photo link")
	}

	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
