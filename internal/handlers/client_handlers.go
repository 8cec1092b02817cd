package handlers

import (
	"net/http"

	"luthier/internal/common"
	"luthier/internal/models"
	"luthier/internal/services"

	"github.com/labstack/echo/v4"
)

type ClientHandlers struct {
	clientService services.ClientService
}

func NewClientHandlers(clientService services.ClientService) *ClientHandlers {
	return &ClientHandlers{clientService: clientService}
}

// CreateClientRequest is the client creation payload.
type CreateClientRequest struct {
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Notes *string `json:"notes"`
}

func (h *ClientHandlers) CreateClient(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateClientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	client := &models.Client{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Notes: req.Notes,
	}
	if err := h.clientService.Create(ctx, tenantID, client); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, client)
}

func (h *ClientHandlers) GetClient(c echo.Context) error {
	ctx := c.Request().Context()

	clientID, err := common.ValidateUUID(c.Param("id"), "client ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	client, err := h.clientService.GetByID(ctx, tenantID, clientID)
	if err != nil {
		return common.SendNotFoundError(c, "client")
	}

	return c.JSON(http.StatusOK, client)
}

// ListClientsRequest carries pagination and an optional search query.
type ListClientsRequest struct {
	Search string `query:"search"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}

func (h *ClientHandlers) ListClients(c echo.Context) error {
	ctx := c.Request().Context()

	var req ListClientsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	limit, offset, err := common.ValidatePaginationParams(req.Limit, req.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var clients []*models.Client
	if query := common.SanitizeSearchQuery(req.Search); query != "" {
		clients, err = h.clientService.Search(ctx, tenantID, query, limit, offset)
	} else {
		clients, err = h.clientService.List(ctx, tenantID, limit, offset)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list clients")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"clients": clients,
		"limit":   limit,
		"offset":  offset,
	})
}

// UpdateClientRequest is the client update payload.
type UpdateClientRequest struct {
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
	Notes *string `json:"notes"`
}

func (h *ClientHandlers) UpdateClient(c echo.Context) error {
	ctx := c.Request().Context()

	clientID, err := common.ValidateUUID(c.Param("id"), "client ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req UpdateClientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	client := &models.Client{
		ID:    clientID,
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Notes: req.Notes,
	}
	if err := h.clientService.Update(ctx, tenantID, client); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update client")
	}

	return c.JSON(http.StatusOK, client)
}

func (h *ClientHandlers) DeleteClient(c echo.Context) error {
	ctx := c.Request().Context()

	clientID, err := common.ValidateUUID(c.Param("id"), "client ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	if err := h.clientService.Delete(ctx, tenantID, clientID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete client")
	}

	return c.NoContent(http.StatusNoContent)
}
