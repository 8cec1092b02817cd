package handlers

import (
	"net/http"

	"luthier/internal/common"
	"luthier/internal/models"
	"luthier/internal/services"

	"github.com/labstack/echo/v4"
)

// ConnectionHandlers manages client-instrument links.
type ConnectionHandlers struct {
	connectionService services.ConnectionService
}

func NewConnectionHandlers(connectionService services.ConnectionService) *ConnectionHandlers {
	return &ConnectionHandlers{connectionService: connectionService}
}

// CreateConnectionRequest links a client to an instrument.
type CreateConnectionRequest struct {
	ClientID         string  `json:"client_id"`
	InstrumentID     string  `json:"instrument_id"`
	RelationshipType string  `json:"relationship_type"`
	Notes            *string `json:"notes"`
}

func (h *ConnectionHandlers) CreateConnection(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateConnectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	clientID, err := common.ValidateUUID(req.ClientID, "client ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	instrumentID, err := common.ValidateUUID(req.InstrumentID, "instrument ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	connection := &models.ClientInstrument{
		ClientID:         clientID,
		InstrumentID:     instrumentID,
		RelationshipType: req.RelationshipType,
		Notes:            req.Notes,
	}
	if err := h.connectionService.Create(ctx, tenantID, connection); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, connection)
}

// ListConnections lists links filtered by instrument or client; both absent
// means the tenant's entire set.
func (h *ConnectionHandlers) ListConnections(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	if raw := c.QueryParam("instrument_id"); raw != "" {
		instrumentID, err := common.ValidateUUID(raw, "instrument ID")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		connections, err := h.connectionService.ListByInstrument(ctx, tenantID, instrumentID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list connections")
		}
		return c.JSON(http.StatusOK, connections)
	}

	if raw := c.QueryParam("client_id"); raw != "" {
		clientID, err := common.ValidateUUID(raw, "client ID")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		connections, err := h.connectionService.ListByClient(ctx, tenantID, clientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list connections")
		}
		return c.JSON(http.StatusOK, connections)
	}

	connections, err := h.connectionService.ListAll(ctx, tenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list connections")
	}
	return c.JSON(http.StatusOK, connections)
}

func (h *ConnectionHandlers) DeleteConnection(c echo.Context) error {
	ctx := c.Request().Context()

	connectionID, err := common.ValidateUUID(c.Param("id"), "connection ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	if err := h.connectionService.Delete(ctx, tenantID, connectionID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete connection")
	}

	return c.NoContent(http.StatusNoContent)
}
