// Package ledger is the client side of the sales-history API. The instrument
// service records sales and refunds through the API interface; the HTTP
// implementation talks to a ledger endpoint speaking the /v1/sales contract
// (the one this service also hosts), and the local implementation writes
// straight to the sales repository when no external endpoint is configured.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"luthier/internal/config"
	"luthier/internal/models"

	"github.com/google/uuid"
)

// API is the ledger contract the instrument service depends on.
type API interface {
	// ListByDate returns the instrument's records for one sale date.
	ListByDate(ctx context.Context, tenantID, instrumentID uuid.UUID, saleDate string) ([]*models.SaleRecord, error)
	// Latest returns the most recent record, or nil when the instrument
	// has no sales history.
	Latest(ctx context.Context, tenantID, instrumentID uuid.UUID) (*models.SaleRecord, error)
	// Create appends a new record.
	Create(ctx context.Context, record *models.SaleRecord) error
	// Update patches a record's amount and notes.
	Update(ctx context.Context, tenantID, id uuid.UUID, salePrice float64, notes *string) error
}

// envelope is the wire format: data on success, error on failure.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// Client is the HTTP implementation of API.
type Client struct {
	endpoint   string
	apiToken   string
	httpClient *http.Client
}

func NewClient(cfg *config.LedgerConfig) *Client {
	timeout := time.Duration(cfg.Ledger.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: cfg.Ledger.Endpoint,
		apiToken: cfg.Ledger.APIToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// do performs one request and decodes the envelope. Non-2xx responses become
// errors carrying the server's error string; the caller cannot tell them
// apart from transport failures and is not meant to.
func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ledger request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil && resp.StatusCode < 300 {
		return fmt.Errorf("failed to decode ledger response: %w", decodeErr)
	}

	if resp.StatusCode >= 300 {
		if env.Error != "" {
			return fmt.Errorf("ledger returned status %d: %s", resp.StatusCode, env.Error)
		}
		return fmt.Errorf("ledger returned status %d", resp.StatusCode)
	}

	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode ledger data: %w", err)
		}
	}
	return nil
}

func (c *Client) ListByDate(ctx context.Context, _, instrumentID uuid.UUID, saleDate string) ([]*models.SaleRecord, error) {
	query := url.Values{}
	query.Set("instrument_id", instrumentID.String())
	query.Set("sale_date", saleDate)

	var records []*models.SaleRecord
	if err := c.do(ctx, http.MethodGet, "/v1/sales?"+query.Encode(), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) Latest(ctx context.Context, _, instrumentID uuid.UUID) (*models.SaleRecord, error) {
	query := url.Values{}
	query.Set("instrument_id", instrumentID.String())

	var record *models.SaleRecord
	if err := c.do(ctx, http.MethodGet, "/v1/sales/latest?"+query.Encode(), nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Client) Create(ctx context.Context, record *models.SaleRecord) error {
	payload := map[string]any{
		"instrument_id": record.InstrumentID,
		"sale_price":    record.SalePrice,
		"sale_date":     record.SaleDate,
		"notes":         record.Notes,
	}
	created := &models.SaleRecord{}
	if err := c.do(ctx, http.MethodPost, "/v1/sales", payload, created); err != nil {
		return err
	}
	record.ID = created.ID
	return nil
}

func (c *Client) Update(ctx context.Context, _, id uuid.UUID, salePrice float64, notes *string) error {
	payload := map[string]any{
		"id":         id,
		"sale_price": salePrice,
		"notes":      notes,
	}
	return c.do(ctx, http.MethodPatch, "/v1/sales", payload, nil)
}
