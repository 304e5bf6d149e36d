package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const apiKeyHeader = "X-API-KEY"

// Config holds the connection settings for the system-of-record gateway.
type Config struct {
	// URL is the gateway base URL, e.g. http://tally-gw:9000.
	URL string `mapstructure:"url" default:""`
	// APIKey is sent as X-API-KEY on every request.
	APIKey string `mapstructure:"api_key" default:""`
	// TimeoutSeconds bounds each gateway request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"20"`
}

// ItemRecord is one item master row as delivered by the gateway.
type ItemRecord struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	BaseUnit    string  `json:"base_unit"`
	OpeningQty  float64 `json:"opening_qty"`
	OpeningRate float64 `json:"opening_rate"`
}

// MovementRecord is one movement ledger row as delivered by the gateway.
type MovementRecord struct {
	Date         string  `json:"date"`
	VoucherNo    string  `json:"voucher_no"`
	Company      string  `json:"company"`
	Item         string  `json:"item"`
	Qty          float64 `json:"qty"`
	Rate         float64 `json:"rate"`
	Amount       float64 `json:"amount"`
	MovementType string  `json:"movement_type"`
}

// Client fetches snapshots from the gateway over authenticated HTTP.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a gateway client from the configuration.
func NewClient(cfg Config) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 20
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// FetchItems retrieves the full item master snapshot.
func (c *Client) FetchItems(ctx context.Context) ([]ItemRecord, error) {
	var items []ItemRecord
	if err := c.get(ctx, "/stock_items", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchMovements retrieves the full movement ledger snapshot.
func (c *Client) FetchMovements(ctx context.Context) ([]MovementRecord, error) {
	var movements []MovementRecord
	if err := c.get(ctx, "/stock_movements", &movements); err != nil {
		return nil, err
	}
	return movements, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway request %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway response %s undecodable: %w", path, err)
	}
	return nil
}
