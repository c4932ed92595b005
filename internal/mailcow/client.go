package mailcow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client provisions recipient addresses as Mailcow aliases pointing at the
// shared inbox, so an operator-created account is immediately routable. The
// integration is optional; a nil *Client disables it.
type Client struct {
	baseURL    string
	apiKey     string
	domain     string
	sharedAddr string
	httpClient *http.Client
}

// Config for the Mailcow client
type Config struct {
	BaseURL    string // e.g., https://mail.example.com
	APIKey     string
	Domain     string // domain the recipient addresses live under
	SharedAddr string // the shared inbox every alias delivers to
}

// APIResponse generic Mailcow API response
type APIResponse struct {
	Type string   `json:"type"`
	Msg  []string `json:"msg"`
}

type alias struct {
	ID      int    `json:"id"`
	Address string `json:"address"`
}

// NewClient creates a new Mailcow API client
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		domain:     cfg.Domain,
		sharedAddr: cfg.SharedAddr,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Domain returns the domain addresses are provisioned under
func (c *Client) Domain() string {
	return c.domain
}

// CreateAlias routes the given address to the shared inbox
func (c *Client) CreateAlias(ctx context.Context, address string) error {
	payload := map[string]any{
		"address": address,
		"goto":    c.sharedAddr,
		"active":  1,
	}
	return c.post(ctx, "/api/v1/add/alias", payload)
}

// DeleteAlias removes the routing for the given address. Unknown addresses
// are not an error; the alias may predate this service or never have been
// provisioned.
func (c *Client) DeleteAlias(ctx context.Context, address string) error {
	aliases, err := c.listAliases(ctx)
	if err != nil {
		return err
	}
	for _, a := range aliases {
		if a.Address == address {
			return c.post(ctx, "/api/v1/delete/alias", []int{a.ID})
		}
	}
	return nil
}

func (c *Client) listAliases(ctx context.Context) ([]alias, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/get/alias/all", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: %s (status %d)", string(body), resp.StatusCode)
	}

	var aliases []alias
	if err := json.Unmarshal(body, &aliases); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return aliases, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: %s (status %d)", string(respBody), resp.StatusCode)
	}

	// Mailcow returns an array of responses
	var apiResp []APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if len(apiResp) == 0 {
		return fmt.Errorf("empty response from API")
	}
	if apiResp[0].Type != "success" {
		errMsg := "unknown error"
		if len(apiResp[0].Msg) > 0 {
			errMsg = apiResp[0].Msg[0]
		}
		return fmt.Errorf("API error: %s", errMsg)
	}
	return nil
}
