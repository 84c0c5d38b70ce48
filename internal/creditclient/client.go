// Package creditclient refreshes the engine's view of its external credit
// balance, the input to the autonomous scheduler's budget gate.
package creditclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"llmpoker/internal/engine"
)

// defaultLimit is the fixed credit ceiling the spec maps every refresh to
// (spec §6: "the engine maps to {balance, totalUsed, limit=20, lastSyncedAt=now}").
const defaultLimit = 20

// Client polls a credits provider endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// New builds a Client bounded by timeout on every request.
func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
	}
}

type providerResponse struct {
	Balance   float64 `json:"balance"`
	TotalUsed float64 `json:"total_used"`
}

// Refresh fetches the current balance and maps it into an engine.CreditAccount.
func (c *Client) Refresh(ctx context.Context) (*engine.CreditAccount, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build credit request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("credit endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("credit endpoint returned status %d", resp.StatusCode)
	}

	var body providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode credit response: %w", err)
	}

	return &engine.CreditAccount{
		Balance:      body.Balance,
		Used:         body.TotalUsed,
		Limit:        defaultLimit,
		LastSyncedAt: time.Now(),
	}, nil
}
