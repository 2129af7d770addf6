package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/skyvoyage/travelpay/config"
)

// Client is the upstream travel-supplier integration. The reconciliation
// flow only needs one call: cancelling a supplier order after a local
// cancellation. Its failure is reported, never rolled back into the payment
// decision already made.
type Client interface {
	CancelOrder(ctx context.Context, supplierOrderID, reason string) error
}

type httpClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) Client {
	return &httpClient{
		baseURL: cfg.Supplier.BaseURL,
		apiKey:  cfg.Supplier.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (c *httpClient) CancelOrder(ctx context.Context, supplierOrderID, reason string) error {
	body, err := json.Marshal(map[string]string{"reason": reason})
	if err != nil {
		return fmt.Errorf("failed to marshal cancel request: %w", err)
	}

	url := fmt.Sprintf("%s/orders/%s/cancel", c.baseURL, supplierOrderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build supplier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supplier cancel request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("supplier rejected cancellation: %s, body: %s", resp.Status, string(respBody))
	}

	c.logger.Info("supplier order cancelled", zap.String("supplier_order_id", supplierOrderID))

	return nil
}
