package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skyvoyage/travelpay/config"
	"github.com/skyvoyage/travelpay/models"
)

const maxRetrieveRetries = 3

// API is the payment gateway adapter. Each operation is independent and
// individually retryable by the caller; the adapter itself only retries
// RetrieveOrderStatus, because the mutating calls risk duplicate financial
// effect. Callers re-invoke mutating calls deliberately with the same
// orderId/transactionId to stay idempotent.
type API interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error)
	RetrieveOrderStatus(ctx context.Context, gatewayOrderID string) (*OrderStatus, error)
	Refund(ctx context.Context, gatewayTransactionID string, amount decimal.Decimal, reason string) (*RefundResult, error)
	Void(ctx context.Context, gatewayTransactionID string, reason string) (*VoidResult, error)
}

// Client talks to the hosted-checkout card gateway over REST. Every call
// carries merchant basic-auth credentials; rotation happens out-of-band.
type Client struct {
	BaseURL        string
	MerchantID     string
	MerchantSecret string
	HTTPClient     *http.Client
	logger         *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) API {
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:    10,
		IdleConnTimeout: 30 * time.Second,
	}

	return &Client{
		BaseURL:        cfg.Gateway.BaseURL,
		MerchantID:     cfg.Gateway.MerchantID,
		MerchantSecret: cfg.Gateway.MerchantSecret,
		HTTPClient: &http.Client{
			Transport: tr,
			Timeout:   30 * time.Second,
		},
		logger: logger,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateCheckoutSession opens a hosted checkout session for the given order.
// The gateway keys sessions on orderId, so a replay with the same orderId
// returns the existing session rather than a second chargeable one; any other
// conflict is surfaced loudly. Never auto-retried.
func (c *Client) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error) {
	if req.OrderID == "" {
		return nil, fmt.Errorf("%w: checkout session requires an order id", models.ErrValidation)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: checkout amount must be positive, got %s",
			models.ErrValidation, req.Amount.String())
	}
	if req.Currency == "" {
		return nil, fmt.Errorf("%w: checkout session requires a currency", models.ErrValidation)
	}

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/checkout/sessions", req, &session); err != nil {
		return nil, err
	}

	c.logger.Info("checkout session created",
		zap.String("order_id", req.OrderID),
		zap.String("session_id", session.SessionID))

	return &session, nil
}

// RetrieveOrderStatus fetches the authoritative order record. It is the only
// adapter operation retried automatically: read-only, so a duplicate request
// has no financial effect.
func (c *Client) RetrieveOrderStatus(ctx context.Context, gatewayOrderID string) (*OrderStatus, error) {
	if gatewayOrderID == "" {
		return nil, fmt.Errorf("%w: order id is required", models.ErrValidation)
	}

	var status OrderStatus
	operation := func() error {
		err := c.do(ctx, http.MethodGet, "/orders/"+gatewayOrderID, nil, &status)
		if err != nil && !IsUnavailable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetrieveRetries-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return &status, nil
}

// Refund reverses a settled capture. The amount is validated against the
// captured total by the caller before this is invoked; the gateway's own
// rejection is trusted otherwise. Never auto-retried.
func (c *Client) Refund(ctx context.Context, gatewayTransactionID string, amount decimal.Decimal, reason string) (*RefundResult, error) {
	if gatewayTransactionID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", models.ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: refund amount must be positive, got %s",
			models.ErrValidation, amount.String())
	}

	body := map[string]any{
		"amount": amount,
		"reason": reason,
	}

	var result RefundResult
	if err := c.do(ctx, http.MethodPost, "/transactions/"+gatewayTransactionID+"/refund", body, &result); err != nil {
		return nil, err
	}

	c.logger.Info("refund issued",
		zap.String("transaction_id", gatewayTransactionID),
		zap.String("amount", amount.String()),
		zap.String("refund_id", result.RefundID))

	return &result, nil
}

// Void reverses an authorized-but-unsettled transaction. Settlement timing is
// gateway-controlled, so eligibility is not pre-guessed here: the request is
// passed through and the gateway's rejection surfaced as-is. Never
// auto-retried.
func (c *Client) Void(ctx context.Context, gatewayTransactionID string, reason string) (*VoidResult, error) {
	if gatewayTransactionID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", models.ErrValidation)
	}

	body := map[string]any{
		"reason": reason,
	}

	var result VoidResult
	if err := c.do(ctx, http.MethodPost, "/transactions/"+gatewayTransactionID+"/void", body, &result); err != nil {
		return nil, err
	}

	c.logger.Info("transaction voided", zap.String("transaction_id", gatewayTransactionID))

	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("merchant."+c.MerchantID, c.MerchantSecret)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &Error{Kind: KindUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindUnavailable, Message: err.Error()}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return &Error{
			Kind:       KindUnavailable,
			Message:    fmt.Sprintf("%s: %s", resp.Status, string(respBody)),
			HTTPStatus: resp.StatusCode,
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var gwErr errorResponse
		if err = json.Unmarshal(respBody, &gwErr); err != nil {
			gwErr.Message = string(respBody)
		}
		return &Error{
			Kind:       KindRejected,
			Code:       gwErr.Code,
			Message:    gwErr.Message,
			HTTPStatus: resp.StatusCode,
		}
	}

	if out != nil {
		if err = json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}

	return nil
}
