package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skyvoyage/travelpay/models"
)

func testClient(serverURL string) *Client {
	return &Client{
		BaseURL:        serverURL,
		MerchantID:     "TEST_MERCHANT",
		MerchantSecret: "TEST_SECRET",
		HTTPClient:     http.DefaultClient,
		logger:         zap.NewNop(),
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/sessions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "merchant.TEST_MERCHANT", user)
		assert.Equal(t, "TEST_SECRET", pass)

		var req CheckoutSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "order-1", req.OrderID)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessionId":"sess-1","checkoutUrl":"https://pay.example/sess-1"}`))
	}))
	defer server.Close()

	session, err := testClient(server.URL).CreateCheckoutSession(context.Background(), &CheckoutSessionRequest{
		Amount:   decimal.RequireFromString("230.00"),
		Currency: "USD",
		OrderID:  "order-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.SessionID)
	assert.Equal(t, "https://pay.example/sess-1", session.CheckoutURL)
}

func TestCreateCheckoutSessionValidation(t *testing.T) {
	client := testClient("http://gateway.invalid")

	_, err := client.CreateCheckoutSession(context.Background(), &CheckoutSessionRequest{
		Amount:   decimal.RequireFromString("10"),
		Currency: "USD",
	})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = client.CreateCheckoutSession(context.Background(), &CheckoutSessionRequest{
		Amount:   decimal.Zero,
		Currency: "USD",
		OrderID:  "order-1",
	})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestRetrieveOrderStatusRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/order-1", r.URL.Path)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{
			"orderId":"order-1","result":"SUCCESS",
			"totalAuthorizedAmount":"230.00","totalCapturedAmount":"230.00","totalRefundedAmount":"0",
			"transactions":[{"id":"txn-1","type":"CAPTURE","amount":"230.00","gatewayCode":"00"}]
		}`))
	}))
	defer server.Close()

	status, err := testClient(server.URL).RetrieveOrderStatus(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, ResultSuccess, status.Result)
	require.NotNil(t, status.CaptureTransaction())
	assert.Equal(t, "txn-1", status.CaptureTransaction().ID)
}

func TestRetrieveOrderStatusDoesNotRetryRejection(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"ORDER_NOT_FOUND","message":"no such order"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).RetrieveOrderStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRefundSurfacesRejectionWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/transactions/txn-1/refund", r.URL.Path)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":"AMOUNT_EXCEEDS_CAPTURE","message":"refund exceeds captured amount"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Refund(context.Background(), "txn-1", decimal.RequireFromString("500"), "test")
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	assert.Equal(t, int32(1), calls.Load())

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "AMOUNT_EXCEEDS_CAPTURE", gwErr.Code)
}

func TestVoidAfterSettlementRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/txn-1/void", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"ALREADY_SETTLED","message":"transaction has settled"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Void(context.Background(), "txn-1", "customer cancelled")
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	assert.False(t, IsUnavailable(err))
}

func TestVoidSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"VOIDED"}`))
	}))
	defer server.Close()

	result, err := testClient(server.URL).Void(context.Background(), "txn-1", "customer cancelled")
	require.NoError(t, err)
	assert.Equal(t, "VOIDED", result.Status)
}

func TestNetworkErrorIsUnavailable(t *testing.T) {
	client := testClient("http://127.0.0.1:1")

	_, err := client.Void(context.Background(), "txn-1", "test")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}
