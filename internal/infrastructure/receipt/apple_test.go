package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appleServer(t *testing.T, status int, receipts ...map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{"status": status}
		if len(receipts) > 0 {
			resp["latest_receipt_info"] = receipts
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func ms(ts time.Time) string {
	return fmt.Sprintf("%d", ts.UnixMilli())
}

func TestAppleVerifyValidReceipt(t *testing.T) {
	expiry := time.Now().Add(24 * time.Hour)
	prod := appleServer(t, 0, map[string]string{
		"product_id":              "premium_monthly",
		"original_transaction_id": "txn-1",
		"expires_date_ms":         ms(expiry),
	})
	defer prod.Close()

	v := NewAppleVerifierWithEndpoints("shared", prod.URL, prod.URL)
	res, err := v.Verify(context.Background(), "receipt-data")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "txn-1", res.PlatformSubID)
	assert.Equal(t, "premium_monthly", res.ProductID)
	assert.WithinDuration(t, expiry, res.ExpiresAt, time.Second)
}

func TestAppleVerifySandboxRedirect(t *testing.T) {
	// Production answers 21007; the verifier must retry against sandbox
	// and return the sandbox result.
	expiry := time.Now().Add(24 * time.Hour)
	prod := appleServer(t, 21007)
	defer prod.Close()
	sandbox := appleServer(t, 0, map[string]string{
		"product_id":              "premium_monthly",
		"original_transaction_id": "txn-sandbox",
		"expires_date_ms":         ms(expiry),
	})
	defer sandbox.Close()

	v := NewAppleVerifierWithEndpoints("shared", prod.URL, sandbox.URL)
	res, err := v.Verify(context.Background(), "receipt-data")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "txn-sandbox", res.PlatformSubID)
}

func TestAppleVerifyPicksGreatestExpiry(t *testing.T) {
	older := time.Now().Add(1 * time.Hour)
	newer := time.Now().Add(48 * time.Hour)
	prod := appleServer(t, 0,
		map[string]string{
			"product_id":              "premium_monthly",
			"original_transaction_id": "txn-old",
			"expires_date_ms":         ms(older),
		},
		map[string]string{
			"product_id":              "premium_yearly",
			"original_transaction_id": "txn-new",
			"expires_date_ms":         ms(newer),
		},
	)
	defer prod.Close()

	v := NewAppleVerifierWithEndpoints("shared", prod.URL, prod.URL)
	res, err := v.Verify(context.Background(), "receipt-data")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "txn-new", res.PlatformSubID)
	assert.Equal(t, "premium_yearly", res.ProductID)
}

func TestAppleVerifyRejectedReceipt(t *testing.T) {
	prod := appleServer(t, 21003)
	defer prod.Close()

	v := NewAppleVerifierWithEndpoints("shared", prod.URL, prod.URL)
	res, err := v.Verify(context.Background(), "receipt-data")
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestAppleVerifyFailsClosedOnTransportError(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close() // refuse connections

	v := NewAppleVerifierWithEndpoints("shared", dead.URL, dead.URL)
	res, err := v.Verify(context.Background(), "receipt-data")
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestAppleVerifyExpiredReceiptIsInvalid(t *testing.T) {
	prod := appleServer(t, 0, map[string]string{
		"product_id":              "premium_monthly",
		"original_transaction_id": "txn-1",
		"expires_date_ms":         ms(time.Now().Add(-time.Hour)),
	})
	defer prod.Close()

	v := NewAppleVerifierWithEndpoints("shared", prod.URL, prod.URL)
	res, err := v.Verify(context.Background(), "receipt-data")
	require.NoError(t, err)
	assert.False(t, res.Valid)
}
