package receipt

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

const (
	appleProductionURL = "https://buy.itunes.apple.com/verifyReceipt"
	appleSandboxURL    = "https://sandbox.itunes.apple.com/verifyReceipt"

	// Apple answers 21007 when a sandbox receipt hits the production
	// endpoint; the request must be replayed against the sandbox.
	appleStatusSandboxReceipt = 21007
)

// Verification is the vendor-neutral outcome of a receipt check.
// Valid=false with a nil error means the vendor rejected the receipt;
// transport and parse failures also yield Valid=false (fail closed).
type Verification struct {
	Valid         bool
	PlatformSubID string
	ProductID     string
	ExpiresAt     time.Time
}

type AppleVerifier struct {
	sharedSecret  string
	productionURL string
	sandboxURL    string
	client        *http.Client
}

func NewAppleVerifier(sharedSecret string) *AppleVerifier {
	return &AppleVerifier{
		sharedSecret:  sharedSecret,
		productionURL: appleProductionURL,
		sandboxURL:    appleSandboxURL,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

// NewAppleVerifierWithEndpoints exists for tests.
func NewAppleVerifierWithEndpoints(sharedSecret, productionURL, sandboxURL string) *AppleVerifier {
	v := NewAppleVerifier(sharedSecret)
	v.productionURL = productionURL
	v.sandboxURL = sandboxURL
	return v
}

type appleResponse struct {
	Status            int `json:"status"`
	LatestReceiptInfo []struct {
		ProductID             string `json:"product_id"`
		OriginalTransactionID string `json:"original_transaction_id"`
		ExpiresDateMS         string `json:"expires_date_ms"`
	} `json:"latest_receipt_info"`
}

// Verify checks a base64 receipt against the App Store. A 21007 status
// transparently retries against the sandbox endpoint.
func (v *AppleVerifier) Verify(ctx context.Context, receiptData string) (*Verification, error) {
	res, err := v.call(ctx, v.productionURL, receiptData)
	if err != nil {
		return &Verification{}, nil
	}

	if res.Status == appleStatusSandboxReceipt {
		res, err = v.call(ctx, v.sandboxURL, receiptData)
		if err != nil {
			return &Verification{}, nil
		}
	}

	if res.Status != 0 || len(res.LatestReceiptInfo) == 0 {
		return &Verification{}, nil
	}

	// Several renewals can show up; the one with the greatest expiry wins.
	out := &Verification{}
	for _, info := range res.LatestReceiptInfo {
		ms, err := strconv.ParseInt(info.ExpiresDateMS, 10, 64)
		if err != nil {
			continue
		}
		expires := time.UnixMilli(ms)
		if expires.After(out.ExpiresAt) {
			out.ExpiresAt = expires
			out.ProductID = info.ProductID
			out.PlatformSubID = info.OriginalTransactionID
		}
	}
	out.Valid = out.PlatformSubID != "" && out.ExpiresAt.After(time.Now())
	return out, nil
}

func (v *AppleVerifier) call(ctx context.Context, url, receiptData string) (*appleResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"receipt-data": receiptData,
		"password":     v.sharedSecret,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body appleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return &body, nil
}
