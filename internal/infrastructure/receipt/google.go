package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const googlePublisherBaseURL = "https://androidpublisher.googleapis.com/androidpublisher/v3"

type GoogleVerifier struct {
	packageName string
	accessToken string
	baseURL     string
	client      *http.Client
}

func NewGoogleVerifier(packageName, accessToken string) *GoogleVerifier {
	return &GoogleVerifier{
		packageName: packageName,
		accessToken: accessToken,
		baseURL:     googlePublisherBaseURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// NewGoogleVerifierWithBaseURL exists for tests.
func NewGoogleVerifierWithBaseURL(packageName, accessToken, baseURL string) *GoogleVerifier {
	v := NewGoogleVerifier(packageName, accessToken)
	v.baseURL = baseURL
	return v
}

type googleSubscription struct {
	ExpiryTimeMillis string `json:"expiryTimeMillis"`
	PaymentState     *int   `json:"paymentState"`
	OrderID          string `json:"orderId"`
}

// Verify resolves a Play Billing purchase token. Fails closed on any
// transport, auth or parse error.
func (v *GoogleVerifier) Verify(ctx context.Context, productID, purchaseToken string) (*Verification, error) {
	u := fmt.Sprintf("%s/applications/%s/purchases/subscriptions/%s/tokens/%s",
		v.baseURL,
		url.PathEscape(v.packageName),
		url.PathEscape(productID),
		url.PathEscape(purchaseToken),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &Verification{}, nil
	}
	req.Header.Set("Authorization", "Bearer "+v.accessToken)

	resp, err := v.client.Do(req)
	if err != nil {
		return &Verification{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Verification{}, nil
	}

	var sub googleSubscription
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return &Verification{}, nil
	}

	ms, err := strconv.ParseInt(sub.ExpiryTimeMillis, 10, 64)
	if err != nil {
		return &Verification{}, nil
	}
	expires := time.UnixMilli(ms)

	// paymentState 1 = received, 2 = free trial. Absent means pending/void.
	paid := sub.PaymentState != nil && (*sub.PaymentState == 1 || *sub.PaymentState == 2)

	return &Verification{
		Valid:         paid && expires.After(time.Now()),
		PlatformSubID: purchaseToken,
		ProductID:     productID,
		ExpiresAt:     expires,
	}, nil
}
