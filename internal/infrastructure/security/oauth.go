package security

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	appleKeysURL       = "https://appleid.apple.com/auth/keys"
	appleIssuer        = "https://appleid.apple.com"
)

// Identity is what an OAuth provider tells us about the caller.
type Identity struct {
	Provider string
	Subject  string
	Email    string
}

// OAuthVerifier validates Google and Apple ID tokens server-side.
// Apple signing keys are cached and refetched when an unknown kid shows up.
type OAuthVerifier struct {
	client         *http.Client
	googleClientID string
	appleClientID  string

	tokenInfoURL string
	keysURL      string

	mu        sync.Mutex
	appleKeys map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func NewOAuthVerifier(googleClientID, appleClientID string) *OAuthVerifier {
	return &OAuthVerifier{
		client:         &http.Client{Timeout: 10 * time.Second},
		googleClientID: googleClientID,
		appleClientID:  appleClientID,
		tokenInfoURL:   googleTokenInfoURL,
		keysURL:        appleKeysURL,
		appleKeys:      map[string]*rsa.PublicKey{},
	}
}

func (v *OAuthVerifier) Verify(ctx context.Context, provider, idToken string) (*Identity, error) {
	switch provider {
	case "google":
		return v.verifyGoogle(ctx, idToken)
	case "apple":
		return v.verifyApple(ctx, idToken)
	}
	return nil, fmt.Errorf("unsupported provider: %s", provider)
}

func (v *OAuthVerifier) verifyGoogle(ctx context.Context, idToken string) (*Identity, error) {
	u := v.tokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokeninfo returned status %d", resp.StatusCode)
	}

	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		Aud           string `json:"aud"`
		EmailVerified string `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}

	if v.googleClientID != "" && info.Aud != v.googleClientID {
		return nil, errors.New("token audience mismatch")
	}
	if info.Sub == "" || info.Email == "" {
		return nil, errors.New("token missing subject or email")
	}

	return &Identity{Provider: "google", Subject: info.Sub, Email: info.Email}, nil
}

func (v *OAuthVerifier) verifyApple(ctx context.Context, idToken string) (*Identity, error) {
	token, err := jwt.Parse(idToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token missing kid")
		}
		return v.appleKey(ctx, kid)
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if iss, _ := claims["iss"].(string); iss != appleIssuer {
		return nil, errors.New("token issuer mismatch")
	}
	if v.appleClientID != "" {
		if aud, _ := claims["aud"].(string); aud != v.appleClientID {
			return nil, errors.New("token audience mismatch")
		}
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return nil, errors.New("token missing subject")
	}

	return &Identity{Provider: "apple", Subject: sub, Email: email}, nil
}

func (v *OAuthVerifier) appleKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	key, ok := v.appleKeys[kid]
	stale := time.Since(v.fetchedAt) > time.Hour
	v.mu.Unlock()

	if ok && !stale {
		return key, nil
	}

	if err := v.fetchAppleKeys(ctx); err != nil {
		if ok {
			return key, nil // fall back to the cached key when the refresh fails
		}
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	key, ok = v.appleKeys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown apple key id %q", kid)
	}
	return key, nil
}

func (v *OAuthVerifier) fetchAppleKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.keysURL, nil)
	if err != nil {
		return err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("apple keys endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		Keys []struct {
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(body.Keys))
	for _, k := range body.Keys {
		nb, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			continue
		}
		eb, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(nb),
			E: int(new(big.Int).SetBytes(eb).Int64()),
		}
	}
	if len(keys) == 0 {
		return errors.New("apple keys endpoint returned no usable keys")
	}

	v.mu.Lock()
	v.appleKeys = keys
	v.fetchedAt = time.Now()
	v.mu.Unlock()
	return nil
}
