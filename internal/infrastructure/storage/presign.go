package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Signer issues and verifies expiring, HMAC-signed quarantine upload URLs.
// The signature covers the storage key and the expiry so neither can be
// swapped after issuance.
type Signer struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
}

func NewSigner(secret, baseURL string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), baseURL: baseURL, ttl: ttl}
}

// SignUpload returns the upload URL for key and its expiry time.
func (s *Signer) SignUpload(key string) (string, time.Time) {
	expires := time.Now().Add(s.ttl)
	exp := strconv.FormatInt(expires.Unix(), 10)
	sig := s.sign(key, exp)

	u := fmt.Sprintf("%s/upload/%s?exp=%s&sig=%s", s.baseURL, escapeKey(key), exp, sig)
	return u, expires
}

// escapeKey escapes each path segment on its own. The slashes stay literal
// so the URL matches the wildcard upload route.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// Verify checks the signature and the expiry for an incoming upload.
func (s *Signer) Verify(key, exp, sig string) bool {
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil || time.Now().Unix() > unix {
		return false
	}
	expected := s.sign(key, exp)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (s *Signer) sign(key, exp string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(key))
	mac.Write([]byte{'\n'})
	mac.Write([]byte(exp))
	return hex.EncodeToString(mac.Sum(nil))
}
