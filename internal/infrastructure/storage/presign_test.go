package storage

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSigned(t *testing.T, raw string) (key, exp, sig string) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	key = strings.TrimPrefix(u.Path, "/upload/")
	key, err = url.PathUnescape(key)
	require.NoError(t, err)
	return key, u.Query().Get("exp"), u.Query().Get("sig")
}

func TestSignerRoundTrip(t *testing.T) {
	s := NewSigner("secret", "https://api.example.com", 15*time.Minute)

	raw, expires := s.SignUpload("quarantine/dev-1/abc123")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expires, 5*time.Second)

	key, exp, sig := parseSigned(t, raw)
	assert.Equal(t, "quarantine/dev-1/abc123", key)
	assert.True(t, s.Verify(key, exp, sig))
}

func TestSignerKeepsSlashesInPath(t *testing.T) {
	s := NewSigner("secret", "https://api.example.com", 15*time.Minute)

	raw, _ := s.SignUpload("quarantine/dev 1/abc+123")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	// Slashes must stay literal so the URL hits the wildcard upload
	// route; everything inside a segment is escaped.
	assert.Equal(t, "/upload/quarantine/dev%201/abc+123", u.EscapedPath())

	key, exp, sig := parseSigned(t, raw)
	assert.Equal(t, "quarantine/dev 1/abc+123", key)
	assert.True(t, s.Verify(key, exp, sig))
}

func TestSignerRejectsTamperedKey(t *testing.T) {
	s := NewSigner("secret", "https://api.example.com", 15*time.Minute)

	raw, _ := s.SignUpload("quarantine/dev-1/abc123")
	_, exp, sig := parseSigned(t, raw)

	assert.False(t, s.Verify("quarantine/dev-1/other", exp, sig))
}

func TestSignerRejectsTamperedExpiry(t *testing.T) {
	s := NewSigner("secret", "https://api.example.com", 15*time.Minute)

	raw, _ := s.SignUpload("quarantine/dev-1/abc123")
	key, _, sig := parseSigned(t, raw)

	assert.False(t, s.Verify(key, "9999999999", sig))
}

func TestSignerRejectsExpired(t *testing.T) {
	s := NewSigner("secret", "https://api.example.com", -1*time.Minute)

	raw, _ := s.SignUpload("quarantine/dev-1/abc123")
	key, exp, sig := parseSigned(t, raw)

	assert.False(t, s.Verify(key, exp, sig))
}

func TestSignerRejectsForeignSecret(t *testing.T) {
	a := NewSigner("secret-a", "https://api.example.com", 15*time.Minute)
	b := NewSigner("secret-b", "https://api.example.com", 15*time.Minute)

	raw, _ := a.SignUpload("quarantine/dev-1/abc123")
	key, exp, sig := parseSigned(t, raw)

	assert.False(t, b.Verify(key, exp, sig))
}
