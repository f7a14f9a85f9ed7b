package urlcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySafe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "api-key", r.URL.Query().Get("key"))
		json.NewEncoder(w).Encode(map[string]interface{}{})
	}))
	defer srv.Close()

	c := NewClientWithEndpoint("api-key", srv.URL)
	res, err := c.Classify(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.True(t, res.Safe)
}

func TestClassifyMalware(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req findRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.ThreatInfo.ThreatEntries, 1)
		assert.Equal(t, "https://evil.example.com", req.ThreatInfo.ThreatEntries[0].URL)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"matches": []map[string]string{{"threatType": "MALWARE"}},
		})
	}))
	defer srv.Close()

	c := NewClientWithEndpoint("api-key", srv.URL)
	res, err := c.Classify(context.Background(), "https://evil.example.com")
	require.NoError(t, err)
	assert.False(t, res.Safe)
	assert.Equal(t, "MALWARE", res.ThreatType)
}

func TestClassifyVendorErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClientWithEndpoint("api-key", srv.URL)
	_, err := c.Classify(context.Background(), "https://example.com")
	assert.Error(t, err)
}
