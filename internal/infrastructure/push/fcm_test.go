package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fcmServer(t *testing.T, result map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key=server-key", r.Header.Get("Authorization"))

		var req sendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.To)

		failure := 0
		if result["error"] != "" {
			failure = 1
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": 1 - failure,
			"failure": failure,
			"results": []map[string]string{result},
		})
	}))
}

func TestFCMSendSuccess(t *testing.T) {
	srv := fcmServer(t, map[string]string{"message_id": "m1"})
	defer srv.Close()

	c := NewFCMClientWithEndpoint("server-key", srv.URL)
	err := c.Send(context.Background(), "token-1", map[string]string{"command": "ring"})
	assert.NoError(t, err)
}

func TestFCMSendUnregisteredToken(t *testing.T) {
	srv := fcmServer(t, map[string]string{"error": "NotRegistered"})
	defer srv.Close()

	c := NewFCMClientWithEndpoint("server-key", srv.URL)
	err := c.Send(context.Background(), "token-1", map[string]string{"command": "ring"})
	assert.ErrorIs(t, err, ErrUnregistered)
}

func TestFCMSendOtherDeliveryError(t *testing.T) {
	srv := fcmServer(t, map[string]string{"error": "Unavailable"})
	defer srv.Close()

	c := NewFCMClientWithEndpoint("server-key", srv.URL)
	err := c.Send(context.Background(), "token-1", map[string]string{"command": "ring"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnregistered)
}

func TestFCMUnconfigured(t *testing.T) {
	c := NewFCMClient("")
	assert.False(t, c.Configured())
	assert.Error(t, c.Send(context.Background(), "token-1", nil))
}
