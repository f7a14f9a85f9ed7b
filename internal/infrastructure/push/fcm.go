package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnregistered means the provider no longer knows the token; the caller
// should deactivate it.
var ErrUnregistered = errors.New("push token unregistered")

const fcmSendURL = "https://fcm.googleapis.com/fcm/send"

// FCMClient delivers data messages through Firebase Cloud Messaging.
type FCMClient struct {
	serverKey string
	endpoint  string
	client    *http.Client
}

func NewFCMClient(serverKey string) *FCMClient {
	return &FCMClient{
		serverKey: serverKey,
		endpoint:  fcmSendURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewFCMClientWithEndpoint exists for tests pointing at a local server.
func NewFCMClientWithEndpoint(serverKey, endpoint string) *FCMClient {
	c := NewFCMClient(serverKey)
	c.endpoint = endpoint
	return c
}

// Configured reports whether a server key is present. An unconfigured
// client makes every send fail without a network call.
func (c *FCMClient) Configured() bool {
	return c.serverKey != ""
}

type sendRequest struct {
	To       string            `json:"to"`
	Priority string            `json:"priority"`
	Data     map[string]string `json:"data"`
}

type sendResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// Send pushes one data message to one token.
func (c *FCMClient) Send(ctx context.Context, token string, data map[string]string) error {
	if !c.Configured() {
		return errors.New("fcm server key not configured")
	}

	payload, err := json.Marshal(sendRequest{To: token, Priority: "high", Data: data})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fcm returned status %d", resp.StatusCode)
	}

	var body sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}

	if body.Failure > 0 && len(body.Results) > 0 {
		switch body.Results[0].Error {
		case "NotRegistered", "InvalidRegistration", "MismatchSenderId":
			return ErrUnregistered
		default:
			return fmt.Errorf("fcm delivery failed: %s", body.Results[0].Error)
		}
	}
	return nil
}
