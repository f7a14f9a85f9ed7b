package urlcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const safeBrowsingURL = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

// Classification of a URL. Unknown threat types from the vendor map to
// their raw name.
type Classification struct {
	Safe       bool   `json:"safe"`
	ThreatType string `json:"threatType,omitempty"`
}

type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:   apiKey,
		endpoint: safeBrowsingURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// NewClientWithEndpoint exists for tests.
func NewClientWithEndpoint(apiKey, endpoint string) *Client {
	c := NewClient(apiKey)
	c.endpoint = endpoint
	return c
}

type findRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo struct {
		ThreatTypes      []string `json:"threatTypes"`
		PlatformTypes    []string `json:"platformTypes"`
		ThreatEntryTypes []string `json:"threatEntryTypes"`
		ThreatEntries    []struct {
			URL string `json:"url"`
		} `json:"threatEntries"`
	} `json:"threatInfo"`
}

type findResponse struct {
	Matches []struct {
		ThreatType string `json:"threatType"`
	} `json:"matches"`
}

// Classify asks Safe Browsing about one URL. Errors are returned so the
// caller can decide to fail open.
func (c *Client) Classify(ctx context.Context, target string) (*Classification, error) {
	var body findRequest
	body.Client.ClientID = "mobileshield"
	body.Client.ClientVersion = "1.0"
	body.ThreatInfo.ThreatTypes = []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"}
	body.ThreatInfo.PlatformTypes = []string{"ANY_PLATFORM"}
	body.ThreatInfo.ThreatEntryTypes = []string{"URL"}
	body.ThreatInfo.ThreatEntries = []struct {
		URL string `json:"url"`
	}{{URL: target}}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("safe browsing returned status %d", resp.StatusCode)
	}

	var result findResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	if len(result.Matches) == 0 {
		return &Classification{Safe: true}, nil
	}
	return &Classification{Safe: false, ThreatType: result.Matches[0].ThreatType}, nil
}
