package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"mobileshield/internal/domain"
)

const verdictTTL = time.Hour

// ThreatCache keeps hash reputation verdicts, including negative
// ("not a threat") ones, in front of the signature store.
type ThreatCache struct {
	client *redis.Client
}

func NewThreatCache(client *redis.Client) *ThreatCache {
	return &ThreatCache{client: client}
}

// GetMany returns the cached verdicts for hashes and the list of misses.
// Any redis error makes every hash a miss so the caller falls back to the store.
func (c *ThreatCache) GetMany(ctx context.Context, hashes []string) (map[string]domain.HashVerdict, []string, error) {
	keys := make([]string, len(hashes))
	for i, h := range hashes {
		keys[i] = "hash_verdict:" + h
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, hashes, err
	}

	hits := make(map[string]domain.HashVerdict, len(hashes))
	var misses []string
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			misses = append(misses, hashes[i])
			continue
		}
		var verdict domain.HashVerdict
		if err := json.Unmarshal([]byte(s), &verdict); err != nil {
			misses = append(misses, hashes[i])
			continue
		}
		hits[hashes[i]] = verdict
	}
	return hits, misses, nil
}

func (c *ThreatCache) Put(ctx context.Context, verdict domain.HashVerdict) error {
	raw, err := json.Marshal(verdict)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "hash_verdict:"+verdict.Hash, raw, verdictTTL).Err()
}
