package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mobileshield/internal/domain"
	"mobileshield/internal/infrastructure/receipt"
	"mobileshield/internal/infrastructure/security"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection keeps every session on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Device{},
		&domain.PushToken{},
		&domain.ThreatSignature{},
		&domain.ScanLog{},
		&domain.Quarantine{},
		&domain.Subscription{},
		&domain.AntiTheftCommand{},
		&domain.TelemetryLog{},
		&domain.AdminAuditLog{},
	))
	return db
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func seedUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		AuthProvider: domain.ProviderEmail,
		Role:         domain.RoleUser,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedDevice(t *testing.T, db *gorm.DB, userID uuid.UUID, deviceID string) *domain.Device {
	t.Helper()
	d := &domain.Device{
		ID:       uuid.New(),
		DeviceID: deviceID,
		UserID:   userID,
		Platform: "android",
		IsActive: true,
		LastSeen: time.Now(),
	}
	require.NoError(t, db.Create(d).Error)
	return d
}

func seedPushToken(t *testing.T, db *gorm.DB, deviceID uuid.UUID, token string) *domain.PushToken {
	t.Helper()
	pt := &domain.PushToken{
		ID:       uuid.New(),
		Token:    token,
		DeviceID: deviceID,
		Platform: "android",
		IsActive: true,
	}
	require.NoError(t, db.Create(pt).Error)
	return pt
}

func seedSignature(t *testing.T, db *gorm.DB, hash, severity string) *domain.ThreatSignature {
	t.Helper()
	s := &domain.ThreatSignature{
		ID:        uuid.New(),
		Type:      "hash",
		Signature: hash,
		Name:      "Test.Malware",
		Severity:  severity,
		Category:  "trojan",
		Version:   1,
		IsActive:  true,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

// stubPusher records sends and answers from a scripted per-token result.
type stubPusher struct {
	mu         sync.Mutex
	configured bool
	results    map[string]error // token -> send outcome
	sent       []string
}

func newStubPusher() *stubPusher {
	return &stubPusher{configured: true, results: map[string]error{}}
}

func (s *stubPusher) Configured() bool { return s.configured }

func (s *stubPusher) Send(ctx context.Context, token string, data map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, token)
	return s.results[token]
}

// stubVerdictCache is an in-memory VerdictCache; set down to simulate a
// dead redis.
type stubVerdictCache struct {
	values map[string]domain.HashVerdict
	down   bool
	puts   int
}

func newStubVerdictCache() *stubVerdictCache {
	return &stubVerdictCache{values: map[string]domain.HashVerdict{}}
}

func (s *stubVerdictCache) GetMany(ctx context.Context, hashes []string) (map[string]domain.HashVerdict, []string, error) {
	if s.down {
		return nil, hashes, errors.New("cache unavailable")
	}
	hits := map[string]domain.HashVerdict{}
	var misses []string
	for _, h := range hashes {
		if v, ok := s.values[h]; ok {
			hits[h] = v
		} else {
			misses = append(misses, h)
		}
	}
	return hits, misses, nil
}

func (s *stubVerdictCache) Put(ctx context.Context, verdict domain.HashVerdict) error {
	if s.down {
		return errors.New("cache unavailable")
	}
	s.puts++
	s.values[verdict.Hash] = verdict
	return nil
}

// stubRefreshStore is an in-memory RefreshStore.
type stubRefreshStore struct {
	tokens map[string]string
}

func newStubRefreshStore() *stubRefreshStore {
	return &stubRefreshStore{tokens: map[string]string{}}
}

func (s *stubRefreshStore) SaveRefresh(ctx context.Context, userID, refreshToken string) error {
	s.tokens[refreshToken] = userID
	return nil
}

func (s *stubRefreshStore) CheckRefresh(ctx context.Context, refreshToken string) (string, error) {
	id, ok := s.tokens[refreshToken]
	if !ok {
		return "", errors.New("not found")
	}
	return id, nil
}

func (s *stubRefreshStore) DeleteRefresh(ctx context.Context, refreshToken string) error {
	delete(s.tokens, refreshToken)
	return nil
}

// stubOAuth answers a fixed identity, or an error when rejected.
type stubOAuth struct {
	identity *security.Identity
	err      error
}

func (s *stubOAuth) Verify(ctx context.Context, provider, idToken string) (*security.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

// stubAppleVerifier / stubGoogleVerifier script receipt outcomes.
type stubAppleVerifier struct {
	result *receipt.Verification
}

func (s *stubAppleVerifier) Verify(ctx context.Context, receiptData string) (*receipt.Verification, error) {
	if s.result == nil {
		return &receipt.Verification{}, nil
	}
	return s.result, nil
}

type stubGoogleVerifier struct {
	result *receipt.Verification
}

func (s *stubGoogleVerifier) Verify(ctx context.Context, productID, purchaseToken string) (*receipt.Verification, error) {
	if s.result == nil {
		return &receipt.Verification{}, nil
	}
	return s.result, nil
}
