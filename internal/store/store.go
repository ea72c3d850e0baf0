// Package store provides typed access to persisted accounts, settings, and
// machine-identity bindings. The orchestration core updates token, usage, and
// binding fields; it never creates or deletes account rows (the login/import
// flows own that).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kirotools/switchboard/internal/auth"
	"github.com/kirotools/switchboard/internal/db/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when an account lookup misses.
var ErrNotFound = errors.New("account not found")

// Store wraps the database with the typed operations the orchestration
// layers need.
type Store struct {
	db *gorm.DB
}

// New creates a Store over an initialized database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for wiring and test fixtures.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// ListAccounts returns all stored accounts in insertion order.
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Order("created_at").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetAccount returns one account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var acc models.Account
	if err := s.db.WithContext(ctx).First(&acc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// UpdateTokens writes refreshed credentials for one account. Only token
// fields are touched so usage and policy fields cannot race with a refresh.
func (s *Store) UpdateTokens(ctx context.Context, id string, ts auth.TokenSet) error {
	updates := map[string]interface{}{
		"access_token": ts.AccessToken,
		"expires_at":   ts.ExpiresAt,
	}
	// Persist rotated refresh token if provided (RFC 6749 compliance)
	if ts.RefreshToken != "" {
		updates["refresh_token"] = ts.RefreshToken
	}
	return s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateUsage stores a fresh usage snapshot for one account.
func (s *Store) UpdateUsage(ctx context.Context, id string, usageJSON string) error {
	return s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).
		Update("usage_data", usageJSON).Error
}

// TouchLastUsed records the moment an account became the active identity.
func (s *Store) TouchLastUsed(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).
		Update("last_used_at", time.Now()).Error
}
