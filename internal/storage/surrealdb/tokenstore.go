package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/apollostem/academy/internal/common"
	"github.com/apollostem/academy/internal/interfaces"
	"github.com/apollostem/academy/internal/models"
)

// ErrTokenNotFound is returned when a user has no stored external token.
var ErrTokenNotFound = errors.New("external token not found")

// TokenStore implements interfaces.TokenStore using SurrealDB.
type TokenStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(db *surrealdb.DB, logger *common.Logger) *TokenStore {
	return &TokenStore{db: db, logger: logger}
}

// Upsert writes the token record keyed by userID. The refresh token is
// replaced only when a new non-empty one is supplied; the provider does not
// reissue one on every exchange, and dropping the stored value would orphan
// the connection.
func (s *TokenStore) Upsert(ctx context.Context, userID, accessToken, refreshToken string, expiresInSeconds int, scope string) error {
	record := models.ExternalToken{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(expiresInSeconds) * time.Second),
		Scope:        scope,
		UpdatedAt:    time.Now(),
	}

	if refreshToken == "" {
		if existing, err := s.Get(ctx, userID); err == nil {
			record.RefreshToken = existing.RefreshToken
		}
	}

	sql := "UPSERT type::record('external_token', $id) CONTENT $token"
	vars := map[string]any{"id": userID, "token": record}
	if _, err := surrealdb.Query[[]models.ExternalToken](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to save external token: %w", err)
	}
	return nil
}

func (s *TokenStore) Get(ctx context.Context, userID string) (*models.ExternalToken, error) {
	token, err := surrealdb.Select[models.ExternalToken](ctx, s.db, surrealmodels.NewRecordID("external_token", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to select external token: %w", err)
	}
	if token == nil || token.UserID == "" {
		return nil, ErrTokenNotFound
	}
	return token, nil
}

// HasConnection reports record existence only. Freshness is the caller's
// responsibility to check before use.
func (s *TokenStore) HasConnection(ctx context.Context, userID string) (bool, error) {
	_, err := s.Get(ctx, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrTokenNotFound) {
		return false, nil
	}
	return false, err
}

func (s *TokenStore) Delete(ctx context.Context, userID string) error {
	_, err := surrealdb.Delete[models.ExternalToken](ctx, s.db, surrealmodels.NewRecordID("external_token", userID))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete external token: %w", err)
	}
	return nil
}

// Compile-time check
var _ interfaces.TokenStore = (*TokenStore)(nil)
