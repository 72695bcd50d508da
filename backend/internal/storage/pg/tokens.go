package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
)

// =========================================================================
// Public Methods (satisfy the service.TokenStorage interface)
// =========================================================================

func (s *Storage) SaveToken(ctx context.Context, token domain.Token) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.saveToken(ctx, s.db, token)
}

// TokenWithUser loads a token and its owner in a single query. Expiry is not checked here.
func (s *Storage) TokenWithUser(ctx context.Context, key string) (domain.TokenWithUser, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var t domain.TokenWithUser
	row := s.db.QueryRowContext(ctx, `
		SELECT t.key, t.user_id, t.created_at, t.expires_at, `+userColumns+`
		FROM tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.key = $1`, key)
	var err error
	t.User, err = scanUserAfter(row, []any{&t.Key, &t.UserId, &t.CreatedAt, &t.ExpiresAt})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TokenWithUser{}, internal_errors.NotFound("Token")
		}
		return domain.TokenWithUser{}, fmt.Errorf("failed to query token: %w", err)
	}
	return t, nil
}

// DeleteToken reports whether a row was removed.
func (s *Storage) DeleteToken(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, "DELETE FROM tokens WHERE key = $1", key)
	if err != nil {
		return false, fmt.Errorf("failed to delete token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// DeleteUserTokens removes every token of user except exceptKey and returns how many went.
func (s *Storage) DeleteUserTokens(ctx context.Context, user domain.UserId, exceptKey string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, "DELETE FROM tokens WHERE user_id = $1 AND key <> $2", user, exceptKey)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user tokens: %w", err)
	}
	return res.RowsAffected()
}

// UserTokens lists user's tokens, newest first, including expired ones not yet evicted.
func (s *Storage) UserTokens(ctx context.Context, user domain.UserId) ([]domain.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, user_id, created_at, expires_at
		FROM tokens WHERE user_id = $1
		ORDER BY created_at DESC, key`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to query user tokens: %w", err)
	}
	defer rows.Close()

	tokens := []domain.Token{}
	for rows.Next() {
		var t domain.Token
		if err := rows.Scan(&t.Key, &t.UserId, &t.CreatedAt, &t.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// =========================================================================
// Internal Methods
// =========================================================================

func (s *Storage) saveToken(ctx context.Context, q Querier, token domain.Token) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO tokens(key, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)",
		token.Key, token.UserId, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}
	return nil
}
