package service

import (
	"context"
	"time"

	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
	"github.com/ligaac/practica/shared/logger"
	"github.com/ligaac/practica/shared/utils"
)

// tokenBytes gives 160 bits of entropy, 40 hex characters.
const tokenBytes = 20

type TokenService interface {
	Issue(ctx context.Context, user domain.UserId) (domain.Token, error)
	Validate(ctx context.Context, key string) (domain.User, error)
	Revoke(ctx context.Context, caller domain.UserId, key string) (bool, error)
	RevokeAll(ctx context.Context, user domain.UserId, exceptKey string) (int64, error)
	Logout(ctx context.Context, caller *domain.User, currentKey, target string, all bool) (bool, error)
	UserTokens(ctx context.Context, user domain.UserId) ([]domain.Token, error)
}

type TokenStorage interface {
	SaveToken(ctx context.Context, token domain.Token) error
	TokenWithUser(ctx context.Context, key string) (domain.TokenWithUser, error)
	DeleteToken(ctx context.Context, key string) (bool, error)
	DeleteUserTokens(ctx context.Context, user domain.UserId, exceptKey string) (int64, error)
	UserTokens(ctx context.Context, user domain.UserId) ([]domain.Token, error)
}

type Tokens struct {
	storage TokenStorage
	ttl     time.Duration
	now     func() time.Time
}

func NewTokens(storage TokenStorage, ttl time.Duration) *Tokens {
	return &Tokens{storage: storage, ttl: ttl, now: time.Now}
}

// NewToken builds an unsaved token for user. Used where the token must be
// persisted inside a larger transaction.
func (t *Tokens) NewToken(user domain.UserId) (domain.Token, error) {
	key, err := utils.RandomHex(tokenBytes)
	if err != nil {
		return domain.Token{}, err
	}
	now := t.now().UTC()
	return domain.Token{Key: key, UserId: user, CreatedAt: now, ExpiresAt: now.Add(t.ttl)}, nil
}

func (t *Tokens) Issue(ctx context.Context, user domain.UserId) (domain.Token, error) {
	token, err := t.NewToken(user)
	if err != nil {
		return domain.Token{}, err
	}
	if err := t.storage.SaveToken(ctx, token); err != nil {
		return domain.Token{}, err
	}
	return token, nil
}

// lookup returns the live token for key. Expired tokens are deleted on sight and
// reported as TokenExpired; unknown keys as TokenNotFound.
func (t *Tokens) lookup(ctx context.Context, key string) (domain.TokenWithUser, error) {
	if key == "" {
		return domain.TokenWithUser{}, &internal_errors.TokenError{Kind: internal_errors.TokenNotFound}
	}
	tw, err := t.storage.TokenWithUser(ctx, key)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return domain.TokenWithUser{}, &internal_errors.TokenError{Kind: internal_errors.TokenNotFound}
		}
		return domain.TokenWithUser{}, err
	}
	if !tw.ValidAt(t.now()) {
		if _, err := t.storage.DeleteToken(ctx, key); err != nil {
			logger.Log.Error("failed to delete expired token", "token", logger.RedactToken(key), "error", err)
		}
		return domain.TokenWithUser{}, &internal_errors.TokenError{Kind: internal_errors.TokenExpired}
	}
	return tw, nil
}

func (t *Tokens) Validate(ctx context.Context, key string) (domain.User, error) {
	tw, err := t.lookup(ctx, key)
	if err != nil {
		return domain.User{}, err
	}
	return tw.User, nil
}

// Revoke deletes key on behalf of caller. Unknown or expired keys are a no-op
// returning false; a key owned by someone else is TokenOwnershipViolation,
// whether or not it has expired.
func (t *Tokens) Revoke(ctx context.Context, caller domain.UserId, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	tw, err := t.storage.TokenWithUser(ctx, key)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if tw.UserId != caller {
		logger.Log.Warn("attempt to delete a token owned by another user",
			"user_id", caller,
			"token_owner_id", tw.UserId,
			"token", logger.RedactToken(key),
			"expired", !tw.ValidAt(t.now()))
		return false, &internal_errors.TokenError{Kind: internal_errors.TokenOwnershipViolation}
	}
	if !tw.ValidAt(t.now()) {
		if _, err := t.storage.DeleteToken(ctx, key); err != nil {
			return false, err
		}
		return false, nil
	}
	return t.storage.DeleteToken(ctx, key)
}

func (t *Tokens) RevokeAll(ctx context.Context, user domain.UserId, exceptKey string) (int64, error) {
	n, err := t.storage.DeleteUserTokens(ctx, user, exceptKey)
	if err != nil {
		return 0, err
	}
	logger.Log.Info("revoked user tokens", "user_id", user, "count", n)
	return n, nil
}

// Logout deletes target (defaults to currentKey) or, with all, every token of
// caller except currentKey. It reports whether the targeted tokens are gone.
// Anonymous callers are already logged out.
func (t *Tokens) Logout(ctx context.Context, caller *domain.User, currentKey, target string, all bool) (bool, error) {
	if all && target != "" {
		return false, &internal_errors.ValidationError{Message: "token and all are mutually exclusive"}
	}
	if caller == nil {
		return true, nil
	}

	if all {
		if _, err := t.RevokeAll(ctx, caller.Id, currentKey); err != nil {
			return false, err
		}
		return true, nil
	}

	if target == "" {
		target = currentKey
	}
	return t.Revoke(ctx, caller.Id, target)
}

func (t *Tokens) UserTokens(ctx context.Context, user domain.UserId) ([]domain.Token, error) {
	tokens, err := t.storage.UserTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	now := t.now()
	live := tokens[:0]
	for _, tok := range tokens {
		if tok.ValidAt(now) {
			live = append(live, tok)
		}
	}
	return live, nil
}
