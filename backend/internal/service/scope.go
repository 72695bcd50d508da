package service

import (
	"context"

	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
)

type GroupStorage interface {
	GroupsOf(ctx context.Context, user domain.UserId) ([]domain.GroupId, error)
}

// ScopeFilter narrows admin queries to what the acting user may see.
type ScopeFilter struct {
	storage GroupStorage
}

func NewScopeFilter(storage GroupStorage) *ScopeFilter {
	return &ScopeFilter{storage: storage}
}

// Apply returns q unchanged for superusers and restricted to the user's groups
// for staff. Anyone else gets ErrInsufficientRole. Applying it twice for the same
// user yields the same query.
func (f *ScopeFilter) Apply(ctx context.Context, user *domain.User, q domain.AdminQuery) (domain.AdminQuery, error) {
	if user == nil || !user.HasAdminAccess() {
		return domain.AdminQuery{}, internal_errors.ErrInsufficientRole
	}
	if user.IsSuperuser {
		return q, nil
	}
	groups, err := f.storage.GroupsOf(ctx, user.Id)
	if err != nil {
		return domain.AdminQuery{}, err
	}
	q.Scope = q.Scope.Intersect(groups)
	return q, nil
}
