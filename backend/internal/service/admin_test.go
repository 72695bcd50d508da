package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ligaac/practica/backend/internal/utils/richtext"
	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLinker struct{ link string }

func (s stubLinker) Link(company *domain.Company) (string, error) {
	return s.link + company.Id.String(), nil
}

var (
	superuser = &domain.User{Id: 1, IsSuperuser: true, IsStaff: true}
	hrStaff   = &domain.User{Id: 2, IsStaff: true}
	student   = &domain.User{Id: 3}
)

func newTestAdmin(storage *MockAdminStorage) *Admin {
	groups := groupsOf(map[domain.UserId][]domain.GroupId{2: {10}})
	return NewAdmin(storage, NewScopeFilter(groups), stubLinker{link: "https://x/export/"}, richtext.New())
}

func TestAdminListingsAreScoped(t *testing.T) {
	var seen []domain.AdminQuery
	storage := &MockAdminStorage{
		ListCompaniesFunc: func(ctx context.Context, q domain.AdminQuery) ([]domain.Company, error) {
			seen = append(seen, q)
			return nil, nil
		},
		ListOffersFunc: func(ctx context.Context, q domain.AdminQuery) ([]domain.Offer, error) {
			seen = append(seen, q)
			return nil, nil
		},
		ListApplicantsFunc: func(ctx context.Context, q domain.AdminQuery) ([]domain.Applicant, error) {
			seen = append(seen, q)
			return nil, nil
		},
	}
	a := newTestAdmin(storage)
	ctx := context.Background()

	_, err := a.Companies(ctx, hrStaff, domain.AdminQuery{Search: "acme"})
	require.NoError(t, err)
	_, err = a.Offers(ctx, hrStaff, domain.AdminQuery{})
	require.NoError(t, err)
	_, err = a.Applicants(ctx, hrStaff, domain.AdminQuery{})
	require.NoError(t, err)

	require.Len(t, seen, 3)
	assert.Equal(t, domain.TargetCompanies, seen[0].Target)
	assert.Equal(t, "acme", seen[0].Search)
	assert.Equal(t, domain.TargetOffers, seen[1].Target)
	assert.Equal(t, domain.TargetApplicants, seen[2].Target)
	for _, q := range seen {
		assert.Equal(t, []domain.GroupId{10}, q.Scope.Groups())
	}

	seen = nil
	_, err = a.Applicants(ctx, superuser, domain.AdminQuery{})
	require.NoError(t, err)
	assert.False(t, seen[0].Scope.Restricted())

	_, err = a.Companies(ctx, student, domain.AdminQuery{})
	assert.ErrorIs(t, err, internal_errors.ErrInsufficientRole)
}

func TestAdminExportLink(t *testing.T) {
	inScope := domain.Company{Id: uuid.New(), Slug: "acme", GroupId: ptrGroup(10)}
	storage := &MockAdminStorage{CompanyFunc: func(ctx context.Context, id domain.CompanyId, scope domain.Scope) (domain.Company, error) {
		if id == inScope.Id && scope.Allows(inScope.GroupId) {
			return inScope, nil
		}
		return domain.Company{}, internal_errors.NotFound("Company")
	}}
	a := newTestAdmin(storage)

	link, err := a.ExportLink(context.Background(), hrStaff, inScope.Id)
	require.NoError(t, err)
	assert.Equal(t, "https://x/export/"+inScope.Id.String(), link)

	_, err = a.ExportLink(context.Background(), hrStaff, uuid.New())
	assert.True(t, internal_errors.IsNotFound(err))

	_, err = a.ExportLink(context.Background(), student, inScope.Id)
	assert.ErrorIs(t, err, internal_errors.ErrInsufficientRole)
}

func ptrGroup(g domain.GroupId) *domain.GroupId { return &g }

func TestAdminCreateOffer(t *testing.T) {
	mine := domain.Company{Id: uuid.New(), GroupId: ptrGroup(10)}
	foreign := domain.Company{Id: uuid.New(), GroupId: ptrGroup(20)}
	var saved domain.Offer
	storage := &MockAdminStorage{
		CompanyFunc: func(ctx context.Context, id domain.CompanyId, scope domain.Scope) (domain.Company, error) {
			for _, c := range []domain.Company{mine, foreign} {
				if c.Id == id && scope.Allows(c.GroupId) {
					return c, nil
				}
			}
			return domain.Company{}, internal_errors.NotFound("Company")
		},
		SaveOfferFunc: func(ctx context.Context, o domain.Offer) (domain.Offer, error) {
			saved = o
			o.Id = uuid.New()
			return o, nil
		},
	}
	a := newTestAdmin(storage)

	offer, err := a.CreateOffer(context.Background(), hrStaff, domain.Offer{
		CompanyId:    mine.Id,
		Title:        "  Go intern ",
		Description:  "**paid** <script>x()</script>",
		Requirements: "- SQL",
		Capacity:     2,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, offer.Id)
	assert.Equal(t, "Go intern", saved.Title)
	assert.Contains(t, saved.Description, "<strong>paid</strong>")
	assert.NotContains(t, saved.Description, "script")
	assert.Contains(t, saved.Requirements, "<li>SQL</li>")

	_, err = a.CreateOffer(context.Background(), hrStaff, domain.Offer{CompanyId: foreign.Id, Title: "x"})
	assert.True(t, internal_errors.IsNotFound(err))
}

func TestAdminCreateCompany(t *testing.T) {
	a := newTestAdmin(&MockAdminStorage{})

	c, err := a.CreateCompany(context.Background(), superuser, domain.Company{Name: " Acme ", Slug: "acme-srl", Description: `<b>Hi</b><img src=x onerror="y()">`})
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.Name)
	assert.NotContains(t, c.Description, "onerror")
	assert.Contains(t, c.Description, "<b>Hi</b>")

	_, err = a.CreateCompany(context.Background(), hrStaff, domain.Company{Name: "Acme", Slug: "acme"})
	assert.True(t, internal_errors.Is[*internal_errors.PermissionError](err))

	_, err = a.CreateCompany(context.Background(), superuser, domain.Company{Name: "Acme", Slug: "Bad Slug"})
	assert.True(t, internal_errors.Is[*internal_errors.ValidationError](err))
}

func TestAdminRenameCompany(t *testing.T) {
	mine := domain.Company{Id: uuid.New(), GroupId: ptrGroup(10)}
	var renamed string
	storage := &MockAdminStorage{
		CompanyFunc: func(ctx context.Context, id domain.CompanyId, scope domain.Scope) (domain.Company, error) {
			if id == mine.Id && scope.Allows(mine.GroupId) {
				return mine, nil
			}
			return domain.Company{}, internal_errors.NotFound("Company")
		},
		RenameSlugFunc: func(ctx context.Context, id domain.CompanyId, slug string) error {
			renamed = slug
			return nil
		},
	}
	a := newTestAdmin(storage)

	require.NoError(t, a.RenameCompany(context.Background(), hrStaff, mine.Id, "acme-2"))
	assert.Equal(t, "acme-2", renamed)

	err := a.RenameCompany(context.Background(), hrStaff, mine.Id, "-bad")
	assert.True(t, internal_errors.Is[*internal_errors.ValidationError](err))

	err = a.RenameCompany(context.Background(), hrStaff, uuid.New(), "ok")
	assert.True(t, internal_errors.IsNotFound(err))
}
