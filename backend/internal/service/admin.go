package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
	"github.com/ligaac/practica/shared/logger"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var errSuperuserOnly = &internal_errors.PermissionError{Message: "Access denied. Only for superusers"}

type AdminService interface {
	Companies(ctx context.Context, user *domain.User, q domain.AdminQuery) ([]domain.Company, error)
	Offers(ctx context.Context, user *domain.User, q domain.AdminQuery) ([]domain.Offer, error)
	Applicants(ctx context.Context, user *domain.User, q domain.AdminQuery) ([]domain.Applicant, error)
	ExportLink(ctx context.Context, user *domain.User, company domain.CompanyId) (string, error)
	CreateOffer(ctx context.Context, user *domain.User, offer domain.Offer) (domain.Offer, error)
	CreateCompany(ctx context.Context, user *domain.User, company domain.Company) (domain.Company, error)
	RenameCompany(ctx context.Context, user *domain.User, company domain.CompanyId, slug string) error
}

type AdminStorage interface {
	ListCompanies(ctx context.Context, q domain.AdminQuery) ([]domain.Company, error)
	ListOffers(ctx context.Context, q domain.AdminQuery) ([]domain.Offer, error)
	ListApplicants(ctx context.Context, q domain.AdminQuery) ([]domain.Applicant, error)
	Company(ctx context.Context, id domain.CompanyId, scope domain.Scope) (domain.Company, error)
	SaveCompany(ctx context.Context, c domain.Company) (domain.Company, error)
	SaveOffer(ctx context.Context, o domain.Offer) (domain.Offer, error)
	RenameSlug(ctx context.Context, id domain.CompanyId, slug string) error
}

type Scoper interface {
	Apply(ctx context.Context, user *domain.User, q domain.AdminQuery) (domain.AdminQuery, error)
}

type ExportLinker interface {
	Link(company *domain.Company) (string, error)
}

type TextRenderer interface {
	Markdown(src string) (string, error)
	HTML(src string) string
}

// Admin serves the staff pages. Every read and write goes through the scope filter.
type Admin struct {
	storage AdminStorage
	scope   Scoper
	export  ExportLinker
	text    TextRenderer
}

func NewAdmin(storage AdminStorage, scope Scoper, export ExportLinker, text TextRenderer) *Admin {
	return &Admin{storage: storage, scope: scope, export: export, text: text}
}

func (a *Admin) Companies(ctx context.Context, user *domain.User, q domain.AdminQuery) ([]domain.Company, error) {
	q.Target = domain.TargetCompanies
	q, err := a.scope.Apply(ctx, user, q)
	if err != nil {
		return nil, err
	}
	return a.storage.ListCompanies(ctx, q)
}

func (a *Admin) Offers(ctx context.Context, user *domain.User, q domain.AdminQuery) ([]domain.Offer, error) {
	q.Target = domain.TargetOffers
	q, err := a.scope.Apply(ctx, user, q)
	if err != nil {
		return nil, err
	}
	return a.storage.ListOffers(ctx, q)
}

func (a *Admin) Applicants(ctx context.Context, user *domain.User, q domain.AdminQuery) ([]domain.Applicant, error) {
	q.Target = domain.TargetApplicants
	q, err := a.scope.Apply(ctx, user, q)
	if err != nil {
		return nil, err
	}
	return a.storage.ListApplicants(ctx, q)
}

// scopedCompany loads id if user may see it. Companies outside the scope are a 404.
func (a *Admin) scopedCompany(ctx context.Context, user *domain.User, id domain.CompanyId) (domain.Company, error) {
	q, err := a.scope.Apply(ctx, user, domain.AdminQuery{Target: domain.TargetCompanies})
	if err != nil {
		return domain.Company{}, err
	}
	return a.storage.Company(ctx, id, q.Scope)
}

func (a *Admin) ExportLink(ctx context.Context, user *domain.User, id domain.CompanyId) (string, error) {
	company, err := a.scopedCompany(ctx, user, id)
	if err != nil {
		return "", err
	}
	link, err := a.export.Link(&company)
	if err != nil {
		return "", err
	}
	logger.Log.Info("export link issued", "company_id", company.Id, "user_id", user.Id)
	return link, nil
}

// CreateOffer adds an offer to a company inside the caller's scope. Description
// and requirements are markdown and stored rendered.
func (a *Admin) CreateOffer(ctx context.Context, user *domain.User, offer domain.Offer) (domain.Offer, error) {
	if _, err := a.scopedCompany(ctx, user, offer.CompanyId); err != nil {
		return domain.Offer{}, err
	}

	var err error
	if offer.Description, err = a.text.Markdown(offer.Description); err != nil {
		return domain.Offer{}, &internal_errors.ValidationError{Message: "description is not valid markdown"}
	}
	if offer.Requirements, err = a.text.Markdown(offer.Requirements); err != nil {
		return domain.Offer{}, &internal_errors.ValidationError{Message: "requirements are not valid markdown"}
	}
	offer.Title = strings.TrimSpace(offer.Title)

	saved, err := a.storage.SaveOffer(ctx, offer)
	if err != nil {
		return domain.Offer{}, err
	}
	logger.Log.Info("offer created", "offer_id", saved.Id, "company_id", saved.CompanyId, "user_id", user.Id)
	return saved, nil
}

func (a *Admin) CreateCompany(ctx context.Context, user *domain.User, company domain.Company) (domain.Company, error) {
	if user == nil || !user.IsSuperuser {
		return domain.Company{}, errSuperuserOnly
	}
	if !slugPattern.MatchString(company.Slug) {
		return domain.Company{}, &internal_errors.ValidationError{Message: "slug must be lowercase letters, digits and dashes"}
	}
	company.Name = strings.TrimSpace(company.Name)
	company.Description = a.text.HTML(company.Description)

	saved, err := a.storage.SaveCompany(ctx, company)
	if err != nil {
		return domain.Company{}, err
	}
	logger.Log.Info("company created", "company_id", saved.Id, "slug", saved.Slug, "user_id", user.Id)
	return saved, nil
}

// RenameCompany changes the slug, which also invalidates every export link
// issued for the company.
func (a *Admin) RenameCompany(ctx context.Context, user *domain.User, id domain.CompanyId, slug string) error {
	if !slugPattern.MatchString(slug) {
		return &internal_errors.ValidationError{Message: "slug must be lowercase letters, digits and dashes"}
	}
	if _, err := a.scopedCompany(ctx, user, id); err != nil {
		return err
	}
	if err := a.storage.RenameSlug(ctx, id, slug); err != nil {
		return err
	}
	logger.Log.Info("company renamed", "company_id", id, "slug", slug, "user_id", user.Id)
	return nil
}
