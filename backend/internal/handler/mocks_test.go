package handler

import (
	"context"
	"io"

	"github.com/ligaac/practica/backend/internal/service"
	"github.com/ligaac/practica/shared/domain"
	"github.com/ligaac/practica/shared/validation"
)

type MockAuthService struct {
	LoginFunc      func(ctx context.Context, email, password string) (domain.User, domain.Token, error)
	StaffLoginFunc func(ctx context.Context, email, password string) (domain.User, domain.Token, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (domain.User, domain.Token, error) {
	return m.LoginFunc(ctx, email, password)
}

func (m *MockAuthService) StaffLogin(ctx context.Context, email, password string) (domain.User, domain.Token, error) {
	return m.StaffLoginFunc(ctx, email, password)
}

type MockTokenService struct {
	LogoutFunc     func(ctx context.Context, caller *domain.User, currentKey, target string, all bool) (bool, error)
	UserTokensFunc func(ctx context.Context, user domain.UserId) ([]domain.Token, error)
}

func (m *MockTokenService) Issue(ctx context.Context, user domain.UserId) (domain.Token, error) {
	panic("not used by handlers")
}

func (m *MockTokenService) Validate(ctx context.Context, key string) (domain.User, error) {
	panic("not used by handlers")
}

func (m *MockTokenService) Revoke(ctx context.Context, caller domain.UserId, key string) (bool, error) {
	panic("not used by handlers")
}

func (m *MockTokenService) RevokeAll(ctx context.Context, user domain.UserId, exceptKey string) (int64, error) {
	panic("not used by handlers")
}

func (m *MockTokenService) Logout(ctx context.Context, caller *domain.User, currentKey, target string, all bool) (bool, error) {
	return m.LogoutFunc(ctx, caller, currentKey, target, all)
}

func (m *MockTokenService) UserTokens(ctx context.Context, user domain.UserId) ([]domain.Token, error) {
	return m.UserTokensFunc(ctx, user)
}

type MockStudentService struct {
	MeFunc             func(ctx context.Context, user *domain.User) (domain.Me, error)
	UpdateContactsFunc func(ctx context.Context, user *domain.User, phone, github, linkedin *string) (domain.StudentProfile, error)
	UploadCVFunc       func(ctx context.Context, user *domain.User, doc *validation.PendingDocument) (domain.StudentProfile, error)
	ApplyFunc          func(ctx context.Context, user *domain.User, offer domain.OfferId) error
	WithdrawFunc       func(ctx context.Context, user *domain.User, offer domain.OfferId) error
	OpenCVFunc         func(ctx context.Context, profile domain.ProfileId, basename string) (io.ReadCloser, string, error)
}

func (m *MockStudentService) Me(ctx context.Context, user *domain.User) (domain.Me, error) {
	return m.MeFunc(ctx, user)
}

func (m *MockStudentService) UpdateContacts(ctx context.Context, user *domain.User, phone, github, linkedin *string) (domain.StudentProfile, error) {
	return m.UpdateContactsFunc(ctx, user, phone, github, linkedin)
}

func (m *MockStudentService) UploadCV(ctx context.Context, user *domain.User, doc *validation.PendingDocument) (domain.StudentProfile, error) {
	return m.UploadCVFunc(ctx, user, doc)
}

func (m *MockStudentService) Apply(ctx context.Context, user *domain.User, offer domain.OfferId) error {
	return m.ApplyFunc(ctx, user, offer)
}

func (m *MockStudentService) Withdraw(ctx context.Context, user *domain.User, offer domain.OfferId) error {
	return m.WithdrawFunc(ctx, user, offer)
}

func (m *MockStudentService) OpenCV(ctx context.Context, profile domain.ProfileId, basename string) (io.ReadCloser, string, error) {
	return m.OpenCVFunc(ctx, profile, basename)
}

type MockCatalogueService struct {
	CompaniesFunc func(ctx context.Context, withInternships bool) ([]domain.Company, error)
	CompanyFunc   func(ctx context.Context, slug string) (domain.CompanyWithOffers, error)
}

func (m *MockCatalogueService) Companies(ctx context.Context, withInternships bool) ([]domain.Company, error) {
	return m.CompaniesFunc(ctx, withInternships)
}

func (m *MockCatalogueService) Company(ctx context.Context, slug string) (domain.CompanyWithOffers, error) {
	return m.CompanyFunc(ctx, slug)
}

type MockAdminService struct {
	CompaniesFunc     func(ctx context.Context, user *domain.User, q domain.AdminQuery) ([]domain.Company, error)
	OffersFunc        func(ctx context.Context, user *domain.User, q domain.AdminQuery) ([]domain.Offer, error)
	ApplicantsFunc    func(ctx context.Context, user *domain.User, q domain.AdminQuery) ([]domain.Applicant, error)
	ExportLinkFunc    func(ctx context.Context, user *domain.User, company domain.CompanyId) (string, error)
	CreateOfferFunc   func(ctx context.Context, user *domain.User, offer domain.Offer) (domain.Offer, error)
	CreateCompanyFunc func(ctx context.Context, user *domain.User, company domain.Company) (domain.Company, error)
	RenameCompanyFunc func(ctx context.Context, user *domain.User, company domain.CompanyId, slug string) error
}

func (m *MockAdminService) Companies(ctx context.Context, user *domain.User, q domain.AdminQuery) ([]domain.Company, error) {
	return m.CompaniesFunc(ctx, user, q)
}

func (m *MockAdminService) Offers(ctx context.Context, user *domain.User, q domain.AdminQuery) ([]domain.Offer, error) {
	return m.OffersFunc(ctx, user, q)
}

func (m *MockAdminService) Applicants(ctx context.Context, user *domain.User, q domain.AdminQuery) ([]domain.Applicant, error) {
	return m.ApplicantsFunc(ctx, user, q)
}

func (m *MockAdminService) ExportLink(ctx context.Context, user *domain.User, company domain.CompanyId) (string, error) {
	return m.ExportLinkFunc(ctx, user, company)
}

func (m *MockAdminService) CreateOffer(ctx context.Context, user *domain.User, offer domain.Offer) (domain.Offer, error) {
	return m.CreateOfferFunc(ctx, user, offer)
}

func (m *MockAdminService) CreateCompany(ctx context.Context, user *domain.User, company domain.Company) (domain.Company, error) {
	return m.CreateCompanyFunc(ctx, user, company)
}

func (m *MockAdminService) RenameCompany(ctx context.Context, user *domain.User, company domain.CompanyId, slug string) error {
	return m.RenameCompanyFunc(ctx, user, company, slug)
}

type MockExportService struct {
	PrepareFunc func(ctx context.Context, companyID domain.CompanyId, token string) (*service.Bundle, error)
}

func (m *MockExportService) Prepare(ctx context.Context, companyID domain.CompanyId, token string) (*service.Bundle, error) {
	return m.PrepareFunc(ctx, companyID, token)
}

func (m *MockExportService) Link(company *domain.Company) (string, error) {
	panic("not used by handlers")
}

var (
	_ service.AuthService      = (*MockAuthService)(nil)
	_ service.TokenService     = (*MockTokenService)(nil)
	_ service.StudentService   = (*MockStudentService)(nil)
	_ service.CatalogueService = (*MockCatalogueService)(nil)
	_ service.AdminService     = (*MockAdminService)(nil)
	_ service.ExportService    = (*MockExportService)(nil)
)
