package service

import (
	"bytes"
	"context"
	"io"
	iofs "io/fs"
	"time"

	"github.com/ligaac/practica/backend/internal/utils/identity"
	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
)

// --- Token storage ---

type MockTokenStorage struct {
	SaveTokenFunc        func(ctx context.Context, token domain.Token) error
	TokenWithUserFunc    func(ctx context.Context, key string) (domain.TokenWithUser, error)
	DeleteTokenFunc      func(ctx context.Context, key string) (bool, error)
	DeleteUserTokensFunc func(ctx context.Context, user domain.UserId, exceptKey string) (int64, error)
	UserTokensFunc       func(ctx context.Context, user domain.UserId) ([]domain.Token, error)
}

func (m *MockTokenStorage) SaveToken(ctx context.Context, token domain.Token) error {
	if m.SaveTokenFunc != nil {
		return m.SaveTokenFunc(ctx, token)
	}
	return nil
}

func (m *MockTokenStorage) TokenWithUser(ctx context.Context, key string) (domain.TokenWithUser, error) {
	if m.TokenWithUserFunc != nil {
		return m.TokenWithUserFunc(ctx, key)
	}
	return domain.TokenWithUser{}, internal_errors.NotFound("Token")
}

func (m *MockTokenStorage) DeleteToken(ctx context.Context, key string) (bool, error) {
	if m.DeleteTokenFunc != nil {
		return m.DeleteTokenFunc(ctx, key)
	}
	return true, nil
}

func (m *MockTokenStorage) DeleteUserTokens(ctx context.Context, user domain.UserId, exceptKey string) (int64, error) {
	if m.DeleteUserTokensFunc != nil {
		return m.DeleteUserTokensFunc(ctx, user, exceptKey)
	}
	return 0, nil
}

func (m *MockTokenStorage) UserTokens(ctx context.Context, user domain.UserId) ([]domain.Token, error) {
	if m.UserTokensFunc != nil {
		return m.UserTokensFunc(ctx, user)
	}
	return nil, nil
}

// --- Auth storage ---

type MockAuthStorage struct {
	UserByRegFunc              func(ctx context.Context, reg string) (domain.User, error)
	UserByEmailFunc            func(ctx context.Context, email domain.Email) (domain.User, error)
	CohortByProgramFunc        func(ctx context.Context, program string, studyYear int) (domain.Cohort, error)
	CreateStudentWithTokenFunc func(ctx context.Context, user domain.User, profile domain.StudentProfile, token domain.Token) (domain.User, domain.StudentProfile, domain.Token, error)
}

func (m *MockAuthStorage) UserByReg(ctx context.Context, reg string) (domain.User, error) {
	if m.UserByRegFunc != nil {
		return m.UserByRegFunc(ctx, reg)
	}
	return domain.User{}, internal_errors.NotFound("User")
}

func (m *MockAuthStorage) UserByEmail(ctx context.Context, email domain.Email) (domain.User, error) {
	if m.UserByEmailFunc != nil {
		return m.UserByEmailFunc(ctx, email)
	}
	return domain.User{}, internal_errors.NotFound("User")
}

func (m *MockAuthStorage) CohortByProgram(ctx context.Context, program string, studyYear int) (domain.Cohort, error) {
	if m.CohortByProgramFunc != nil {
		return m.CohortByProgramFunc(ctx, program, studyYear)
	}
	return domain.Cohort{}, internal_errors.NotFound("Cohort")
}

func (m *MockAuthStorage) CreateStudentWithToken(ctx context.Context, user domain.User, profile domain.StudentProfile, token domain.Token) (domain.User, domain.StudentProfile, domain.Token, error) {
	if m.CreateStudentWithTokenFunc != nil {
		return m.CreateStudentWithTokenFunc(ctx, user, profile, token)
	}
	user.Id = 1
	profile.UserId = 1
	token.UserId = 1
	return user, profile, token, nil
}

type MockIdentity struct {
	AuthenticateFunc func(ctx context.Context, email, password string) (*identity.Profile, error)
}

func (m *MockIdentity) Authenticate(ctx context.Context, email, password string) (*identity.Profile, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, email, password)
	}
	return &identity.Profile{RegistrationNumber: "100", FirstName: "Ana", LastName: "Pop", Email: email, Program: "CTI", StudyYear: 3}, nil
}

// --- Groups ---

type MockGroupStorage struct {
	GroupsOfFunc func(ctx context.Context, user domain.UserId) ([]domain.GroupId, error)
	calls        int
}

func (m *MockGroupStorage) GroupsOf(ctx context.Context, user domain.UserId) ([]domain.GroupId, error) {
	m.calls++
	if m.GroupsOfFunc != nil {
		return m.GroupsOfFunc(ctx, user)
	}
	return nil, nil
}

// --- Companies, offers, applicants ---

type MockAdminStorage struct {
	ListCompaniesFunc    func(ctx context.Context, q domain.AdminQuery) ([]domain.Company, error)
	ListOffersFunc       func(ctx context.Context, q domain.AdminQuery) ([]domain.Offer, error)
	ListApplicantsFunc   func(ctx context.Context, q domain.AdminQuery) ([]domain.Applicant, error)
	CompanyFunc          func(ctx context.Context, id domain.CompanyId, scope domain.Scope) (domain.Company, error)
	SaveCompanyFunc      func(ctx context.Context, c domain.Company) (domain.Company, error)
	SaveOfferFunc        func(ctx context.Context, o domain.Offer) (domain.Offer, error)
	RenameSlugFunc       func(ctx context.Context, id domain.CompanyId, slug string) error
	VisibleCompaniesFunc func(ctx context.Context, withInternships bool) ([]domain.Company, error)
	VisibleCompanyFunc   func(ctx context.Context, slug string) (domain.CompanyWithOffers, error)
}

func (m *MockAdminStorage) ListCompanies(ctx context.Context, q domain.AdminQuery) ([]domain.Company, error) {
	if m.ListCompaniesFunc != nil {
		return m.ListCompaniesFunc(ctx, q)
	}
	return nil, nil
}

func (m *MockAdminStorage) ListOffers(ctx context.Context, q domain.AdminQuery) ([]domain.Offer, error) {
	if m.ListOffersFunc != nil {
		return m.ListOffersFunc(ctx, q)
	}
	return nil, nil
}

func (m *MockAdminStorage) ListApplicants(ctx context.Context, q domain.AdminQuery) ([]domain.Applicant, error) {
	if m.ListApplicantsFunc != nil {
		return m.ListApplicantsFunc(ctx, q)
	}
	return nil, nil
}

func (m *MockAdminStorage) Company(ctx context.Context, id domain.CompanyId, scope domain.Scope) (domain.Company, error) {
	if m.CompanyFunc != nil {
		return m.CompanyFunc(ctx, id, scope)
	}
	return domain.Company{}, internal_errors.NotFound("Company")
}

func (m *MockAdminStorage) SaveCompany(ctx context.Context, c domain.Company) (domain.Company, error) {
	if m.SaveCompanyFunc != nil {
		return m.SaveCompanyFunc(ctx, c)
	}
	return c, nil
}

func (m *MockAdminStorage) SaveOffer(ctx context.Context, o domain.Offer) (domain.Offer, error) {
	if m.SaveOfferFunc != nil {
		return m.SaveOfferFunc(ctx, o)
	}
	return o, nil
}

func (m *MockAdminStorage) RenameSlug(ctx context.Context, id domain.CompanyId, slug string) error {
	if m.RenameSlugFunc != nil {
		return m.RenameSlugFunc(ctx, id, slug)
	}
	return nil
}

func (m *MockAdminStorage) VisibleCompanies(ctx context.Context, withInternships bool) ([]domain.Company, error) {
	if m.VisibleCompaniesFunc != nil {
		return m.VisibleCompaniesFunc(ctx, withInternships)
	}
	return nil, nil
}

func (m *MockAdminStorage) VisibleCompany(ctx context.Context, slug string) (domain.CompanyWithOffers, error) {
	if m.VisibleCompanyFunc != nil {
		return m.VisibleCompanyFunc(ctx, slug)
	}
	return domain.CompanyWithOffers{}, internal_errors.NotFound("Company")
}

// --- Students ---

type MockStudentStorage struct {
	ProfileByUserFunc   func(ctx context.Context, user domain.UserId) (domain.StudentProfile, error)
	ProfileWithUserFunc func(ctx context.Context, id domain.ProfileId) (domain.StudentProfile, domain.User, error)
	CohortByIdFunc      func(ctx context.Context, id domain.CohortId) (domain.Cohort, error)
	UpdateContactsFunc  func(ctx context.Context, id domain.ProfileId, phone, github, linkedin *string) (domain.StudentProfile, error)
	SetCVFunc           func(ctx context.Context, id domain.ProfileId, path string) (*string, error)
	ApplyFunc           func(ctx context.Context, profile domain.ProfileId, offer domain.OfferId) error
	WithdrawFunc        func(ctx context.Context, profile domain.ProfileId, offer domain.OfferId) error
	ApplicationsOfFunc  func(ctx context.Context, profile domain.ProfileId, scope domain.Scope) ([]domain.Offer, error)
}

func (m *MockStudentStorage) ProfileByUser(ctx context.Context, user domain.UserId) (domain.StudentProfile, error) {
	if m.ProfileByUserFunc != nil {
		return m.ProfileByUserFunc(ctx, user)
	}
	return domain.StudentProfile{}, internal_errors.NotFound("Profile")
}

func (m *MockStudentStorage) ProfileWithUser(ctx context.Context, id domain.ProfileId) (domain.StudentProfile, domain.User, error) {
	if m.ProfileWithUserFunc != nil {
		return m.ProfileWithUserFunc(ctx, id)
	}
	return domain.StudentProfile{}, domain.User{}, internal_errors.NotFound("Profile")
}

func (m *MockStudentStorage) CohortById(ctx context.Context, id domain.CohortId) (domain.Cohort, error) {
	if m.CohortByIdFunc != nil {
		return m.CohortByIdFunc(ctx, id)
	}
	return domain.Cohort{Id: id, StudyYear: 3, Name: "CTI"}, nil
}

func (m *MockStudentStorage) UpdateContacts(ctx context.Context, id domain.ProfileId, phone, github, linkedin *string) (domain.StudentProfile, error) {
	if m.UpdateContactsFunc != nil {
		return m.UpdateContactsFunc(ctx, id, phone, github, linkedin)
	}
	return domain.StudentProfile{Id: id, Phone: phone, Github: github, Linkedin: linkedin}, nil
}

func (m *MockStudentStorage) SetCV(ctx context.Context, id domain.ProfileId, path string) (*string, error) {
	if m.SetCVFunc != nil {
		return m.SetCVFunc(ctx, id, path)
	}
	return nil, nil
}

func (m *MockStudentStorage) Apply(ctx context.Context, profile domain.ProfileId, offer domain.OfferId) error {
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, profile, offer)
	}
	return nil
}

func (m *MockStudentStorage) Withdraw(ctx context.Context, profile domain.ProfileId, offer domain.OfferId) error {
	if m.WithdrawFunc != nil {
		return m.WithdrawFunc(ctx, profile, offer)
	}
	return nil
}

func (m *MockStudentStorage) ApplicationsOf(ctx context.Context, profile domain.ProfileId, scope domain.Scope) ([]domain.Offer, error) {
	if m.ApplicationsOfFunc != nil {
		return m.ApplicationsOfFunc(ctx, profile, scope)
	}
	return []domain.Offer{}, nil
}

// --- Documents ---

type fakeFileInfo struct {
	name    string
	size    int64
	modTime time.Time
}

func (f fakeFileInfo) Name() string        { return f.name }
func (f fakeFileInfo) Size() int64         { return f.size }
func (f fakeFileInfo) Mode() iofs.FileMode { return 0o644 }
func (f fakeFileInfo) ModTime() time.Time  { return f.modTime }
func (f fakeFileInfo) IsDir() bool         { return false }
func (f fakeFileInfo) Sys() any            { return nil }

// MockDocumentStorage keeps documents in memory keyed by relative path.
type MockDocumentStorage struct {
	Files   map[string][]byte
	Deleted []string

	SaveCVFunc     func(fileData io.Reader, profileID, filename string) (string, error)
	DeleteFileFunc func(filePath string) error
}

func newMockDocs() *MockDocumentStorage {
	return &MockDocumentStorage{Files: map[string][]byte{}}
}

func (m *MockDocumentStorage) SaveCV(fileData io.Reader, profileID, filename string) (string, error) {
	if m.SaveCVFunc != nil {
		return m.SaveCVFunc(fileData, profileID, filename)
	}
	data, err := io.ReadAll(fileData)
	if err != nil {
		return "", err
	}
	path := "cv/" + profileID + "/" + filename
	m.Files[path] = data
	return path, nil
}

func (m *MockDocumentStorage) Read(filePath string) (io.ReadCloser, error) {
	data, ok := m.Files[filePath]
	if !ok {
		return nil, internal_errors.NotFound("File")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockDocumentStorage) Stat(filePath string) (iofs.FileInfo, error) {
	data, ok := m.Files[filePath]
	if !ok {
		return nil, internal_errors.NotFound("File")
	}
	return fakeFileInfo{name: filePath, size: int64(len(data)), modTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}, nil
}

func (m *MockDocumentStorage) DeleteFile(filePath string) error {
	m.Deleted = append(m.Deleted, filePath)
	if m.DeleteFileFunc != nil {
		return m.DeleteFileFunc(filePath)
	}
	delete(m.Files, filePath)
	return nil
}
