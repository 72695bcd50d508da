package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ligaac/practica/backend/internal/utils/exporttoken"
	"github.com/ligaac/practica/backend/internal/utils/tabular"
	"github.com/ligaac/practica/backend/internal/utils/zipstream"
	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
	"github.com/ligaac/practica/shared/logger"
)

const exportTimestampLayout = "2006-01-02_15-04-05"

// RosterHeader is the fixed column order of exported applicant tables.
var RosterHeader = []string{"id", "class", "last_name", "first_name", "tel", "email", "cv_url", "cv_filename", "linkedin", "github"}

var (
	errMissingExportToken = &internal_errors.PermissionError{Message: "missing token"}
	errInvalidExportToken = &internal_errors.PermissionError{Message: "invalid or expired token"}
)

type ExportService interface {
	Prepare(ctx context.Context, companyID domain.CompanyId, token string) (*Bundle, error)
	Link(company *domain.Company) (string, error)
}

type ExportStorage interface {
	Company(ctx context.Context, id domain.CompanyId, scope domain.Scope) (domain.Company, error)
	ListApplicants(ctx context.Context, q domain.AdminQuery) ([]domain.Applicant, error)
}

// Bundle is a ready to stream export. Size is exact before any byte is written.
type Bundle struct {
	Name    string
	Archive *zipstream.Archive
}

func (b *Bundle) Size() int64 {
	return b.Archive.Size()
}

// WriteTo streams the archive and counts what the client actually received.
func (b *Bundle) WriteTo(w io.Writer) (int64, error) {
	n, err := b.Archive.WriteTo(w)
	exportBytesTotal.Add(float64(n))
	return n, err
}

type Export struct {
	storage     ExportStorage
	docs        DocumentStorage
	signer      exporttoken.Signer
	formats     []tabular.Format
	externalURL string
	location    *time.Location
	now         func() time.Time
}

func NewExport(storage ExportStorage, docs DocumentStorage, signer exporttoken.Signer, formats []tabular.Format, externalURL string, location *time.Location) *Export {
	return &Export{
		storage:     storage,
		docs:        docs,
		signer:      signer,
		formats:     formats,
		externalURL: strings.TrimRight(externalURL, "/"),
		location:    location,
		now:         time.Now,
	}
}

// Link returns the absolute, token-carrying export URL of company.
func (e *Export) Link(company *domain.Company) (string, error) {
	u, err := url.Parse(e.externalURL)
	if err != nil {
		return "", fmt.Errorf("invalid external url: %w", err)
	}
	token, err := exporttoken.Issue(e.signer, company, e.now())
	if err != nil {
		return "", err
	}
	u = u.JoinPath("v1", "export", "companies", company.Id.String(), "applicants")
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

// Prepare checks token for company and assembles its applicant bundle. Nothing
// is streamed when any roster format fails to serialize.
func (e *Export) Prepare(ctx context.Context, companyID domain.CompanyId, token string) (b *Bundle, err error) {
	defer func() {
		outcome := "success"
		switch {
		case internal_errors.Is[*internal_errors.PermissionError](err):
			outcome = "denied"
		case err != nil:
			outcome = "error"
		}
		exportsTotal.WithLabelValues(outcome).Inc()
	}()

	company, err := e.storage.Company(ctx, companyID, domain.Scope{})
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errMissingExportToken
	}
	if !exporttoken.Check(e.signer, &company, token) {
		logger.Log.Warn("export denied", "company_id", company.Id, "reason", "invalid or expired token")
		return nil, errInvalidExportToken
	}

	applicants, err := e.storage.ListApplicants(ctx, domain.AdminQuery{Target: domain.TargetApplicants, CompanyId: &company.Id})
	if err != nil {
		return nil, err
	}

	now := e.now().In(e.location)
	stamp := now.Format(exportTimestampLayout)

	table, err := e.roster(applicants)
	if err != nil {
		return nil, err
	}

	entries := make([]zipstream.Entry, 0, len(e.formats)+len(applicants))
	for _, f := range e.formats {
		data, err := f.Encode(table)
		if err != nil {
			logger.Log.Error("failed to serialize applicant roster", "format", f.Name(), "company_id", company.Id, "error", err)
			return nil, &internal_errors.ExportError{Format: f.Name(), Err: err}
		}
		entries = append(entries, zipstream.BytesEntry(fmt.Sprintf("date-studenti-%s.%s", stamp, f.Extension()), data, now))
	}

	cvs, err := e.cvEntries(applicants)
	if err != nil {
		return nil, err
	}
	entries = append(entries, cvs...)

	archive, err := zipstream.New(entries)
	if err != nil {
		return nil, &internal_errors.ExportError{Format: "zip", Err: err}
	}

	logger.Log.Info("export prepared", "company_id", company.Id, "applicants", len(applicants), "entries", archive.Len(), "size", archive.Size())

	return &Bundle{
		Name:    fmt.Sprintf("practica-ligaac-ro-%s-%s.zip", company.Slug, stamp),
		Archive: archive,
	}, nil
}

func (e *Export) roster(applicants []domain.Applicant) (tabular.Table, error) {
	t := tabular.Table{Header: RosterHeader, Rows: make([][]string, 0, len(applicants))}
	for _, a := range applicants {
		cvURL, err := e.absoluteCVURL(&a.Profile)
		if err != nil {
			return tabular.Table{}, err
		}
		t.Rows = append(t.Rows, []string{
			a.Profile.Id.String(),
			a.Cohort.String(),
			a.User.LastName,
			a.User.FirstName,
			deref(a.Profile.Phone),
			a.User.Email,
			cvURL,
			a.Profile.CVArchiveName(),
			deref(a.Profile.Linkedin),
			deref(a.Profile.Github),
		})
	}
	return t, nil
}

func (e *Export) absoluteCVURL(p *domain.StudentProfile) (string, error) {
	base := p.CVBasename()
	if base == "" {
		return "", nil
	}
	u, err := url.Parse(e.externalURL)
	if err != nil {
		return "", fmt.Errorf("invalid external url: %w", err)
	}
	return u.JoinPath("upload", "cv", p.Id.String(), base).String(), nil
}

// cvEntries lists the stored documents of applicants. A document missing on
// disk only drops that applicant's file.
func (e *Export) cvEntries(applicants []domain.Applicant) ([]zipstream.Entry, error) {
	var entries []zipstream.Entry
	for _, a := range applicants {
		if a.Profile.CVPath == nil || *a.Profile.CVPath == "" {
			continue
		}
		path := *a.Profile.CVPath
		info, err := e.docs.Stat(path)
		if err != nil {
			if internal_errors.IsNotFound(err) {
				logger.Log.Warn("cv missing on disk, skipped from export", "profile_id", a.Profile.Id)
				continue
			}
			return nil, err
		}
		entries = append(entries, zipstream.Entry{
			Name:    a.Profile.CVArchiveName(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Open:    func() (io.ReadCloser, error) { return e.docs.Read(path) },
		})
	}
	return entries, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ContentLength formats a bundle size for the Content-Length header.
func (b *Bundle) ContentLength() string {
	return strconv.FormatInt(b.Size(), 10)
}
