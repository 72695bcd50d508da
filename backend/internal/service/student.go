package service

import (
	"context"
	"io"
	"path/filepath"

	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
	"github.com/ligaac/practica/shared/logger"
	"github.com/ligaac/practica/shared/validation"
)

var errNotAStudent = &internal_errors.PermissionError{Message: "Only students have a profile"}

type StudentService interface {
	Me(ctx context.Context, user *domain.User) (domain.Me, error)
	UpdateContacts(ctx context.Context, user *domain.User, phone, github, linkedin *string) (domain.StudentProfile, error)
	UploadCV(ctx context.Context, user *domain.User, doc *validation.PendingDocument) (domain.StudentProfile, error)
	Apply(ctx context.Context, user *domain.User, offer domain.OfferId) error
	Withdraw(ctx context.Context, user *domain.User, offer domain.OfferId) error
	OpenCV(ctx context.Context, profile domain.ProfileId, basename string) (io.ReadCloser, string, error)
}

type StudentStorage interface {
	ProfileByUser(ctx context.Context, user domain.UserId) (domain.StudentProfile, error)
	ProfileWithUser(ctx context.Context, id domain.ProfileId) (domain.StudentProfile, domain.User, error)
	CohortById(ctx context.Context, id domain.CohortId) (domain.Cohort, error)
	UpdateContacts(ctx context.Context, id domain.ProfileId, phone, github, linkedin *string) (domain.StudentProfile, error)
	SetCV(ctx context.Context, id domain.ProfileId, path string) (*string, error)
	Apply(ctx context.Context, profile domain.ProfileId, offer domain.OfferId) error
	Withdraw(ctx context.Context, profile domain.ProfileId, offer domain.OfferId) error
	ApplicationsOf(ctx context.Context, profile domain.ProfileId, scope domain.Scope) ([]domain.Offer, error)
}

type Student struct {
	storage StudentStorage
	docs    DocumentStorage
}

func NewStudent(storage StudentStorage, docs DocumentStorage) *Student {
	return &Student{storage: storage, docs: docs}
}

func (s *Student) profileOf(ctx context.Context, user *domain.User) (domain.StudentProfile, error) {
	p, err := s.storage.ProfileByUser(ctx, user.Id)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return domain.StudentProfile{}, errNotAStudent
		}
		return domain.StudentProfile{}, err
	}
	return p, nil
}

// Me returns the caller with their profile, if any, and applications.
func (s *Student) Me(ctx context.Context, user *domain.User) (domain.Me, error) {
	me := domain.Me{User: *user, Applications: []domain.Offer{}}

	p, err := s.storage.ProfileByUser(ctx, user.Id)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return me, nil
		}
		return domain.Me{}, err
	}
	me.Profile = &p

	cohort, err := s.storage.CohortById(ctx, p.CohortId)
	if err != nil {
		return domain.Me{}, err
	}
	me.Cohort = &cohort

	if me.Applications, err = s.storage.ApplicationsOf(ctx, p.Id, domain.Scope{}); err != nil {
		return domain.Me{}, err
	}
	return me, nil
}

func (s *Student) UpdateContacts(ctx context.Context, user *domain.User, phone, github, linkedin *string) (domain.StudentProfile, error) {
	p, err := s.profileOf(ctx, user)
	if err != nil {
		return domain.StudentProfile{}, err
	}
	return s.storage.UpdateContacts(ctx, p.Id, phone, github, linkedin)
}

// UploadCV stores doc as the caller's CV and removes the document it replaces.
func (s *Student) UploadCV(ctx context.Context, user *domain.User, doc *validation.PendingDocument) (domain.StudentProfile, error) {
	p, err := s.profileOf(ctx, user)
	if err != nil {
		return domain.StudentProfile{}, err
	}

	path, err := s.docs.SaveCV(doc.Data, p.Id.String(), doc.Filename)
	if err != nil {
		return domain.StudentProfile{}, err
	}

	previous, err := s.storage.SetCV(ctx, p.Id, path)
	if err != nil {
		if cleanupErr := s.docs.DeleteFile(path); cleanupErr != nil {
			logger.Log.Error("failed to delete orphaned cv", "path", path, "error", cleanupErr)
		}
		return domain.StudentProfile{}, err
	}
	if previous != nil && *previous != "" && *previous != path {
		if err := s.docs.DeleteFile(*previous); err != nil {
			logger.Log.Error("failed to delete replaced cv", "path", *previous, "error", err)
		}
	}

	logger.Log.Info("cv uploaded", "profile_id", p.Id, "size", doc.SizeBytes, "mime", doc.MimeType)
	p.CVPath = &path
	return p, nil
}

func (s *Student) Apply(ctx context.Context, user *domain.User, offer domain.OfferId) error {
	p, err := s.profileOf(ctx, user)
	if err != nil {
		return err
	}
	return s.storage.Apply(ctx, p.Id, offer)
}

func (s *Student) Withdraw(ctx context.Context, user *domain.User, offer domain.OfferId) error {
	p, err := s.profileOf(ctx, user)
	if err != nil {
		return err
	}
	return s.storage.Withdraw(ctx, p.Id, offer)
}

// OpenCV opens the CV stored under profile/basename and returns it with a
// download name built from the student's full name.
func (s *Student) OpenCV(ctx context.Context, profile domain.ProfileId, basename string) (io.ReadCloser, string, error) {
	p, user, err := s.storage.ProfileWithUser(ctx, profile)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return nil, "", internal_errors.NotFound("CV")
		}
		return nil, "", err
	}
	if p.CVBasename() == "" || p.CVBasename() != basename {
		return nil, "", internal_errors.NotFound("CV")
	}

	rc, err := s.docs.Read(*p.CVPath)
	if err != nil {
		return nil, "", err
	}

	name := user.FullName()
	if name == "" {
		return rc, basename, nil
	}
	return rc, name + filepath.Ext(basename), nil
}
