package service

import (
	"context"
	"strings"

	"github.com/ligaac/practica/backend/internal/utils/identity"
	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
	"github.com/ligaac/practica/shared/logger"
	"golang.org/x/crypto/bcrypt"
)

const eligibilityMessage = "Doar studenții din anul 3 de la CTI, CTI Engleză, IS, respectiv anul 2 IS, IS ID pot trimite aplicații"

type AuthService interface {
	Login(ctx context.Context, email, password string) (domain.User, domain.Token, error)
	StaffLogin(ctx context.Context, email, password string) (domain.User, domain.Token, error)
}

type AuthStorage interface {
	UserByReg(ctx context.Context, reg string) (domain.User, error)
	UserByEmail(ctx context.Context, email domain.Email) (domain.User, error)
	CohortByProgram(ctx context.Context, program string, studyYear int) (domain.Cohort, error)
	CreateStudentWithToken(ctx context.Context, user domain.User, profile domain.StudentProfile, token domain.Token) (domain.User, domain.StudentProfile, domain.Token, error)
}

type IdentityProvider interface {
	Authenticate(ctx context.Context, email, password string) (*identity.Profile, error)
}

type TokenIssuer interface {
	NewToken(user domain.UserId) (domain.Token, error)
	Issue(ctx context.Context, user domain.UserId) (domain.Token, error)
}

type Auth struct {
	storage  AuthStorage
	identity IdentityProvider
	tokens   TokenIssuer
}

func NewAuth(storage AuthStorage, identity IdentityProvider, tokens TokenIssuer) *Auth {
	return &Auth{storage: storage, identity: identity, tokens: tokens}
}

// Login authenticates a student against the directory. A known registration
// number reuses the stored user as is; a first login creates user, profile and
// token together.
func (a *Auth) Login(ctx context.Context, email, password string) (user domain.User, token domain.Token, err error) {
	defer func() { loginsTotal.WithLabelValues("student", loginOutcome(err)).Inc() }()

	profile, err := a.identity.Authenticate(ctx, email, password)
	if err != nil {
		return domain.User{}, domain.Token{}, err
	}

	user, err = a.storage.UserByReg(ctx, profile.RegistrationNumber)
	if err == nil {
		token, err = a.tokens.Issue(ctx, user.Id)
		return user, token, err
	}
	if !internal_errors.IsNotFound(err) {
		return domain.User{}, domain.Token{}, err
	}

	cohort, err := a.storage.CohortByProgram(ctx, profile.Program, profile.StudyYear)
	if err != nil {
		if internal_errors.IsNotFound(err) {
			logger.Log.Info("login rejected, no matching cohort", "program", profile.Program, "year", profile.StudyYear)
			return domain.User{}, domain.Token{}, &internal_errors.AuthError{Kind: internal_errors.UnknownCohort, Message: eligibilityMessage}
		}
		return domain.User{}, domain.Token{}, err
	}

	// user id is assigned inside the transaction
	token, err = a.tokens.NewToken(0)
	if err != nil {
		return domain.User{}, domain.Token{}, err
	}

	reg := profile.RegistrationNumber
	username := strings.ToLower(profile.Email)
	newUser := domain.User{
		Email:              strings.ToLower(profile.Email),
		Username:           &username,
		FirstName:          profile.FirstName,
		LastName:           profile.LastName,
		RegistrationNumber: &reg,
	}
	newProfile := domain.StudentProfile{
		CohortId:       cohort.Id,
		Email:          optional(profile.Email),
		Specialization: optional(profile.Specialization),
	}

	user, _, token, err = a.storage.CreateStudentWithToken(ctx, newUser, newProfile, token)
	if err != nil {
		return domain.User{}, domain.Token{}, err
	}
	logger.Log.Info("student account created", "user_id", user.Id, "cohort", cohort.String())
	return user, token, nil
}

// StaffLogin checks a local password. Only staff accounts have one.
func (a *Auth) StaffLogin(ctx context.Context, email, password string) (user domain.User, token domain.Token, err error) {
	defer func() { loginsTotal.WithLabelValues("staff", loginOutcome(err)).Inc() }()

	invalid := &internal_errors.AuthError{Kind: internal_errors.InvalidCredentials, Message: "Invalid credentials"}

	user, err = a.storage.UserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if internal_errors.IsNotFound(err) {
			return domain.User{}, domain.Token{}, invalid
		}
		return domain.User{}, domain.Token{}, err
	}
	if !user.HasAdminAccess() || user.PassHash == "" {
		return domain.User{}, domain.Token{}, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(password)); err != nil {
		return domain.User{}, domain.Token{}, invalid
	}

	token, err = a.tokens.Issue(ctx, user.Id)
	if err != nil {
		return domain.User{}, domain.Token{}, err
	}
	return user, token, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func asAuthError(err error) *internal_errors.AuthError {
	var ae *internal_errors.AuthError
	if internal_errors.As(err, &ae) {
		return ae
	}
	return nil
}
