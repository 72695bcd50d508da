package pg

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStudentWithToken(t *testing.T) {
	ctx := context.Background()
	cohort := createCohort(t)

	t.Run("creates user, profile and token together", func(t *testing.T) {
		reg := "R" + uniq()
		user := domain.User{Email: reg + "@student.example.org", FirstName: "Ana", LastName: "Pop", RegistrationNumber: &reg}
		tok := newToken(0, 7*24*time.Hour)

		u, p, savedTok, err := storage.CreateStudentWithToken(ctx, user, domain.StudentProfile{CohortId: cohort.Id, Specialization: ptr("CTI")}, tok)
		require.NoError(t, err)
		assert.NotZero(t, u.Id)
		assert.Equal(t, u.Id, p.UserId)
		assert.Equal(t, u.Id, savedTok.UserId)

		byReg, err := storage.UserByReg(ctx, reg)
		require.NoError(t, err)
		assert.Equal(t, u.Id, byReg.Id)

		profile, err := storage.ProfileByUser(ctx, u.Id)
		require.NoError(t, err)
		assert.Equal(t, p.Id, profile.Id)
		assert.Equal(t, "CTI", *profile.Specialization)

		withUser, err := storage.TokenWithUser(ctx, tok.Key)
		require.NoError(t, err)
		assert.Equal(t, u.Id, withUser.User.Id)
	})

	t.Run("unknown cohort rolls everything back", func(t *testing.T) {
		reg := "R" + uniq()
		user := domain.User{Email: reg + "@student.example.org", RegistrationNumber: &reg}
		tok := newToken(0, time.Hour)

		_, _, _, err := storage.CreateStudentWithToken(ctx, user, domain.StudentProfile{CohortId: uuid.New()}, tok)
		require.Error(t, err)

		_, err = storage.UserByReg(ctx, reg)
		assert.True(t, internal_errors.IsNotFound(err), "no orphaned user")
		_, err = storage.TokenWithUser(ctx, tok.Key)
		assert.True(t, internal_errors.IsNotFound(err))
	})
}

func TestCohortByProgram(t *testing.T) {
	ctx := context.Background()
	cohort := createCohort(t)

	got, err := storage.CohortByProgram(ctx, cohort.Name, cohort.StudyYear)
	require.NoError(t, err)
	assert.Equal(t, cohort.Id, got.Id)

	_, err = storage.CohortByProgram(ctx, cohort.Name, cohort.StudyYear+1)
	assert.True(t, internal_errors.IsNotFound(err))
}

func TestProfileUpdates(t *testing.T) {
	ctx := context.Background()
	_, p := createStudent(t, createCohort(t), "Ionescu")

	updated, err := storage.UpdateContacts(ctx, p.Id, ptr("+40700000000"), ptr("https://github.com/ana"), nil)
	require.NoError(t, err)
	assert.Equal(t, "+40700000000", *updated.Phone)
	assert.Equal(t, "https://github.com/ana", *updated.Github)
	assert.Nil(t, updated.Linkedin)

	prev, err := storage.SetCV(ctx, p.Id, "cv/first.pdf")
	require.NoError(t, err)
	assert.Nil(t, prev)

	prev, err = storage.SetCV(ctx, p.Id, "cv/second.pdf")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "cv/first.pdf", *prev)

	profile, user, err := storage.ProfileWithUser(ctx, p.Id)
	require.NoError(t, err)
	assert.Equal(t, "second.pdf", profile.CVBasename())
	assert.Equal(t, "Ionescu", user.LastName)

	_, err = storage.SetCV(ctx, uuid.New(), "cv/x.pdf")
	assert.True(t, internal_errors.IsNotFound(err))
}

func TestCVPaths(t *testing.T) {
	ctx := context.Background()
	_, p := createStudent(t, createCohort(t), "Marin")
	path := "cv/" + p.Id.String() + "/marin.pdf"
	_, err := storage.SetCV(ctx, p.Id, path)
	require.NoError(t, err)

	paths, err := storage.CVPaths(ctx)
	require.NoError(t, err)
	assert.Contains(t, paths, path)
	assert.NotContains(t, paths, "")
}

func TestApplications(t *testing.T) {
	ctx := context.Background()
	_, p := createStudent(t, createCohort(t), "Popa")
	visible := createCompany(t, nil, true)
	hidden := createCompany(t, nil, false)
	offer := createOffer(t, visible.Id, 2)
	hiddenOffer := createOffer(t, hidden.Id, 2)

	require.NoError(t, storage.Apply(ctx, p.Id, offer.Id))

	err := storage.Apply(ctx, p.Id, offer.Id)
	var withStatus *internal_errors.ErrorWithStatusCode
	require.ErrorAs(t, err, &withStatus)
	assert.Equal(t, 409, withStatus.StatusCode)

	assert.True(t, internal_errors.IsNotFound(storage.Apply(ctx, p.Id, hiddenOffer.Id)))
	assert.True(t, internal_errors.IsNotFound(storage.Apply(ctx, p.Id, uuid.New())))

	offers, err := storage.ApplicationsOf(ctx, p.Id, domain.Scope{})
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, offer.Id, offers[0].Id)

	require.NoError(t, storage.Withdraw(ctx, p.Id, offer.Id))
	assert.True(t, internal_errors.IsNotFound(storage.Withdraw(ctx, p.Id, offer.Id)))
}
