package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
	sharedpg "github.com/ligaac/practica/shared/storage/pg"
)

const profileColumns = `p.id, p.user_id, p.phone, p.specialization, p.github, p.linkedin, p.email,
	p.cohort_id, p.cv_path, p.created_at, p.modified_at`

func profileDest(p *domain.StudentProfile) []any {
	return []any{&p.Id, &p.UserId, &p.Phone, &p.Specialization, &p.Github, &p.Linkedin, &p.Email,
		&p.CohortId, &p.CVPath, &p.CreatedAt, &p.ModifiedAt}
}

// =========================================================================
// Public Methods (satisfy the service.StudentStorage interface)
// =========================================================================

// CreateStudentWithToken provisions a first-time student: the user, its
// profile and its first token are written in one transaction, so a failure
// at any step leaves no user behind.
func (s *Storage) CreateStudentWithToken(ctx context.Context, user domain.User, profile domain.StudentProfile, token domain.Token) (domain.User, domain.StudentProfile, domain.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := s.saveUser(ctx, tx, user)
		if err != nil {
			return err
		}
		user.Id = id
		profile.UserId = id
		token.UserId = id

		if profile, err = s.saveProfile(ctx, tx, profile); err != nil {
			return err
		}
		return s.saveToken(ctx, tx, token)
	})
	if err != nil {
		return domain.User{}, domain.StudentProfile{}, domain.Token{}, err
	}
	return user, profile, token, nil
}

func (s *Storage) ProfileByUser(ctx context.Context, user domain.UserId) (domain.StudentProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.profileBy(ctx, s.db, "p.user_id = $1", user)
}

func (s *Storage) ProfileById(ctx context.Context, id domain.ProfileId) (domain.StudentProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.profileBy(ctx, s.db, "p.id = $1", id)
}

// ProfileWithUser resolves a profile together with its owner, used to name CV downloads.
func (s *Storage) ProfileWithUser(ctx context.Context, id domain.ProfileId) (domain.StudentProfile, domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var p domain.StudentProfile
	row := s.db.QueryRowContext(ctx, "SELECT "+profileColumns+", "+userColumns+`
		FROM student_profiles p JOIN users u ON u.id = p.user_id
		WHERE p.id = $1`, id)
	u, err := scanUserAfter(row, profileDest(&p))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StudentProfile{}, domain.User{}, internal_errors.NotFound("Profile")
		}
		return domain.StudentProfile{}, domain.User{}, fmt.Errorf("failed to query profile: %w", err)
	}
	return p, u, nil
}

// UpdateContacts overwrites the student-editable contact fields; nil leaves a field as is.
func (s *Storage) UpdateContacts(ctx context.Context, id domain.ProfileId, phone, github, linkedin *string) (domain.StudentProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var p domain.StudentProfile
	err := s.db.QueryRowContext(ctx, `
		UPDATE student_profiles p SET
			phone = COALESCE($2, p.phone),
			github = COALESCE($3, p.github),
			linkedin = COALESCE($4, p.linkedin),
			modified_at = $5
		WHERE p.id = $1
		RETURNING `+profileColumns, id, phone, github, linkedin, time.Now().UTC(),
	).Scan(profileDest(&p)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StudentProfile{}, internal_errors.NotFound("Profile")
		}
		return domain.StudentProfile{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}

// SetCV stores the new relative CV path and returns the one it replaced, if any.
func (s *Storage) SetCV(ctx context.Context, id domain.ProfileId, path string) (*string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var previous *string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, "SELECT cv_path FROM student_profiles WHERE id = $1 FOR UPDATE", id).Scan(&previous)
		if errors.Is(err, sql.ErrNoRows) {
			return internal_errors.NotFound("Profile")
		}
		if err != nil {
			return fmt.Errorf("failed to lock profile: %w", err)
		}
		_, err = tx.ExecContext(ctx, "UPDATE student_profiles SET cv_path = $2, modified_at = $3 WHERE id = $1", id, path, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to update cv path: %w", err)
		}
		return nil
	})
	return previous, err
}

// CVPaths lists every CV path still referenced by a profile.
func (s *Storage) CVPaths(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT cv_path FROM student_profiles WHERE cv_path IS NOT NULL AND cv_path <> ''")
	if err != nil {
		return nil, fmt.Errorf("failed to query cv paths: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan cv path: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

func (s *Storage) Apply(ctx context.Context, profile domain.ProfileId, offer domain.OfferId) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications(profile_id, offer_id)
		SELECT $1, o.id FROM offers o JOIN companies c ON c.id = o.company_id
		WHERE o.id = $2 AND c.visible_for_students`, profile, offer)
	if err != nil {
		if sharedpg.IsUniqueViolation(err, "") {
			return &internal_errors.ErrorWithStatusCode{Message: "Already applied to this offer", StatusCode: http.StatusConflict}
		}
		return fmt.Errorf("failed to insert application: %w", err)
	}
	// the INSERT ... SELECT above inserts nothing for unknown or hidden offers
	var exists bool
	err = s.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM applications WHERE profile_id = $1 AND offer_id = $2)", profile, offer).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check application: %w", err)
	}
	if !exists {
		return internal_errors.NotFound("Offer")
	}
	return nil
}

func (s *Storage) Withdraw(ctx context.Context, profile domain.ProfileId, offer domain.OfferId) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, "DELETE FROM applications WHERE profile_id = $1 AND offer_id = $2", profile, offer)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return internal_errors.NotFound("Application")
	}
	return nil
}

// ApplicationsOf lists the offers profile applied to that fall inside scope.
func (s *Storage) ApplicationsOf(ctx context.Context, profile domain.ProfileId, scope domain.Scope) ([]domain.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	f := filter{}
	f.add("a.profile_id = $%d", profile)
	f.scope(scope, "c.group_id")
	rows, err := s.db.QueryContext(ctx, "SELECT "+offerColumns+`
		FROM applications a
		JOIN offers o ON o.id = a.offer_id
		JOIN companies c ON c.id = o.company_id`+f.where()+`
		ORDER BY a.created_at, o.id`, f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

// =========================================================================
// Internal Methods
// =========================================================================

func (s *Storage) profileBy(ctx context.Context, q Querier, where string, arg any) (domain.StudentProfile, error) {
	var p domain.StudentProfile
	err := q.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM student_profiles p WHERE "+where, arg).Scan(profileDest(&p)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StudentProfile{}, internal_errors.NotFound("Profile")
		}
		return domain.StudentProfile{}, fmt.Errorf("failed to query profile: %w", err)
	}
	return p, nil
}

func (s *Storage) saveProfile(ctx context.Context, q Querier, p domain.StudentProfile) (domain.StudentProfile, error) {
	if p.Id == uuid.Nil {
		p.Id = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.ModifiedAt = now, now
	_, err := q.ExecContext(ctx, `
		INSERT INTO student_profiles(id, user_id, phone, specialization, github, linkedin, email, cohort_id, cv_path, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.Id, p.UserId, p.Phone, p.Specialization, p.Github, p.Linkedin, p.Email, p.CohortId, p.CVPath, p.CreatedAt, p.ModifiedAt)
	if err != nil {
		if sharedpg.IsForeignKeyViolation(err) {
			return domain.StudentProfile{}, internal_errors.NotFound("Cohort")
		}
		return domain.StudentProfile{}, fmt.Errorf("failed to insert profile: %w", err)
	}
	return p, nil
}

// scanUserAfter scans leading columns into before and the trailing user columns into a User.
func scanUserAfter(row scanner, before []any) (domain.User, error) {
	var u domain.User
	dest := append(before, &u.Id, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.RegistrationNumber,
		&u.PassHash, &u.IsStaff, &u.IsSuperuser, &u.CreatedAt)
	err := row.Scan(dest...)
	return u, err
}
