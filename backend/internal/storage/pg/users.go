package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
	sharedpg "github.com/ligaac/practica/shared/storage/pg"
)

const userColumns = `u.id, u.email, u.username, u.first_name, u.last_name, u.reg,
	u.password_hash, u.is_staff, u.is_superuser, u.created_at`

func scanUser(row scanner) (domain.User, error) {
	return scanUserAfter(row, nil)
}

// =========================================================================
// Public Methods
// =========================================================================

func (s *Storage) UserById(ctx context.Context, id domain.UserId) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.userBy(ctx, s.db, "u.id = $1", id)
}

func (s *Storage) UserByEmail(ctx context.Context, email domain.Email) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.userBy(ctx, s.db, "lower(u.email) = lower($1)", email)
}

// UserByReg looks a student up by the external directory's registration number.
func (s *Storage) UserByReg(ctx context.Context, reg string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.userBy(ctx, s.db, "u.reg = $1", reg)
}

// SaveUser inserts a user and assigns it to groups in one transaction.
func (s *Storage) SaveUser(ctx context.Context, user domain.User, groups []domain.GroupId) (domain.UserId, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if id, err = s.saveUser(ctx, tx, user); err != nil {
			return err
		}
		return s.addUserGroups(ctx, tx, id, groups)
	})
	return id, err
}

// GroupsOf returns the ids of the groups user belongs to.
func (s *Storage) GroupsOf(ctx context.Context, user domain.UserId) ([]domain.GroupId, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT group_id FROM user_groups WHERE user_id = $1 ORDER BY group_id", user)
	if err != nil {
		return nil, fmt.Errorf("failed to query user groups: %w", err)
	}
	defer rows.Close()

	groups := []domain.GroupId{}
	for rows.Next() {
		var g domain.GroupId
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Storage) SaveGroup(ctx context.Context, name string) (domain.GroupId, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var id domain.GroupId
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO auth_groups(name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save group: %w", err)
	}
	return id, nil
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) userBy(ctx context.Context, q Querier, where string, arg any) (domain.User, error) {
	row := q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users u WHERE "+where, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User")
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

func (s *Storage) saveUser(ctx context.Context, q Querier, user domain.User) (domain.UserId, error) {
	var id domain.UserId
	err := q.QueryRowContext(ctx, `
		INSERT INTO users(email, username, first_name, last_name, reg, password_hash, is_staff, is_superuser)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		user.Email, user.Username, user.FirstName, user.LastName, user.RegistrationNumber,
		user.PassHash, user.IsStaff, user.IsSuperuser,
	).Scan(&id)
	if err != nil {
		if sharedpg.IsUniqueViolation(err, "") {
			return 0, &internal_errors.ErrorWithStatusCode{Message: "User already exists", StatusCode: 409}
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (s *Storage) addUserGroups(ctx context.Context, q Querier, user domain.UserId, groups []domain.GroupId) error {
	if len(groups) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO user_groups(user_id, group_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`, user, pq.Array(groups))
	if err != nil {
		if sharedpg.IsForeignKeyViolation(err) {
			return internal_errors.NotFound("Group")
		}
		return fmt.Errorf("failed to assign groups: %w", err)
	}
	return nil
}
