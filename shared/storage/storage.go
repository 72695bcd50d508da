package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/ligaac/practica/shared/config"
	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
	"github.com/ligaac/practica/shared/storage/pg"
)

// Storage is the small database layer used by command line tools that
// do not need the full backend storage.
type Storage struct {
	db *sql.DB
}

// New connects with lightweight pool settings suitable for one-shot tools.
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	db, err := pg.Connect(ctx, cfg, pg.LightweightConnectionConfig())
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// StaffAccount is a staff or superuser account with a local password.
type StaffAccount struct {
	Email     domain.Email
	FirstName string
	LastName  string
	PassHash  string
	Superuser bool
	// Groups are created on demand and assigned to the account.
	Groups []string
}

// CreateStaff inserts the account and its group memberships in one transaction.
// An existing email is a 409.
func (s *Storage) CreateStaff(ctx context.Context, account StaffAccount) (domain.UserId, error) {
	var id domain.UserId
	err := pg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users(email, first_name, last_name, password_hash, is_staff, is_superuser)
			VALUES ($1, $2, $3, $4, TRUE, $5)
			RETURNING id`,
			strings.ToLower(strings.TrimSpace(account.Email)), account.FirstName, account.LastName,
			account.PassHash, account.Superuser,
		).Scan(&id)
		if err != nil {
			if pg.IsUniqueViolation(err, "") {
				return &internal_errors.ErrorWithStatusCode{Message: "User already exists", StatusCode: 409}
			}
			return fmt.Errorf("failed to insert staff user: %w", err)
		}

		groups, err := ensureGroups(ctx, tx, account.Groups)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_groups(user_id, group_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING`, id, pq.Array(groups))
		if err != nil {
			return fmt.Errorf("failed to assign groups: %w", err)
		}
		return nil
	})
	return id, err
}

// GroupsOf returns the group names of user, sorted.
func (s *Storage) GroupsOf(ctx context.Context, user domain.UserId) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.name
		FROM user_groups ug
		JOIN auth_groups g ON g.id = ug.group_id
		WHERE ug.user_id = $1
		ORDER BY g.name`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to query user groups: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan group name: %w", err)
		}
		names = append(names, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return names, nil
}

func ensureGroups(ctx context.Context, q pg.Querier, names []string) ([]domain.GroupId, error) {
	ids := make([]domain.GroupId, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var id domain.GroupId
		err := q.QueryRowContext(ctx, `
			INSERT INTO auth_groups(name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to save group %q: %w", name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
