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

const companyColumns = `c.id, c.name, c.slug, c.description, c.website, c.address,
	c.visible_for_students, c.group_id, c.created_at, c.modified_at,
	COALESCE((SELECT SUM(o.capacity) FROM offers o WHERE o.company_id = c.id), 0),
	(SELECT COUNT(*) FROM offers o WHERE o.company_id = c.id),
	(SELECT COUNT(DISTINCT a.profile_id) FROM applications a JOIN offers o ON o.id = a.offer_id WHERE o.company_id = c.id)`

func scanCompany(row scanner) (domain.Company, error) {
	var c domain.Company
	err := row.Scan(&c.Id, &c.Name, &c.Slug, &c.Description, &c.Website, &c.Address,
		&c.VisibleForStudents, &c.GroupId, &c.CreatedAt, &c.ModifiedAt,
		&c.TotalCapacity, &c.NumInternships, &c.ApplicantCount)
	return c, err
}

// =========================================================================
// Public Methods
// =========================================================================

func (s *Storage) SaveCompany(ctx context.Context, c domain.Company) (domain.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if c.Id == uuid.Nil {
		c.Id = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.ModifiedAt = now, now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies(id, name, slug, description, website, address, visible_for_students, group_id, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.Id, c.Name, c.Slug, c.Description, c.Website, c.Address, c.VisibleForStudents, c.GroupId, c.CreatedAt, c.ModifiedAt)
	if err != nil {
		switch {
		case sharedpg.IsUniqueViolation(err, "companies_slug_key"):
			return domain.Company{}, &internal_errors.ErrorWithStatusCode{Message: "Company slug already taken", StatusCode: http.StatusConflict}
		case sharedpg.IsUniqueViolation(err, "companies_group_id_key"):
			return domain.Company{}, &internal_errors.ErrorWithStatusCode{Message: "Group already owns a company", StatusCode: http.StatusConflict}
		case sharedpg.IsForeignKeyViolation(err):
			return domain.Company{}, internal_errors.NotFound("Group")
		}
		return domain.Company{}, fmt.Errorf("failed to insert company: %w", err)
	}
	return c, nil
}

// RenameSlug changes a company's slug. Export links issued for the old slug stop working.
func (s *Storage) RenameSlug(ctx context.Context, id domain.CompanyId, slug string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, "UPDATE companies SET slug = $2, modified_at = $3 WHERE id = $1", id, slug, time.Now().UTC())
	if err != nil {
		if sharedpg.IsUniqueViolation(err, "companies_slug_key") {
			return &internal_errors.ErrorWithStatusCode{Message: "Company slug already taken", StatusCode: http.StatusConflict}
		}
		return fmt.Errorf("failed to update slug: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return internal_errors.NotFound("Company")
	}
	return nil
}

// Company fetches a company by id if it lies inside scope.
func (s *Storage) Company(ctx context.Context, id domain.CompanyId, scope domain.Scope) (domain.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	f := filter{}
	f.add("c.id = $%d", id)
	f.scope(scope, "c.group_id")
	c, err := scanCompany(s.db.QueryRowContext(ctx, "SELECT "+companyColumns+" FROM companies c"+f.where(), f.args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Company{}, internal_errors.NotFound("Company")
		}
		return domain.Company{}, fmt.Errorf("failed to query company: %w", err)
	}
	return c, nil
}

// VisibleCompany is the public company page: visible companies only, with their offers.
func (s *Storage) VisibleCompany(ctx context.Context, slug string) (domain.CompanyWithOffers, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	c, err := scanCompany(s.db.QueryRowContext(ctx,
		"SELECT "+companyColumns+" FROM companies c WHERE c.slug = $1 AND c.visible_for_students", slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CompanyWithOffers{}, internal_errors.NotFound("Company")
		}
		return domain.CompanyWithOffers{}, fmt.Errorf("failed to query company: %w", err)
	}
	offers, err := s.offersOf(ctx, s.db, c.Id)
	if err != nil {
		return domain.CompanyWithOffers{}, err
	}
	return domain.CompanyWithOffers{Company: c, Offers: offers}, nil
}

// VisibleCompanies lists the companies students may see, optionally only those with offers.
func (s *Storage) VisibleCompanies(ctx context.Context, withInternships bool) ([]domain.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := "SELECT " + companyColumns + " FROM companies c WHERE c.visible_for_students"
	if withInternships {
		query += " AND EXISTS (SELECT 1 FROM offers o WHERE o.company_id = c.id)"
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY c.name, c.id")
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()
	return collectCompanies(rows)
}

// ListCompanies runs an admin company listing.
func (s *Storage) ListCompanies(ctx context.Context, q domain.AdminQuery) ([]domain.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	f := filter{}
	f.scope(q.Scope, "c.group_id")
	f.search(q.Search, "c.name", "c.slug")
	if q.CompanyId != nil {
		f.add("c.id = $%d", *q.CompanyId)
	}
	query := "SELECT " + companyColumns + " FROM companies c" + f.where() + " ORDER BY c.name, c.id"
	rows, err := s.db.QueryContext(ctx, query+f.page(q.Limit, q.Offset), f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()
	return collectCompanies(rows)
}

func collectCompanies(rows *sql.Rows) ([]domain.Company, error) {
	companies := []domain.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return companies, nil
}
