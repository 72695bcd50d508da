package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
	sharedpg "github.com/ligaac/practica/shared/storage/pg"
)

const offerColumns = `o.id, o.company_id, o.title, o.description, o.requirements, o.is_paid, o.capacity, o.created_at`

func scanOffer(row scanner) (domain.Offer, error) {
	var o domain.Offer
	err := row.Scan(&o.Id, &o.CompanyId, &o.Title, &o.Description, &o.Requirements, &o.IsPaid, &o.Capacity, &o.CreatedAt)
	return o, err
}

func (s *Storage) SaveOffer(ctx context.Context, o domain.Offer) (domain.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if o.Id == uuid.Nil {
		o.Id = uuid.New()
	}
	o.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO offers(id, company_id, title, description, requirements, is_paid, capacity, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		o.Id, o.CompanyId, o.Title, o.Description, o.Requirements, o.IsPaid, o.Capacity, o.CreatedAt)
	if err != nil {
		if sharedpg.IsForeignKeyViolation(err) {
			return domain.Offer{}, internal_errors.NotFound("Company")
		}
		return domain.Offer{}, fmt.Errorf("failed to insert offer: %w", err)
	}
	return o, nil
}

func (s *Storage) Offer(ctx context.Context, id domain.OfferId) (domain.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	o, err := scanOffer(s.db.QueryRowContext(ctx, "SELECT "+offerColumns+" FROM offers o WHERE o.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Offer{}, internal_errors.NotFound("Offer")
		}
		return domain.Offer{}, fmt.Errorf("failed to query offer: %w", err)
	}
	return o, nil
}

// ListOffers runs an admin offer listing; offers inherit the scope of their company.
func (s *Storage) ListOffers(ctx context.Context, q domain.AdminQuery) ([]domain.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	f := filter{}
	f.scope(q.Scope, "c.group_id")
	f.search(q.Search, "o.title", "c.name")
	if q.CompanyId != nil {
		f.add("o.company_id = $%d", *q.CompanyId)
	}
	query := "SELECT " + offerColumns + " FROM offers o JOIN companies c ON c.id = o.company_id" +
		f.where() + " ORDER BY c.name, o.title, o.id"
	rows, err := s.db.QueryContext(ctx, query+f.page(q.Limit, q.Offset), f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

func (s *Storage) offersOf(ctx context.Context, q Querier, company domain.CompanyId) ([]domain.Offer, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+offerColumns+" FROM offers o WHERE o.company_id = $1 ORDER BY o.title, o.id", company)
	if err != nil {
		return nil, fmt.Errorf("failed to query company offers: %w", err)
	}
	defer rows.Close()
	return collectOffers(rows)
}

func collectOffers(rows *sql.Rows) ([]domain.Offer, error) {
	offers := []domain.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return offers, nil
}
