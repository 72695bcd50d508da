package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/ligaac/practica/shared/domain"
)

const cohortColumns = `k.id, k.study_year, k.name, k.credits, k.hours`

// ListApplicants returns student profiles with their user, cohort and the
// applications visible under q. A profile is listed only if it applied to at
// least one offer inside the scope (and inside q.CompanyId when set); an
// unrestricted query without a company lists every profile.
func (s *Storage) ListApplicants(ctx context.Context, q domain.AdminQuery) ([]domain.Applicant, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	f := filter{}
	var inner []string
	if q.Scope.Restricted() {
		inner = append(inner, "c.group_id = ANY("+f.arg(pq.Array(q.Scope.Groups()))+")")
	}
	if q.CompanyId != nil {
		inner = append(inner, "o.company_id = "+f.arg(*q.CompanyId))
	}
	if len(inner) > 0 {
		f.conds = append(f.conds, `EXISTS (
			SELECT 1 FROM applications a
			JOIN offers o ON o.id = a.offer_id
			JOIN companies c ON c.id = o.company_id
			WHERE a.profile_id = p.id AND `+strings.Join(inner, " AND ")+")")
	}
	f.search(q.Search, "u.first_name", "u.last_name", "u.email")

	query := "SELECT " + profileColumns + ", " + cohortColumns + ", " + userColumns + `
		FROM student_profiles p
		JOIN users u ON u.id = p.user_id
		JOIN cohorts k ON k.id = p.cohort_id` + f.where() + `
		ORDER BY u.last_name, u.first_name, p.id`
	rows, err := s.db.QueryContext(ctx, query+f.page(q.Limit, q.Offset), f.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applicants: %w", err)
	}
	defer rows.Close()

	applicants := []domain.Applicant{}
	index := map[domain.ProfileId]int{}
	for rows.Next() {
		var a domain.Applicant
		k := &a.Cohort
		dest := append(profileDest(&a.Profile), &k.Id, &k.StudyYear, &k.Name, &k.Credits, &k.Hours)
		if a.User, err = scanUserAfter(rows, dest); err != nil {
			return nil, fmt.Errorf("failed to scan applicant: %w", err)
		}
		a.Offers = []domain.Offer{}
		index[a.Profile.Id] = len(applicants)
		applicants = append(applicants, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	if len(applicants) == 0 {
		return applicants, nil
	}

	if err := s.attachApplications(ctx, applicants, index, q); err != nil {
		return nil, err
	}
	return applicants, nil
}

// attachApplications fills Offers with the applications visible under the same
// scope and company filter as the listing.
func (s *Storage) attachApplications(ctx context.Context, applicants []domain.Applicant, index map[domain.ProfileId]int, q domain.AdminQuery) error {
	ids := make([]string, len(applicants))
	for i, a := range applicants {
		ids[i] = a.Profile.Id.String()
	}

	f := filter{}
	f.add("a.profile_id = ANY($%d::uuid[])", pq.Array(ids))
	f.scope(q.Scope, "c.group_id")
	if q.CompanyId != nil {
		f.add("o.company_id = $%d", *q.CompanyId)
	}
	rows, err := s.db.QueryContext(ctx, "SELECT a.profile_id, "+offerColumns+`
		FROM applications a
		JOIN offers o ON o.id = a.offer_id
		JOIN companies c ON c.id = o.company_id`+f.where()+`
		ORDER BY a.created_at, o.id`, f.args...)
	if err != nil {
		return fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var profileId domain.ProfileId
		var o domain.Offer
		if err := rows.Scan(&profileId, &o.Id, &o.CompanyId, &o.Title, &o.Description, &o.Requirements, &o.IsPaid, &o.Capacity, &o.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan application: %w", err)
		}
		if i, ok := index[profileId]; ok {
			applicants[i].Offers = append(applicants[i].Offers, o)
		}
	}
	return rows.Err()
}
