package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ligaac/practica/shared/domain"
	internal_errors "github.com/ligaac/practica/shared/errors"
)

// CohortByProgram finds the cohort for a program name and study year.
func (s *Storage) CohortByProgram(ctx context.Context, program string, studyYear int) (domain.Cohort, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.cohortBy(ctx, s.db, "name = $1 AND study_year = $2", program, studyYear)
}

func (s *Storage) CohortById(ctx context.Context, id domain.CohortId) (domain.Cohort, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.cohortBy(ctx, s.db, "id = $1", id)
}

func (s *Storage) SaveCohort(ctx context.Context, c domain.Cohort) (domain.Cohort, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if c.Id == uuid.Nil {
		c.Id = uuid.New()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO cohorts(id, study_year, name, credits, hours) VALUES ($1, $2, $3, $4, $5)",
		c.Id, c.StudyYear, c.Name, c.Credits, c.Hours)
	if err != nil {
		return domain.Cohort{}, fmt.Errorf("failed to insert cohort: %w", err)
	}
	return c, nil
}

func (s *Storage) cohortBy(ctx context.Context, q Querier, where string, args ...any) (domain.Cohort, error) {
	var c domain.Cohort
	err := q.QueryRowContext(ctx,
		"SELECT id, study_year, name, credits, hours FROM cohorts WHERE "+where, args...,
	).Scan(&c.Id, &c.StudyYear, &c.Name, &c.Credits, &c.Hours)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cohort{}, internal_errors.NotFound("Cohort")
		}
		return domain.Cohort{}, fmt.Errorf("failed to query cohort: %w", err)
	}
	return c, nil
}
