package service

import (
	"context"
	"math/rand/v2"

	"github.com/ligaac/practica/shared/domain"
)

type CatalogueService interface {
	Companies(ctx context.Context, withInternships bool) ([]domain.Company, error)
	Company(ctx context.Context, slug string) (domain.CompanyWithOffers, error)
}

type CatalogueStorage interface {
	VisibleCompanies(ctx context.Context, withInternships bool) ([]domain.Company, error)
	VisibleCompany(ctx context.Context, slug string) (domain.CompanyWithOffers, error)
}

// Catalogue is the student facing list of visible companies.
type Catalogue struct {
	storage CatalogueStorage
	shuffle func(n int, swap func(i, j int))
}

func NewCatalogue(storage CatalogueStorage) *Catalogue {
	return &Catalogue{storage: storage, shuffle: rand.Shuffle}
}

// Companies are returned in random order so no partner is always listed first.
func (c *Catalogue) Companies(ctx context.Context, withInternships bool) ([]domain.Company, error) {
	companies, err := c.storage.VisibleCompanies(ctx, withInternships)
	if err != nil {
		return nil, err
	}
	c.shuffle(len(companies), func(i, j int) {
		companies[i], companies[j] = companies[j], companies[i]
	})
	return companies, nil
}

func (c *Catalogue) Company(ctx context.Context, slug string) (domain.CompanyWithOffers, error) {
	return c.storage.VisibleCompany(ctx, slug)
}
