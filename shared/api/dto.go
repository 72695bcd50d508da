package api

import "github.com/ligaac/practica/shared/domain"

// Request DTOs shared by handlers and tests

type UpdateProfileRequest struct {
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Github   *string `json:"github,omitempty" validate:"omitempty,url,max=200"`
	Linkedin *string `json:"linkedin,omitempty" validate:"omitempty,url,max=200"`
}

type CreateCompanyRequest struct {
	Name               string          `json:"name" validate:"required,max=200"`
	Slug               string          `json:"slug" validate:"required,max=80"`
	Description        string          `json:"description"`
	Website            *string         `json:"website,omitempty" validate:"omitempty,url"`
	Address            *string         `json:"address,omitempty"`
	VisibleForStudents bool            `json:"visible_for_students"`
	GroupId            *domain.GroupId `json:"group_id,omitempty"`
}

type CreateOfferRequest struct {
	CompanyId    domain.CompanyId `json:"company_id" validate:"required"`
	Title        string           `json:"title" validate:"required,max=200"`
	Description  string           `json:"description"`
	Requirements string           `json:"requirements"`
	IsPaid       bool             `json:"is_paid"`
	Capacity     int              `json:"capacity" validate:"gte=0"`
}

// RenameCompanyRequest changes a company slug. Export links issued for the old slug stop working.
type RenameCompanyRequest struct {
	Slug string `json:"slug" validate:"required,max=80"`
}

// Response DTOs

type CompaniesResponse struct {
	Companies []domain.Company `json:"companies"`
}

type OffersResponse struct {
	Offers []domain.Offer `json:"offers"`
}

type ApplicantsResponse struct {
	Applicants []domain.Applicant `json:"applicants"`
}

type ExportLinkResponse struct {
	URL string `json:"url"`
}
