package domain

import "time"

type Company struct {
	Id                 CompanyId `json:"id"`
	Name               string    `json:"name"`
	Slug               string    `json:"slug"`
	Description        string    `json:"description"`
	Website            *string   `json:"website,omitempty"`
	Address            *string   `json:"address,omitempty"`
	VisibleForStudents bool      `json:"visible_for_students"`
	GroupId            *GroupId  `json:"group_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	ModifiedAt         time.Time `json:"modified_at"`

	// computed by the listing queries
	TotalCapacity  int `json:"total_capacity"`
	NumInternships int `json:"num_internships"`
	ApplicantCount int `json:"applicant_count"`
}

// ExportID and ExportState make a company signable by the export token signer.
// Changing the slug invalidates previously issued export links.
func (c *Company) ExportID() string {
	return c.Id.String()
}

func (c *Company) ExportState() string {
	return c.Slug
}

type Offer struct {
	Id           OfferId   `json:"id"`
	CompanyId    CompanyId `json:"company_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	IsPaid       bool      `json:"is_paid"`
	Capacity     int       `json:"capacity"`
	CreatedAt    time.Time `json:"created_at"`
}

type CompanyWithOffers struct {
	Company
	Offers []Offer `json:"offers"`
}
