package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

// Cohort is a study year + program combination new students must belong to.
type Cohort struct {
	Id        CohortId `json:"id"`
	StudyYear int      `json:"study_year"`
	Name      string   `json:"name"`
	Credits   int      `json:"credits"`
	Hours     int      `json:"hours"`
}

func (c Cohort) String() string {
	return fmt.Sprintf("%d %s", c.StudyYear, c.Name)
}

type StudentProfile struct {
	Id             ProfileId `json:"id"`
	UserId         UserId    `json:"user_id"`
	Phone          *string   `json:"phone,omitempty"`
	Specialization *string   `json:"specialization,omitempty"`
	Github         *string   `json:"github,omitempty"`
	Linkedin       *string   `json:"linkedin,omitempty"`
	Email          *string   `json:"email,omitempty"`
	CohortId       CohortId  `json:"cohort_id"`
	CVPath         *string   `json:"-"` // relative to media root
	CreatedAt      time.Time `json:"created_at"`
	ModifiedAt     time.Time `json:"modified_at"`
}

// CVBasename is the stored document's file name, empty without a CV.
func (p *StudentProfile) CVBasename() string {
	if p.CVPath == nil || *p.CVPath == "" {
		return ""
	}
	return filepath.Base(*p.CVPath)
}

// CVURLPath is the download path of the profile's CV, empty without one.
func (p *StudentProfile) CVURLPath() string {
	base := p.CVBasename()
	if base == "" {
		return ""
	}
	return fmt.Sprintf("/upload/cv/%s/%s", p.Id, base)
}

// CVArchiveName is the CV's entry name inside an export bundle. The profile id
// keeps it unique among applicants uploading files with the same name.
func (p *StudentProfile) CVArchiveName() string {
	base := p.CVBasename()
	if base == "" {
		return ""
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("cv/%s@%s%s", base[:len(base)-len(ext)], p.Id, ext)
}

// Applicant is a profile joined with the data an export row needs.
type Applicant struct {
	Profile StudentProfile `json:"profile"`
	User    User           `json:"user"`
	Cohort  Cohort         `json:"cohort"`
	Offers  []Offer        `json:"applications,omitempty"`
}

type Me struct {
	User         User            `json:"user"`
	Profile      *StudentProfile `json:"profile,omitempty"`
	Cohort       *Cohort         `json:"cohort,omitempty"`
	Applications []Offer         `json:"applications"`
}
