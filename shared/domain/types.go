package domain

import "github.com/google/uuid"

type (
	Email    = string
	Password = string
	UserId   = int64
	GroupId  = int64

	CompanyId = uuid.UUID
	OfferId   = uuid.UUID
	ProfileId = uuid.UUID
	CohortId  = uuid.UUID
)
