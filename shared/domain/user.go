package domain

import (
	"strings"
	"time"
)

type User struct {
	Id                 UserId    `json:"id"`
	Email              Email     `json:"email"`
	Username           *string   `json:"username,omitempty"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	RegistrationNumber *string   `json:"registration_number,omitempty"`
	PassHash           string    `json:"-"`
	IsStaff            bool      `json:"is_staff"`
	IsSuperuser        bool      `json:"is_superuser"`
	CreatedAt          time.Time `json:"created_at"`
}

// FullName is "First Last" in title case, empty if both parts are empty.
func (u *User) FullName() string {
	return titleCase(strings.TrimSpace(u.FirstName + " " + u.LastName))
}

// HasAdminAccess reports whether the user may see any staff-scoped data at all.
func (u *User) HasAdminAccess() bool {
	return u.IsStaff || u.IsSuperuser
}

type Group struct {
	Id   GroupId `json:"id"`
	Name string  `json:"name"`
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
