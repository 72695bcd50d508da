package domain

import (
	"slices"

	"github.com/google/uuid"
)

type Target int

const (
	TargetCompanies Target = iota
	TargetOffers
	TargetApplicants
)

func (t Target) String() string {
	switch t {
	case TargetCompanies:
		return "companies"
	case TargetOffers:
		return "offers"
	case TargetApplicants:
		return "applicants"
	}
	return "unknown"
}

// Scope restricts admin listings to rows owned by a set of groups.
// The zero value is unrestricted.
type Scope struct {
	restricted bool
	groups     []GroupId // sorted, unique
}

func RestrictTo(groups []GroupId) Scope {
	g := slices.Clone(groups)
	slices.Sort(g)
	return Scope{restricted: true, groups: slices.Compact(g)}
}

func (s Scope) Restricted() bool {
	return s.restricted
}

func (s Scope) Groups() []GroupId {
	return slices.Clone(s.groups)
}

// Intersect narrows s to groups. Narrowing an unrestricted scope yields exactly groups.
func (s Scope) Intersect(groups []GroupId) Scope {
	other := RestrictTo(groups)
	if !s.restricted {
		return other
	}
	out := make([]GroupId, 0, len(s.groups))
	for _, g := range s.groups {
		if _, found := slices.BinarySearch(other.groups, g); found {
			out = append(out, g)
		}
	}
	return Scope{restricted: true, groups: out}
}

// Allows reports whether a row owned by group is inside the scope.
// Rows without a group are visible only to unrestricted scopes.
func (s Scope) Allows(group *GroupId) bool {
	if !s.restricted {
		return true
	}
	if group == nil {
		return false
	}
	_, found := slices.BinarySearch(s.groups, *group)
	return found
}

func (s Scope) Equal(o Scope) bool {
	return s.restricted == o.restricted && slices.Equal(s.groups, o.groups)
}

// AdminQuery is a listing request over one of the admin targets.
type AdminQuery struct {
	Target    Target
	Scope     Scope
	Search    string
	CompanyId *uuid.UUID
	Limit     int
	Offset    int
}
