package domain

// Roles stored on users.role.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// VoteType is the kind of community signal a user casts on a toilet.
type VoteType string

const (
	VoteReport VoteType = "REPORT"
	VoteVerify VoteType = "VERIFY"
)

// Valid reports whether t is one of the known vote types.
func (t VoteType) Valid() bool {
	return t == VoteReport || t == VoteVerify
}

// ValidRole reports whether r is an assignable role.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}
