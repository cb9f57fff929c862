package domain

// Account roles. Admin accounts are only created for allow-listed emails.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether r is a recognized role.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}
