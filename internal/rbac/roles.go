package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
	RoleAdmin   = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsKnownRole(role string) bool {
	switch role {
	case RoleDoctor, RolePatient, RoleAdmin:
		return true
	default:
		return false
	}
}
