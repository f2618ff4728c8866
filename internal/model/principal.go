package model

// Role is the closed set of caller roles. Operations check it
// exhaustively; there is no fall-through for unknown values.
type Role string

const (
	RoleStudent     Role = "student"
	RoleCoordinator Role = "coordinator"
)

// ParseRole returns the Role for s, reporting whether s is recognized.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleCoordinator:
		return Role(s), true
	}
	return "", false
}

// Principal is the already-authenticated caller supplied by the identity
// gate. The core trusts it and only checks role and ownership.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
