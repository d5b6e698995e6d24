package model

const RoleDriver = "driver"

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsDriver() bool {
	return p.Role == RoleDriver
}
