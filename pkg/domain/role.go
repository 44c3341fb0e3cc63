package domain

import "fmt"

// Role classifies a registered party. It governs which transfer directions
// the policy engine accepts.
type Role uint8

// Supported roles. The numeric values are part of the external surface
// (registry payloads and events) and must stay stable.
const (
	RoleNone     Role = 0
	RoleCitizen  Role = 1
	RoleMerchant Role = 2
)

// ParseRole validates and returns a Role from its numeric encoding.
func ParseRole(v uint8) (Role, error) {
	switch r := Role(v); r {
	case RoleNone, RoleCitizen, RoleMerchant:
		return r, nil
	default:
		return RoleNone, fmt.Errorf("unknown role: %d", v)
	}
}

func (r Role) String() string {
	switch r {
	case RoleCitizen:
		return "citizen"
	case RoleMerchant:
		return "merchant"
	default:
		return "none"
	}
}
