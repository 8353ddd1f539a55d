package policy

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Role is the closed set of principal roles.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleDoctor        Role = "Doctor"
	RoleNurse         Role = "Nurse"
	RolePatient       Role = "Patient"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdministrator, RoleDoctor, RoleNurse, RolePatient}

// ParseRole accepts the canonical spelling case-insensitively and rejects anything else.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleDoctor, RoleNurse, RolePatient:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %q", string(r))
	}
	return string(r), nil
}

// Scan implements sql.Scanner.
func (r *Role) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
