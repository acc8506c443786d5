package roles

import (
	"fmt"
	"strings"
)

type Role string

const (
	ROLE_CAREGIVER Role = "caregiver"
	ROLE_EXPERT    Role = "expert"
	ROLE_ADMIN     Role = "admin"
)

var All = []Role{ROLE_CAREGIVER, ROLE_EXPERT, ROLE_ADMIN}

func Parse(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case ROLE_CAREGIVER:
		return ROLE_CAREGIVER, nil
	case ROLE_EXPERT:
		return ROLE_EXPERT, nil
	case ROLE_ADMIN:
		return ROLE_ADMIN, nil
	}
	return "", fmt.Errorf("role is not valid, must be one of %v", All)
}

func (r Role) String() string {
	return string(r)
}

// SeesAllChildren tells whether the role may read children owned by other caregivers.
func (r Role) SeesAllChildren() bool {
	switch r {
	case ROLE_CAREGIVER:
		return false
	case ROLE_EXPERT, ROLE_ADMIN:
		return true
	}
	return false
}

// ManagesAllChildren tells whether the role may modify children owned by other caregivers.
func (r Role) ManagesAllChildren() bool {
	switch r {
	case ROLE_CAREGIVER, ROLE_EXPERT:
		return false
	case ROLE_ADMIN:
		return true
	}
	return false
}

// SelfRegistrable lists the roles a user can pick when signing up.
func (r Role) SelfRegistrable() bool {
	switch r {
	case ROLE_CAREGIVER, ROLE_EXPERT:
		return true
	case ROLE_ADMIN:
		return false
	}
	return false
}

func In(role Role, allowed ...Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
