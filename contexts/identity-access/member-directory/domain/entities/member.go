package entities

import "time"

type Role string

const (
	RolePresident Role = "president"
	RoleAdmin     Role = "admin"
	RoleMember    Role = "member"
)

func ValidRole(role Role) bool {
	switch role {
	case RolePresident, RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

type Member struct {
	MemberID    string
	DisplayName string
	Email       string
	Role        Role
	JoinedAt    time.Time
	UpdatedAt   time.Time
}
