package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleOfficer Role = "officer"
	RoleAdmin   Role = "admin"
)

// RegionHQ is the region carried by every admin account.
const RegionHQ = "HQ"

// MonitoredStates lists the regions officers report from, in dashboard order.
var MonitoredStates = []string{"ABIA", "CROSS RIVERS", "AKWA IBOM", "IMO STATE"}

func IsMonitoredState(state string) bool {
	for _, s := range MonitoredStates {
		if s == state {
			return true
		}
	}
	return false
}

func (r Role) IsValid() bool {
	return r == RoleOfficer || r == RoleAdmin
}

type Account struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	State        string    `json:"state" db:"state"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Claims is the payload of a session token.
type Claims struct {
	UserID string `json:"id"`
	Role   Role   `json:"role"`
	State  string `json:"state"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
