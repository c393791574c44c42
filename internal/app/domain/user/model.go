package user

import (
	"time"

	"github.com/R3E-Network/jobhunter/internal/app/domain/company"
	"github.com/R3E-Network/jobhunter/internal/app/domain/role"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Valid reports whether g is one of the known genders. Empty is allowed.
func (g Gender) Valid() bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// User is an account: candidate, recruiter or administrator depending on role.
type User struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Age          int          `json:"age"`
	Gender       Gender       `json:"gender"`
	Address      string       `json:"address"`
	Avatar       string       `json:"avatar"`
	CV           string       `json:"cv"`
	RefreshToken string       `json:"-"`
	Active       bool         `json:"active"`
	CompanyID    *int64       `json:"-"`
	RoleID       *int64       `json:"-"`
	Company      *company.Ref `json:"company,omitempty"`
	Role         *role.Ref    `json:"role,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	CreatedBy    string       `json:"createdBy"`
	UpdatedBy    string       `json:"updatedBy"`
}

// InCompany reports whether u belongs to the company with id.
func (u User) InCompany(id int64) bool {
	return u.CompanyID != nil && *u.CompanyID == id
}
