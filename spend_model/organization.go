package spend_model

import (
	"github.com/google/uuid"
)

type Organization struct {
	Base
	Name     string  `json:"name"`
	Domain   *string `json:"domain"`
	AuthID   *string `json:"auth_id" gorm:"uniqueIndex"`
	IsActive bool    `json:"is_active" gorm:"default:true"`
}

type User struct {
	Base
	OrganizationID *uuid.UUID `json:"organization_id" gorm:"type:uuid"`
	ExternalID     *string    `json:"external_id" gorm:"uniqueIndex"`
	Email          string     `json:"email" gorm:"uniqueIndex"`
	FullName       string     `json:"full_name"`
	Role           Role       `json:"role"`
	IsActive       bool       `json:"is_active" gorm:"default:true"`
	AvatarURL      string     `json:"avatar_url"`

	Organization *Organization `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

type Team struct {
	Base
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid"`
	Name           string    `json:"name"`

	Organization *Organization `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

type TeamMember struct {
	Base
	TeamID uuid.UUID `json:"team_id" gorm:"type:uuid"`
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid"`

	Team *Team `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	User *User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

type Vendor struct {
	Base
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	IsBlocked      bool      `json:"is_blocked"`

	Organization *Organization `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

type Category struct {
	Base
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid"`
	Name           string    `json:"name"`
	AccountingCode string    `json:"accounting_code"`

	Organization *Organization `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}
