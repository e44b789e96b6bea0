package spend_model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SpendEvent struct {
	Base
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"type:uuid"`
	UserID         *uuid.UUID `json:"user_id" gorm:"type:uuid"`
	VendorID       *uuid.UUID `json:"vendor_id" gorm:"type:uuid"`
	CategoryID     *uuid.UUID `json:"category_id" gorm:"type:uuid"`
	TeamID         *uuid.UUID `json:"team_id" gorm:"type:uuid"`

	Amount      float64     `json:"amount"`
	Currency    string      `json:"currency"`
	SpendDate   time.Time   `json:"spend_date"`
	Source      string      `json:"source"`
	Description string      `json:"description"`
	Status      SpendStatus `json:"status" gorm:"default:pending"`

	RawMetadata datatypes.JSONMap `json:"raw_metadata"`

	Organization *Organization `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	User         *User         `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	Vendor       *Vendor       `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	Category     *Category     `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	Team         *Team         `json:"-" gorm:"constraint:OnDelete:SET NULL"`
}

func (s *SpendEvent) AuditEntity() (string, uuid.UUID) {
	return "SpendEvent", s.ID
}

type Receipt struct {
	Base
	SpendEventID  uuid.UUID         `json:"spend_event_id" gorm:"type:uuid"`
	FileURL       string            `json:"file_url"`
	ExtractedData datatypes.JSONMap `json:"extracted_data"`
	IsVerified    bool              `json:"is_verified"`

	SpendEvent *SpendEvent `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

func (r *Receipt) AuditEntity() (string, uuid.UUID) {
	return "Receipt", r.ID
}

type Approval struct {
	Base
	SpendEventID uuid.UUID      `json:"spend_event_id" gorm:"type:uuid"`
	ApproverID   *uuid.UUID     `json:"approver_id" gorm:"type:uuid"`
	Status       ApprovalStatus `json:"status"`
	Comment      string         `json:"comment"`

	SpendEvent *SpendEvent `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Approver   *User       `json:"-" gorm:"constraint:OnDelete:SET NULL"`
}

func (a *Approval) AuditEntity() (string, uuid.UUID) {
	return "Approval", a.ID
}
