package spend_model

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Policy struct {
	Base
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid"`
	Name           string    `json:"name"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`

	Rules        []PolicyRule  `json:"rules"`
	Organization *Organization `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

type PolicyRule struct {
	Base
	PolicyID  uuid.UUID         `json:"policy_id" gorm:"type:uuid"`
	Condition datatypes.JSONMap `json:"condition"`
	Action    datatypes.JSONMap `json:"action"`
	Priority  int               `json:"priority" gorm:"default:0"`

	Policy *Policy `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

type IdempotencyKey struct {
	Base
	OrganizationID *uuid.UUID `json:"organization_id" gorm:"type:uuid"`
	Key            string     `json:"key" gorm:"uniqueIndex"`
	Scope          string     `json:"scope"`

	Organization *Organization `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

type Notification struct {
	Base
	OrganizationID uuid.UUID         `json:"organization_id" gorm:"type:uuid"`
	RecipientID    uuid.UUID         `json:"recipient_id" gorm:"type:uuid"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Read           bool              `json:"read"`
	Metadata       datatypes.JSONMap `json:"metadata"`

	Organization *Organization `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Recipient    *User         `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// AuditLog rows are append-only. Nothing in the service updates them
// after creation.
type AuditLog struct {
	Base
	OrganizationID uuid.UUID         `json:"organization_id" gorm:"type:uuid"`
	ActorID        *uuid.UUID        `json:"actor_id" gorm:"type:uuid"`
	EntityType     string            `json:"entity_type"`
	EntityID       uuid.UUID         `json:"entity_id" gorm:"type:uuid"`
	Action         string            `json:"action"`
	Metadata       datatypes.JSONMap `json:"metadata"`

	Organization *Organization `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Actor        *User         `json:"-" gorm:"constraint:OnDelete:SET NULL"`
}
