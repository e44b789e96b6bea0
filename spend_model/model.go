package spend_model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleFinance  Role = "finance"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

type SpendStatus string

const (
	StatusPending          SpendStatus = "pending"
	StatusAwaitingApproval SpendStatus = "awaiting_approval"
	StatusApproved         SpendStatus = "approved"
	StatusRejected         SpendStatus = "rejected"
	StatusBlocked          SpendStatus = "blocked"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type Base struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
