package spend_core

import (
	"github.com/google/uuid"
	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Auditable is implemented by entities that can be the subject of an
// audit entry.
type Auditable interface {
	AuditEntity() (string, uuid.UUID)
}

type AuditPayload struct {
	OrganizationID uuid.UUID
	ActorID        *uuid.UUID
	Entity         Auditable
	Action         string
	Metadata       datatypes.JSONMap
}

// LogAction appends one immutable audit entry.
func LogAction(tx *gorm.DB, pay *AuditPayload) error {
	entityType, entityID := pay.Entity.AuditEntity()

	entry := spend_model.AuditLog{
		OrganizationID: pay.OrganizationID,
		ActorID:        pay.ActorID,
		EntityType:     entityType,
		EntityID:       entityID,
		Action:         pay.Action,
		Metadata:       pay.Metadata,
	}

	return tx.Create(&entry).Error
}
