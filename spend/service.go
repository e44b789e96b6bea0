package spend

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spendkit/spend_service/policy"
	"github.com/spendkit/spend_service/spend_core"
	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type spendServiceImpl struct {
	db        *gorm.DB
	evaluator *policy.Evaluator
}

func NewSpendService(db *gorm.DB, evaluator *policy.Evaluator) *spendServiceImpl {
	return &spendServiceImpl{
		db:        db,
		evaluator: evaluator,
	}
}

type CreatePayload struct {
	OrganizationID uuid.UUID
	UserID         *uuid.UUID
	VendorID       *uuid.UUID
	CategoryID     *uuid.UUID
	TeamID         *uuid.UUID

	Amount      float64
	Currency    string
	SpendDate   time.Time
	Source      string
	Description string
	Metadata    datatypes.JSONMap

	// IdempotencyKey is an optional caller-supplied token. A replayed
	// token returns the spend created by the first call.
	IdempotencyKey string
}

// CreateSpend persists a new spend event and runs policy evaluation on
// it. The idempotency token is recorded only after evaluation completed,
// so a failed attempt can be retried with the same token.
func (s *spendServiceImpl) CreateSpend(ctx context.Context, pay *CreatePayload) (*spend_model.SpendEvent, error) {
	db := s.db.WithContext(ctx)

	if pay.IdempotencyKey != "" {
		dup, err := spend_core.IsDuplicate(db, pay.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if dup {
			var existing spend_model.SpendEvent
			err = db.
				Where(datatypes.JSONQuery("raw_metadata").Equals(pay.IdempotencyKey, "idempotency")).
				First(&existing).
				Error
			if err != nil {
				return nil, err
			}
			return &existing, nil
		}
	}

	metadata := datatypes.JSONMap{}
	for k, v := range pay.Metadata {
		metadata[k] = v
	}
	if pay.IdempotencyKey != "" {
		metadata["idempotency"] = pay.IdempotencyKey
	}

	event := spend_model.SpendEvent{
		OrganizationID: pay.OrganizationID,
		UserID:         pay.UserID,
		VendorID:       pay.VendorID,
		CategoryID:     pay.CategoryID,
		TeamID:         pay.TeamID,
		Amount:         pay.Amount,
		Currency:       pay.Currency,
		SpendDate:      pay.SpendDate,
		Source:         pay.Source,
		Description:    pay.Description,
		Status:         spend_model.StatusPending,
		RawMetadata:    metadata,
	}

	err := db.Create(&event).Error
	if err != nil {
		return nil, err
	}

	err = spend_core.LogAction(db, &spend_core.AuditPayload{
		OrganizationID: event.OrganizationID,
		ActorID:        event.UserID,
		Entity:         &event,
		Action:         "spend_created",
	})
	if err != nil {
		return nil, err
	}

	err = s.evaluator.Evaluate(ctx, &event)
	if err != nil {
		return nil, err
	}

	if pay.IdempotencyKey != "" {
		err = spend_core.RecordKey(db, pay.IdempotencyKey, "spend_create", &event.OrganizationID)
		if err != nil {
			return nil, err
		}
	}

	return &event, nil
}
