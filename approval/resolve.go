package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spendkit/spend_service/authn"
	"github.com/spendkit/spend_service/spend_core"
	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ResolveApproval records the approver's decision and drives the spend to
// approved or rejected. Exactly one decision is accepted per approval: a
// second attempt fails inside the state machine because the spend is
// already terminal.
func (s *approvalServiceImpl) ResolveApproval(
	ctx context.Context,
	approvalID uuid.UUID,
	actor authn.Identity,
	approved bool,
	comment string,
) (*spend_model.Approval, error) {
	db := s.db.WithContext(ctx)

	var appr spend_model.Approval
	err := db.First(&appr, "id = ?", approvalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: approval %s", spend_core.ErrNotFound, approvalID)
		}
		return nil, err
	}

	if appr.ApproverID == nil || *appr.ApproverID != actor.UserID {
		return nil, fmt.Errorf("%w: user %s is not the designated approver", spend_core.ErrForbidden, actor.UserID)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var spend spend_model.SpendEvent
		err := tx.First(&spend, "id = ?", appr.SpendEventID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: spend %s", spend_core.ErrNotFound, appr.SpendEventID)
			}
			return err
		}

		next := spend_model.StatusRejected
		appr.Status = spend_model.ApprovalRejected
		if approved {
			next = spend_model.StatusApproved
			appr.Status = spend_model.ApprovalApproved
		}
		appr.Comment = comment

		err = tx.Save(&appr).Error
		if err != nil {
			return err
		}

		err = spend_core.Transition(tx, &spend, next)
		if err != nil {
			return err
		}

		return spend_core.LogAction(tx, &spend_core.AuditPayload{
			OrganizationID: spend.OrganizationID,
			ActorID:        appr.ApproverID,
			Entity:         &spend,
			Action:         "approval_resolved",
			Metadata:       datatypes.JSONMap{"approved": approved},
		})
	})
	if err != nil {
		return nil, err
	}

	return &appr, nil
}
