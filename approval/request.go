package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spendkit/spend_service/approver"
	"github.com/spendkit/spend_service/notify"
	"github.com/spendkit/spend_service/spend_core"
	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RequestApproval opens an approval cycle for a spend: it resolves the
// approver, creates the pending Approval record, moves the spend to
// awaiting_approval and notifies the approver. The email channel is
// best-effort; its failure does not roll anything back.
func (s *approvalServiceImpl) RequestApproval(
	ctx context.Context,
	tx *gorm.DB,
	spend *spend_model.SpendEvent,
	action spend_core.Action,
) (*spend_model.Approval, error) {
	// At most one non-terminal approval per spend. An already-open cycle
	// is the outstanding one; do not stack a second approver on it.
	var existing spend_model.Approval
	err := tx.
		Where("spend_event_id = ?", spend.ID).
		Where("status = ?", spend_model.ApprovalPending).
		First(&existing).
		Error
	if err == nil {
		spend.Status = spend_model.StatusAwaitingApproval
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	approverUser, err := s.resolveApprover(tx, spend, action)
	if err != nil {
		return nil, err
	}
	if approverUser == nil {
		return nil, fmt.Errorf("%w: spend %s", spend_core.ErrApproverNotFound, spend.ID)
	}

	appr := spend_model.Approval{
		SpendEventID: spend.ID,
		ApproverID:   &approverUser.ID,
		Status:       spend_model.ApprovalPending,
	}
	err = tx.Create(&appr).Error
	if err != nil {
		return nil, err
	}

	err = spend_core.Transition(tx, spend, spend_model.StatusAwaitingApproval)
	if err != nil {
		return nil, err
	}

	err = spend_core.LogAction(tx, &spend_core.AuditPayload{
		OrganizationID: spend.OrganizationID,
		ActorID:        spend.UserID,
		Entity:         &appr,
		Action:         "approval_requested",
	})
	if err != nil {
		return nil, err
	}

	subject := "Approval required for spend"
	body := fmt.Sprintf(
		"Hello %s,\n\nA spend of %.2f %s requires your approval.\n\nDescription: %s\n\nPlease log in to review.",
		approverUser.FullName, spend.Amount, spend.Currency, spend.Description,
	)
	err = s.channel.Send(ctx, approverUser.Email, subject, body)
	if err != nil {
		slog.Error("approval notification send failed",
			slog.String("approval_id", appr.ID.String()),
			slog.String("err", err.Error()),
		)
	}

	_, err = notify.Create(tx, &notify.CreatePayload{
		OrganizationID: spend.OrganizationID,
		RecipientID:    approverUser.ID,
		Title:          "Approval Required",
		Message:        fmt.Sprintf("Spend of %.2f %s requires your approval", spend.Amount, spend.Currency),
		Metadata:       datatypes.JSONMap{"spend_id": spend.ID.String()},
	})
	if err != nil {
		return nil, err
	}

	return &appr, nil
}

func (s *approvalServiceImpl) resolveApprover(
	tx *gorm.DB,
	spend *spend_model.SpendEvent,
	action spend_core.Action,
) (*spend_model.User, error) {
	if action.ApproverID != nil {
		var user spend_model.User
		err := tx.First(&user, "id = ?", *action.ApproverID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return &user, nil
	}

	return approver.Select(tx, spend)
}
