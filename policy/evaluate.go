package policy

import (
	"context"
	"sort"

	"github.com/spendkit/spend_service/spend_core"
	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApprovalRequester opens an approval cycle for a spend. Implemented by
// the approval workflow service.
type ApprovalRequester interface {
	RequestApproval(
		ctx context.Context,
		tx *gorm.DB,
		spend *spend_model.SpendEvent,
		action spend_core.Action,
	) (*spend_model.Approval, error)
}

type Evaluator struct {
	db        *gorm.DB
	approvals ApprovalRequester
}

func NewEvaluator(db *gorm.DB, approvals ApprovalRequester) *Evaluator {
	return &Evaluator{
		db:        db,
		approvals: approvals,
	}
}

// Evaluate matches the spend against every rule of the organization's
// active policies, lowest priority first, and applies each matching
// rule's action in collection order. All matches contribute, not just the
// first; conflicting transitions resolve last-write-wins. One
// policy_evaluated audit entry is always written, even with zero matches.
func (e *Evaluator) Evaluate(ctx context.Context, spend *spend_model.SpendEvent) error {
	db := e.db.WithContext(ctx)

	var policies []spend_model.Policy
	err := db.
		Preload("Rules").
		Where("organization_id = ?", spend.OrganizationID).
		Where("is_active = ?", true).
		Find(&policies).
		Error
	if err != nil {
		return err
	}

	var rules []spend_model.PolicyRule
	for _, policy := range policies {
		rules = append(rules, policy.Rules...)
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})

	actions := make([]datatypes.JSONMap, 0)
	for _, rule := range rules {
		if spend_core.MatchCondition(rule.Condition, spend) {
			actions = append(actions, rule.Action)
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		// Transition legality is judged against the status the run
		// started with, so a later action can overwrite an earlier one.
		entry := spend.Status

		for _, raw := range actions {
			action := spend_core.DecodeAction(raw)

			switch action.Type {
			case "require_approval":
				spend.Status = entry
				_, err := e.approvals.RequestApproval(ctx, tx, spend, action)
				if err != nil {
					return err
				}

			case "auto_approve":
				spend.Status = entry
				err := spend_core.Transition(tx, spend, spend_model.StatusApproved)
				if err != nil {
					return err
				}

			case "block":
				spend.Status = entry
				err := spend_core.Transition(tx, spend, spend_model.StatusBlocked)
				if err != nil {
					return err
				}

			default:
				// Unknown action types are ignored.
			}
		}

		return spend_core.LogAction(tx, &spend_core.AuditPayload{
			OrganizationID: spend.OrganizationID,
			ActorID:        spend.UserID,
			Entity:         spend,
			Action:         "policy_evaluated",
			Metadata:       datatypes.JSONMap{"actions": actions},
		})
	})
}
