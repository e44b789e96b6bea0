package spend_core

import (
	"fmt"
	"slices"

	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/gorm"
)

// spendTransitions is the allowed-transition table for a spend event.
// approved, rejected and blocked are terminal.
var spendTransitions = map[spend_model.SpendStatus][]spend_model.SpendStatus{
	spend_model.StatusPending: {
		spend_model.StatusAwaitingApproval,
		spend_model.StatusApproved,
		spend_model.StatusRejected,
		spend_model.StatusBlocked,
	},
	spend_model.StatusAwaitingApproval: {
		spend_model.StatusApproved,
		spend_model.StatusRejected,
		spend_model.StatusBlocked,
	},
	spend_model.StatusApproved: {},
	spend_model.StatusRejected: {},
	spend_model.StatusBlocked:  {},
}

func CanTransition(from, to spend_model.SpendStatus) bool {
	return slices.Contains(spendTransitions[from], to)
}

// Transition is the single enforcement point for spend status changes.
// Other packages must not write the status column directly.
func Transition(tx *gorm.DB, spend *spend_model.SpendEvent, next spend_model.SpendStatus) error {
	if !CanTransition(spend.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, spend.Status, next)
	}

	err := tx.
		Model(&spend_model.SpendEvent{}).
		Where("id = ?", spend.ID).
		Update("status", next).
		Error
	if err != nil {
		return err
	}

	spend.Status = next
	return nil
}
