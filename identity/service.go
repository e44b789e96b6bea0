// Package identity reconciles identity-provider lifecycle events into
// local organizations and users. Every handler is an upsert keyed by a
// stable external identifier: events may be redelivered or arrive out of
// order, so no handler assumes its referents already exist.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spendkit/spend_service/spend_core"
	"gorm.io/gorm"
)

type Synchronizer struct {
	db *gorm.DB
}

func NewSynchronizer(db *gorm.DB) *Synchronizer {
	return &Synchronizer{db: db}
}

// HandleWebhook processes a single-event webhook, deduplicated on the
// provider's event id.
func (s *Synchronizer) HandleWebhook(ctx context.Context, evt *Event) (*Result, error) {
	obj := evt.Object()
	if evt.Type == "" || obj == nil {
		return nil, fmt.Errorf("%w: missing event type or subject", spend_core.ErrValidation)
	}

	db := s.db.WithContext(ctx)

	if evt.ID != "" {
		dup, err := spend_core.IsDuplicate(db, evt.ID)
		if err != nil {
			return nil, err
		}
		if dup {
			return &Result{Status: StatusDuplicate, EventID: evt.ID}, nil
		}
	}

	var result *Result
	var err error

	switch evt.Type {
	case "user.created":
		_, err = s.provisionUser(ctx, obj)
		result = &Result{Status: StatusProcessed}

	case "user.updated":
		_, err = s.updateUser(ctx, obj)
		result = &Result{Status: StatusProcessed}

	case "user.deleted":
		result, err = s.deactivateUser(ctx, stringField(obj, "user_id"))

	case "roles.changed":
		result, err = s.syncRoles(ctx, obj)

	default:
		return &Result{
			Status:    StatusIgnored,
			EventType: evt.Type,
			Reason:    "no handler for this event type",
		}, nil
	}

	if err != nil {
		return nil, err
	}
	result.EventType = evt.Type

	if evt.ID != "" {
		err = spend_core.RecordKey(db, evt.ID, "identity_event", nil)
		if err != nil && !errors.Is(err, spend_core.ErrConflict) {
			return nil, err
		}
	}

	return result, nil
}

// HandleStream processes a batch from streamed delivery. Stream events
// carry no usable id; deduplication relies on each handler being an
// idempotent upsert.
func (s *Synchronizer) HandleStream(ctx context.Context, events []Event) (*Result, error) {
	for i := range events {
		evt := &events[i]
		obj := evt.Object()

		var err error
		switch evt.Type {
		case "organization.created":
			_, err = s.initializeWorkspace(ctx, obj)

		case "organization.deleted":
			_, err = s.handleOrganizationDeleted(ctx, obj)

		case "organization.member.added":
			_, err = s.linkMember(ctx, obj)

		case "user.created":
			_, err = s.provisionUser(ctx, obj)

		case "user.deleted":
			_, err = s.deactivateUser(ctx, stringField(obj, "user_id"))

		case "organization.member.role.assigned":
			_, err = s.assignRole(ctx, evt.Data, "assign")

		case "organization.member.role.deleted":
			_, err = s.assignRole(ctx, evt.Data, "remove")

		default:
			slog.Info("identity stream event ignored", slog.String("type", evt.Type))
		}

		if err != nil {
			return nil, err
		}
	}

	return &Result{Status: StatusAccepted}, nil
}
