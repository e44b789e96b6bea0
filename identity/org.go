package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spendkit/spend_service/spend_core"
	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/gorm"
)

var defaultCategories = []string{
	"Travel",
	"Software",
	"Office Supplies",
	"Meals & Entertainment",
}

const defaultPolicyName = "Default Monthly Limit"

// initializeWorkspace gets or creates the organization and, only on
// first creation, seeds its default categories and policy. The created
// flag of the get-or-create is the seeding guard: a redelivered event
// finds the organization and seeds nothing.
func (s *Synchronizer) initializeWorkspace(ctx context.Context, obj map[string]any) (*spend_model.Organization, error) {
	authID := stringField(obj, "id")
	name := stringField(obj, "name")

	if authID == "" {
		return nil, fmt.Errorf("%w: organization event without id", spend_core.ErrValidation)
	}
	if name == "" {
		name = authID
	}

	var org spend_model.Organization
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Where(spend_model.Organization{AuthID: &authID}).
			Attrs(spend_model.Organization{Name: name, IsActive: true}).
			FirstOrCreate(&org)
		if res.Error != nil {
			return res.Error
		}

		created := res.RowsAffected > 0
		if !created {
			return nil
		}

		for _, catName := range defaultCategories {
			cat := spend_model.Category{
				OrganizationID: org.ID,
				Name:           catName,
				AccountingCode: accountingCode(catName),
			}
			err := tx.Create(&cat).Error
			if err != nil {
				return err
			}
		}

		return tx.Create(&spend_model.Policy{
			OrganizationID: org.ID,
			Name:           defaultPolicyName,
			IsActive:       true,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &org, nil
}

// handleOrganizationDeleted hard-deletes the tenant and everything under
// it. This is deliberately asymmetric with user deletion, which only
// flips the active flag.
func (s *Synchronizer) handleOrganizationDeleted(ctx context.Context, obj map[string]any) (*Result, error) {
	authID := stringField(obj, "id")
	if authID == "" {
		return nil, fmt.Errorf("%w: organization event without id", spend_core.ErrValidation)
	}

	db := s.db.WithContext(ctx)

	var org spend_model.Organization
	err := db.Where("auth_id = ?", authID).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Info("organization.deleted for unknown organization", slog.String("id", authID))
			return &Result{Status: StatusNotFound}, nil
		}
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		spendIDs := tx.
			Model(&spend_model.SpendEvent{}).
			Select("id").
			Where("organization_id = ?", org.ID)

		err := tx.Where("spend_event_id IN (?)", spendIDs).Delete(&spend_model.Approval{}).Error
		if err != nil {
			return err
		}
		err = tx.Where("spend_event_id IN (?)", spendIDs).Delete(&spend_model.Receipt{}).Error
		if err != nil {
			return err
		}

		policyIDs := tx.
			Model(&spend_model.Policy{}).
			Select("id").
			Where("organization_id = ?", org.ID)
		err = tx.Where("policy_id IN (?)", policyIDs).Delete(&spend_model.PolicyRule{}).Error
		if err != nil {
			return err
		}

		teamIDs := tx.
			Model(&spend_model.Team{}).
			Select("id").
			Where("organization_id = ?", org.ID)
		err = tx.Where("team_id IN (?)", teamIDs).Delete(&spend_model.TeamMember{}).Error
		if err != nil {
			return err
		}

		for _, model := range []any{
			&spend_model.SpendEvent{},
			&spend_model.Policy{},
			&spend_model.Team{},
			&spend_model.Vendor{},
			&spend_model.Category{},
			&spend_model.Notification{},
			&spend_model.AuditLog{},
			&spend_model.IdempotencyKey{},
			&spend_model.User{},
		} {
			err = tx.Where("organization_id = ?", org.ID).Delete(model).Error
			if err != nil {
				return err
			}
		}

		return tx.Delete(&org).Error
	})
	if err != nil {
		return nil, err
	}

	return &Result{Status: StatusProcessed}, nil
}

// linkMember attaches an already-provisioned user to an organization.
// Membership events can outrun user creation; an unknown user degrades
// to a logged not_found result rather than an error.
func (s *Synchronizer) linkMember(ctx context.Context, obj map[string]any) (*Result, error) {
	userID := stringField(obj, "user_id")
	orgAuthID := stringField(obj, "organization_id")

	if userID == "" || orgAuthID == "" {
		return nil, fmt.Errorf("%w: member event without user_id or organization_id", spend_core.ErrValidation)
	}

	db := s.db.WithContext(ctx)

	var user spend_model.User
	err := db.
		Where("external_id = ? OR email = ?", userID, userID).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Info("member.added for not-yet-provisioned user", slog.String("user_id", userID))
			return &Result{Status: StatusNotFound}, nil
		}
		return nil, err
	}

	var org spend_model.Organization
	err = db.Where("auth_id = ?", orgAuthID).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Info("member.added for unknown organization", slog.String("organization_id", orgAuthID))
			return &Result{Status: StatusNotFound}, nil
		}
		return nil, err
	}

	user.OrganizationID = &org.ID
	err = db.Save(&user).Error
	if err != nil {
		return nil, err
	}

	return &Result{Status: StatusProcessed}, nil
}

func accountingCode(name string) string {
	upper := strings.ToUpper(name)
	if len(upper) > 3 {
		upper = upper[:3]
	}

	return "EXP-" + upper
}
