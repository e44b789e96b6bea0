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

// provisionUser handles first-time user provisioning, creating the
// organization alongside when the event names one. Safe to replay.
func (s *Synchronizer) provisionUser(ctx context.Context, obj map[string]any) (*spend_model.User, error) {
	email := stringField(obj, "email")
	if email == "" {
		return nil, fmt.Errorf("%w: user event without email", spend_core.ErrValidation)
	}

	name := stringField(obj, "name")
	if name == "" {
		name = stringField(obj, "nickname")
	}

	appMeta := mapField(obj, "app_metadata")

	orgAuthID := stringField(obj, "organization_id")
	if orgAuthID == "" {
		orgAuthID = stringField(appMeta, "org_id")
	}
	orgName := stringField(obj, "organization_name")
	if orgName == "" {
		orgName = stringField(appMeta, "org_name")
	}

	role := spend_model.RoleEmployee
	if r := stringField(appMeta, "role"); r != "" {
		role = spend_model.Role(r)
	}

	externalID := stringField(obj, "user_id")

	var user spend_model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := s.resolveOrganization(tx, orgAuthID, orgName, name, email)
		if err != nil {
			return err
		}

		defaults := spend_model.User{
			FullName:       name,
			Role:           role,
			IsActive:       true,
			OrganizationID: &org.ID,
		}
		if externalID != "" {
			defaults.ExternalID = &externalID
		}

		return tx.
			Where(spend_model.User{Email: email}).
			Attrs(defaults).
			FirstOrCreate(&user).
			Error
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// resolveOrganization finds or creates the tenant a provisioning event
// points at. Events without organization info land in a personal
// workspace derived from the user's name and mail domain.
func (s *Synchronizer) resolveOrganization(
	tx *gorm.DB,
	orgAuthID string,
	orgName string,
	userName string,
	email string,
) (*spend_model.Organization, error) {
	var org spend_model.Organization

	domain := emailDomain(email)

	if orgAuthID != "" {
		name := orgName
		if name == "" {
			name = orgAuthID
		}

		attrs := spend_model.Organization{Name: name, IsActive: true}
		if domain != "" {
			attrs.Domain = &domain
		}

		err := tx.
			Where(spend_model.Organization{AuthID: &orgAuthID}).
			Attrs(attrs).
			FirstOrCreate(&org).
			Error
		if err != nil {
			return nil, err
		}

		return &org, nil
	}

	name := orgName
	if name == "" {
		name = fmt.Sprintf("%s's Org", userName)
	}

	attrs := spend_model.Organization{IsActive: true}
	if domain != "" {
		attrs.Domain = &domain
	}

	err := tx.
		Where(spend_model.Organization{Name: name}).
		Attrs(attrs).
		FirstOrCreate(&org).
		Error
	if err != nil {
		return nil, err
	}

	return &org, nil
}

// updateUser syncs name, role and active flag. An update for an unknown
// user provisions it instead of failing, tolerating reordered delivery.
func (s *Synchronizer) updateUser(ctx context.Context, obj map[string]any) (*spend_model.User, error) {
	email := stringField(obj, "email")
	if email == "" {
		return nil, fmt.Errorf("%w: user event without email", spend_core.ErrValidation)
	}

	db := s.db.WithContext(ctx)

	var user spend_model.User
	err := db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.provisionUser(ctx, obj)
		}
		return nil, err
	}

	appMeta := mapField(obj, "app_metadata")
	if role := stringField(appMeta, "role"); role != "" {
		user.Role = spend_model.Role(role)
	}

	if name := stringField(obj, "name"); name != "" {
		user.FullName = name
	}

	if blocked, ok := obj["blocked"].(bool); ok {
		user.IsActive = !blocked
	}

	err = db.Save(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// deactivateUser soft-deletes: the user row survives so old receipts and
// audit entries keep their actor.
func (s *Synchronizer) deactivateUser(ctx context.Context, externalID string) (*Result, error) {
	if externalID == "" {
		return nil, fmt.Errorf("%w: user.deleted event without user_id", spend_core.ErrValidation)
	}

	db := s.db.WithContext(ctx)

	var user spend_model.User
	err := db.
		Where("external_id = ? OR email = ?", externalID, externalID).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Info("user.deleted for unknown user", slog.String("user_id", externalID))
			return &Result{Status: StatusNotFound}, nil
		}
		return nil, err
	}

	user.IsActive = false
	err = db.Save(&user).Error
	if err != nil {
		return nil, err
	}

	return &Result{Status: StatusProcessed}, nil
}

// syncRoles overwrites the user's role with the first role of a
// roles.changed event. No history, no merge.
func (s *Synchronizer) syncRoles(ctx context.Context, obj map[string]any) (*Result, error) {
	email := stringField(obj, "email")
	roles, _ := obj["roles"].([]any)

	db := s.db.WithContext(ctx)

	var user spend_model.User
	err := db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Info("roles.changed for unknown user", slog.String("email", email))
			return &Result{Status: StatusNotFound}, nil
		}
		return nil, err
	}

	if len(roles) > 0 {
		if role, ok := roles[0].(string); ok && role != "" {
			user.Role = spend_model.Role(role)
			err = db.Save(&user).Error
			if err != nil {
				return nil, err
			}
		}
	}

	return &Result{Status: StatusProcessed}, nil
}

// assignRole handles organization.member.role.assigned / deleted. A
// removed role falls back to the base employee role.
func (s *Synchronizer) assignRole(ctx context.Context, data map[string]any, action string) (*Result, error) {
	userID := stringField(data, "user_id")
	roleName := stringField(data, "role_name")

	if userID == "" {
		return nil, fmt.Errorf("%w: role event without user_id", spend_core.ErrValidation)
	}

	db := s.db.WithContext(ctx)

	var user spend_model.User
	err := db.
		Where("external_id = ? OR email = ?", userID, userID).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Info("role event for unknown user", slog.String("user_id", userID))
			return &Result{Status: StatusNotFound}, nil
		}
		return nil, err
	}

	switch action {
	case "assign":
		if roleName != "" {
			user.Role = spend_model.Role(roleName)
		}
	case "remove":
		user.Role = spend_model.RoleEmployee
	}

	err = db.Save(&user).Error
	if err != nil {
		return nil, err
	}

	return &Result{Status: StatusProcessed}, nil
}

func emailDomain(email string) string {
	_, domain, found := strings.Cut(email, "@")
	if !found {
		return ""
	}

	return domain
}
