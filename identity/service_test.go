package identity_test

import (
	"testing"

	"github.com/spendkit/spend_service/identity"
	"github.com/spendkit/spend_service/spend_core"
	"github.com/spendkit/spend_service/spend_mock"
	"github.com/spendkit/spend_service/spend_model"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func userByEmail(t *testing.T, db *gorm.DB, email string) *spend_model.User {
	t.Helper()

	var user spend_model.User
	assert.Nil(t, db.Where("email = ?", email).First(&user).Error)

	return &user
}

func TestHandleWebhookUserCreated(t *testing.T) {
	db := spend_mock.SqliteDatabase(t)
	sync := identity.NewSynchronizer(db)

	evt := &identity.Event{
		ID:   "evt_1",
		Type: "user.created",
		Data: map[string]any{
			"object": map[string]any{
				"user_id": "auth0|u1",
				"email":   "jordan@acme.test",
				"name":    "Jordan Doe",
				"app_metadata": map[string]any{
					"org_id":   "org_acme",
					"org_name": "Acme",
					"role":     "finance",
				},
			},
		},
	}

	result, err := sync.HandleWebhook(t.Context(), evt)
	assert.Nil(t, err)
	assert.Equal(t, identity.StatusProcessed, result.Status)
	assert.Equal(t, "user.created", result.EventType)

	user := userByEmail(t, db, "jordan@acme.test")
	assert.Equal(t, "Jordan Doe", user.FullName)
	assert.Equal(t, spend_model.RoleFinance, user.Role)
	assert.True(t, user.IsActive)
	assert.NotNil(t, user.ExternalID)
	assert.Equal(t, "auth0|u1", *user.ExternalID)

	var org spend_model.Organization
	assert.Nil(t, db.Where("auth_id = ?", "org_acme").First(&org).Error)
	assert.Equal(t, "Acme", org.Name)
	assert.Equal(t, org.ID, *user.OrganizationID)

	t.Run("redelivery is deduplicated on event id", func(t *testing.T) {
		result, err := sync.HandleWebhook(t.Context(), evt)
		assert.Nil(t, err)
		assert.Equal(t, identity.StatusDuplicate, result.Status)

		var users int64
		assert.Nil(t, db.Model(&spend_model.User{}).Count(&users).Error)
		assert.Equal(t, int64(1), users)
	})

	t.Run("same user under a fresh event id upserts", func(t *testing.T) {
		again := *evt
		again.ID = "evt_2"

		result, err := sync.HandleWebhook(t.Context(), &again)
		assert.Nil(t, err)
		assert.Equal(t, identity.StatusProcessed, result.Status)

		var users int64
		assert.Nil(t, db.Model(&spend_model.User{}).Count(&users).Error)
		assert.Equal(t, int64(1), users)
	})
}

func TestHandleWebhookUserWithoutOrganization(t *testing.T) {
	db := spend_mock.SqliteDatabase(t)
	sync := identity.NewSynchronizer(db)

	_, err := sync.HandleWebhook(t.Context(), &identity.Event{
		Type: "user.created",
		User: map[string]any{
			"user_id": "auth0|solo",
			"email":   "solo@freelance.test",
			"name":    "Sam Solo",
		},
	})
	assert.Nil(t, err)

	user := userByEmail(t, db, "solo@freelance.test")
	assert.NotNil(t, user.OrganizationID)

	// A personal workspace was derived from the user's name.
	var org spend_model.Organization
	assert.Nil(t, db.First(&org, "id = ?", *user.OrganizationID).Error)
	assert.Equal(t, "Sam Solo's Org", org.Name)
	assert.NotNil(t, org.Domain)
	assert.Equal(t, "freelance.test", *org.Domain)
}

func TestHandleWebhookUserUpdated(t *testing.T) {
	db := spend_mock.SqliteDatabase(t)
	sync := identity.NewSynchronizer(db)

	t.Run("update for unknown user provisions", func(t *testing.T) {
		result, err := sync.HandleWebhook(t.Context(), &identity.Event{
			Type: "user.updated",
			User: map[string]any{
				"user_id": "auth0|u2",
				"email":   "casey@acme.test",
				"name":    "Casey",
			},
		})
		assert.Nil(t, err)
		assert.Equal(t, identity.StatusProcessed, result.Status)

		user := userByEmail(t, db, "casey@acme.test")
		assert.Equal(t, spend_model.RoleEmployee, user.Role)
	})

	t.Run("blocked flag deactivates", func(t *testing.T) {
		_, err := sync.HandleWebhook(t.Context(), &identity.Event{
			Type: "user.updated",
			User: map[string]any{
				"email":   "casey@acme.test",
				"blocked": true,
			},
		})
		assert.Nil(t, err)

		user := userByEmail(t, db, "casey@acme.test")
		assert.False(t, user.IsActive)
	})
}

func TestHandleWebhookUserDeleted(t *testing.T) {
	db := spend_mock.SqliteDatabase(t)
	sync := identity.NewSynchronizer(db)

	_, err := sync.HandleWebhook(t.Context(), &identity.Event{
		Type: "user.created",
		User: map[string]any{
			"user_id": "auth0|u3",
			"email":   "lee@acme.test",
			"name":    "Lee",
		},
	})
	assert.Nil(t, err)

	result, err := sync.HandleWebhook(t.Context(), &identity.Event{
		Type: "user.deleted",
		User: map[string]any{"user_id": "auth0|u3"},
	})
	assert.Nil(t, err)
	assert.Equal(t, identity.StatusProcessed, result.Status)

	// Soft delete: the row survives with the active flag cleared.
	user := userByEmail(t, db, "lee@acme.test")
	assert.False(t, user.IsActive)

	t.Run("unknown user degrades to not_found", func(t *testing.T) {
		result, err := sync.HandleWebhook(t.Context(), &identity.Event{
			Type: "user.deleted",
			User: map[string]any{"user_id": "auth0|ghost"},
		})
		assert.Nil(t, err)
		assert.Equal(t, identity.StatusNotFound, result.Status)
	})
}

func TestHandleWebhookRolesChanged(t *testing.T) {
	db := spend_mock.SqliteDatabase(t)
	sync := identity.NewSynchronizer(db)

	_, err := sync.HandleWebhook(t.Context(), &identity.Event{
		Type: "user.created",
		User: map[string]any{
			"user_id": "auth0|u4",
			"email":   "rae@acme.test",
			"name":    "Rae",
		},
	})
	assert.Nil(t, err)

	result, err := sync.HandleWebhook(t.Context(), &identity.Event{
		Type: "roles.changed",
		User: map[string]any{
			"email": "rae@acme.test",
			"roles": []any{"manager", "finance"},
		},
	})
	assert.Nil(t, err)
	assert.Equal(t, identity.StatusProcessed, result.Status)

	user := userByEmail(t, db, "rae@acme.test")
	assert.Equal(t, spend_model.RoleManager, user.Role)
}

func TestHandleWebhookValidation(t *testing.T) {
	db := spend_mock.SqliteDatabase(t)
	sync := identity.NewSynchronizer(db)

	_, err := sync.HandleWebhook(t.Context(), &identity.Event{Type: "user.created"})
	assert.ErrorIs(t, err, spend_core.ErrValidation)

	t.Run("unhandled type is ignored, not an error", func(t *testing.T) {
		result, err := sync.HandleWebhook(t.Context(), &identity.Event{
			Type: "session.revoked",
			User: map[string]any{"email": "x@y.test"},
		})
		assert.Nil(t, err)
		assert.Equal(t, identity.StatusIgnored, result.Status)
	})
}
