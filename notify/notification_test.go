package notify_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/spendkit/spend_service/notify"
	"github.com/spendkit/spend_service/spend_mock"
	"github.com/spendkit/spend_service/spend_model"
	"github.com/stretchr/testify/assert"
)

func TestNotifications(t *testing.T) {
	db := spend_mock.SqliteDatabase(t)
	org := spend_mock.PopulateOrganization(t, db, "acme")
	alice := spend_mock.PopulateUser(t, db, org, "alice@acme.test", spend_model.RoleManager)
	bob := spend_mock.PopulateUser(t, db, org, "bob@acme.test", spend_model.RoleEmployee)

	first, err := notify.Create(db, &notify.CreatePayload{
		OrganizationID: org.ID,
		RecipientID:    alice.ID,
		Title:          "Approval Required",
		Message:        "Spend of 120.00 USD requires your approval",
	})
	assert.Nil(t, err)
	assert.False(t, first.Read)

	_, err = notify.Create(db, &notify.CreatePayload{
		OrganizationID: org.ID,
		RecipientID:    alice.ID,
		Title:          "Approval Required",
		Message:        "Spend of 75.00 USD requires your approval",
	})
	assert.Nil(t, err)

	t.Run("list scopes to the recipient", func(t *testing.T) {
		result, err := notify.List(db, alice.ID, false, 0, 0)
		assert.Nil(t, err)
		assert.Equal(t, int64(2), result.Total)
		assert.Len(t, result.Items, 2)

		result, err = notify.List(db, bob.ID, false, 0, 0)
		assert.Nil(t, err)
		assert.Equal(t, int64(0), result.Total)
	})

	t.Run("mark read and unread filter", func(t *testing.T) {
		marked, err := notify.MarkRead(db, first.ID, alice.ID)
		assert.Nil(t, err)
		assert.NotNil(t, marked)
		assert.True(t, marked.Read)

		result, err := notify.List(db, alice.ID, true, 0, 0)
		assert.Nil(t, err)
		assert.Equal(t, int64(1), result.Total)
	})

	t.Run("mark read is recipient scoped", func(t *testing.T) {
		marked, err := notify.MarkRead(db, first.ID, bob.ID)
		assert.Nil(t, err)
		assert.Nil(t, marked)
	})

	t.Run("unknown notification reads as absent", func(t *testing.T) {
		marked, err := notify.MarkRead(db, uuid.New(), alice.ID)
		assert.Nil(t, err)
		assert.Nil(t, marked)
	})
}
