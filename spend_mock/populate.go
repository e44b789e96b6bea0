package spend_mock

import (
	"testing"
	"time"

	"github.com/spendkit/spend_service/spend_model"
	"github.com/zeebo/assert"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func PopulateOrganization(t *testing.T, db *gorm.DB, name string) *spend_model.Organization {
	t.Helper()

	org := spend_model.Organization{
		Name:     name,
		IsActive: true,
	}
	assert.Nil(t, db.Create(&org).Error)

	return &org
}

func PopulateUser(
	t *testing.T,
	db *gorm.DB,
	org *spend_model.Organization,
	email string,
	role spend_model.Role,
) *spend_model.User {
	t.Helper()

	user := spend_model.User{
		OrganizationID: &org.ID,
		Email:          email,
		FullName:       email,
		Role:           role,
		IsActive:       true,
	}
	assert.Nil(t, db.Create(&user).Error)

	return &user
}

func PopulatePolicy(
	t *testing.T,
	db *gorm.DB,
	org *spend_model.Organization,
	name string,
) *spend_model.Policy {
	t.Helper()

	policy := spend_model.Policy{
		OrganizationID: org.ID,
		Name:           name,
		IsActive:       true,
	}
	assert.Nil(t, db.Create(&policy).Error)

	return &policy
}

func PopulateRule(
	t *testing.T,
	db *gorm.DB,
	policy *spend_model.Policy,
	condition datatypes.JSONMap,
	action datatypes.JSONMap,
	priority int,
) *spend_model.PolicyRule {
	t.Helper()

	rule := spend_model.PolicyRule{
		PolicyID:  policy.ID,
		Condition: condition,
		Action:    action,
		Priority:  priority,
	}
	assert.Nil(t, db.Create(&rule).Error)

	return &rule
}

func PopulateSpend(
	t *testing.T,
	db *gorm.DB,
	org *spend_model.Organization,
	user *spend_model.User,
	amount float64,
) *spend_model.SpendEvent {
	t.Helper()

	spend := spend_model.SpendEvent{
		OrganizationID: org.ID,
		Amount:         amount,
		Currency:       "USD",
		SpendDate:      time.Now(),
		Source:         "manual",
		Status:         spend_model.StatusPending,
	}
	if user != nil {
		spend.UserID = &user.ID
	}
	assert.Nil(t, db.Create(&spend).Error)

	return &spend
}
