package approver

import (
	"errors"
	"sort"
	"strings"

	"github.com/spendkit/spend_service/spend_core"
	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/gorm"
)

// Select picks the responsible approver for a spend. Rules are checked
// highest priority first and the first match wins; this intentionally
// differs from the policy evaluator, which collects every match in
// ascending order.
//
// Returns (nil, nil) when no approver can be resolved at all. Callers for
// whom an approval is mandatory must treat that as an error.
func Select(db *gorm.DB, spend *spend_model.SpendEvent) (*spend_model.User, error) {
	var policies []spend_model.Policy
	err := db.
		Preload("Rules").
		Where("organization_id = ?", spend.OrganizationID).
		Where("is_active = ?", true).
		Find(&policies).
		Error
	if err != nil {
		return nil, err
	}

	var rules []spend_model.PolicyRule
	for _, policy := range policies {
		rules = append(rules, policy.Rules...)
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})

	categoryName, err := spendCategoryName(db, spend)
	if err != nil {
		return nil, err
	}

	for _, rule := range rules {
		if !matchRule(rule, spend, categoryName) {
			continue
		}

		action := spend_core.DecodeAction(rule.Action)
		role := action.ApproverRole
		if role == "" {
			role = spend_model.RoleManager
		}

		user, err := firstActiveByRole(db, spend, role)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}

	// Fallback: first active manager in the organization.
	return firstActiveByRole(db, spend, spend_model.RoleManager)
}

func matchRule(rule spend_model.PolicyRule, spend *spend_model.SpendEvent, categoryName string) bool {
	for _, pred := range spend_core.DecodeSelectorCondition(rule.Condition) {
		switch pred.Kind {
		case spend_core.PredicateAmountGreater:
			if spend.Amount <= pred.Number {
				return false
			}
		case spend_core.PredicateAmountLess:
			if spend.Amount >= pred.Number {
				return false
			}
		case spend_core.PredicateCategoryEquals:
			if categoryName != pred.Text {
				return false
			}
		default:
			// Unrecognized predicates fail closed.
			return false
		}
	}

	return true
}

func spendCategoryName(db *gorm.DB, spend *spend_model.SpendEvent) (string, error) {
	if spend.CategoryID == nil {
		return "", nil
	}

	var category spend_model.Category
	err := db.First(&category, "id = ?", *spend.CategoryID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	return strings.TrimSpace(category.Name), nil
}

func firstActiveByRole(db *gorm.DB, spend *spend_model.SpendEvent, role spend_model.Role) (*spend_model.User, error) {
	var user spend_model.User
	err := db.
		Where("organization_id = ?", spend.OrganizationID).
		Where("role = ?", role).
		Where("is_active = ?", true).
		Order("created_at asc").
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}
