package policy

import (
	"context"
	"errors"
	"strings"

	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/gorm"
)

const uncategorizedName = "Uncategorized"

// AutoCategorize maps a vendor name onto one of the organization's
// categories by exact case-insensitive match, falling back to an
// "Uncategorized" category created on first use.
func AutoCategorize(ctx context.Context, db *gorm.DB, spend *spend_model.SpendEvent, vendorName string) error {
	vendorName = strings.TrimSpace(vendorName)
	if vendorName == "" {
		return nil
	}

	db = db.WithContext(ctx)

	var category spend_model.Category
	err := db.
		Where("organization_id = ?", spend.OrganizationID).
		Where("LOWER(name) = LOWER(?)", vendorName).
		First(&category).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		category = spend_model.Category{}
		err = db.
			Where(spend_model.Category{
				OrganizationID: spend.OrganizationID,
				Name:           uncategorizedName,
			}).
			FirstOrCreate(&category).
			Error
	}
	if err != nil {
		return err
	}

	err = db.
		Model(&spend_model.SpendEvent{}).
		Where("id = ?", spend.ID).
		Update("category_id", category.ID).
		Error
	if err != nil {
		return err
	}

	spend.CategoryID = &category.ID
	return nil
}
