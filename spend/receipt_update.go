package spend

import (
	"context"
	"strings"
	"time"

	"github.com/spendkit/spend_service/extract"
	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/gorm"
)

// UpdateAfterReceipt maps extracted invoice fields onto the owning spend.
// Only fields the extraction actually produced are overwritten.
func UpdateAfterReceipt(ctx context.Context, db *gorm.DB, spend *spend_model.SpendEvent, data *extract.InvoiceData) error {
	db = db.WithContext(ctx)
	updates := map[string]any{}

	if data.TotalAmount > 0 {
		spend.Amount = data.TotalAmount
		updates["amount"] = data.TotalAmount
	}

	if data.Date != "" {
		date, err := time.Parse("2006-01-02", data.Date)
		if err == nil {
			spend.SpendDate = date
			updates["spend_date"] = date
		}
	}

	vendorName := strings.TrimSpace(data.VendorName)
	if vendorName != "" {
		vendor := spend_model.Vendor{}
		err := db.
			Where(spend_model.Vendor{
				OrganizationID: spend.OrganizationID,
				NormalizedName: strings.ToLower(vendorName),
			}).
			Attrs(spend_model.Vendor{Name: vendorName}).
			FirstOrCreate(&vendor).
			Error
		if err != nil {
			return err
		}

		spend.VendorID = &vendor.ID
		updates["vendor_id"] = vendor.ID
	}

	if len(updates) == 0 {
		return nil
	}

	return db.
		Model(&spend_model.SpendEvent{}).
		Where("id = ?", spend.ID).
		Updates(updates).
		Error
}
