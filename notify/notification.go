package notify

import (
	"errors"

	"github.com/google/uuid"
	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreatePayload struct {
	OrganizationID uuid.UUID
	RecipientID    uuid.UUID
	Title          string
	Message        string
	Metadata       datatypes.JSONMap
}

// Create persists an in-app notification record.
func Create(db *gorm.DB, pay *CreatePayload) (*spend_model.Notification, error) {
	notif := spend_model.Notification{
		OrganizationID: pay.OrganizationID,
		RecipientID:    pay.RecipientID,
		Title:          pay.Title,
		Message:        pay.Message,
		Metadata:       pay.Metadata,
	}

	err := db.Create(&notif).Error
	if err != nil {
		return nil, err
	}

	return &notif, nil
}

// MarkRead flags a notification as read. Only the recipient's own
// notifications are reachable; anything else reads as absent.
func MarkRead(db *gorm.DB, notificationID uuid.UUID, userID uuid.UUID) (*spend_model.Notification, error) {
	var notif spend_model.Notification
	err := db.
		Where("id = ?", notificationID).
		Where("recipient_id = ?", userID).
		First(&notif).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	notif.Read = true
	err = db.Save(&notif).Error
	if err != nil {
		return nil, err
	}

	return &notif, nil
}

type ListResult struct {
	Total  int64                      `json:"total"`
	Limit  int                        `json:"limit"`
	Offset int                        `json:"offset"`
	Items  []spend_model.Notification `json:"items"`
}

func List(db *gorm.DB, userID uuid.UUID, unreadOnly bool, limit int, offset int) (*ListResult, error) {
	if limit <= 0 {
		limit = 50
	}

	query := db.
		Model(&spend_model.Notification{}).
		Where("recipient_id = ?", userID)

	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	result := ListResult{
		Limit:  limit,
		Offset: offset,
		Items:  []spend_model.Notification{},
	}

	err := query.Count(&result.Total).Error
	if err != nil {
		return nil, err
	}

	err = query.
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&result.Items).
		Error

	return &result, err
}
