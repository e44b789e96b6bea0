package approval

import (
	"github.com/spendkit/spend_service/notify"
	"gorm.io/gorm"
)

type approvalServiceImpl struct {
	db      *gorm.DB
	channel notify.Channel
}

func NewApprovalService(db *gorm.DB, channel notify.Channel) *approvalServiceImpl {
	return &approvalServiceImpl{
		db:      db,
		channel: channel,
	}
}
