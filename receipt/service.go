package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spendkit/spend_service/configs"
	"github.com/spendkit/spend_service/dispatch"
	"github.com/spendkit/spend_service/extract"
	"github.com/spendkit/spend_service/policy"
	"github.com/spendkit/spend_service/spend"
	"github.com/spendkit/spend_service/spend_core"
	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OCRTaskPayload is the body of the dispatched receipt-processing task.
type OCRTaskPayload struct {
	ReceiptID   string `json:"receipt_id"`
	FileContent []byte `json:"file_content"`
}

type receiptServiceImpl struct {
	db         *gorm.DB
	cfg        *configs.AppConfig
	extractor  extract.Extractor
	evaluator  *policy.Evaluator
	dispatcher dispatch.TaskDispatcher
}

func NewReceiptService(
	db *gorm.DB,
	cfg *configs.AppConfig,
	extractor extract.Extractor,
	evaluator *policy.Evaluator,
	dispatcher dispatch.TaskDispatcher,
) *receiptServiceImpl {
	return &receiptServiceImpl{
		db:         db,
		cfg:        cfg,
		extractor:  extractor,
		evaluator:  evaluator,
		dispatcher: dispatcher,
	}
}

// Attach stores the uploaded receipt and queues OCR extraction as a
// background task. The caller gets the receipt back before extraction
// runs.
func (r *receiptServiceImpl) Attach(
	ctx context.Context,
	spendEvent *spend_model.SpendEvent,
	fileBytes []byte,
	fileURL string,
) (*spend_model.Receipt, error) {
	db := r.db.WithContext(ctx)

	rec := spend_model.Receipt{
		SpendEventID: spendEvent.ID,
		FileURL:      fileURL,
	}
	err := db.Create(&rec).Error
	if err != nil {
		return nil, err
	}

	err = spend_core.LogAction(db, &spend_core.AuditPayload{
		OrganizationID: spendEvent.OrganizationID,
		ActorID:        spendEvent.UserID,
		Entity:         &rec,
		Action:         "receipt_uploaded",
	})
	if err != nil {
		return nil, err
	}

	task, err := dispatch.NewJSONTask(
		r.cfg.QueuePath,
		r.cfg.Endpoint+"/tasks/receipt_ocr",
		&OCRTaskPayload{
			ReceiptID:   rec.ID.String(),
			FileContent: fileBytes,
		},
	)
	if err != nil {
		return nil, err
	}

	err = r.dispatcher(ctx, task)
	if err != nil {
		// The receipt is already committed; extraction can be retried.
		slog.Error("receipt ocr dispatch failed",
			slog.String("receipt_id", rec.ID.String()),
			slog.String("err", err.Error()),
		)
	}

	return &rec, nil
}

// Process runs OCR extraction for a receipt. Guarded by the
// receipt_ocr:<id> idempotency key: a replayed task is a no-op. An
// extraction failure leaves the key unrecorded and the receipt
// unverified so a retry can replay safely.
func (r *receiptServiceImpl) Process(ctx context.Context, receiptID uuid.UUID, fileBytes []byte) error {
	db := r.db.WithContext(ctx)
	key := fmt.Sprintf("receipt_ocr:%s", receiptID)

	dup, err := spend_core.IsDuplicate(db, key)
	if err != nil {
		return err
	}
	if dup {
		return nil
	}

	var rec spend_model.Receipt
	err = db.First(&rec, "id = ?", receiptID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: receipt %s", spend_core.ErrNotFound, receiptID)
		}
		return err
	}

	var spendEvent spend_model.SpendEvent
	err = db.First(&spendEvent, "id = ?", rec.SpendEventID).Error
	if err != nil {
		return err
	}

	data, err := r.extractor.Extract(ctx, fileBytes, "")
	if err != nil {
		return err
	}

	extracted := invoiceMetadata(data)
	rec.ExtractedData = extracted
	rec.IsVerified = true
	err = db.Save(&rec).Error
	if err != nil {
		return err
	}

	err = spend.UpdateAfterReceipt(ctx, db, &spendEvent, data)
	if err != nil {
		return err
	}

	err = policy.AutoCategorize(ctx, db, &spendEvent, data.VendorName)
	if err != nil {
		return err
	}

	// Amount and category may have changed which rules match.
	err = r.evaluator.Evaluate(ctx, &spendEvent)
	if err != nil {
		return err
	}

	err = spend_core.RecordKey(db, key, "receipt_ocr", &spendEvent.OrganizationID)
	if err != nil && !errors.Is(err, spend_core.ErrConflict) {
		return err
	}

	return spend_core.LogAction(db, &spend_core.AuditPayload{
		OrganizationID: spendEvent.OrganizationID,
		Entity:         &rec,
		Action:         "receipt_processed",
		Metadata:       extracted,
	})
}

func invoiceMetadata(data *extract.InvoiceData) datatypes.JSONMap {
	items := make([]any, 0, len(data.Items))
	for _, item := range data.Items {
		items = append(items, map[string]any{
			"description": item.Description,
			"quantity":    item.Quantity,
			"price":       item.Price,
		})
	}

	return datatypes.JSONMap{
		"vendor_name":  data.VendorName,
		"date":         data.Date,
		"items":        items,
		"total_amount": data.TotalAmount,
	}
}
