package receipt_test

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/google/uuid"
	"github.com/googleapis/gax-go/v2"
	"github.com/spendkit/spend_service/approval"
	"github.com/spendkit/spend_service/configs"
	"github.com/spendkit/spend_service/extract"
	"github.com/spendkit/spend_service/policy"
	"github.com/spendkit/spend_service/receipt"
	"github.com/spendkit/spend_service/spend_core"
	"github.com/spendkit/spend_service/spend_mock"
	"github.com/spendkit/spend_service/spend_model"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	org       *spend_model.Organization
	extractor *spend_mock.ExtractorMock
	tasks     []*cloudtaskspb.CreateTaskRequest
	receipts  interface {
		Attach(ctx context.Context, spendEvent *spend_model.SpendEvent, fileBytes []byte, fileURL string) (*spend_model.Receipt, error)
		Process(ctx context.Context, receiptID uuid.UUID, fileBytes []byte) error
	}
}

func newFixture(t *testing.T, extractor *spend_mock.ExtractorMock) *fixture {
	t.Helper()

	f := &fixture{
		db:        spend_mock.SqliteDatabase(t),
		extractor: extractor,
	}
	f.org = spend_mock.PopulateOrganization(t, f.db, "acme")

	evaluator := policy.NewEvaluator(f.db, approval.NewApprovalService(f.db, &spend_mock.ChannelMock{}))
	dispatcher := func(ctx context.Context, req *cloudtaskspb.CreateTaskRequest, opts ...gax.CallOption) error {
		f.tasks = append(f.tasks, req)
		return nil
	}

	cfg := &configs.AppConfig{Endpoint: "http://localhost:8081"}
	f.receipts = receipt.NewReceiptService(f.db, cfg, extractor, evaluator, dispatcher)

	return f
}

func TestAttach(t *testing.T) {
	f := newFixture(t, &spend_mock.ExtractorMock{})
	spendEvent := spend_mock.PopulateSpend(t, f.db, f.org, nil, 0)

	rec, err := f.receipts.Attach(t.Context(), spendEvent, []byte("fake-image"), "uploads/r1.jpg")
	assert.Nil(t, err)
	assert.False(t, rec.IsVerified)

	var audits int64
	assert.Nil(t, f.db.Model(&spend_model.AuditLog{}).
		Where("action = ?", "receipt_uploaded").Count(&audits).Error)
	assert.Equal(t, int64(1), audits)

	assert.Len(t, f.tasks, 1)
	httpreq := f.tasks[0].Task.GetHttpRequest()
	assert.Equal(t, "http://localhost:8081/tasks/receipt_ocr", httpreq.GetUrl())

	var pay receipt.OCRTaskPayload
	assert.Nil(t, json.Unmarshal(httpreq.Body, &pay))
	assert.Equal(t, rec.ID.String(), pay.ReceiptID)
	assert.Equal(t, []byte("fake-image"), pay.FileContent)

	// Extraction has not run yet.
	assert.Equal(t, 0, f.extractor.Calls)
}

func TestProcess(t *testing.T) {
	extractor := &spend_mock.ExtractorMock{
		Data: &extract.InvoiceData{
			VendorName:  "Cloud Hosting Inc",
			Date:        "2026-03-14",
			TotalAmount: 249.99,
			Items: []extract.LineItem{
				{Description: "compute", Quantity: 1, Price: 249.99},
			},
		},
	}
	f := newFixture(t, extractor)
	spendEvent := spend_mock.PopulateSpend(t, f.db, f.org, nil, 0)

	rec, err := f.receipts.Attach(t.Context(), spendEvent, []byte("img"), "uploads/r1.jpg")
	assert.Nil(t, err)

	err = f.receipts.Process(t.Context(), rec.ID, []byte("img"))
	assert.Nil(t, err)
	assert.Equal(t, 1, extractor.Calls)

	var reread spend_model.Receipt
	assert.Nil(t, f.db.First(&reread, "id = ?", rec.ID).Error)
	assert.True(t, reread.IsVerified)
	assert.Equal(t, "Cloud Hosting Inc", reread.ExtractedData["vendor_name"])

	var spendReread spend_model.SpendEvent
	assert.Nil(t, f.db.First(&spendReread, "id = ?", spendEvent.ID).Error)
	assert.Equal(t, 249.99, spendReread.Amount)
	assert.NotNil(t, spendReread.VendorID)
	assert.NotNil(t, spendReread.CategoryID)

	var vendor spend_model.Vendor
	assert.Nil(t, f.db.First(&vendor, "id = ?", *spendReread.VendorID).Error)
	assert.Equal(t, "cloud hosting inc", vendor.NormalizedName)

	// No matching category, so the fallback was created.
	var category spend_model.Category
	assert.Nil(t, f.db.First(&category, "id = ?", *spendReread.CategoryID).Error)
	assert.Equal(t, "Uncategorized", category.Name)

	t.Run("replayed task is a no-op", func(t *testing.T) {
		err := f.receipts.Process(t.Context(), rec.ID, []byte("img"))
		assert.Nil(t, err)
		assert.Equal(t, 1, extractor.Calls)

		var audits int64
		assert.Nil(t, f.db.Model(&spend_model.AuditLog{}).
			Where("action = ?", "receipt_processed").Count(&audits).Error)
		assert.Equal(t, int64(1), audits)
	})
}

func TestProcessReEvaluatesPolicies(t *testing.T) {
	extractor := &spend_mock.ExtractorMock{
		Data: &extract.InvoiceData{VendorName: "Stationery Shop", TotalAmount: 1200},
	}
	f := newFixture(t, extractor)

	pol := spend_mock.PopulatePolicy(t, f.db, f.org, "big spends")
	spend_mock.PopulateRule(t, f.db, pol,
		datatypes.JSONMap{"amount": float64(1200)},
		datatypes.JSONMap{"type": "block"},
		1,
	)

	spendEvent := spend_mock.PopulateSpend(t, f.db, f.org, nil, 10)
	rec, err := f.receipts.Attach(t.Context(), spendEvent, []byte("img"), "uploads/r2.jpg")
	assert.Nil(t, err)

	// The rule did not match at 10; the extracted amount makes it match.
	err = f.receipts.Process(t.Context(), rec.ID, []byte("img"))
	assert.Nil(t, err)

	var reread spend_model.SpendEvent
	assert.Nil(t, f.db.First(&reread, "id = ?", spendEvent.ID).Error)
	assert.Equal(t, spend_model.StatusBlocked, reread.Status)
}

func TestProcessExtractionFailure(t *testing.T) {
	extractor := &spend_mock.ExtractorMock{Err: spend_core.ErrExtractionFailed}
	f := newFixture(t, extractor)

	spendEvent := spend_mock.PopulateSpend(t, f.db, f.org, nil, 0)
	rec, err := f.receipts.Attach(t.Context(), spendEvent, []byte("img"), "uploads/r3.jpg")
	assert.Nil(t, err)

	err = f.receipts.Process(t.Context(), rec.ID, []byte("img"))
	assert.ErrorIs(t, err, spend_core.ErrExtractionFailed)

	var reread spend_model.Receipt
	assert.Nil(t, f.db.First(&reread, "id = ?", rec.ID).Error)
	assert.False(t, reread.IsVerified)

	// The failure left no idempotency record, so a retry really retries.
	extractor.Err = nil
	extractor.Data = &extract.InvoiceData{VendorName: "Corner Cafe", TotalAmount: 18.20}

	err = f.receipts.Process(t.Context(), rec.ID, []byte("img"))
	assert.Nil(t, err)
	assert.Equal(t, 2, extractor.Calls)

	assert.Nil(t, f.db.First(&reread, "id = ?", rec.ID).Error)
	assert.True(t, reread.IsVerified)
}

func TestProcessUnknownReceipt(t *testing.T) {
	f := newFixture(t, &spend_mock.ExtractorMock{})

	err := f.receipts.Process(t.Context(), uuid.New(), []byte("img"))
	assert.ErrorIs(t, err, spend_core.ErrNotFound)
}
