package spend_service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spendkit/spend_service/approval"
	"github.com/spendkit/spend_service/authn"
	"github.com/spendkit/spend_service/configs"
	"github.com/spendkit/spend_service/dispatch"
	"github.com/spendkit/spend_service/extract"
	"github.com/spendkit/spend_service/identity"
	"github.com/spendkit/spend_service/notify"
	"github.com/spendkit/spend_service/policy"
	"github.com/spendkit/spend_service/receipt"
	"github.com/spendkit/spend_service/spend_core"
	"github.com/spendkit/spend_service/spend_model"
	"gorm.io/gorm"
)

type RegisterHandler func()

// NewRegister wires the service graph and mounts the inbound HTTP
// surface: identity-provider webhooks and background task callbacks.
// Authenticated API routing lives outside this module.
func NewRegister(
	db *gorm.DB,
	cfg *configs.AppConfig,
	mux *http.ServeMux,
	channel notify.Channel,
	extractor extract.Extractor,
	dispatcher dispatch.TaskDispatcher,
) RegisterHandler {
	return func() {
		sync := identity.NewSynchronizer(db)
		approvals := approval.NewApprovalService(db, channel)
		evaluator := policy.NewEvaluator(db, approvals)
		receipts := receipt.NewReceiptService(db, cfg, extractor, evaluator, dispatcher)

		mux.HandleFunc("POST /events/webhook", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Webhook-Secret") != cfg.WebhookSecret {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "unauthorized webhook source"})
				return
			}

			var evt identity.Event
			err := json.NewDecoder(r.Body).Decode(&evt)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON payload"})
				return
			}

			result, err := sync.HandleWebhook(r.Context(), &evt)
			if err != nil {
				writeError(w, err)
				return
			}

			writeJSON(w, http.StatusOK, result)
		})

		mux.HandleFunc("POST /events/webhook/stream", func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if cfg.StreamToken == "" || !strings.Contains(authz, cfg.StreamToken) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "unauthorized stream"})
				return
			}

			var raw json.RawMessage
			err := json.NewDecoder(r.Body).Decode(&raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON payload"})
				return
			}

			// Log streams send a single event or a list.
			var events []identity.Event
			err = json.Unmarshal(raw, &events)
			if err != nil {
				var single identity.Event
				err = json.Unmarshal(raw, &single)
				if err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON payload"})
					return
				}
				events = []identity.Event{single}
			}

			result, err := sync.HandleStream(r.Context(), events)
			if err != nil {
				writeError(w, err)
				return
			}

			writeJSON(w, http.StatusOK, result)
		})

		mux.HandleFunc("POST /approvals/{id}/resolve", func(w http.ResponseWriter, r *http.Request) {
			actor, err := identityFromHeaders(r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "missing or invalid identity headers"})
				return
			}

			approvalID, err := uuid.Parse(r.PathValue("id"))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid approval id"})
				return
			}

			var body struct {
				Approved bool   `json:"approved"`
				Comment  string `json:"comment"`
			}
			err = json.NewDecoder(r.Body).Decode(&body)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON payload"})
				return
			}

			resolved, err := approvals.ResolveApproval(r.Context(), approvalID, actor, body.Approved, body.Comment)
			if err != nil {
				writeError(w, err)
				return
			}

			writeJSON(w, http.StatusOK, resolved)
		})

		mux.HandleFunc("POST /tasks/receipt_ocr", func(w http.ResponseWriter, r *http.Request) {
			var pay receipt.OCRTaskPayload
			err := json.NewDecoder(r.Body).Decode(&pay)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON payload"})
				return
			}

			receiptID, err := uuid.Parse(pay.ReceiptID)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid receipt_id"})
				return
			}

			err = receipts.Process(r.Context(), receiptID, pay.FileContent)
			if err != nil {
				slog.Error("receipt ocr task failed",
					slog.String("receipt_id", pay.ReceiptID),
					slog.String("err", err.Error()),
				)
				writeError(w, err)
				return
			}

			writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
		})

		mux.HandleFunc("GET /notifications", func(w http.ResponseWriter, r *http.Request) {
			actor, err := identityFromHeaders(r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "missing or invalid identity headers"})
				return
			}

			query := r.URL.Query()
			unreadOnly := query.Get("unread") == "true"
			limit, _ := strconv.Atoi(query.Get("limit"))
			offset, _ := strconv.Atoi(query.Get("offset"))

			result, err := notify.List(db, actor.UserID, unreadOnly, limit, offset)
			if err != nil {
				writeError(w, err)
				return
			}

			writeJSON(w, http.StatusOK, result)
		})

		mux.HandleFunc("POST /notifications/{id}/read", func(w http.ResponseWriter, r *http.Request) {
			actor, err := identityFromHeaders(r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "missing or invalid identity headers"})
				return
			}

			notificationID, err := uuid.Parse(r.PathValue("id"))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid notification id"})
				return
			}

			notif, err := notify.MarkRead(db, notificationID, actor.UserID)
			if err != nil {
				writeError(w, err)
				return
			}
			if notif == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"detail": "notification not found"})
				return
			}

			writeJSON(w, http.StatusOK, notif)
		})

		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	}
}

// identityFromHeaders reads the claims the gateway verified upstream.
// Token verification never happens in this service.
func identityFromHeaders(r *http.Request) (authn.Identity, error) {
	userID, err := uuid.Parse(r.Header.Get("X-User-Id"))
	if err != nil {
		return authn.Identity{}, err
	}

	orgID, err := uuid.Parse(r.Header.Get("X-Organization-Id"))
	if err != nil {
		return authn.Identity{}, err
	}

	return authn.Identity{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           spend_model.Role(r.Header.Get("X-User-Role")),
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, spend_core.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
	case errors.Is(err, spend_core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": err.Error()})
	case errors.Is(err, spend_core.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": err.Error()})
	case errors.Is(err, spend_core.ErrConflict), errors.Is(err, spend_core.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"detail": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
	}
}
