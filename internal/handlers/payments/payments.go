// internal/handlers/payments/payments.go
package payments

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/auth"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/hoaapi"
	httpserver "github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/http"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/payment"
)

type Handler struct {
	api            *hoaapi.Client
	flows          *payment.Registry
	onUnauthorized http.HandlerFunc
}

func New(api *hoaapi.Client, flows *payment.Registry, onUnauthorized http.HandlerFunc) *Handler {
	return &Handler{api: api, flows: flows, onUnauthorized: onUnauthorized}
}

type InitiateRequest struct {
	Amount   string `json:"amount"`
	BillType string `json:"billType"`
	Method   string `json:"method"`
}

// Routes registers the payment endpoints on a router that is already
// guarded for residents.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/payments/initiate", h.Initiate)
	r.Post("/api/payments/complete", h.Complete)
	r.Post("/api/payments/cancel", h.Cancel)
	r.Get("/api/payments/current", h.Current)
	r.Get("/api/payments/history", h.History)
	r.Get("/api/payments/receipt/{transactionID}", h.Receipt)
}

// POST /api/payments/initiate { "amount": "500", "billType": "maintenance", "method": "card" }
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	sess, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req InitiateRequest
	if err := httpserver.Decode(w, r, &req); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	intent, err := flow.Initiate(r.Context(), sess.Token, payment.Input{
		Amount:   req.Amount,
		BillType: req.BillType,
		Method:   req.Method,
	})
	if err != nil {
		h.fail(w, r, err, "payment initiation failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"message": "payment initiated",
		"state":   flow.State(),
		"intent":  intent,
	})
}

// POST /api/payments/complete
// On success the receipt link is revealed and the history reloaded.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	sess, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	intent, err := flow.Complete(r.Context(), sess.Token)
	if err != nil {
		h.fail(w, r, err, "payment completion failed")
		return
	}
	out := map[string]any{
		"message":     "payment completed",
		"state":       flow.State(),
		"intent":      intent,
		"receipt_url": receiptURL(intent.TransactionID),
	}
	history, err := h.api.PaymentHistory(r.Context(), sess.Token)
	if err != nil {
		out["history_error"] = hoaapi.UserMessage(err, "failed to refresh payment history")
	} else {
		out["history"] = history
	}
	httpserver.JSON(w, http.StatusOK, out)
}

// POST /api/payments/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	_, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	if err := flow.Cancel(); err != nil {
		h.fail(w, r, err, "cancel failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"message": "payment cancelled",
		"state":   flow.State(),
	})
}

// GET /api/payments/current
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	_, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	snap := flow.Snapshot()
	out := map[string]any{"state": snap.State}
	if snap.Intent != nil {
		out["intent"] = snap.Intent
	}
	if snap.ReceiptTransactionID != "" {
		out["receipt_url"] = receiptURL(snap.ReceiptTransactionID)
	}
	httpserver.JSON(w, http.StatusOK, out)
}

// GET /api/payments/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		h.onUnauthorized(w, r)
		return
	}
	history, err := h.api.PaymentHistory(r.Context(), sess.Token)
	if err != nil {
		h.fail(w, r, err, "failed to load payment history")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"content": history})
}

// GET /api/payments/receipt/{transactionID}
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		h.onUnauthorized(w, r)
		return
	}
	txID := strings.TrimSpace(chi.URLParam(r, "transactionID"))
	if txID == "" {
		httpserver.Error(w, http.StatusBadRequest, "transaction id is required")
		return
	}
	rc, err := h.api.Receipt(r.Context(), sess.Token, txID)
	if err != nil {
		h.fail(w, r, err, "failed to download receipt")
		return
	}
	w.Header().Set("Content-Type", rc.ContentType)
	w.Header().Set("Content-Disposition", attachment(rc.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rc.Data)
}

// attachment builds a Content-Disposition value, quoting the backend supplied
// filename. Names mime cannot encode are dropped.
func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

func (h *Handler) flow(w http.ResponseWriter, r *http.Request) (*models.Session, *payment.Flow, bool) {
	sess, ok := auth.SessionFromContext(r.Context())
	id, idOK := auth.SessionIDFromContext(r.Context())
	if !ok || !idOK {
		h.onUnauthorized(w, r)
		return nil, nil, false
	}
	return sess, h.flows.For(id), true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case hoaapi.IsUnauthorized(err):
		h.onUnauthorized(w, r)
	case errors.Is(err, payment.ErrAmountRequired),
		errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, payment.ErrBillTypeRequired):
		httpserver.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, payment.ErrAlreadyInitiated),
		errors.Is(err, payment.ErrNoPendingPayment),
		errors.Is(err, payment.ErrAlreadyCompleted),
		errors.Is(err, payment.ErrBusy):
		httpserver.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrPaymentFailed):
		httpserver.Error(w, http.StatusPaymentRequired, err.Error())
	default:
		httpserver.UpstreamError(w, err, fallback)
	}
}

func receiptURL(transactionID string) string {
	return "/api/payments/receipt/" + url.PathEscape(transactionID)
}
