// Package payment drives the two-phase initiate/complete exchange with the
// backend for a single resident session.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/hoaapi"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
)

const DefaultMethod = "online"

var (
	ErrAmountRequired   = errors.New("amount is required")
	ErrInvalidAmount    = errors.New("amount must be a positive number")
	ErrBillTypeRequired = errors.New("bill type is required")
	ErrAlreadyInitiated = errors.New("a payment is already initiated")
	ErrNoPendingPayment = errors.New("no payment has been initiated")
	ErrAlreadyCompleted = errors.New("payment already completed")
	ErrPaymentFailed    = errors.New("payment failed")
	ErrBusy             = errors.New("a payment step is already in progress")
)

// Backend is the part of the HOA API the flow talks to.
type Backend interface {
	InitiatePayment(ctx context.Context, token string, req hoaapi.InitiatePaymentRequest) (hoaapi.InitiatePaymentResponse, error)
	CompletePayment(ctx context.Context, token, paymentID string) (hoaapi.CompletePaymentResponse, error)
}

// Input is the raw form data for Initiate.
type Input struct {
	Amount   string
	BillType string
	Method   string
}

// Snapshot is a point-in-time view of a Flow.
type Snapshot struct {
	State                State                 `json:"state"`
	Intent               *models.PaymentIntent `json:"intent,omitempty"`
	ReceiptTransactionID string                `json:"receipt_transaction_id,omitempty"`
}

// Flow is the Idle → Initiated → Completed machine. Only one backend step
// runs at a time; a second call while one is in flight gets ErrBusy.
type Flow struct {
	backend Backend

	mu     sync.Mutex
	state  State
	intent models.PaymentIntent
	busy   bool
}

func NewFlow(backend Backend) *Flow {
	return &Flow{backend: backend, state: StateIdle}
}

// ParseInput validates form data without touching any state.
func ParseInput(in Input) (hoaapi.InitiatePaymentRequest, error) {
	amountStr := strings.TrimSpace(in.Amount)
	if amountStr == "" {
		return hoaapi.InitiatePaymentRequest{}, ErrAmountRequired
	}
	billType := strings.TrimSpace(in.BillType)
	if billType == "" {
		return hoaapi.InitiatePaymentRequest{}, ErrBillTypeRequired
	}
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return hoaapi.InitiatePaymentRequest{}, ErrInvalidAmount
	}
	method := strings.TrimSpace(in.Method)
	if method == "" {
		method = DefaultMethod
	}
	return hoaapi.InitiatePaymentRequest{Amount: amount, BillType: billType, Method: method}, nil
}

// Initiate validates the input and asks the backend for a payment. On any
// failure the flow keeps its previous state.
func (f *Flow) Initiate(ctx context.Context, token string, in Input) (models.PaymentIntent, error) {
	req, err := ParseInput(in)
	if err != nil {
		return models.PaymentIntent{}, err
	}
	if err := f.begin(ActionInitiate); err != nil {
		return models.PaymentIntent{}, err
	}

	resp, err := f.backend.InitiatePayment(ctx, token, req)
	if err != nil {
		f.end(nil)
		slog.WarnContext(ctx, "payment initiate failed", "bill_type", req.BillType, "err", err)
		return models.PaymentIntent{}, fmt.Errorf("initiate payment: %w", err)
	}

	intent := models.PaymentIntent{
		PaymentID:     resp.PaymentID,
		TransactionID: resp.TransactionID,
		Amount:        req.Amount,
		BillType:      req.BillType,
		Method:        req.Method,
		Status:        models.PaymentInitiated,
	}
	f.end(func() {
		f.state = StateInitiated
		f.intent = intent
	})
	slog.InfoContext(ctx, "payment initiated", "payment_id", intent.PaymentID, "transaction_id", intent.TransactionID)
	return intent, nil
}

// Complete confirms the pending payment. On failure the flow stays
// Initiated so the caller can retry or cancel.
func (f *Flow) Complete(ctx context.Context, token string) (models.PaymentIntent, error) {
	if err := f.begin(ActionComplete); err != nil {
		return models.PaymentIntent{}, err
	}
	f.mu.Lock()
	intent := f.intent
	f.mu.Unlock()

	resp, err := f.backend.CompletePayment(ctx, token, intent.PaymentID)
	if err != nil {
		f.end(nil)
		slog.WarnContext(ctx, "payment complete failed", "payment_id", intent.PaymentID, "err", err)
		return models.PaymentIntent{}, fmt.Errorf("complete payment: %w", err)
	}
	if resp.Payment != nil && strings.EqualFold(resp.Payment.Status, string(models.PaymentFailed)) {
		f.end(func() { f.intent.Status = models.PaymentFailed })
		return models.PaymentIntent{}, ErrPaymentFailed
	}

	intent.Status = models.PaymentCompleted
	if resp.Payment != nil && resp.Payment.TransactionID != "" {
		intent.TransactionID = resp.Payment.TransactionID
	}
	f.end(func() {
		f.state = StateCompleted
		f.intent = intent
	})
	slog.InfoContext(ctx, "payment completed", "payment_id", intent.PaymentID, "transaction_id", intent.TransactionID)
	return intent, nil
}

// Cancel discards the pending intent without calling the backend.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrBusy
	}
	if !ValidTransition(ActionCancel, f.state) {
		return ErrNoPendingPayment
	}
	f.state = StateIdle
	f.intent = models.PaymentIntent{}
	return nil
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Intent returns the current intent, if any.
func (f *Flow) Intent() (models.PaymentIntent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateIdle {
		return models.PaymentIntent{}, false
	}
	return f.intent, true
}

// ReceiptTransaction returns the transaction id whose receipt can be
// downloaded. It is only set once the payment has completed.
func (f *Flow) ReceiptTransaction() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateCompleted || f.intent.TransactionID == "" {
		return "", false
	}
	return f.intent.TransactionID, true
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := Snapshot{State: f.state}
	if f.state != StateIdle {
		intent := f.intent
		snap.Intent = &intent
	}
	if f.state == StateCompleted {
		snap.ReceiptTransactionID = f.intent.TransactionID
	}
	return snap
}

// begin checks the transition and marks the flow busy.
func (f *Flow) begin(action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrBusy
	}
	if !ValidTransition(action, f.state) {
		return transitionError(action, f.state)
	}
	if action == ActionComplete && f.intent.PaymentID == "" {
		return ErrNoPendingPayment
	}
	f.busy = true
	return nil
}

// end clears the busy mark and applies apply, if any, under the lock.
func (f *Flow) end(apply func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if apply != nil {
		apply()
	}
	f.busy = false
}

func transitionError(action string, from State) error {
	switch {
	case action == ActionInitiate && from == StateInitiated:
		return ErrAlreadyInitiated
	case action == ActionComplete && from == StateCompleted:
		return ErrAlreadyCompleted
	default:
		return ErrNoPendingPayment
	}
}
