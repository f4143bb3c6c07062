package subscription

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/louisbranch/selfcare/internal/account"
	"github.com/louisbranch/selfcare/internal/catalogue"
	"github.com/louisbranch/selfcare/internal/msisdn"
	apperrors "github.com/louisbranch/selfcare/internal/platform/errors"
)

// DefaultRefreshDelay is how long the caller should wait after a
// successful purchase before refreshing account data, so the backend
// state can settle.
const DefaultRefreshDelay = 3 * time.Second

// Gate is the pause hook for background refreshers: the workflow calls
// Pause when a submission starts and Resume when it finishes.
type Gate interface {
	Pause()
	Resume()
}

// Request is the ephemeral purchase being configured. It exists from
// bundle selection until cancellation or a terminal transition.
type Request struct {
	Bundle      catalogue.Record
	Mode        Mode
	Beneficiary string // normalized, blank for self-purchase
}

// Result is a successful submission outcome.
type Result struct {
	Confirmation account.Confirmation
	// RefreshAfter is the delay the caller should schedule a data
	// refresh with; the workflow never performs the refresh itself.
	RefreshAfter time.Duration
}

// Config wires a workflow's collaborators.
type Config struct {
	Subscriber       account.Subscriber
	OperatorIdentity string // normalized operator number, for self-gift checks
	RefreshDelay     time.Duration
	Gate             Gate
}

// Workflow is the purchase state machine. At most one submission may be
// outstanding; every guard rejection leaves committed state untouched.
type Workflow struct {
	mu      sync.Mutex
	state   State
	request Request
	lastErr error

	subscriber       account.Subscriber
	operatorIdentity string
	refreshDelay     time.Duration
	gate             Gate
}

// New creates an idle workflow.
func New(cfg Config) (*Workflow, error) {
	if cfg.Subscriber == nil {
		return nil, apperrors.New(apperrors.CodeUnknown, "subscriber is required")
	}
	delay := cfg.RefreshDelay
	if delay <= 0 {
		delay = DefaultRefreshDelay
	}
	return &Workflow{
		state:            StateIdle,
		subscriber:       cfg.Subscriber,
		operatorIdentity: cfg.OperatorIdentity,
		refreshDelay:     delay,
		gate:             cfg.Gate,
	}, nil
}

// State returns the current lifecycle state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Request returns a copy of the in-flight request, if any.
func (w *Workflow) Request() (Request, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.terminal() {
		return Request{}, false
	}
	return w.request, true
}

// LastError returns the error surfaced by the most recent failed
// submission, if the workflow is awaiting a retry.
func (w *Workflow) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Select starts configuring a purchase of the given bundle. The bundle
// must permit at least one purchase mode. Selection is rejected while a
// submission is in flight and while another request is being configured.
func (w *Workflow) Select(record catalogue.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateSubmitting {
		return ErrBusy
	}
	if !w.state.terminal() {
		return ErrInvalidTransition
	}
	if !record.Purchasable() {
		return apperrors.WithMetadata(
			apperrors.CodeBundleNotPurchasable,
			"bundle "+record.Name+" permits neither self-purchase nor gifting",
			map[string]string{"Bundle": record.Name},
		)
	}

	mode := ModeSelf
	if !record.CanBuyForSelf {
		mode = ModeGift
	}
	w.state = StateConfiguring
	w.request = Request{Bundle: record, Mode: mode}
	w.lastErr = nil
	return nil
}

// ChooseMode sets the purchase mode. Only modes the bundle permits are
// accepted.
func (w *Workflow) ChooseMode(mode Mode) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateConfiguring {
		return w.transitionError()
	}
	switch mode {
	case ModeSelf:
		if !w.request.Bundle.CanBuyForSelf {
			return apperrors.New(apperrors.CodeWorkflowValidationFailed, "bundle cannot be bought for self")
		}
	case ModeGift:
		if !w.request.Bundle.CanBuyForOther {
			return apperrors.New(apperrors.CodeWorkflowValidationFailed, "bundle cannot be gifted")
		}
	default:
		return apperrors.New(apperrors.CodeWorkflowValidationFailed, "unknown purchase mode")
	}
	w.request.Mode = mode
	if mode == ModeSelf {
		w.request.Beneficiary = ""
	}
	return nil
}

// SetBeneficiary normalizes and records the gift recipient.
func (w *Workflow) SetBeneficiary(raw string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateConfiguring {
		return w.transitionError()
	}
	if w.request.Mode != ModeGift {
		return apperrors.New(apperrors.CodeWorkflowValidationFailed, "beneficiary applies to gift purchases only")
	}
	normalized, err := msisdn.NormalizeGift(raw, w.operatorIdentity)
	if err != nil {
		return err
	}
	w.request.Beneficiary = normalized
	return nil
}

// Validate moves the request to AwaitingConfirmation. A gift request
// must already carry a normalized beneficiary.
func (w *Workflow) Validate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateConfiguring {
		return w.transitionError()
	}
	switch w.request.Mode {
	case ModeSelf:
		if !w.request.Bundle.CanBuyForSelf {
			return apperrors.New(apperrors.CodeWorkflowValidationFailed, "bundle cannot be bought for self")
		}
	case ModeGift:
		if w.request.Beneficiary == "" {
			return apperrors.New(apperrors.CodeWorkflowValidationFailed, "gift purchase requires a beneficiary")
		}
	default:
		return apperrors.New(apperrors.CodeWorkflowValidationFailed, "purchase mode is not set")
	}
	w.state = StateAwaitingConfirmation
	return nil
}

// Cancel discards the request and returns to Idle. Cancellation is not
// permitted while a submission is in flight.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateConfiguring, StateAwaitingConfirmation:
		w.state = StateIdle
		w.request = Request{}
		w.lastErr = nil
		return nil
	case StateSubmitting:
		return ErrBusy
	default:
		return ErrInvalidTransition
	}
}

// Submit is the operator's confirmation: it sends the purchase to the
// subscription service. Input validation already happened on entry to
// AwaitingConfirmation. On failure the workflow returns to
// AwaitingConfirmation so the operator can retry without reconfiguring;
// retrying is always an explicit operator action.
func (w *Workflow) Submit(ctx context.Context, token string) (Result, error) {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return Result{}, ErrBusy
	}
	if w.state != StateAwaitingConfirmation {
		w.mu.Unlock()
		return Result{}, ErrInvalidTransition
	}
	w.state = StateSubmitting
	request := w.request
	w.mu.Unlock()

	if w.gate != nil {
		w.gate.Pause()
		defer w.gate.Resume()
	}

	tracer := otel.Tracer("selfcare/subscription")
	ctx, span := tracer.Start(ctx, "workflow.submit")
	span.SetAttributes(
		attribute.String("bundle.id", request.Bundle.ID),
		attribute.String("purchase.mode", string(request.Mode)),
	)
	defer span.End()

	confirmation, err := w.subscriber.Submit(ctx, token, account.NewOrder(request.Bundle), request.Beneficiary)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		w.state = StateAwaitingConfirmation
		w.lastErr = wrapServiceError(err)
		return Result{}, w.lastErr
	}

	w.state = StateSucceeded
	w.request = Request{}
	w.lastErr = nil
	return Result{
		Confirmation: confirmation,
		RefreshAfter: w.refreshDelay,
	}, nil
}

func (w *Workflow) transitionError() error {
	if w.state == StateSubmitting {
		return ErrBusy
	}
	return ErrInvalidTransition
}

// wrapServiceError keeps collaborator errors intact when they already
// carry a domain code, and wraps raw transport errors otherwise.
func wrapServiceError(err error) error {
	if _, ok := err.(*apperrors.Error); ok {
		return err
	}
	return apperrors.WrapWithMetadata(
		apperrors.CodeServiceUnavailable,
		"subscription submit failed: "+err.Error(),
		map[string]string{"Reason": err.Error()},
		err,
	)
}
