package subscription

import apperrors "github.com/louisbranch/selfcare/internal/platform/errors"

var (
	// ErrNotPurchasable indicates a bundle with no purchase mode at all.
	ErrNotPurchasable = apperrors.New(apperrors.CodeBundleNotPurchasable, "bundle cannot be purchased")
	// ErrValidation indicates an incomplete or inconsistent request.
	ErrValidation = apperrors.New(apperrors.CodeWorkflowValidationFailed, "subscription request is not valid")
	// ErrBusy indicates a submission already in flight.
	ErrBusy = apperrors.New(apperrors.CodeWorkflowBusy, "a submission is already in progress")
	// ErrInvalidTransition indicates an operation outside the current state.
	ErrInvalidTransition = apperrors.New(apperrors.CodeWorkflowInvalidTransition, "operation is not allowed in the current state")
)
