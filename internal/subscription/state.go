// Package subscription sequences a bundle purchase: configuration,
// beneficiary validation, explicit confirmation, and submission to the
// subscription service.
package subscription

// State is the workflow lifecycle label.
type State string

const (
	StateIdle                 State = "idle"
	StateConfiguring          State = "configuring"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateSubmitting           State = "submitting"
	StateSucceeded            State = "succeeded"
	StateFailed               State = "failed"
)

// Mode selects who receives the purchased bundle.
type Mode string

const (
	ModeSelf Mode = "self"
	ModeGift Mode = "gift"
)

// terminal reports whether a state accepts a new bundle selection.
func (s State) terminal() bool {
	return s == StateIdle || s == StateSucceeded || s == StateFailed
}
