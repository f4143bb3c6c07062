// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// MSISDN errors
	CodeMsisdnInvalidFormat Code = "MSISDN_INVALID_FORMAT"
	CodeMsisdnSelfGift      Code = "MSISDN_SELF_GIFT"

	// Claim model errors
	CodeClaimCoercionFailed   Code = "CLAIM_COERCION_FAILED"
	CodeClaimMalformedValue   Code = "CLAIM_MALFORMED_STRUCTURED_VALUE"
	CodeClaimKeyNotLinkable   Code = "CLAIM_KEY_NOT_LINKABLE"
	CodeClaimIndexOutOfRange  Code = "CLAIM_INDEX_OUT_OF_RANGE"
	CodeClaimDuplicatePrimary Code = "CLAIM_DUPLICATE_PRIMARY"

	// Token codec errors
	CodeTokenDecodeFailed Code = "TOKEN_DECODE_FAILED"
	CodeTokenEncodeFailed Code = "TOKEN_ENCODE_FAILED"

	// Catalogue/bundle errors
	CodeBundleNotPurchasable Code = "BUNDLE_NOT_PURCHASABLE"

	// Workflow errors
	CodeWorkflowValidationFailed  Code = "WORKFLOW_VALIDATION_FAILED"
	CodeWorkflowBusy              Code = "WORKFLOW_BUSY"
	CodeWorkflowInvalidTransition Code = "WORKFLOW_INVALID_TRANSITION"

	// Collaborator errors
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeMsisdnInvalidFormat,
		CodeMsisdnSelfGift,
		CodeClaimCoercionFailed,
		CodeClaimMalformedValue,
		CodeClaimKeyNotLinkable,
		CodeClaimIndexOutOfRange,
		CodeTokenDecodeFailed,
		CodeWorkflowValidationFailed:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeBundleNotPurchasable,
		CodeClaimDuplicatePrimary,
		CodeWorkflowInvalidTransition:
		return codes.FailedPrecondition

	// Aborted - concurrency guard rejections
	case CodeWorkflowBusy:
		return codes.Aborted

	// Unavailable - collaborator faults
	case CodeServiceUnavailable:
		return codes.Unavailable

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
