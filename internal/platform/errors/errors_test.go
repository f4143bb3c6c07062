package errors

import (
	"errors"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeMsisdnInvalidFormat, codes.InvalidArgument},
		{CodeMsisdnSelfGift, codes.InvalidArgument},
		{CodeClaimCoercionFailed, codes.InvalidArgument},
		{CodeClaimMalformedValue, codes.InvalidArgument},
		{CodeClaimKeyNotLinkable, codes.InvalidArgument},
		{CodeClaimIndexOutOfRange, codes.InvalidArgument},
		{CodeTokenDecodeFailed, codes.InvalidArgument},
		{CodeWorkflowValidationFailed, codes.InvalidArgument},
		{CodeBundleNotPurchasable, codes.FailedPrecondition},
		{CodeClaimDuplicatePrimary, codes.FailedPrecondition},
		{CodeWorkflowInvalidTransition, codes.FailedPrecondition},
		{CodeWorkflowBusy, codes.Aborted},
		{CodeServiceUnavailable, codes.Unavailable},
		{CodeNotFound, codes.NotFound},
		{CodeTokenEncodeFailed, codes.Internal},
		{CodeUnknown, codes.Internal},
		{Code("NEVER_DECLARED"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.GRPCCode(); got != tt.want {
				t.Errorf("GRPCCode(%s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestToGRPCStatusCarriesDetails(t *testing.T) {
	appErr := WithMetadata(CodeBundleNotPurchasable, "bundle b1 is not purchasable", map[string]string{
		"Bundle": "b1",
	})

	statusErr := appErr.ToGRPCStatus("fr-FR", "Le forfait b1 n'est pas disponible à l'achat")

	st, ok := status.FromError(statusErr)
	if !ok {
		t.Fatalf("status.FromError failed for %v", statusErr)
	}
	if st.Code() != codes.FailedPrecondition {
		t.Errorf("status code = %v, want FailedPrecondition", st.Code())
	}
	if st.Message() != "bundle b1 is not purchasable" {
		t.Errorf("status message = %q", st.Message())
	}

	var gotInfo *errdetails.ErrorInfo
	var gotLocalized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			gotInfo = d
		case *errdetails.LocalizedMessage:
			gotLocalized = d
		}
	}
	if gotInfo == nil {
		t.Fatal("status is missing ErrorInfo detail")
	}
	if gotInfo.Reason != string(CodeBundleNotPurchasable) || gotInfo.Domain != Domain {
		t.Errorf("ErrorInfo = %+v", gotInfo)
	}
	if gotInfo.Metadata["Bundle"] != "b1" {
		t.Errorf("ErrorInfo metadata = %v", gotInfo.Metadata)
	}
	if gotLocalized == nil {
		t.Fatal("status is missing LocalizedMessage detail")
	}
	if gotLocalized.Locale != "fr-FR" || gotLocalized.Message != "Le forfait b1 n'est pas disponible à l'achat" {
		t.Errorf("LocalizedMessage = %+v", gotLocalized)
	}
}

func TestIsMatchesByCode(t *testing.T) {
	wrapped := Wrap(CodeServiceUnavailable, "gateway down", errors.New("dial tcp: refused"))

	if !errors.Is(wrapped, New(CodeServiceUnavailable, "different text")) {
		t.Error("errors with the same code should match")
	}
	if errors.Is(wrapped, New(CodeNotFound, "gateway down")) {
		t.Error("errors with different codes should not match")
	}
	if unwrapped := errors.Unwrap(wrapped); unwrapped == nil || unwrapped.Error() != "dial tcp: refused" {
		t.Errorf("Unwrap = %v", unwrapped)
	}
}
