package claims

import apperrors "github.com/louisbranch/selfcare/internal/platform/errors"

var (
	// ErrIndexOutOfRange indicates a field index outside the model.
	ErrIndexOutOfRange = apperrors.New(apperrors.CodeClaimIndexOutOfRange, "claim field index is out of range")
	// ErrKeyNotLinkable indicates a link toggle on a key outside the allow-list.
	ErrKeyNotLinkable = apperrors.New(apperrors.CodeClaimKeyNotLinkable, "claim key is not linkable")
	// ErrDuplicatePrimary indicates a second field claiming the primary identity key.
	ErrDuplicatePrimary = apperrors.New(apperrors.CodeClaimDuplicatePrimary, "primary identity claim already exists")
	// ErrCoercion indicates one or more fields failed type conversion.
	ErrCoercion = apperrors.New(apperrors.CodeClaimCoercionFailed, "claim coercion failed")
	// ErrMalformedValue indicates an array/object field whose raw text is not valid JSON.
	ErrMalformedValue = apperrors.New(apperrors.CodeClaimMalformedValue, "claim value is not valid JSON")
)
