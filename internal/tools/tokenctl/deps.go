package tokenctl

import (
	"time"

	"github.com/louisbranch/selfcare/internal/account"
	"github.com/louisbranch/selfcare/internal/token/claims"
)

// Codec extends the token codec with random session values.
type Codec interface {
	account.TokenCodec
	RandomSessionValues() (claims.ClaimSet, error)
}

// Deps holds the collaborators the command runs against.
type Deps struct {
	Codec Codec
	Store account.TokenStore
	Now   func() time.Time
}
