package carectl

import (
	"context"
	"time"

	"github.com/louisbranch/selfcare/internal/account"
)

// Pinger checks gateway reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds the collaborators the command runs against.
type Deps struct {
	Service    account.Service
	Subscriber account.Subscriber
	Pinger     Pinger
	Store      account.TokenStore
	// RefreshDelay overrides the post-purchase settle window.
	RefreshDelay time.Duration
}
