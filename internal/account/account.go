// Package account declares the collaborator contracts the operator
// console depends on: the remote account-management service, the
// subscription service, the token codec, and the working-token store.
package account

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/selfcare/internal/catalogue"
	"github.com/louisbranch/selfcare/internal/token/claims"
)

// TokenInfo is the identity summary derived from a verified token.
type TokenInfo struct {
	Phone      string    `json:"phone"`
	Country    string    `json:"country,omitempty"`
	LoginCount int       `json:"loginCount,omitempty"`
	IsExpired  bool      `json:"isExpired"`
	ExpiresAt  time.Time `json:"-"`
}

// TokenInfoFromClaims derives the identity summary from a decoded
// payload without contacting the gateway. Expiry is judged against now.
func TokenInfoFromClaims(payload claims.Claims, now time.Time) TokenInfo {
	info := TokenInfo{
		Phone:      claimString(payload, claims.DefaultPrimaryKey),
		Country:    claimString(payload, "https://mymtn.com/country"),
		LoginCount: int(claimNumber(payload, "https://mymtn.com/loginCount")),
	}
	if exp := claimNumber(payload, "exp"); exp != 0 {
		info.ExpiresAt = time.Unix(int64(exp), 0).UTC()
		info.IsExpired = info.ExpiresAt.Before(now)
	}
	return info
}

func claimString(payload claims.Claims, key string) string {
	value, _ := payload[key].(string)
	return value
}

func claimNumber(payload claims.Claims, key string) float64 {
	switch value := payload[key].(type) {
	case float64:
		return value
	case int64:
		return float64(value)
	case int:
		return float64(value)
	case json.Number:
		parsed, _ := value.Float64()
		return parsed
	case string:
		parsed, _ := strconv.ParseFloat(value, 64)
		return parsed
	}
	return 0
}

// Profile is the subscriber profile returned by the account service.
type Profile struct {
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
	Language    string `json:"language,omitempty"`
}

// Balance is one named balance bucket (data, SMS, MoMo, ...).
type Balance struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Confirmation is the subscription service's success payload.
type Confirmation struct {
	Message   string `json:"message,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Order carries the provisioning identifiers for one bundle purchase.
type Order struct {
	ProductID              string  `json:"product_id"`
	ProductName            string  `json:"product_name"`
	ProductPrice           float64 `json:"product_price"`
	ProductType            string  `json:"product_type"`
	SubscriptionProviderID string  `json:"subscription_provider_id"`
	SubscriptionName       string  `json:"subscription_name"`
	ProductIDForOther      string  `json:"product_id_for_other"`
	ProductIDForMomo       string  `json:"product_id_for_momo"`
}

// Default provisioning identifiers used when the catalogue omits them.
const (
	DefaultProviderID       = "MORPH"
	DefaultSubscriptionName = "mobilesurf"
)

// NewOrder builds the order payload for a flattened catalogue record,
// applying the provider defaults and nact-code fallbacks.
func NewOrder(record catalogue.Record) Order {
	order := Order{
		ProductID:              record.ID,
		ProductName:            record.Name,
		ProductPrice:           record.Cost.Value,
		ProductType:            strings.ToLower(record.Type),
		SubscriptionProviderID: record.SubscriptionProviderID,
		SubscriptionName:       record.SubscriptionName,
		ProductIDForOther:      record.NactCodeForOther,
		ProductIDForMomo:       record.NactCodeForMomo,
	}
	if order.ProductType == "" {
		order.ProductType = "bundle"
	}
	if order.SubscriptionProviderID == "" {
		order.SubscriptionProviderID = DefaultProviderID
	}
	if order.SubscriptionName == "" {
		order.SubscriptionName = DefaultSubscriptionName
	}
	if order.ProductIDForOther == "" {
		order.ProductIDForOther = record.ID
	}
	if order.ProductIDForMomo == "" {
		order.ProductIDForMomo = record.ID
	}
	return order
}

// Service fetches account data with the operator's identity token.
type Service interface {
	VerifyToken(ctx context.Context, token string) (TokenInfo, error)
	FetchProfile(ctx context.Context, token string) (Profile, error)
	FetchBalances(ctx context.Context, token string) ([]Balance, error)
	FetchCatalogue(ctx context.Context, token string) (catalogue.Catalogue, error)
}

// Subscriber submits one bundle purchase. A blank beneficiary means the
// operator buys for the token's own subscriber.
type Subscriber interface {
	Submit(ctx context.Context, token string, order Order, beneficiary string) (Confirmation, error)
}

// DecodedToken is a decoded but unverified bearer token.
type DecodedToken struct {
	Header  map[string]any
	Payload claims.Claims
}

// TokenCodec decodes tokens and produces re-signed replacements. The
// core never inspects signature bytes itself.
type TokenCodec interface {
	Decode(token string) (DecodedToken, error)
	ReEncode(base string, set claims.ClaimSet) (string, error)
	Generate(set claims.ClaimSet) (string, error)
}

// TokenStore persists the operator's working token between sessions.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
