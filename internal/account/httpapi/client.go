// Package httpapi talks to the selfcare gateway, the thin backend that
// fronts the carrier's account-management and subscription APIs. Every
// response uses the gateway envelope {success, message, data}.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/selfcare/internal/account"
	"github.com/louisbranch/selfcare/internal/catalogue"
	apperrors "github.com/louisbranch/selfcare/internal/platform/errors"
)

// Config wires a gateway client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client implements account.Service and account.Subscriber over the
// gateway's JSON routes.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

// New creates a gateway client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("gateway base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: base,
		http:    httpClient,
		tracer:  otel.Tracer("selfcare/httpapi"),
	}, nil
}

// envelope is the gateway's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type tokenRequest struct {
	JWTToken string `json:"jwtToken"`
}

type subscribeRequest struct {
	JWTToken         string        `json:"jwtToken"`
	SubscriptionData account.Order `json:"subscriptionData"`
	BeneficiaryPhone string        `json:"beneficiaryPhone,omitempty"`
	IsGift           bool          `json:"isGift"`
}

type tokenInfoPayload struct {
	Phone      string `json:"phone"`
	Country    string `json:"country"`
	LoginCount int    `json:"loginCount"`
	IsExpired  bool   `json:"isExpired"`
	ExpiresAt  int64  `json:"expiresAt"`
}

// VerifyToken checks the token against the carrier and returns its
// identity summary.
func (c *Client) VerifyToken(ctx context.Context, token string) (account.TokenInfo, error) {
	var payload tokenInfoPayload
	if err := c.post(ctx, "/api/mtn/verify-jwt", tokenRequest{JWTToken: token}, &payload); err != nil {
		return account.TokenInfo{}, err
	}
	info := account.TokenInfo{
		Phone:      payload.Phone,
		Country:    payload.Country,
		LoginCount: payload.LoginCount,
		IsExpired:  payload.IsExpired,
	}
	if payload.ExpiresAt > 0 {
		info.ExpiresAt = time.Unix(payload.ExpiresAt, 0).UTC()
	}
	return info, nil
}

// FetchProfile returns the subscriber profile.
func (c *Client) FetchProfile(ctx context.Context, token string) (account.Profile, error) {
	var profile account.Profile
	if err := c.post(ctx, "/api/mtn/profile", tokenRequest{JWTToken: token}, &profile); err != nil {
		return account.Profile{}, err
	}
	return profile, nil
}

// FetchBalances returns the account's balance buckets.
func (c *Client) FetchBalances(ctx context.Context, token string) ([]account.Balance, error) {
	var balances []account.Balance
	if err := c.post(ctx, "/api/mtn/balances", tokenRequest{JWTToken: token}, &balances); err != nil {
		return nil, err
	}
	return balances, nil
}

// FetchCatalogue returns the nested product catalogue.
func (c *Client) FetchCatalogue(ctx context.Context, token string) (catalogue.Catalogue, error) {
	var cat catalogue.Catalogue
	if err := c.post(ctx, "/api/mtn/catalogue", tokenRequest{JWTToken: token}, &cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// Submit sends one bundle purchase. A blank beneficiary buys for the
// token's own subscriber.
func (c *Client) Submit(ctx context.Context, token string, order account.Order, beneficiary string) (account.Confirmation, error) {
	req := subscribeRequest{
		JWTToken:         token,
		SubscriptionData: order,
		BeneficiaryPhone: beneficiary,
		IsGift:           beneficiary != "",
	}
	var confirmation account.Confirmation
	if err := c.post(ctx, "/api/mtn/subscribe", req, &confirmation); err != nil {
		return account.Confirmation{}, err
	}
	return confirmation, nil
}

// Ping checks gateway reachability.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "gateway.ping")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/mtn/ping", nil)
	if err != nil {
		return c.unavailable(span, "/api/mtn/ping", err.Error(), err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return c.unavailable(span, "/api/mtn/ping", err.Error(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.unavailable(span, "/api/mtn/ping", resp.Status, nil)
	}
	return nil
}

func (c *Client) post(ctx context.Context, route string, body any, out any) error {
	ctx, span := c.tracer.Start(ctx, "gateway"+strings.ReplaceAll(route, "/", "."))
	span.SetAttributes(
		attribute.String("http.route", route),
		attribute.String("http.method", http.MethodPost),
	)
	defer span.End()

	encoded, err := json.Marshal(body)
	if err != nil {
		return c.unavailable(span, route, err.Error(), err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(encoded))
	if err != nil {
		return c.unavailable(span, route, err.Error(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.unavailable(span, route, err.Error(), err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return c.unavailable(span, route, err.Error(), err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return c.unavailable(span, route, "response is not a gateway envelope", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		reason := env.Message
		if reason == "" {
			reason = resp.Status
		}
		return c.unavailable(span, route, reason, nil)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return c.unavailable(span, route, "gateway payload does not match expected shape", err)
		}
	}
	return nil
}

func (c *Client) unavailable(span trace.Span, route, reason string, cause error) error {
	span.SetStatus(otelcodes.Error, reason)
	return apperrors.WrapWithMetadata(
		apperrors.CodeServiceUnavailable,
		"gateway call "+route+" failed: "+reason,
		map[string]string{"Route": route, "Reason": reason},
		cause,
	)
}
