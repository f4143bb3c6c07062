// Package carectl implements the account console command: verify a
// token, inspect balances and profile, browse the bundle catalogue,
// and drive a purchase through its confirmation workflow.
package carectl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/louisbranch/selfcare/internal/account"
	"github.com/louisbranch/selfcare/internal/account/refresh"
	"github.com/louisbranch/selfcare/internal/catalogue"
	apperrors "github.com/louisbranch/selfcare/internal/platform/errors"
	"github.com/louisbranch/selfcare/internal/platform/errors/i18n"
	"github.com/louisbranch/selfcare/internal/subscription"
)

// Config holds account command configuration.
type Config struct {
	Command     string
	Token       string
	Category    string
	Search      string
	Stats       bool
	JSON        bool
	BundleID    string
	Beneficiary string
	Confirm     bool
	Interval    time.Duration
	GatewayURL  string
	DBPath      string
	Locale      string
}

type envConfig struct {
	GatewayURL string        `env:"SELFCARE_GATEWAY_URL" envDefault:"http://localhost:3001"`
	DBPath     string        `env:"SELFCARE_DB_PATH" envDefault:"data/selfcare.db"`
	Locale     string        `env:"SELFCARE_LOCALE" envDefault:"en-US"`
	Interval   time.Duration `env:"SELFCARE_REFRESH_INTERVAL" envDefault:"30s"`
}

// ParseConfig parses flags into a Config. The first positional argument
// selects the subcommand: ping, verify, snapshot, catalogue, or
// subscribe.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		GatewayURL: envCfg.GatewayURL,
		DBPath:     envCfg.DBPath,
		Locale:     envCfg.Locale,
	}
	fs.StringVar(&cfg.Token, "token", "", "bearer token (default: the stored working token)")
	fs.StringVar(&cfg.Category, "category", "", "catalogue segment filter (all, data, voice, sms, combo, cheap, unlimited, night, social)")
	fs.StringVar(&cfg.Search, "search", "", "free-text catalogue search")
	fs.BoolVar(&cfg.Stats, "stats", false, "print catalogue segment counts")
	fs.BoolVar(&cfg.JSON, "json", false, "output JSON")
	fs.StringVar(&cfg.BundleID, "bundle", "", "bundle id to subscribe to")
	fs.StringVar(&cfg.Beneficiary, "beneficiary", "", "gift recipient phone number (blank = buy for self)")
	fs.BoolVar(&cfg.Confirm, "confirm", false, "confirm the purchase (still prompts for a final yes)")
	fs.DurationVar(&cfg.Interval, "interval", envCfg.Interval, "refresh interval for the watch command")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Command = fs.Arg(0)
	if cfg.Command == "" {
		cfg.Command = "snapshot"
	}
	return cfg, nil
}

// Run executes the account command. The reader supplies the final
// purchase acknowledgement.
func Run(ctx context.Context, cfg Config, deps Deps, out io.Writer, in io.Reader) error {
	if out == nil {
		out = io.Discard
	}

	switch cfg.Command {
	case "ping":
		return localize(cfg.Locale, runPing(ctx, deps, out))
	case "verify":
		return localize(cfg.Locale, runVerify(ctx, cfg, deps, out))
	case "snapshot":
		return localize(cfg.Locale, runSnapshot(ctx, cfg, deps, out))
	case "catalogue":
		return localize(cfg.Locale, runCatalogue(ctx, cfg, deps, out))
	case "subscribe":
		return localize(cfg.Locale, runSubscribe(ctx, cfg, deps, out, in))
	case "watch":
		return localize(cfg.Locale, runWatch(ctx, cfg, deps, out))
	default:
		return fmt.Errorf("unknown command %q (want ping, verify, snapshot, catalogue, subscribe, or watch)", cfg.Command)
	}
}

// localize resolves a domain error code to the operator's locale so the
// console message matches the catalog instead of the internal text.
func localize(locale string, err error) error {
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		return err
	}
	message := i18n.GetCatalog(locale).Format(string(domainErr.Code), domainErr.Metadata)
	if message == "" || message == string(domainErr.Code) {
		return err
	}
	return fmt.Errorf("%s: %w", message, err)
}

func runPing(ctx context.Context, deps Deps, out io.Writer) error {
	if deps.Pinger == nil {
		return errors.New("gateway client is required")
	}
	if err := deps.Pinger.Ping(ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, "gateway is reachable")
	return err
}

func runVerify(ctx context.Context, cfg Config, deps Deps, out io.Writer) error {
	_, info, err := verifiedToken(ctx, cfg, deps)
	if err != nil {
		return err
	}

	if cfg.JSON {
		return printJSON(out, info)
	}
	fmt.Fprintf(out, "phone:       %s\n", info.Phone)
	if info.Country != "" {
		fmt.Fprintf(out, "country:     %s\n", info.Country)
	}
	fmt.Fprintf(out, "login count: %d\n", info.LoginCount)
	fmt.Fprintf(out, "expired:     %t\n", info.IsExpired)
	if !info.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "expires at:  %s\n", info.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}

func runSnapshot(ctx context.Context, cfg Config, deps Deps, out io.Writer) error {
	token, info, err := verifiedToken(ctx, cfg, deps)
	if err != nil {
		return err
	}

	profile, err := deps.Service.FetchProfile(ctx, token)
	if err != nil {
		return err
	}
	balances, err := deps.Service.FetchBalances(ctx, token)
	if err != nil {
		return err
	}

	if cfg.JSON {
		return printJSON(out, map[string]any{
			"token":    info,
			"profile":  profile,
			"balances": balances,
		})
	}

	fmt.Fprintf(out, "account %s", info.Phone)
	if profile.Name != "" {
		fmt.Fprintf(out, " (%s)", profile.Name)
	}
	fmt.Fprintln(out)
	for _, balance := range balances {
		label := balance.DisplayName
		if label == "" {
			label = balance.Name
		}
		fmt.Fprintf(out, "  %-20s %10.2f %s\n", label, balance.Value, balance.Unit)
	}
	return nil
}

func runCatalogue(ctx context.Context, cfg Config, deps Deps, out io.Writer) error {
	token, err := resolveToken(ctx, cfg, deps)
	if err != nil {
		return err
	}
	if deps.Service == nil {
		return errors.New("account service is required")
	}

	nested, err := deps.Service.FetchCatalogue(ctx, token)
	if err != nil {
		return err
	}
	records := catalogue.Flatten(nested)

	category, ok := catalogue.ParseFilterCategory(cfg.Category)
	if !ok {
		return fmt.Errorf("unknown category %q", cfg.Category)
	}
	filter := catalogue.Filter{Category: category, Search: cfg.Search}
	matched := filter.Apply(records)

	if cfg.Stats {
		stats := catalogue.ComputeStats(matched)
		if cfg.JSON {
			return printJSON(out, stats)
		}
		fmt.Fprintf(out, "total: %d  data: %d  voice: %d  cheap: %d  unlimited: %d\n",
			stats.Total, stats.Data, stats.Voice, stats.Cheap, stats.Unlimited)
		return nil
	}

	if cfg.JSON {
		return printJSON(out, matched)
	}
	for _, record := range matched {
		fmt.Fprintf(out, "%-12s %-30s %8.0f %s  %s / %s\n",
			record.ID, record.Name, record.Cost.Value, record.Cost.Currency,
			record.ProductName, record.CategoryName)
	}
	fmt.Fprintf(out, "%d bundle(s)\n", len(matched))
	return nil
}

func runSubscribe(ctx context.Context, cfg Config, deps Deps, out io.Writer, in io.Reader) error {
	if cfg.BundleID == "" {
		return errors.New("-bundle is required")
	}
	if !cfg.Confirm {
		return errors.New("refusing to purchase without -confirm")
	}

	token, info, err := verifiedToken(ctx, cfg, deps)
	if err != nil {
		return err
	}
	if deps.Subscriber == nil {
		return errors.New("subscription client is required")
	}

	nested, err := deps.Service.FetchCatalogue(ctx, token)
	if err != nil {
		return err
	}
	record, err := findBundle(catalogue.Flatten(nested), cfg.BundleID)
	if err != nil {
		return err
	}

	workflow, err := subscription.New(subscription.Config{
		Subscriber:       deps.Subscriber,
		OperatorIdentity: info.Phone,
		RefreshDelay:     deps.RefreshDelay,
	})
	if err != nil {
		return err
	}
	if err := workflow.Select(record); err != nil {
		return err
	}
	if cfg.Beneficiary != "" {
		if err := workflow.ChooseMode(subscription.ModeGift); err != nil {
			return err
		}
		if err := workflow.SetBeneficiary(cfg.Beneficiary); err != nil {
			return err
		}
	}
	if err := workflow.Validate(); err != nil {
		return err
	}

	request, _ := workflow.Request()
	fmt.Fprintf(out, "about to purchase %s (%.0f %s)", record.Name, record.Cost.Value, record.Cost.Currency)
	if request.Mode == subscription.ModeGift {
		fmt.Fprintf(out, " for %s", request.Beneficiary)
	}
	fmt.Fprintln(out)

	if !acknowledged(in) {
		if err := workflow.Cancel(); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out, "purchase aborted")
		return err
	}

	result, err := workflow.Submit(ctx, token)
	if err != nil {
		return err
	}

	if cfg.JSON {
		return printJSON(out, map[string]any{
			"confirmation":  result.Confirmation,
			"refresh_after": result.RefreshAfter.String(),
		})
	}
	if result.Confirmation.Message != "" {
		fmt.Fprintln(out, result.Confirmation.Message)
	}
	if result.Confirmation.Reference != "" {
		fmt.Fprintf(out, "reference: %s\n", result.Confirmation.Reference)
	}
	fmt.Fprintf(out, "refresh account data in %s\n", result.RefreshAfter)
	return nil
}

// runWatch re-prints the account snapshot on a fixed interval until
// the context is canceled.
func runWatch(ctx context.Context, cfg Config, deps Deps, out io.Writer) error {
	scheduler, err := refresh.New(cfg.Interval, func(tick context.Context) {
		if err := runSnapshot(tick, cfg, deps, out); err != nil {
			fmt.Fprintf(out, "refresh failed: %v\n", err)
		}
	})
	if err != nil {
		return err
	}

	// Print once up front so the first interval is not silent.
	if err := runSnapshot(ctx, cfg, deps, out); err != nil {
		return err
	}
	if err := scheduler.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// acknowledged reads the final confirmation line. Only an exact "yes"
// proceeds.
func acknowledged(in io.Reader) bool {
	if in == nil {
		return false
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	return strings.TrimSpace(scanner.Text()) == "yes"
}

func findBundle(records []catalogue.Record, id string) (catalogue.Record, error) {
	for _, record := range records {
		if record.ID == id {
			return record, nil
		}
	}
	return catalogue.Record{}, fmt.Errorf("bundle %q is not in the catalogue", id)
}

func verifiedToken(ctx context.Context, cfg Config, deps Deps) (string, account.TokenInfo, error) {
	token, err := resolveToken(ctx, cfg, deps)
	if err != nil {
		return "", account.TokenInfo{}, err
	}
	if deps.Service == nil {
		return "", account.TokenInfo{}, errors.New("account service is required")
	}
	info, err := deps.Service.VerifyToken(ctx, token)
	if err != nil {
		return "", account.TokenInfo{}, err
	}
	return token, info, nil
}

func resolveToken(ctx context.Context, cfg Config, deps Deps) (string, error) {
	if token := strings.TrimSpace(cfg.Token); token != "" {
		return token, nil
	}
	if deps.Store == nil {
		return "", errors.New("no token given and no token store configured")
	}
	return deps.Store.Get(ctx)
}

func printJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
