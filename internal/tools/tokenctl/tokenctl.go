// Package tokenctl implements the token inspection and rewriting
// command: decode a bearer token into editable claim fields, apply
// edits, and produce a re-signed replacement.
package tokenctl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/louisbranch/selfcare/internal/account"
	"github.com/louisbranch/selfcare/internal/token/claims"
)

// Config holds token command configuration.
type Config struct {
	Command string
	Token   string
	Sets    []string
	Types   []string
	Links   []string
	Removes []string
	Save    bool
	JSON    bool
	Secret  string
	DBPath  string
}

type envConfig struct {
	Secret string `env:"SELFCARE_JWT_SECRET"`
	DBPath string `env:"SELFCARE_DB_PATH" envDefault:"data/selfcare.db"`
}

// stringList collects repeatable flag values.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// ParseConfig parses flags into a Config. The first positional argument
// selects the subcommand: decode, defaults, modify, generate, or random.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		Secret: envCfg.Secret,
		DBPath: envCfg.DBPath,
	}
	var sets, types, links, removes stringList
	fs.StringVar(&cfg.Token, "token", "", "bearer token (default: the stored working token)")
	fs.Var(&sets, "set", "claim edit as key=value (repeatable)")
	fs.Var(&types, "type", "declared type override as key=type (repeatable)")
	fs.Var(&links, "link", "toggle identity linking for a claim key (repeatable)")
	fs.Var(&removes, "remove", "drop a claim key (repeatable)")
	fs.BoolVar(&cfg.Save, "save", false, "store the resulting token as the working token")
	fs.BoolVar(&cfg.JSON, "json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Sets = sets
	cfg.Types = types
	cfg.Links = links
	cfg.Removes = removes
	cfg.Command = fs.Arg(0)
	if cfg.Command == "" {
		cfg.Command = "decode"
	}
	return cfg, nil
}

// Run executes the token command.
func Run(ctx context.Context, cfg Config, deps Deps, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if deps.Codec == nil {
		return errors.New("token codec is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	switch cfg.Command {
	case "decode":
		return runDecode(ctx, cfg, deps, out)
	case "defaults":
		return runDefaults(ctx, cfg, deps, out)
	case "modify":
		return runModify(ctx, cfg, deps, out)
	case "generate":
		return runGenerate(ctx, cfg, deps, out)
	case "random":
		return runRandom(cfg, deps, out)
	default:
		return fmt.Errorf("unknown command %q (want decode, defaults, modify, generate, or random)", cfg.Command)
	}
}

func runDecode(ctx context.Context, cfg Config, deps Deps, out io.Writer) error {
	token, err := resolveToken(ctx, cfg, deps)
	if err != nil {
		return err
	}
	decoded, err := deps.Codec.Decode(token)
	if err != nil {
		return err
	}

	model := claims.NewModel()
	model.LoadFromClaims(decoded.Payload)
	info := account.TokenInfoFromClaims(decoded.Payload, deps.Now())

	if cfg.JSON {
		fields := make([]fieldReport, 0, model.Len())
		for _, field := range model.Fields() {
			fields = append(fields, fieldReport{
				Key:    field.Key,
				Type:   string(field.Type),
				Linked: field.Linked,
				Value:  field.Value,
			})
		}
		return printJSON(out, map[string]any{
			"header": decoded.Header,
			"fields": fields,
			"info":   info,
		})
	}

	if err := printFields(out, false, model.Fields()); err != nil {
		return err
	}
	fmt.Fprintln(out)
	if info.Phone != "" {
		fmt.Fprintf(out, "phone:       %s\n", info.Phone)
	}
	if info.Country != "" {
		fmt.Fprintf(out, "country:     %s\n", info.Country)
	}
	if info.LoginCount != 0 {
		fmt.Fprintf(out, "login count: %d\n", info.LoginCount)
	}
	if !info.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "expired:     %t\n", info.IsExpired)
		fmt.Fprintf(out, "expires at:  %s\n", info.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}

func runDefaults(ctx context.Context, cfg Config, deps Deps, out io.Writer) error {
	model, err := defaultModel(cfg, deps)
	if err != nil {
		return err
	}
	if err := applyEdits(model, cfg); err != nil {
		return err
	}
	return printFields(out, cfg.JSON, model.Fields())
}

func runModify(ctx context.Context, cfg Config, deps Deps, out io.Writer) error {
	token, err := resolveToken(ctx, cfg, deps)
	if err != nil {
		return err
	}
	decoded, err := deps.Codec.Decode(token)
	if err != nil {
		return err
	}

	model := claims.NewModel()
	model.LoadFromClaims(decoded.Payload)
	if err := applyEdits(model, cfg); err != nil {
		return err
	}
	set, err := model.Coerce()
	if err != nil {
		return err
	}
	reencoded, err := deps.Codec.ReEncode(token, set)
	if err != nil {
		return err
	}
	return emitToken(ctx, cfg, deps, out, reencoded)
}

func runGenerate(ctx context.Context, cfg Config, deps Deps, out io.Writer) error {
	model, err := defaultModel(cfg, deps)
	if err != nil {
		return err
	}
	if err := applyEdits(model, cfg); err != nil {
		return err
	}
	set, err := model.Coerce()
	if err != nil {
		return err
	}
	token, err := deps.Codec.Generate(set)
	if err != nil {
		return err
	}
	return emitToken(ctx, cfg, deps, out, token)
}

func runRandom(cfg Config, deps Deps, out io.Writer) error {
	set, err := deps.Codec.RandomSessionValues()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if cfg.JSON {
		ordered := make(map[string]any, len(set))
		for _, key := range keys {
			ordered[key] = set[key]
		}
		return printJSON(out, ordered)
	}
	for _, key := range keys {
		if _, err := fmt.Fprintf(out, "%s=%v\n", key, set[key]); err != nil {
			return err
		}
	}
	return nil
}

// defaultModel seeds a model with the stock claim template and a fresh
// session id.
func defaultModel(cfg Config, deps Deps) (*claims.Model, error) {
	session, err := deps.Codec.RandomSessionValues()
	if err != nil {
		return nil, err
	}
	sessionID, _ := session["sid"].(string)

	model := claims.NewModel()
	model.LoadDefaults(deps.Now(), sessionID)
	return model, nil
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

func emitToken(ctx context.Context, cfg Config, deps Deps, out io.Writer, token string) error {
	if cfg.Save {
		if deps.Store == nil {
			return errors.New("-save requires a token store")
		}
		if err := deps.Store.Set(ctx, token); err != nil {
			return err
		}
	}
	if cfg.JSON {
		return printJSON(out, map[string]any{"token": token, "saved": cfg.Save})
	}
	_, err := fmt.Fprintln(out, token)
	return err
}

// applyEdits applies -remove, -set, -type, and -link flags to the
// model. Set edits on unknown keys append new fields; remove, type,
// and link flags require the key to exist.
func applyEdits(model *claims.Model, cfg Config) error {
	for _, key := range cfg.Removes {
		index := fieldIndex(model, key)
		if index < 0 {
			return fmt.Errorf("-remove %q names an unknown claim", key)
		}
		if err := model.RemoveField(index); err != nil {
			return err
		}
	}
	for _, pair := range cfg.Sets {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return fmt.Errorf("-set %q is not key=value", pair)
		}
		if fieldIndex(model, key) < 0 {
			index := model.AddField()
			if err := model.SetKey(index, key); err != nil {
				return err
			}
		}
		if err := model.SetValueByKey(key, value); err != nil {
			return err
		}
	}
	for _, pair := range cfg.Types {
		key, name, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return fmt.Errorf("-type %q is not key=type", pair)
		}
		index := fieldIndex(model, key)
		if index < 0 {
			return fmt.Errorf("-type %q names an unknown claim", key)
		}
		if err := model.SetType(index, claims.FieldType(name)); err != nil {
			return err
		}
	}
	for _, key := range cfg.Links {
		index := fieldIndex(model, key)
		if index < 0 {
			return fmt.Errorf("-link %q names an unknown claim", key)
		}
		if err := model.ToggleLink(index); err != nil {
			return err
		}
	}
	return nil
}

func fieldIndex(model *claims.Model, key string) int {
	for i, field := range model.Fields() {
		if field.Key == key {
			return i
		}
	}
	return -1
}

type fieldReport struct {
	Key    string `json:"key"`
	Type   string `json:"type"`
	Linked bool   `json:"linked"`
	Value  string `json:"value"`
}

func printFields(out io.Writer, asJSON bool, fields []claims.Field) error {
	if asJSON {
		reports := make([]fieldReport, 0, len(fields))
		for _, field := range fields {
			reports = append(reports, fieldReport{
				Key:    field.Key,
				Type:   string(field.Type),
				Linked: field.Linked,
				Value:  field.Value,
			})
		}
		return printJSON(out, reports)
	}

	for _, field := range fields {
		marker := " "
		if field.Linked {
			marker = "*"
		}
		if _, err := fmt.Fprintf(out, "%s %-12s %s = %s\n", marker, field.Type, field.Key, field.Value); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
