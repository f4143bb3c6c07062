package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/selfcare/internal/account/httpapi"
	"github.com/louisbranch/selfcare/internal/platform/config"
	"github.com/louisbranch/selfcare/internal/platform/otel"
	"github.com/louisbranch/selfcare/internal/store/sqlite"
	"github.com/louisbranch/selfcare/internal/token/jwtcodec"
	"github.com/louisbranch/selfcare/internal/tools/carectl"
	"github.com/louisbranch/selfcare/internal/tools/tokenctl"
)

func main() {
	log.SetPrefix("[SELFCARE] ")
	if len(os.Args) < 2 {
		config.Exitf("usage: selfcare <token|account> [flags] <command>")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "selfcare")
	if err != nil {
		config.Exitf("setup telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	switch os.Args[1] {
	case "token":
		runToken(ctx, os.Args[2:])
	case "account":
		runAccount(ctx, os.Args[2:])
	default:
		config.Exitf("unknown tool %q (want token or account)", os.Args[1])
	}
}

func runToken(ctx context.Context, args []string) {
	cfg, err := tokenctl.ParseConfig(flag.NewFlagSet("token", flag.ExitOnError), args)
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if cfg.Secret == "" {
		config.Exitf("SELFCARE_JWT_SECRET is required")
	}

	codec, err := jwtcodec.New(cfg.Secret)
	if err != nil {
		config.Exitf("create codec: %v", err)
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		config.Exitf("open store: %v", err)
	}
	defer store.Close()

	deps := tokenctl.Deps{Codec: codec, Store: store}
	if err := tokenctl.Run(ctx, cfg, deps, os.Stdout); err != nil {
		config.Exitf("%s: %v", cfg.Command, err)
	}
}

func runAccount(ctx context.Context, args []string) {
	cfg, err := carectl.ParseConfig(flag.NewFlagSet("account", flag.ExitOnError), args)
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	client, err := httpapi.New(httpapi.Config{BaseURL: cfg.GatewayURL})
	if err != nil {
		config.Exitf("create gateway client: %v", err)
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		config.Exitf("open store: %v", err)
	}
	defer store.Close()

	deps := carectl.Deps{
		Service:    client,
		Subscriber: client,
		Pinger:     client,
		Store:      store,
	}
	if err := carectl.Run(ctx, cfg, deps, os.Stdout, os.Stdin); err != nil {
		config.Exitf("%s: %v", cfg.Command, err)
	}
}
