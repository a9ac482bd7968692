// Command group runs the group bot: /bot relays to the AI backend with the
// sender's name attached, and join requests maintain the member list.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"telegram-ai-relay/internal/bootstrap"
	"telegram-ai-relay/internal/config"
	"telegram-ai-relay/internal/infra/logging"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file (optional)")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted prompts)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		logging.Global.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		log.Info().Msg("[DEV MODE] Enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Run(ctx, cfg, bootstrap.Group, bootstrap.BuildInfo{Version: version, Commit: commit}, log); err != nil {
		log.Error().Err(err).Msg("bot stopped")
		stop()
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}
