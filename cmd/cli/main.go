package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"naokomik/internal/cli"
	"naokomik/internal/server"
	"naokomik/pkg/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "naokomik-cli:", err)
		os.Exit(1)
	}
	log := utils.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	primary, secondary := server.NewSources(cfg)
	app := cli.NewApp(os.Stdout, log, server.NewAllowlist(cfg), primary, secondary)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "naokomik-cli:", err)
		stop()
		os.Exit(1)
	}
}
