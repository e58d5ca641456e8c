package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/ftpchat/internal/buildinfo"
	"github.com/dmitrijs2005/ftpchat/internal/client/cli"
	"github.com/dmitrijs2005/ftpchat/internal/client/config"
	"github.com/dmitrijs2005/ftpchat/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := bufio.NewReader(os.Stdin)
	if cfg.Username != "" && cfg.Password == "" {
		pw, err := cli.GetPassword(os.Stdout, "Password for "+cfg.Username)
		if err != nil {
			log.Fatalf("password: %v", err)
		}
		cfg.Password = pw
	}

	app, err := cli.NewApp(ctx, cfg, cli.Deps{}, in, os.Stdout, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "exited with error", "error", err)
		os.Exit(1)
	}
}
