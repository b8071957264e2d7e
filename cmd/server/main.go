package main

import (
	"fmt"

	"github.com/andrevalim/pixhub/infra/initializer"
	"github.com/andrevalim/pixhub/pkg/app"
	"github.com/andrevalim/pixhub/pkg/config"
	"github.com/andrevalim/pixhub/webapi"
	log "github.com/charmbracelet/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	a := app.New(deps, cfg)
	fiberApp := webapi.NewApp(a)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	deps.Logger.Info("Starting server", "env", cfg.Env, "address", addr)

	return fiberApp.Listen(addr)
}
