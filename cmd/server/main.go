package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/app"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/config"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/logger"
)

func main() {
	// Optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.ServiceName, cfg.LogLevel)

	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err.Error())
		os.Exit(1)
	}

	if err := a.Run(); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}
