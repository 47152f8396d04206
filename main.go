package main

import (
	"os"

	"github.com/carvekit/carve/src/cmd"
	"github.com/carvekit/carve/src/config"
	"github.com/carvekit/carve/src/logger"
)

func main() {
	logger.Initialize()

	// Re-route logging if the repository carries a .carve.yaml
	if repoRoot, err := os.Getwd(); err == nil {
		if cfg, err := config.LoadConfig(repoRoot); err == nil {
			if err := config.InitializeLogger(cfg, repoRoot); err != nil {
				logger.Warn("Failed to initialize logger from config: %v", err)
			}
		}
	}

	if err := cmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
