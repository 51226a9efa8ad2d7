package main

import (
	"fmt"
	"os"

	"github.com/neo/convogen/internal/config"
	"github.com/neo/convogen/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "convogen",
	Short: "Convogen - synthetic customer support conversation generator",
	Long: `Convogen generates customer support conversation datasets by simulating
exchanges between a persona-driven customer agent and a knowledge-grounded
support representative agent.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads the run configuration and initializes the global logger
// from it. Every subcommand starts here.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	if err := logging.InitDefaultLogger(logging.Config{
		Level:       logging.ParseLevel(cfg.LogLevel),
		Prefix:      "convogen",
		Colored:     true,
		LogToFile:   cfg.LogToFile,
		LogFilePath: cfg.LogFilePath,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %v", err)
	}
	return cfg, nil
}
