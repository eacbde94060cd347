package main

import (
	"github.com/spf13/cobra"

	"github.com/Dev-ALPM/imixs-workflow/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "workflowctl",
	Short: "Operate the workflow engine: run the server, manage schedulers, validate models",
}

func loadConfig() (*config.Config, error) {
	return config.Load()
}
