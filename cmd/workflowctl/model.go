package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Dev-ALPM/imixs-workflow/internal/model"
)

func init() {
	modelCmd.AddCommand(modelValidateCmd)
	rootCmd.AddCommand(modelCmd)
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect and validate BPMN model files",
}

var modelValidateCmd = &cobra.Command{
	Use:   "validate <file.bpmn>",
	Short: "Parse a BPMN file and report its Task/Event counts, or the validation error",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		version := filepath.Base(args[0])
		version = version[:len(version)-len(filepath.Ext(version))]

		m, err := model.ParseDefinition(f, model.Definition{Version: version})
		if err != nil {
			return err
		}
		fmt.Printf("valid: version=%s tasks=%d events=%d gateways=%d\n",
			m.Definition.Version, len(m.Tasks), len(m.Events), len(m.Gateways))
		return nil
	},
}
