// Command workflowctl is a thin admin CLI: start/stop the engine process,
// drive scheduler admin operations, and validate a BPMN model file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
