// Command cfgtranslate translates a JSON-encoded SSA-form module fixture
// into per-function simplified CFGs suitable for numeric abstract
// interpretation.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cfgtranslate",
	Short: "Translate an SSA-form IR module into a simplified numeric CFG",
}

func main() {
	rootCmd.AddCommand(translateCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
