package main

import (
	"github.com/spf13/cobra"

	"github.com/z971586668/ssacfg/version"
)

var flagVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			version.Verbose()
			return
		}
		version.Print()
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "include build info and dependency versions")
}
