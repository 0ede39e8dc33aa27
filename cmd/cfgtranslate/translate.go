package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/z971586668/ssacfg/builder"
	"github.com/z971586668/ssacfg/config"
	"github.com/z971586668/ssacfg/diag"
	"github.com/z971586668/ssacfg/fixture"
	"github.com/z971586668/ssacfg/memory"
	"github.com/z971586668/ssacfg/memory/inmem"
)

var (
	flagConfigDir       string
	flagPrintCFG        bool
	flagInterProcedural bool
)

var translateCmd = &cobra.Command{
	Use:   "translate <fixture.json>",
	Short: "Translate a JSON IR module fixture into simplified CFGs",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranslate,
}

func init() {
	translateCmd.Flags().StringVar(&flagConfigDir, "config-dir", "", "directory to search for cfgtranslate.conf layers")
	translateCmd.Flags().BoolVar(&flagPrintCFG, "print-cfg", false, "print the translated CFG for every function")
	translateCmd.Flags().BoolVar(&flagInterProcedural, "inter-procedural", false, "emit function declarations and callsite statements for inter-procedural analysis")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	mod, oracle, err := fixture.LoadWithOracle(args[0])
	if err != nil {
		return fmt.Errorf("loading fixture: %w", err)
	}
	if oracle == nil {
		oracle = inmem.NewBuilder(memory.None).Build()
	}

	opts := config.Default
	if flagConfigDir != "" {
		opts, err = config.Load(flagConfigDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}
	opts.PrintCFG = opts.PrintCFG || flagPrintCFG

	b := builder.New(mod, oracle, opts, diag.NewStderr(), flagInterProcedural)
	graphs := b.BuildAll()

	for _, g := range graphs {
		if opts.SimplifyCFG {
			g.Simplify()
		}
		if opts.PrintCFG {
			fmt.Print(g.String())
		}
	}
	return nil
}
