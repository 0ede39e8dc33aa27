// Package config loads the translator's four boolean options from an
// optional TOML file, walking up from a starting directory to discover a
// project config: find the nearest file, merge it over every ancestor's
// file, then over the built-in default. There is nothing to merge
// element-wise here — a boolean set in a nearer file simply overrides the
// same key inherited from a farther one.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Options is the four-boolean configuration surface, carried as an
// explicit value threaded into builder.Builder and lower's lowering
// functions — never as global mutable state, so that a process can run
// multiple translations under different configurations concurrently.
type Options struct {
	// SimplifyCFG applies the CFG's own simplifier after translation.
	SimplifyCFG bool `toml:"simplify_cfg"`
	// PrintCFG emits a textual CFG to standard output after translation.
	PrintCFG bool `toml:"print_cfg"`
	// DisablePointerArith skips translating GEP offsets and any cast,
	// select, or phi whose type is non-integer. Call lowering does not
	// consult it: calls are translated the same way with it on or off.
	DisablePointerArith bool `toml:"disable_pointer_arith"`
	// IncludeHavoc emits explicit havoc statements for otherwise
	// unconstrained SSA destinations.
	IncludeHavoc bool `toml:"include_havoc"`
}

// Default is the built-in baseline Load merges project config over.
var Default = Options{
	SimplifyCFG:         true,
	PrintCFG:            false,
	DisablePointerArith: false,
	IncludeHavoc:        false,
}

type layer struct {
	opts Options
	meta toml.MetaData
}

const configName = "cfgtranslate.conf"

func parseLayers(dir string) ([]layer, error) {
	var out []layer

	for dir != "" {
		f, err := os.Open(filepath.Join(dir, configName))
		if os.IsNotExist(err) {
			ndir := filepath.Dir(dir)
			if ndir == dir {
				break
			}
			dir = ndir
			continue
		}
		if err != nil {
			return nil, err
		}
		var opts Options
		meta, err := toml.DecodeReader(f, &opts)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, layer{opts, meta})
		ndir := filepath.Dir(dir)
		if ndir == dir {
			break
		}
		dir = ndir
	}

	out = append(out, layer{opts: Default})

	// Reverse so the farthest ancestor (the default) is merged first and
	// the nearest file wins last.
	for i := 0; i < len(out)/2; i++ {
		out[i], out[len(out)-1-i] = out[len(out)-1-i], out[i]
	}
	return out, nil
}

func (l layer) mergeOver(base Options) Options {
	if l.meta.IsDefined("simplify_cfg") {
		base.SimplifyCFG = l.opts.SimplifyCFG
	}
	if l.meta.IsDefined("print_cfg") {
		base.PrintCFG = l.opts.PrintCFG
	}
	if l.meta.IsDefined("disable_pointer_arith") {
		base.DisablePointerArith = l.opts.DisablePointerArith
	}
	if l.meta.IsDefined("include_havoc") {
		base.IncludeHavoc = l.opts.IncludeHavoc
	}
	return base
}

// Load discovers and merges cfgtranslate.conf files from dir up to the
// filesystem root, with the nearest file's keys taking precedence, falling
// back to Default for any key no file sets.
func Load(dir string) (Options, error) {
	layers, err := parseLayers(dir)
	if err != nil {
		return Options{}, err
	}
	opts := layers[0].opts // the default layer has no meta to gate on
	for _, l := range layers[1:] {
		opts = l.mergeOver(opts)
	}
	return opts, nil
}
