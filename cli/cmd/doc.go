// Package cmd implements the psh subcommands: run, eval, repl, ast, and
// init.
package cmd

import (
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/psh/lang"
)

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)

// Vars returns the kong variables referenced by the command structs.
func Vars() kong.Vars {
	return kong.Vars{
		"maxDepth":      strconv.Itoa(lang.DefaultMaxDepth),
		"astFormatEnum": "native,json,yaml",
	}
}
