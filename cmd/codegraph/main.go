// Copyright 2026 CodeGraph Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the codegraph CLI: build, inspect and watch a
// repository's deterministic tiered semantic IR.
//
// Usage:
//
//	codegraph init                 Create .codegraph/project.yaml
//	codegraph build [--full]       Build or incrementally rebuild a snapshot
//	codegraph status [--json]      Show the latest snapshot's status
//	codegraph watch                Watch the repo and rebuild on change
//	codegraph query <path.dot>     Export the latest graph as Graphviz DOT
//	codegraph gc                   Sweep old snapshots per the GC policy
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/codegraph-dev/codegraph/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the flags recognized before the subcommand name.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Verbose int
	Quiet   bool
}

func logInfo(globals GlobalFlags, format string, args ...interface{}) {
	if !globals.Quiet && globals.Verbose >= 1 {
		fmt.Fprintf(os.Stderr, "[INFO] "+format+"\n", args...)
	}
}

func logDebug(globals GlobalFlags, format string, args ...interface{}) {
	if globals.Verbose >= 2 {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

func logError(globals GlobalFlags, format string, args ...interface{}) {
	if !globals.Quiet {
		fmt.Fprintf(os.Stderr, "[ERROR] "+format+"\n", args...)
	}
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .codegraph/project.yaml (default: auto-discover)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format (for applicable commands)")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output (progress, info messages)")
	)

	// Stop parsing at the first non-flag argument so subcommand-specific
	// flags ("build --full", "init -y") reach the subcommand unmolested.
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `codegraph - Deterministic Tiered Semantic IR Build & Cache

Builds a content-addressed, tiered semantic intermediate representation of a
repository: parse, resolve cross-file calls, build per-tier semantic IR,
merge into one graph document, and cache every layer so a repeated build
over unchanged inputs is a pure cache hit.

Usage:
  codegraph <command> [options]

Commands:
  init     Create .codegraph/project.yaml configuration
  build    Build or incrementally rebuild a snapshot
  status   Show the latest snapshot's status
  watch    Watch the repository and rebuild on change
  query    Export the latest graph as Graphviz DOT
  gc       Sweep old snapshots per the configured retention policy

Global Options:
  --json            Output in JSON format (for applicable commands)
  --no-color        Disable color output (respects NO_COLOR env var)
  -v, --verbose     Increase verbosity (-v for info, -vv for debug)
  -q, --quiet       Suppress non-essential output (progress, info messages)
  -c, --config      Path to .codegraph/project.yaml
  -V, --version     Show version and exit

Examples:
  codegraph init                Create configuration interactively
  codegraph build               Incremental build (full on first run)
  codegraph build --full        Force a full rebuild, bypassing change detection
  codegraph status --json       Output the latest snapshot status as JSON
  codegraph watch               Live-rebuild on every file change
  codegraph query graph.dot     Write the latest graph as Graphviz DOT
  codegraph gc                  Sweep snapshots older than the GC policy

For detailed command help: codegraph <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("codegraph version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}

	if *quiet && *verbose > 0 {
		fmt.Fprintln(os.Stderr, "Error: cannot use --quiet and --verbose together")
		os.Exit(1)
	}

	// JSON mode auto-enables quiet so progress output never corrupts stdout.
	if *jsonOutput {
		*quiet = true
	}

	globals := GlobalFlags{
		JSON:    *jsonOutput,
		NoColor: *noColor,
		Verbose: *verbose,
		Quiet:   *quiet,
	}

	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	var err error
	switch command {
	case "init":
		err = runInit(cmdArgs, *configPath, globals)
	case "build":
		err = runBuild(cmdArgs, *configPath, globals)
	case "status":
		err = runStatus(cmdArgs, *configPath, globals)
	case "watch":
		err = runWatch(cmdArgs, *configPath, globals)
	case "query":
		err = runQuery(cmdArgs, *configPath, globals)
	case "gc":
		err = runGC(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		logError(globals, "%v", err)
		os.Exit(1)
	}
}
