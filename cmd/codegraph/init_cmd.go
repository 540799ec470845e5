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

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/codegraph-dev/codegraph/internal/ui"
	"github.com/codegraph-dev/codegraph/pkg/config"
)

type initFlags struct {
	force          bool
	nonInteractive bool
	projectID      string
}

func runInit(args []string, _ string, globals GlobalFlags) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVarP(&f.nonInteractive, "yes", "y", false, "Non-interactive mode (use defaults)")
	fs.StringVar(&f.projectID, "project-id", "", "Project identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("init: getwd: %w", err)
	}

	configPath := config.ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !f.force {
		return fmt.Errorf("init: %s already exists (use --force to overwrite)", configPath)
	}

	if f.projectID == "" {
		f.projectID = filepath.Base(cwd)
	}

	cfg := config.DefaultConfig(f.projectID)

	if !f.nonInteractive {
		reader := bufio.NewReader(os.Stdin)
		cfg.ProjectID = prompt(reader, "Project ID", cfg.ProjectID)
		cfg.CacheRoot = prompt(reader, "Cache root", cfg.CacheRoot)
		cfg.Whitelisted.SemanticTierName = strings.ToUpper(prompt(reader, "Semantic tier (BASE/EXTENDED/FULL)", cfg.Whitelisted.SemanticTierName))
	}

	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	if !globals.Quiet {
		ui.Success(fmt.Sprintf("Wrote %s", configPath))
		fmt.Println(ui.Label("Next steps:"))
		fmt.Println("  codegraph build   # run the first build")
		fmt.Println("  codegraph status  # inspect the latest snapshot")
	}
	return nil
}

// prompt reads one line from reader, returning defaultValue if the user
// enters nothing.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}
