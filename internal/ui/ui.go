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

// Package ui provides the CLI's terminal color and formatting helpers:
// headers, labels, status messages, gated by both an explicit --no-color
// flag and whether stdout is actually a terminal.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	subHeadColor = color.New(color.FgCyan)
	labelColor   = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
	countColor   = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen, color.Bold)
)

// InitColors decides whether color output is enabled: disabled outright by
// noColor, otherwise enabled only when stdout is a real terminal (isatty) —
// never emit escape codes into a pipe or redirected file.
func InitColors(noColor bool) {
	enabled := !noColor && isatty.IsTerminal(os.Stdout.Fd())
	color.NoColor = !enabled
}

// Header prints a bold cyan section header.
func Header(s string) { headerColor.Println(s) }

// SubHeader prints a dimmer cyan subsection header.
func SubHeader(s string) { subHeadColor.Println(s) }

// Label formats a bold field label (caller appends the value).
func Label(s string) string { return labelColor.Sprint(s) }

// DimText renders s de-emphasized, for secondary information like paths.
func DimText(s string) string { return dimColor.Sprint(s) }

// CountText renders an integer count in green, the teacher's convention for
// "looks fine, nothing alarming" numeric output.
func CountText(n int) string { return countColor.Sprint(n) }

// Warning prints a yellow warning line to stderr.
func Warning(s string) { fmt.Fprintln(os.Stderr, warnColor.Sprint(s)) }

// Warningf formats and prints a yellow warning line to stderr.
func Warningf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, warnColor.Sprintf(format, args...))
}

// Info prints a blue informational line to stderr.
func Info(s string) { fmt.Fprintln(os.Stderr, infoColor.Sprint(s)) }

// Infof formats and prints a blue informational line to stderr.
func Infof(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, infoColor.Sprintf(format, args...))
}

// Success prints a bold green success line to stderr.
func Success(s string) { fmt.Fprintln(os.Stderr, successColor.Sprint(s)) }

// Successf formats and prints a bold green success line to stderr.
func Successf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, successColor.Sprintf(format, args...))
}
