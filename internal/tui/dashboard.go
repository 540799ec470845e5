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

// Package tui implements `codegraph watch`'s live dashboard: a bubbletea
// program fed by pkg/pipeline.ProgressCallback events over a channel,
// rendering per-phase progress instead of the teacher's plain
// fmt.Fprintf-to-stderr watch loop.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codegraph-dev/codegraph/pkg/pipeline"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	phaseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// ProgressMsg wraps one pipeline.ProgressCallback invocation as a
// bubbletea message, the shape NewProgressCallback sends to the program
// running a Model.
type ProgressMsg struct {
	Current int64
	Total   int64
	Phase   pipeline.ProgressPhase
}

// BuildDoneMsg signals a watch-triggered build finished, successfully or
// not.
type BuildDoneMsg struct {
	RepoPath string
	Duration time.Duration
	Err      error
}

// FileEventMsg signals the watcher observed a filesystem event, before any
// debounce/reindex decision is made.
type FileEventMsg struct {
	Path string
}

// Model is the dashboard's bubbletea state: current build progress plus a
// scrolling log of recent watch events.
type Model struct {
	progress progress.Model

	repoPath   string
	phase      pipeline.ProgressPhase
	current    int64
	total      int64
	lastErr    error
	lastBuilt  time.Time
	buildCount int
	recent     []string
	maxRecent  int
}

// New constructs a Model for watching repoPath.
func New(repoPath string) Model {
	return Model{
		progress:  progress.New(progress.WithDefaultGradient()),
		repoPath:  repoPath,
		maxRecent: 8,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case ProgressMsg:
		m.phase = msg.Phase
		m.current = msg.Current
		m.total = msg.Total
	case FileEventMsg:
		m.pushRecent(fmt.Sprintf("changed: %s", msg.Path))
	case BuildDoneMsg:
		m.lastBuilt = time.Now()
		m.buildCount++
		m.lastErr = msg.Err
		if msg.Err != nil {
			m.pushRecent(fmt.Sprintf("build #%d failed: %v", m.buildCount, msg.Err))
		} else {
			m.pushRecent(fmt.Sprintf("build #%d ok (%s)", m.buildCount, msg.Duration.Round(time.Millisecond)))
		}
	}
	return m, nil
}

func (m *Model) pushRecent(line string) {
	m.recent = append(m.recent, line)
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}
}

func (m Model) View() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n\n", headerStyle.Render("codegraph watch"), dimStyle.Render(m.repoPath))
	fmt.Fprintf(&b, "phase: %s\n", phaseStyle.Render(string(m.phase)))

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.current) / float64(m.total)
	}
	fmt.Fprintf(&b, "%s %d/%d\n\n", m.progress.ViewAs(ratio), m.current, m.total)

	if m.lastErr != nil {
		fmt.Fprintf(&b, "%s\n", errStyle.Render("last build error: "+m.lastErr.Error()))
	} else if !m.lastBuilt.IsZero() {
		fmt.Fprintf(&b, "%s\n", dimStyle.Render("last build ok at "+m.lastBuilt.Format(time.Kitchen)))
	}

	b.WriteString("\n")
	for _, line := range m.recent {
		fmt.Fprintf(&b, "%s\n", dimStyle.Render(line))
	}

	b.WriteString(dimStyle.Render("\n(q to quit)\n"))
	return b.String()
}

// NewProgressCallback returns a pipeline.ProgressCallback that forwards
// every call to program as a ProgressMsg, so pkg/pipeline never depends on
// bubbletea directly.
func NewProgressCallback(program *tea.Program) pipeline.ProgressCallback {
	return func(current, total int64, phase pipeline.ProgressPhase) {
		program.Send(ProgressMsg{Current: current, Total: total, Phase: phase})
	}
}
