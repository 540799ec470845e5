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

package callgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

func parse(t *testing.T, fileID string, src string) ir.StructuralIR {
	t.Helper()
	p := ir.NewGoParser(nil)
	out, err := p.Parse(context.Background(), ir.FileId(fileID), []byte(src))
	require.NoError(t, err)
	return out
}

func TestResolveCalls_SamePackageCrossFile(t *testing.T) {
	a := parse(t, "pkg/a.go", `package pkg

func Helper() int { return 1 }
`)
	b := parse(t, "pkg/b.go", `package pkg

func Caller() int {
	return Helper()
}
`)
	idx := NewIndex([]ir.StructuralIR{a, b})
	resolved := idx.ResolveCalls([]ir.StructuralIR{a, b})

	require.Len(t, resolved, 1)
	require.Equal(t, "pkg/b.go#Caller", resolved[0].SourceID)
	require.Equal(t, "pkg/a.go#Helper", resolved[0].TargetID)
}

func TestResolveCalls_QualifiedImport(t *testing.T) {
	lib := parse(t, "lib/lib.go", `package lib

func Do() int { return 1 }
`)
	main := parse(t, "app/main.go", `package main

import "example.com/app/lib"

func Run() int {
	return lib.Do()
}
`)
	idx := NewIndex([]ir.StructuralIR{lib, main})
	resolved := idx.ResolveCalls([]ir.StructuralIR{lib, main})

	require.Len(t, resolved, 1)
	require.Equal(t, "lib/lib.go#Do", resolved[0].TargetID)
}

func TestResolveCalls_InterfaceDispatchViaField(t *testing.T) {
	iface := parse(t, "pkg/iface.go", `package pkg

type Writer interface {
	Write(data []byte) error
}
`)
	impl := parse(t, "pkg/impl.go", `package pkg

type FileWriter struct{}

func (f FileWriter) Write(data []byte) error { return nil }
`)
	caller := parse(t, "pkg/caller.go", `package pkg

type Builder struct {
	writer Writer
}

func (b Builder) Build() error {
	return b.writer.Write(nil)
}
`)
	files := []ir.StructuralIR{iface, impl, caller}
	idx := NewIndex(files)
	resolved := idx.ResolveCalls(files)

	require.Len(t, resolved, 1)
	require.Equal(t, "pkg/impl.go#FileWriter.Write", resolved[0].TargetID)
}

func TestResolveCalls_ExternalTypeGeneratesStub(t *testing.T) {
	caller := parse(t, "pkg/caller.go", `package pkg

type Store struct {
	db *sql.DB
}

func (s Store) Query() error {
	_, err := s.db.QueryRow()
	return err
}
`)
	files := []ir.StructuralIR{caller}
	idx := NewIndex(files)
	resolved := idx.ResolveCalls(files)

	require.Len(t, resolved, 1)
	require.Contains(t, resolved[0].TargetID, "external-stub:")
	require.Len(t, idx.Stubs(), 1)
}

func TestImplementsEdges_MethodSetMatch(t *testing.T) {
	iface := parse(t, "pkg/iface.go", `package pkg

type Writer interface {
	Write(data []byte) error
}
`)
	impl := parse(t, "pkg/impl.go", `package pkg

type FileWriter struct{}

func (f FileWriter) Write(data []byte) error { return nil }
`)
	files := []ir.StructuralIR{iface, impl}
	idx := NewIndex(files)
	edges := idx.ImplementsEdges(files)

	require.Len(t, edges, 1)
	require.Equal(t, ir.EdgeImplements, edges[0].Kind)
	require.Equal(t, "pkg/impl.go#type:FileWriter", edges[0].SourceID)
	require.Equal(t, "pkg/iface.go#type:Writer", edges[0].TargetID)
}

func TestInterprocDFGEdges_MirrorsResolvedCallsOnly(t *testing.T) {
	a := parse(t, "pkg/a.go", `package pkg

func Helper() int { return 1 }
`)
	b := parse(t, "pkg/b.go", `package pkg

type Writer interface {
	Write(data []byte) error
}

func Caller() int {
	return Helper()
}
`)
	files := []ir.StructuralIR{a, b}
	idx := NewIndex(files)
	resolvedCalls := idx.ResolveCalls(files)
	implementsEdges := idx.ImplementsEdges(files)

	dfgEdges := idx.InterprocDFGEdges(resolvedCalls)
	require.Len(t, dfgEdges, len(resolvedCalls), "one interprocedural DFG edge per resolved call, no more")
	for _, e := range dfgEdges {
		require.Equal(t, ir.EdgeInterprocDFG, e.Kind)
	}
	require.Equal(t, resolvedCalls[0].SourceID, dfgEdges[0].SourceID)
	require.Equal(t, resolvedCalls[0].TargetID, dfgEdges[0].TargetID)

	// Implements edges are a different channel (interface satisfaction, not
	// a call site) and must not leak into the interprocedural DFG set.
	mixedIn := idx.InterprocDFGEdges(implementsEdges)
	require.Empty(t, mixedIn)
}
