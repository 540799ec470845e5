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
	"regexp"
	"strings"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// interfaceMethodPattern matches exported method signatures inside an
// interface body, e.g. "Write(data []byte) error" or "Flush() error".
var interfaceMethodPattern = regexp.MustCompile(`(?m)^\s*([A-Z][a-zA-Z0-9_]*)\s*\(`)

type interfaceInfo struct {
	name    string
	methods []string
}

// buildImplementsIndex determines which concrete types implement which
// project-local interfaces, by matching method sets: a type implements an
// interface if its method set (from qualifiedFunctions) is a superset of the
// interface's required method names (parsed out of its captured source text
// with a line-anchored regex, not a structural method list — interface
// bodies are simple enough line per method that re-parsing each one with
// tree-sitter would cost more than it buys).
func (idx *Index) buildImplementsIndex(files []ir.StructuralIR) {
	var interfaces []interfaceInfo
	interfaceNames := make(map[string]bool)
	for _, f := range files {
		for _, n := range f.Nodes {
			if n.Kind != ir.NodeClass || n.Attrs["typekind"] != "interface" {
				continue
			}
			methods := interfaceMethodPattern.FindAllStringSubmatch(n.Attrs["source"], -1)
			var names []string
			for _, m := range methods {
				names = append(names, m[1])
			}
			interfaces = append(interfaces, interfaceInfo{name: n.Name, methods: names})
			interfaceNames[n.Name] = true
		}
	}

	typeMethods := make(map[string]map[string]bool)
	for qualified := range idx.qualifiedFunctions {
		typeName, methodName, ok := strings.Cut(qualified, ".")
		if !ok {
			continue
		}
		if typeMethods[typeName] == nil {
			typeMethods[typeName] = make(map[string]bool)
		}
		typeMethods[typeName][methodName] = true
	}

	for _, iface := range interfaces {
		if len(iface.methods) == 0 {
			continue
		}
		for typeName, methods := range typeMethods {
			if interfaceNames[typeName] {
				continue // an interface never implements itself
			}
			if hasAllMethods(methods, iface.methods) {
				idx.implementsIndex[iface.name] = append(idx.implementsIndex[iface.name], typeName)
			}
		}
	}
}

func hasAllMethods(methods map[string]bool, required []string) bool {
	for _, m := range required {
		if !methods[m] {
			return false
		}
	}
	return true
}

// ImplementsEdges materializes the implements index as ir.Edge values
// (Kind: ir.EdgeImplements), sourced from the concrete type's node id to the
// interface's node id. Interfaces and concrete types without a resolved
// node id (a type never indexed, e.g. parsed from a different run) are
// skipped rather than guessed at.
func (idx *Index) ImplementsEdges(files []ir.StructuralIR) []ir.Edge {
	typeNodeID := make(map[string]string)
	for _, f := range files {
		for _, n := range f.Nodes {
			if n.Kind == ir.NodeClass {
				typeNodeID[n.Name] = n.ID
			}
		}
	}

	var edges []ir.Edge
	for ifaceName, implTypes := range idx.implementsIndex {
		ifaceID, ok := typeNodeID[ifaceName]
		if !ok {
			continue
		}
		for _, typeName := range implTypes {
			typeID, ok := typeNodeID[typeName]
			if !ok {
				continue
			}
			edges = append(edges, ir.Edge{SourceID: typeID, TargetID: ifaceID, Kind: ir.EdgeImplements})
		}
	}
	return edges
}
