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

// cfgBuilder accumulates blocks/edges for one function while walking its
// body statement list.
type cfgBuilder struct {
	functionID string
	blocks     []ir.CFGBlock
	edges      []ir.CFGEdge
	seq        int

	entryID string
	exitID  string
}

func newCFGBuilder(functionID string) *cfgBuilder {
	return &cfgBuilder{functionID: functionID}
}

func (b *cfgBuilder) newBlock(kind ir.CFGBlockKind, n *sitter.Node) string {
	id := fmt.Sprintf("%s#block:%d", b.functionID, b.seq)
	b.seq++
	block := ir.CFGBlock{ID: id, Kind: kind}
	if n != nil {
		start, end := n.StartPoint(), n.EndPoint()
		block.Span = ir.Span{
			StartLine: int(start.Row) + 1,
			StartCol:  int(start.Column),
			EndLine:   int(end.Row) + 1,
			EndCol:    int(end.Column),
		}
	}
	b.blocks = append(b.blocks, block)
	return id
}

func (b *cfgBuilder) edge(from, to string, kind ir.CFGEdgeKind) {
	b.edges = append(b.edges, ir.CFGEdge{Src: from, Dst: to, Kind: kind})
}

// buildCFG walks a function body block, splitting basic blocks at
// control-flow statements (if/for/return/break/continue) and wiring
// normal/true/false/loop-back/return edges (spec §4.2 step 2, "BFG -> CFG").
func buildCFG(functionID string, body *sitter.Node) ir.ControlFlowGraph {
	b := newCFGBuilder(functionID)
	b.entryID = b.newBlock(ir.BlockEntry, body)
	b.exitID = b.newBlock(ir.BlockExit, nil)

	last := b.walkStatements(body, b.entryID, "", "")
	if last != "" {
		b.edge(last, b.exitID, ir.CFGNormal)
	}

	return ir.ControlFlowGraph{FunctionID: functionID, Blocks: b.blocks, Edges: b.edges}
}

// walkStatements processes the statements directly inside a block node,
// returning the id of the last live block (the one that falls through to
// whatever follows), or "" if control never falls through (e.g. ends in a
// return). loopHeader/loopExit, when non-empty, are the targets for
// break/continue inside an enclosing loop.
func (b *cfgBuilder) walkStatements(block *sitter.Node, entry, loopHeader, loopExit string) string {
	current := entry
	n := int(block.NamedChildCount())
	for i := 0; i < n; i++ {
		stmt := block.NamedChild(i)
		if current == "" {
			// Unreachable code after a return/break/continue; still emit a
			// block for it (dead code is structurally present, just
			// unreachable from entry) but don't wire a normal edge into it.
			current = b.newBlock(ir.BlockPlain, stmt)
		}
		switch stmt.Type() {
		case "if_statement":
			current = b.handleIf(stmt, current, loopHeader, loopExit)
		case "for_statement":
			current = b.handleFor(stmt, current)
		case "return_statement":
			retBlock := b.newBlock(ir.BlockPlain, stmt)
			b.edge(current, retBlock, ir.CFGNormal)
			b.edge(retBlock, b.exitID, ir.CFGReturn)
			current = ""
		case "break_statement":
			brBlock := b.newBlock(ir.BlockPlain, stmt)
			b.edge(current, brBlock, ir.CFGNormal)
			if loopExit != "" {
				b.edge(brBlock, loopExit, ir.CFGBreak)
			}
			current = ""
		case "continue_statement":
			coBlock := b.newBlock(ir.BlockPlain, stmt)
			b.edge(current, coBlock, ir.CFGNormal)
			if loopHeader != "" {
				b.edge(coBlock, loopHeader, ir.CFGContinue)
			}
			current = ""
		default:
			// Plain statement: stays in the current block, no new block
			// needed unless one of the branches above already closed it.
		}
	}
	return current
}

func (b *cfgBuilder) handleIf(stmt *sitter.Node, pred, loopHeader, loopExit string) string {
	cond := b.newBlock(ir.BlockCond, stmt.ChildByFieldName("condition"))
	b.edge(pred, cond, ir.CFGNormal)

	join := b.newBlock(ir.BlockPlain, nil)

	consequence := stmt.ChildByFieldName("consequence")
	trueEntry := b.newBlock(ir.BlockPlain, consequence)
	b.edge(cond, trueEntry, ir.CFGTrueBranch)
	trueExit := b.walkStatements(consequence, trueEntry, loopHeader, loopExit)
	if trueExit != "" {
		b.edge(trueExit, join, ir.CFGNormal)
	}

	alt := stmt.ChildByFieldName("alternative")
	if alt != nil {
		falseEntry := b.newBlock(ir.BlockPlain, alt)
		b.edge(cond, falseEntry, ir.CFGFalseBranch)
		var falseExit string
		if alt.Type() == "if_statement" {
			falseExit = b.handleIf(alt, falseEntry, loopHeader, loopExit)
		} else {
			falseExit = b.walkStatements(alt, falseEntry, loopHeader, loopExit)
		}
		if falseExit != "" {
			b.edge(falseExit, join, ir.CFGNormal)
		}
	} else {
		b.edge(cond, join, ir.CFGFalseBranch)
	}

	return join
}

func (b *cfgBuilder) handleFor(stmt *sitter.Node, pred string) string {
	header := b.newBlock(ir.BlockCond, stmt)
	b.edge(pred, header, ir.CFGNormal)

	after := b.newBlock(ir.BlockPlain, nil)

	body := stmt.ChildByFieldName("body")
	bodyEntry := b.newBlock(ir.BlockPlain, body)
	b.edge(header, bodyEntry, ir.CFGTrueBranch)
	b.edge(header, after, ir.CFGFalseBranch)

	bodyExit := b.walkStatements(body, bodyEntry, header, after)
	if bodyExit != "" {
		b.edge(bodyExit, header, ir.CFGLoopBack)
	}

	return after
}
