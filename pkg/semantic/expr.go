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

const (
	ExprCall       ir.ExprKind = "Call"
	ExprBinary     ir.ExprKind = "Binary"
	ExprIdentifier ir.ExprKind = "Identifier"
	ExprSelector   ir.ExprKind = "Selector"
	ExprLiteral    ir.ExprKind = "Literal"
)

// buildExpressions extracts a flat expression list from a function body
// (spec §4.2 step 3, "Expression IR (EXTENDED+)"). Type inference itself is
// out of scope here: this stage only identifies expression sites and their
// reads; inferred_type_id/symbol_id are attached afterward by linkTypes
// (step 4), which is the "batch type-inference requests in a single pass"
// the spec calls for — batching is the caller's (builder.go's) concern
// across every function in the file, not this per-function walk's.
func buildExpressions(functionID string, body *sitter.Node, source []byte) []ir.Expr {
	var exprs []ir.Expr
	seq := 0
	next := func() string {
		id := fmt.Sprintf("%s#expr:%d", functionID, seq)
		seq++
		return id
	}

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "call_expression":
			fn := n.ChildByFieldName("function")
			reads := []string{}
			if fn != nil {
				reads = append(reads, fn.Content(source))
			}
			exprs = append(exprs, ir.Expr{ID: next(), Kind: ExprCall, Span: nodeSpan(n), Reads: reads})
		case "binary_expression":
			left := n.ChildByFieldName("left")
			right := n.ChildByFieldName("right")
			reads := []string{}
			if left != nil {
				reads = append(reads, left.Content(source))
			}
			if right != nil {
				reads = append(reads, right.Content(source))
			}
			exprs = append(exprs, ir.Expr{ID: next(), Kind: ExprBinary, Span: nodeSpan(n), Reads: reads})
		case "selector_expression":
			exprs = append(exprs, ir.Expr{ID: next(), Kind: ExprSelector, Span: nodeSpan(n), Reads: []string{n.Content(source)}})
		case "identifier":
			if n.Parent() != nil && n.Parent().Type() == "selector_expression" {
				break // already captured by the enclosing selector
			}
			exprs = append(exprs, ir.Expr{ID: next(), Kind: ExprIdentifier, Span: nodeSpan(n), Reads: []string{n.Content(source)}})
		case "int_literal", "float_literal", "interpreted_string_literal", "raw_string_literal", "true", "false", "nil":
			exprs = append(exprs, ir.Expr{ID: next(), Kind: ExprLiteral, Span: nodeSpan(n)})
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
	return exprs
}

func nodeSpan(n *sitter.Node) ir.Span {
	start, end := n.StartPoint(), n.EndPoint()
	return ir.Span{
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column),
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column),
	}
}
