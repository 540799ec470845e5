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
	"context"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// funcParser re-parses one function's captured declaration source (carried
// on its Structural IR node as Attrs["signature"]) to recover the AST that
// drives CFG/DFG/SSA construction. A standalone function_declaration snippet
// is valid Go source_file input on its own, so this needs no knowledge of
// the rest of the file. Pooled the same way ir.GoParser pools its parser
// (tree-sitter parsers are not safe for concurrent use).
type funcParser struct {
	pool sync.Pool
}

func newFuncParser() *funcParser {
	p := &funcParser{}
	p.pool.New = func() any {
		sp := sitter.NewParser()
		sp.SetLanguage(golang.GetLanguage())
		return sp
	}
	return p
}

// parseDecl parses decl source and returns the function/method declaration
// node itself (for signature extraction) and its body block (nil if the
// snippet has no body, e.g. an interface method signature).
func (fp *funcParser) parseDecl(declSource []byte) (decl, body *sitter.Node, tree *sitter.Tree, ok bool) {
	sp := fp.pool.Get().(*sitter.Parser)
	defer fp.pool.Put(sp)

	t, err := sp.ParseCtx(context.Background(), nil, declSource)
	if err != nil {
		return nil, nil, nil, false
	}

	root := t.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() == "function_declaration" || child.Type() == "method_declaration" {
			return child, child.ChildByFieldName("body"), t, true
		}
	}
	return nil, nil, t, false
}
