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
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// extractSignature reads a function/method declaration node's parameter
// list and result type into a Signature (spec §4.2 step 1, "extract
// signatures"). Async/Static/Throws have no direct Go equivalent (Go has no
// async functions, static methods, or checked exceptions) and are left at
// their zero values; they exist on Signature for languages the rest of the
// corpus's parsers (JS/Python) would populate.
func extractSignature(decl *sitter.Node, source []byte) ir.Signature {
	sig := ir.Signature{}

	paramsNode := decl.ChildByFieldName("parameters")
	if paramsNode != nil {
		for i := 0; i < int(paramsNode.NamedChildCount()); i++ {
			pd := paramsNode.NamedChild(i)
			if pd.Type() != "parameter_declaration" {
				continue
			}
			typeNode := pd.ChildByFieldName("type")
			typ := ""
			if typeNode != nil {
				typ = typeNode.Content(source)
			}
			nameNode := pd.ChildByFieldName("name")
			if nameNode != nil {
				sig.Params = append(sig.Params, ir.Param{Name: nameNode.Content(source), Type: typ})
				continue
			}
			// Unnamed parameters (interface method sets, function types)
			// still contribute a type-only entry so arity is preserved.
			sig.Params = append(sig.Params, ir.Param{Type: typ})
		}
	}

	if result := decl.ChildByFieldName("result"); result != nil {
		sig.ReturnType = result.Content(source)
	}

	sig.Hash = ir.HashBytes(decl.Content(source))
	return sig
}
