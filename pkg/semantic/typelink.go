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

import "github.com/codegraph-dev/codegraph/pkg/ir"

// TypeResolver is the external type service collaborator. pkg/semantic
// treats type resolution as a pluggable boundary (spec §1's "external type
// service") rather than hard-coding a resolver, mirroring how GoParser is a
// concrete implementation of the structural parsing boundary.
type TypeResolver interface {
	// ResolveType attempts the 7-level chain (alias -> builtin -> local ->
	// module -> project -> stdlib -> raw) for a raw type expression and
	// returns a stable type id, or "" if every level misses.
	ResolveType(raw string) string
	// ResolveSymbol attempts the 7-step type-linking lookup (direct ->
	// generic base -> FQN -> import-map -> simple name -> union-first ->
	// optional-unwrap) for an expression's read, returning a symbol id or
	// "" if unresolved.
	ResolveSymbol(read string) string
}

// noopResolver never resolves anything; it is the zero-configuration
// default so the pipeline runs end-to-end without a wired external type
// service, at the cost of empty InferredType/SymbolID fields.
type noopResolver struct{}

func (noopResolver) ResolveType(string) string   { return "" }
func (noopResolver) ResolveSymbol(string) string { return "" }

// typeResolutionChain is the 7-level type resolution order named in spec
// §4.2 step 1, expressed as resolver functions tried in sequence and
// short-circuiting on the first hit (mirrors pkg/ingestion/resolver.go's
// layered resolveQualifiedCall -> resolveDotImportCall chain).
type typeResolutionChain []func(raw string) (string, bool)

func defaultTypeChain(resolver TypeResolver) typeResolutionChain {
	return typeResolutionChain{
		func(raw string) (string, bool) { return aliasLookup(raw) },
		func(raw string) (string, bool) { return builtinLookup(raw) },
		func(raw string) (string, bool) { return "", false }, // local: resolved by caller's symbol table, not here
		func(raw string) (string, bool) { return "", false }, // module
		func(raw string) (string, bool) { return "", false }, // project
		func(raw string) (string, bool) { return "", false }, // stdlib
		func(raw string) (string, bool) {
			id := resolver.ResolveType(raw)
			return id, id != ""
		},
	}
}

func (chain typeResolutionChain) resolve(raw string) string {
	for _, step := range chain {
		if id, ok := step(raw); ok {
			return id
		}
	}
	return raw // final "raw" level: the unresolved expression text itself
}

var builtins = map[string]bool{
	"bool": true, "string": true, "error": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true, "byte": true, "rune": true,
}

func builtinLookup(raw string) (string, bool) {
	if builtins[raw] {
		return "builtin:" + raw, true
	}
	return "", false
}

// aliasLookup recognizes Go's predeclared `any` alias for interface{}; a
// full alias table belongs to pkg/config's type-alias option, not here.
func aliasLookup(raw string) (string, bool) {
	if raw == "any" {
		return "builtin:interface{}", true
	}
	return "", false
}

// linkTypes attaches InferredType/SymbolID to each expression via the
// 7-step type-linking lookup (spec §4.2 step 4). It mutates exprs in place.
func linkTypes(exprs []ir.Expr, resolver TypeResolver) {
	if resolver == nil {
		resolver = noopResolver{}
	}
	chain := defaultTypeChain(resolver)
	for i := range exprs {
		e := &exprs[i]
		if len(e.Reads) == 0 {
			continue
		}
		e.InferredType = chain.resolve(e.Reads[0])
		e.SymbolID = resolver.ResolveSymbol(e.Reads[0])
	}
}
