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
	"path"
	"strings"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

const externalPrefix = "external:"

// ResolveCalls rewrites every file's unresolved (External) Calls edges into
// real cross-file edges where possible, using idx. Edges that remain
// unresolved keep their original External placeholder unchanged. The
// returned edges are additive: callers append them to the project's edge
// set rather than mutating the immutable per-file StructuralIR values.
func (idx *Index) ResolveCalls(files []ir.StructuralIR) []ir.Edge {
	var resolved []ir.Edge
	seen := make(map[string]bool)

	emit := func(callerID, calleeID string) {
		if calleeID == "" {
			return
		}
		key := callerID + "->" + calleeID
		if seen[key] {
			return
		}
		seen[key] = true
		resolved = append(resolved, ir.Edge{SourceID: callerID, TargetID: calleeID, Kind: ir.EdgeCalls})
	}

	for _, f := range files {
		for _, e := range f.Edges {
			if e.Kind != ir.EdgeCalls || !e.External {
				continue
			}
			calleeExpr := strings.TrimPrefix(e.TargetID, externalPrefix)

			if id := idx.resolveCall(f.FileID, calleeExpr); id != "" {
				emit(e.SourceID, id)
				continue
			}
			for _, id := range idx.resolveInterfaceCall(e.SourceID, calleeExpr) {
				emit(e.SourceID, id)
			}
		}
	}
	return resolved
}

// resolveCall tries, in order: qualified ("pkg.Foo" / "recv.Method"),
// same-package cross-file (an unqualified name defined in another file of
// the same directory — pkg/ir's single-file parser cannot see this), then
// dot-import.
func (idx *Index) resolveCall(fileID ir.FileId, calleeExpr string) string {
	if strings.Contains(calleeExpr, ".") {
		if id := idx.resolveQualifiedCall(fileID, calleeExpr); id != "" {
			return id
		}
	} else {
		pkgDir := path.Dir(string(fileID))
		if id := idx.functionsByPackage[pkgDir][calleeExpr]; id != "" {
			return id
		}
	}
	return idx.resolveDotImportCall(fileID, calleeExpr)
}

// resolveQualifiedCall resolves "pkg.Foo()" style calls via the caller
// file's import aliases. "obj.Method()" calls where obj is a local variable
// (not a package alias) fall through to interface dispatch instead.
func (idx *Index) resolveQualifiedCall(fileID ir.FileId, calleeExpr string) string {
	alias, funcName, ok := strings.Cut(calleeExpr, ".")
	if !ok || !isExportedName(funcName) {
		return ""
	}
	importPath, ok := idx.fileImports[fileID][alias]
	if !ok {
		return ""
	}
	return idx.lookupFunctionInPackage(importPath, funcName)
}

// resolveDotImportCall resolves calls available via a dot-import ("." alias)
// in the caller's file.
func (idx *Index) resolveDotImportCall(fileID ir.FileId, calleeExpr string) string {
	for alias, importPath := range idx.fileImports[fileID] {
		if alias != "." {
			continue
		}
		if id := idx.lookupFunctionInPackage(importPath, calleeExpr); id != "" {
			return id
		}
	}
	return ""
}

// InterprocDFGEdges derives FULL-tier interprocedural data-flow edges from
// the resolved call graph: every resolved call site is a channel through
// which argument values can reach the callee's parameters, so it is flagged
// with a distinct EdgeInterprocDFG edge alongside the EdgeCalls edge
// ResolveCalls already produced for it — pkg/semantic's per-function PDG
// covers intraprocedural data dependence; this is the cross-file half named
// in spec §3.3's FULL-tier "Interprocedural DFG" requirement, and needs the
// whole project's call resolution this package already performs rather than
// any new analysis of its own. Callers gate this on the build tier (FULL
// only) since resolvedCalls themselves are tier-independent.
func (idx *Index) InterprocDFGEdges(resolvedCalls []ir.Edge) []ir.Edge {
	edges := make([]ir.Edge, 0, len(resolvedCalls))
	for _, e := range resolvedCalls {
		if e.Kind != ir.EdgeCalls {
			continue
		}
		edges = append(edges, ir.Edge{SourceID: e.SourceID, TargetID: e.TargetID, Kind: ir.EdgeInterprocDFG})
	}
	return edges
}

func isExportedName(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}

// resolveInterfaceCall resolves a call like "field.Method" (or
// "recv.field.Method") through interface dispatch: the receiver's struct
// fields first, falling back to the caller's own parameter types for
// free functions (or as a method fallback).
func (idx *Index) resolveInterfaceCall(callerID, calleeExpr string) []string {
	if !strings.Contains(calleeExpr, ".") {
		return nil
	}
	callerName := idx.functionIDToName[callerID]

	if strings.Contains(callerName, ".") {
		if ids := idx.resolveInterfaceCallViaFields(callerID, callerName, calleeExpr); len(ids) > 0 {
			return ids
		}
	}
	return idx.resolveInterfaceCallViaParams(callerID, calleeExpr)
}

func (idx *Index) resolveInterfaceCallViaFields(callerID, callerName, calleeExpr string) []string {
	structName, _, _ := strings.Cut(callerName, ".")
	parts := strings.Split(calleeExpr, ".")
	if len(parts) < 2 {
		return nil
	}
	methodName := parts[len(parts)-1]

	fieldTypes, ok := idx.fieldIndex[structName]
	if !ok {
		return nil
	}
	var fieldType string
	for i := len(parts) - 2; i >= 0; i-- {
		if ft, ok := fieldTypes[parts[i]]; ok {
			fieldType = ft
			break
		}
	}
	if fieldType == "" {
		return nil
	}
	return idx.resolveToImplementations(methodName, fieldType)
}

func (idx *Index) resolveInterfaceCallViaParams(callerID, calleeExpr string) []string {
	sig := idx.functionIDToSignature[callerID]
	if sig == "" {
		return nil
	}
	params := parseGoSignatureParams(sig)
	if len(params) == 0 {
		return nil
	}
	parts := strings.Split(calleeExpr, ".")
	if len(parts) < 2 {
		return nil
	}
	methodName := parts[len(parts)-1]

	for i := len(parts) - 2; i >= 0; i-- {
		candidate := parts[i]
		for _, p := range params {
			if p.name != candidate {
				continue
			}
			if ids := idx.resolveToImplementations(methodName, p.typ); len(ids) > 0 {
				return ids
			}
		}
	}
	return nil
}

// resolveToImplementations returns call targets for fieldType.methodName:
// every concrete implementation if fieldType is a known interface, the
// concrete type directly if it has the method itself, or a synthesized
// external stub if fieldType is neither (e.g. sql.DB, http.Client).
func (idx *Index) resolveToImplementations(methodName, fieldType string) []string {
	fieldType = strings.TrimPrefix(fieldType, "*")

	if implTypes, ok := idx.implementsIndex[fieldType]; ok {
		var ids []string
		for _, implType := range implTypes {
			if id, ok := idx.qualifiedFunctions[implType+"."+methodName]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			return ids
		}
	}

	qualified := fieldType + "." + methodName
	if id, ok := idx.qualifiedFunctions[qualified]; ok {
		return []string{id}
	}

	if isPrimitiveOrBuiltinType(fieldType) {
		return nil
	}
	stubID := externalStubID(fieldType, methodName)
	idx.qualifiedFunctions[qualified] = stubID
	idx.stubs = append(idx.stubs, ir.Node{
		ID:   stubID,
		Kind: ir.NodeMethod,
		Name: qualified,
		FQN:  "<external>." + qualified,
	})
	return []string{stubID}
}

// externalStubID derives a deterministic node id for an external type's
// method, so repeated builds generate the same stub rather than a fresh one
// each time.
func externalStubID(typeName, methodName string) string {
	return "external-stub:" + ir.HashBytes([]byte(typeName+"."+methodName)).String()
}

func isPrimitiveOrBuiltinType(t string) bool {
	switch t {
	case "string", "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64", "complex64", "complex128",
		"bool", "byte", "rune", "error", "func", "any", "interface{}",
		"Context":
		return true
	}
	return false
}

type sigParam struct{ name, typ string }

// parseGoSignatureParams extracts "(name type, ...)" parameter lists from a
// captured declaration's signature text. Grouped declarations ("a, b int")
// are handled by scanning left to right and carrying the most recently seen
// type backward is unnecessary here since we only need (name -> type) pairs
// for interface dispatch matching, so each comma-separated entry is parsed
// independently: the last whitespace-separated token is the type, the rest
// (if any) is the name.
func parseGoSignatureParams(sig string) []sigParam {
	open := strings.Index(sig, "(")
	if open < 0 {
		return nil
	}
	depth := 0
	closeIdx := -1
	for i := open; i < len(sig); i++ {
		switch sig[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				closeIdx = i
			}
		}
		if closeIdx >= 0 {
			break
		}
	}
	if closeIdx < 0 {
		return nil
	}
	inner := sig[open+1 : closeIdx]

	var params []sigParam
	for _, part := range splitTopLevelComma(inner) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		typ := fields[len(fields)-1]
		name := ""
		if len(fields) > 1 {
			name = fields[0]
		}
		params = append(params, sigParam{name: name, typ: typ})
	}
	return params
}

func splitTopLevelComma(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}
