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

// Package callgraph resolves cross-file call edges and interface dispatch
// that pkg/ir's single-file parsers cannot see: a call expression is only
// ever examined against the file it appears in, so any callee living in
// another file (same package or imported) is left as an External stub edge.
// This package builds a project-wide index across every file's StructuralIR
// and rewrites those stubs into real edges, the way pkg/ingestion's
// CallResolver and BuildImplementsIndex do in the teacher.
package callgraph

import (
	"path"
	"strings"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// PackageInfo groups the files that share a directory, the unit pkg/ir's
// per-file parsing treats as a Go package.
type PackageInfo struct {
	PackagePath string
	Files       []ir.FileId
}

// Index is a project-wide registry built from every file's StructuralIR,
// used to resolve calls and interface dispatch that cross file boundaries.
// Build it once per snapshot and reuse it for every unresolved call.
type Index struct {
	packages map[string]*PackageInfo

	// functionsByPackage: package dir -> simple function/method name -> node id.
	functionsByPackage map[string]map[string]string

	// qualifiedFunctions: "TypeName.Method" -> node id, scanned project-wide
	// (a deliberate simplification: same-named methods on same-named types in
	// different packages collide, matching the teacher's resolver).
	qualifiedFunctions map[string]string

	// fileImports: file id -> alias -> import path.
	fileImports map[ir.FileId]map[string]string

	// importPathToPackage: import path -> local package dir.
	importPathToPackage map[string]string

	// fieldIndex: struct type name -> field name -> field type.
	fieldIndex map[string]map[string]string

	// implementsIndex: interface name -> concrete type names satisfying it.
	implementsIndex map[string][]string

	functionIDToName      map[string]string
	functionIDToSignature map[string]string

	stubs []ir.Node
}

// NewIndex builds a project-wide Index from every file's StructuralIR. Call
// this once per snapshot build, after every file has been parsed, and before
// ResolveCalls.
func NewIndex(files []ir.StructuralIR) *Index {
	idx := &Index{
		packages:               make(map[string]*PackageInfo),
		functionsByPackage:      make(map[string]map[string]string),
		qualifiedFunctions:      make(map[string]string),
		fileImports:             make(map[ir.FileId]map[string]string),
		importPathToPackage:     make(map[string]string),
		fieldIndex:              make(map[string]map[string]string),
		implementsIndex:         make(map[string][]string),
		functionIDToName:        make(map[string]string),
		functionIDToSignature:   make(map[string]string),
	}
	for _, f := range files {
		idx.indexFile(f)
	}
	idx.buildImportPathMapping()
	idx.buildImplementsIndex(files)
	return idx
}

func (idx *Index) indexFile(f ir.StructuralIR) {
	pkgDir := path.Dir(string(f.FileID))
	pkg, ok := idx.packages[pkgDir]
	if !ok {
		pkg = &PackageInfo{PackagePath: pkgDir}
		idx.packages[pkgDir] = pkg
	}
	pkg.Files = append(pkg.Files, f.FileID)

	typeNamesByID := make(map[string]string) // type node id -> bare type name
	for _, n := range f.Nodes {
		switch n.Kind {
		case ir.NodeFunction, ir.NodeMethod:
			idx.indexFunction(pkgDir, n)
		case ir.NodeImport:
			idx.indexImport(f.FileID, n)
		case ir.NodeClass:
			typeNamesByID[n.ID] = n.Name
		}
	}
	for _, n := range f.Nodes {
		if n.Kind != ir.NodeField {
			continue
		}
		idx.indexField(f, n, typeNamesByID)
	}
}

func (idx *Index) indexFunction(pkgDir string, n ir.Node) {
	if idx.functionsByPackage[pkgDir] == nil {
		idx.functionsByPackage[pkgDir] = make(map[string]string)
	}
	simple := n.Name
	if dot := strings.LastIndex(simple, "."); dot >= 0 {
		simple = simple[dot+1:]
	}
	idx.functionsByPackage[pkgDir][simple] = n.ID

	if strings.Contains(n.Name, ".") {
		idx.qualifiedFunctions[n.Name] = n.ID
	}
	idx.functionIDToName[n.ID] = n.Name
	if sig, ok := n.Attrs["signature"]; ok {
		idx.functionIDToSignature[n.ID] = sig
	}
}

func (idx *Index) indexImport(fileID ir.FileId, n ir.Node) {
	importPath := strings.Trim(n.Name, `"`)
	alias := path.Base(importPath)
	if idx.fileImports[fileID] == nil {
		idx.fileImports[fileID] = make(map[string]string)
	}
	idx.fileImports[fileID][alias] = importPath
}

// indexField records a struct field's declared type, keyed by the struct's
// bare name, using the Contains edge from the owning type node. Since the
// field's own id is "<typeID>.field:<name>", the owning type id is
// recoverable by trimming that suffix rather than re-walking edges.
func (idx *Index) indexField(f ir.StructuralIR, field ir.Node, typeNamesByID map[string]string) {
	marker := ".field:" + field.Name
	if !strings.HasSuffix(field.ID, marker) {
		return
	}
	typeID := strings.TrimSuffix(field.ID, marker)
	typeName, ok := typeNamesByID[typeID]
	if !ok {
		return
	}
	if idx.fieldIndex[typeName] == nil {
		idx.fieldIndex[typeName] = make(map[string]string)
	}
	idx.fieldIndex[typeName][field.Name] = field.Attrs["type"]
}

// buildImportPathMapping infers the local package directory for a Go import
// path. Works for intra-module relative paths; module-qualified import paths
// are matched by directory suffix, same as the teacher's resolver.
func (idx *Index) buildImportPathMapping() {
	for pkgDir := range idx.packages {
		idx.importPathToPackage[pkgDir] = pkgDir
	}
}

func (idx *Index) findPackageByImportPath(importPath string) string {
	if pkgDir, ok := idx.importPathToPackage[importPath]; ok {
		return pkgDir
	}
	for pkgDir := range idx.packages {
		if strings.HasSuffix(importPath, pkgDir) {
			idx.importPathToPackage[importPath] = pkgDir
			return pkgDir
		}
	}
	base := path.Base(importPath)
	for pkgDir := range idx.packages {
		if path.Base(pkgDir) == base {
			idx.importPathToPackage[importPath] = pkgDir
			return pkgDir
		}
	}
	return ""
}

func (idx *Index) lookupFunctionInPackage(importPath, funcName string) string {
	pkgDir := idx.findPackageByImportPath(importPath)
	if pkgDir == "" {
		return ""
	}
	return idx.functionsByPackage[pkgDir][funcName]
}

// Stubs returns the synthetic external-type method nodes generated while
// resolving interface dispatch through unindexed (non-project) types.
func (idx *Index) Stubs() []ir.Node { return idx.stubs }
