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

package ir

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// Parser produces a StructuralIR from raw file bytes. Spec §1 treats
// language-specific AST production as an external collaborator; GoParser is
// a concrete, in-tree implementation of that boundary for Go so the rest of
// the pipeline (cache, semantic builder, incremental engine) has a real
// producer to exercise rather than a stub.
type Parser interface {
	Parse(ctx context.Context, fileID FileId, source []byte) (StructuralIR, error)
}

// GoParser extracts top-level declarations and same-file references from Go
// source using tree-sitter. Parsers are not thread-safe, so instances are
// pooled (one parser checked out per call), the same discipline the
// teacher's multi-language tree-sitter parser uses.
type GoParser struct {
	logger *slog.Logger
	pool   sync.Pool
}

// NewGoParser constructs a GoParser. A nil logger falls back to
// slog.Default().
func NewGoParser(logger *slog.Logger) *GoParser {
	if logger == nil {
		logger = slog.Default()
	}
	p := &GoParser{logger: logger}
	p.pool.New = func() any {
		sp := sitter.NewParser()
		sp.SetLanguage(golang.GetLanguage())
		return sp
	}
	return p
}

func (p *GoParser) Parse(ctx context.Context, fileID FileId, source []byte) (StructuralIR, error) {
	sp := p.pool.Get().(*sitter.Parser)
	defer p.pool.Put(sp)

	tree, err := sp.ParseCtx(ctx, nil, source)
	if err != nil {
		return StructuralIR{}, fmt.Errorf("ir: tree-sitter parse %s: %w", fileID, err)
	}
	defer tree.Close()

	out := StructuralIR{
		FileID:      fileID,
		ContentHash: HashBytes(source),
		Language:    "go",
	}

	root := tree.RootNode()
	fileNodeID := string(fileID)
	out.Nodes = append(out.Nodes, Node{
		ID:   fileNodeID,
		Kind: NodeFile,
		Span: nodeSpan(root),
		Name: string(fileID),
		FQN:  string(fileID),
	})

	walkTopLevel(root, source, func(decl *sitter.Node) {
		p.extractDecl(&out, fileNodeID, decl, source)
	})

	// A call to a function declared later in the file was recorded as
	// external during the walk; resolve it now that every node exists.
	for i := range out.Edges {
		e := &out.Edges[i]
		if e.Kind == EdgeCalls && e.External {
			callee := e.TargetID[len("external:"):]
			if isLocalCallee(&out, callee) {
				e.TargetID = calleeTargetID(&out, callee)
				e.External = false
			}
		}
	}

	out.Canonicalize()
	return out, nil
}

// walkTopLevel invokes fn for every direct child of the source_file root
// that is itself a declaration node, skipping punctuation/comment nodes.
func walkTopLevel(root *sitter.Node, source []byte, fn func(*sitter.Node)) {
	n := int(root.ChildCount())
	for i := 0; i < n; i++ {
		child := root.Child(i)
		switch child.Type() {
		case "function_declaration", "method_declaration",
			"type_declaration", "import_declaration":
			fn(child)
		}
	}
}

func (p *GoParser) extractDecl(out *StructuralIR, fileNodeID string, decl *sitter.Node, source []byte) {
	switch decl.Type() {
	case "function_declaration":
		p.extractFunction(out, fileNodeID, decl, source, false)
	case "method_declaration":
		p.extractFunction(out, fileNodeID, decl, source, true)
	case "type_declaration":
		p.extractType(out, fileNodeID, decl, source)
	case "import_declaration":
		p.extractImports(out, fileNodeID, decl, source)
	}
}

func (p *GoParser) extractFunction(out *StructuralIR, fileNodeID string, decl *sitter.Node, source []byte, isMethod bool) {
	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(source)
	kind := NodeFunction
	attrs := map[string]string{"signature": decl.Content(source)}

	qualifiedName := name
	if isMethod {
		kind = NodeMethod
		if recv := receiverTypeName(decl, source); recv != "" {
			attrs["receiver_type"] = recv
			qualifiedName = recv + "." + name
		}
	}
	id := string(out.FileID) + "#" + qualifiedName

	out.Nodes = append(out.Nodes, Node{
		ID:    id,
		Kind:  kind,
		Span:  nodeSpan(decl),
		Name:  qualifiedName,
		FQN:   string(out.FileID) + "." + qualifiedName,
		Attrs: attrs,
	})
	out.Edges = append(out.Edges, Edge{SourceID: fileNodeID, TargetID: id, Kind: EdgeContains})

	p.extractCalls(out, id, decl, source)
}

// receiverTypeName extracts the bare type name from a method's receiver,
// unwrapping a leading pointer ("*T" → "T") and generic type parameters
// ("T[K]" → "T") to match how struct/interface declarations are keyed.
func receiverTypeName(decl *sitter.Node, source []byte) string {
	recv := decl.ChildByFieldName("receiver")
	if recv == nil || recv.NamedChildCount() == 0 {
		return ""
	}
	pd := recv.NamedChild(0)
	typeNode := pd.ChildByFieldName("type")
	if typeNode == nil {
		return ""
	}
	for typeNode.Type() == "pointer_type" {
		typeNode = typeNode.ChildByFieldName("type")
		if typeNode == nil {
			return ""
		}
	}
	if typeNode.Type() == "generic_type" {
		typeNode = typeNode.ChildByFieldName("type")
		if typeNode == nil {
			return ""
		}
	}
	return typeNode.Content(source)
}

func (p *GoParser) extractCalls(out *StructuralIR, callerID string, decl *sitter.Node, source []byte) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call_expression" {
			fn := n.ChildByFieldName("function")
			if fn != nil {
				callee := fn.Content(source)
				out.Edges = append(out.Edges, Edge{
					SourceID: callerID,
					TargetID: calleeTargetID(out, callee),
					Kind:     EdgeCalls,
					External: !isLocalCallee(out, callee),
				})
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(decl)
}

// calleeTargetID resolves a same-file callee to its node id, or synthesizes
// a stable external-call id otherwise; pkg/callgraph resolves external ids
// across files during the cross-file resolution pass.
func calleeTargetID(out *StructuralIR, callee string) string {
	if isLocalCallee(out, callee) {
		return string(out.FileID) + "#" + callee
	}
	return "external:" + callee
}

func isLocalCallee(out *StructuralIR, callee string) bool {
	want := string(out.FileID) + "#" + callee
	for _, n := range out.Nodes {
		if n.ID == want {
			return true
		}
	}
	return false
}

func (p *GoParser) extractType(out *StructuralIR, fileNodeID string, decl *sitter.Node, source []byte) {
	spec := decl.NamedChild(0)
	if spec == nil {
		return
	}
	nameNode := spec.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(source)
	id := string(out.FileID) + "#type:" + name

	typeNode := spec.ChildByFieldName("type")
	typeKind := "other"
	if typeNode != nil {
		switch typeNode.Type() {
		case "struct_type":
			typeKind = "struct"
		case "interface_type":
			typeKind = "interface"
		}
	}

	out.Nodes = append(out.Nodes, Node{
		ID:   id,
		Kind: NodeClass,
		Span: nodeSpan(decl),
		Name: name,
		FQN:  string(out.FileID) + "." + name,
		Attrs: map[string]string{
			"source":   decl.Content(source),
			"typekind": typeKind,
		},
	})
	out.Edges = append(out.Edges, Edge{SourceID: fileNodeID, TargetID: id, Kind: EdgeContains})

	if typeKind == "struct" {
		p.extractFields(out, id, typeNode, source)
	}
}

func (p *GoParser) extractFields(out *StructuralIR, typeID string, structType *sitter.Node, source []byte) {
	fieldList := structType.ChildByFieldName("body")
	if fieldList == nil {
		return
	}
	for i := 0; i < int(fieldList.NamedChildCount()); i++ {
		fd := fieldList.NamedChild(i)
		if fd.Type() != "field_declaration" {
			continue
		}
		nameNode := fd.ChildByFieldName("name")
		typeNode := fd.ChildByFieldName("type")
		if nameNode == nil {
			continue
		}
		fieldID := typeID + ".field:" + nameNode.Content(source)
		attrs := map[string]string{}
		if typeNode != nil {
			attrs["type"] = typeNode.Content(source)
		}
		out.Nodes = append(out.Nodes, Node{
			ID:    fieldID,
			Kind:  NodeField,
			Span:  nodeSpan(fd),
			Name:  nameNode.Content(source),
			FQN:   typeID + "." + nameNode.Content(source),
			Attrs: attrs,
		})
		out.Edges = append(out.Edges, Edge{SourceID: typeID, TargetID: fieldID, Kind: EdgeContains})
	}
}

func (p *GoParser) extractImports(out *StructuralIR, fileNodeID string, decl *sitter.Node, source []byte) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "import_spec" {
			pathNode := n.ChildByFieldName("path")
			if pathNode != nil {
				path := pathNode.Content(source)
				id := string(out.FileID) + "#import:" + path
				out.Nodes = append(out.Nodes, Node{ID: id, Kind: NodeImport, Span: nodeSpan(n), Name: path, FQN: path})
				out.Edges = append(out.Edges, Edge{SourceID: fileNodeID, TargetID: id, Kind: EdgeImports})
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(decl)
}

func nodeSpan(n *sitter.Node) Span {
	start, end := n.StartPoint(), n.EndPoint()
	return Span{
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column),
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column),
	}
}
