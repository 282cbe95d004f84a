// Package host holds the host framework vocabulary that generated code
// targets: type names, editor hint kinds, directive spellings and the
// handful of API entry points the generated Ready hook calls.
package host

import (
	"go/types"
	"strings"
)

// Namespace prefixes fully-qualified host type names in script markers
// (base=Godot.Node2D). It is mapped to the configured import alias.
const Namespace = "Godot"

// DefaultBase is the base type used when a script marker names none
const DefaultBase = Namespace + ".Node"

// Host type names referenced by the hook table and the generated Ready hook
const (
	Node        = "Node"
	InputEvent  = "InputEvent"
	Vector2     = "Vector2"
	Variant     = "Variant"
	NodePath    = "NodePath"
	StringName  = "StringName"
	Resource    = "Resource"
	Texture2D   = "Texture2D"
	PackedScene = "PackedScene"
)

// ExportTypes is the allow-list of host value and resource types that may be exported
var ExportTypes = map[string]bool{
	"Vector2":     true,
	"Vector3":     true,
	"Color":       true,
	"Basis":       true,
	"Rect2":       true,
	"Transform2D": true,
	"Transform3D": true,
	"NodePath":    true,
	"StringName":  true,
	"RID":         true,
	"Texture2D":   true,
	"PackedScene": true,
	"Resource":    true,
}

// Editor hint kinds, as spelled after //godot:export in generated code
const (
	HintRange          = "range"
	HintFile           = "file"
	HintDir            = "dir"
	HintResourceType   = "resource_type"
	HintEnum           = "enum"
	HintMultilineText  = "multiline_text"
	HintColorNoAlpha   = "color_no_alpha"
	HintLayers2DRender = "layers_2d_render"
	HintFlags          = "flags"
)

// Directives written into generated code for the host's own build step
const (
	DirectiveClass    = "//godot:class"
	DirectiveTool     = "//godot:tool"
	DirectiveIcon     = "//godot:icon"
	DirectiveExport   = "//godot:export"
	DirectiveCategory = "//godot:category"
	DirectiveSubgroup = "//godot:subgroup"
	DirectiveTooltip  = "//godot:tooltip"
	DirectiveSignal   = "//godot:signal"
)

// API entry points used by generated code
const (
	FuncGetNodeOrNull = "GetNodeOrNull" // method promoted from the embedded base
	FuncConnect       = "Connect"       // method on the resolved target node
	FuncLoad          = "Load"          // package function: Load(path string) Resource
	FuncNewNodePath   = "NewNodePath"
	FuncNewStringName = "NewStringName"
	FuncNewCallable   = "NewCallable"
)

// Vocabulary binds the host names to the configured Go package
type Vocabulary struct {
	ImportPath string
	Alias      string
}

// Named returns the host type name of t, looking through one pointer.
// ok is false when t is not declared in the host package.
func (v Vocabulary) Named(t types.Type) (name string, ok bool) {
	t = types.Unalias(t)
	if p, isPtr := t.(*types.Pointer); isPtr {
		t = types.Unalias(p.Elem())
	}
	n, isNamed := t.(*types.Named)
	if !isNamed || n.Obj().Pkg() == nil {
		return "", false
	}
	if n.Obj().Pkg().Path() != v.ImportPath {
		return "", false
	}
	return n.Obj().Name(), true
}

// Is reports whether t is the host type with the given name, by value or pointer
func (v Vocabulary) Is(t types.Type, name string) bool {
	got, ok := v.Named(t)
	return ok && got == name
}

// IsExportType reports whether t is on the export allow-list
func (v Vocabulary) IsExportType(t types.Type) bool {
	name, ok := v.Named(t)
	return ok && ExportTypes[name]
}

// BaseName strips the host namespace from a base type FQN:
// "Godot.Node2D" and "Node2D" both yield "Node2D".
func BaseName(fqn string) string {
	if rest, ok := strings.CutPrefix(fqn, Namespace+"."); ok {
		return rest
	}
	if i := strings.LastIndex(fqn, "."); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}
