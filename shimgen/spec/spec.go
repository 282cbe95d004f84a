// Package spec turns a marked Go type into the structural description the
// emitter renders: exports, hooks, signals and wiring members.
package spec

import (
	"go/types"
)

// ScriptSpec describes one marked implementation type
type ScriptSpec struct {
	Impl         *types.TypeName
	ClassName    string
	BaseTypeName string // host FQN, e.g. Godot.Node2D

	Exports      []ExportMember
	Hooks        HookSet
	HookSigs     map[Hook]*types.Signature
	Signals      []Signal
	NodePaths    []WiringMember
	Preloads     []WiringMember
	AutoConnects []AutoConnect

	Tool bool
	Icon string

	Constructor *Constructor
}

// ImplName is the implementation type's declared name
func (s *ScriptSpec) ImplName() string { return s.Impl.Name() }

// ImplPkgPath is the import path of the implementation type's package
func (s *ScriptSpec) ImplPkgPath() string { return s.Impl.Pkg().Path() }

// ImplFQN is <pkgpath>.<Name>
func (s *ScriptSpec) ImplFQN() string { return s.ImplPkgPath() + "." + s.ImplName() }

// NeedsReady reports whether a Ready hook is generated
func (s *ScriptSpec) NeedsReady() bool {
	return s.Hooks.Has(HookReady) || len(s.NodePaths) > 0 || len(s.Preloads) > 0 || len(s.AutoConnects) > 0
}

// Hint is an editor hint attached to an export
type Hint struct {
	Kind  string
	Value string
}

// Subgroup groups exports in the inspector
type Subgroup struct {
	Name   string
	Prefix string
}

// ExportMember is a field forwarded as an editor-visible property
type ExportMember struct {
	Name     string
	Type     types.Type
	Hint     *Hint
	Category string
	Subgroup *Subgroup
	Tooltip  string
}

// Param is a named parameter
type Param struct {
	Name string
	Type types.Type
}

// Signal is a method named Signal<Name> with no results
type Signal struct {
	Name   string
	Method string
	Params []Param
}

// WiringMember is a field assigned in the generated Ready hook
type WiringMember struct {
	Field    string
	Path     string
	Required bool
	Optional bool       // declared as shim.Option[T]
	Type     types.Type // T when Optional, else the field type
	Wrapper  types.Type // the Option[T] type when Optional
}

// AutoConnect binds a host signal on a node to an impl method
type AutoConnect struct {
	Path    string
	Signal  string
	Handler string
	Params  []Param
}

// Constructor is a New<Impl> function in the impl package
type Constructor struct {
	Func    string
	Pointer bool
}
