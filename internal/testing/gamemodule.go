// Package testing builds throwaway Go modules for loader, builder and
// pipeline tests. Every module carries a stub host binding and a stub
// shim package so that it type-checks without network access.
package testing

import (
	"os"
	"path/filepath"
	"testing"
)

// Import paths inside a game module
const (
	ModulePath = "example.com/game"
	HostImport = ModulePath + "/godot"
	ShimImport = ModulePath + "/shim"
)

// HostStub is a minimal host binding with the names generated code refers to
const HostStub = `package godot

type Variant any

type Vector2 struct{ X, Y float32 }
type Vector3 struct{ X, Y, Z float32 }
type Color struct{ R, G, B, A float32 }
type Rect2 struct{ Position, Size Vector2 }
type Basis struct{ X, Y, Z Vector3 }
type Transform2D struct{ X, Y, Origin Vector2 }
type Transform3D struct {
	Basis  Basis
	Origin Vector3
}
type RID uint64
type NodePath string
type StringName string

type InputEvent struct{}

type Resource struct{ path string }
type Texture2D struct{ Resource }
type PackedScene struct{ Resource }
type AudioStream struct{ Resource }

type Callable struct{ fn any }

func NewCallable(fn any) Callable        { return Callable{fn: fn} }
func NewNodePath(s string) NodePath      { return NodePath(s) }
func NewStringName(s string) StringName  { return StringName(s) }
func Load(path string) any               { return nil }

type Object interface {
	Connect(signal StringName, callable Callable) error
}

type Node struct{ children map[NodePath]Object }

func (n *Node) GetNodeOrNull(path NodePath) Object {
	if c, ok := n.children[path]; ok {
		return c
	}
	return nil
}

func (n *Node) Connect(signal StringName, callable Callable) error { return nil }

type CanvasItem struct{ Node }
type Node2D struct{ CanvasItem }
type Sprite2D struct{ Node2D }
type CharacterBody2D struct{ Node2D }
type Control struct{ CanvasItem }
type Label struct{ Control }
type Button struct{ Control }
type CanvasLayer struct{ Node }
`

// ShimStub mirrors the runtime shim package
const ShimStub = `package shim

type Option[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Option[T] { return Option[T]{value: v, ok: true} }
func None[T any]() Option[T]    { return Option[T]{} }

func (o Option[T]) Get() (T, bool) { return o.value, o.ok }

type NodeReceiver[T any] interface {
	SetNode(node T)
}
`

// NewGameModule writes a module rooted in a fresh temp dir and returns its path.
// files maps slash-separated paths to contents; go.mod and the stubs are added.
func NewGameModule(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	all := map[string]string{
		"go.mod":         "module " + ModulePath + "\n\ngo 1.22\n",
		"godot/godot.go": HostStub,
		"shim/shim.go":   ShimStub,
	}
	for name, content := range files {
		all[name] = content
	}
	for name, content := range all {
		WriteFile(t, filepath.Join(dir, filepath.FromSlash(name)), content)
	}
	return dir
}

// WriteFile writes content, creating parent directories
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}
