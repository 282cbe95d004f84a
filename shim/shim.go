// Package shim is the runtime vocabulary shared by script types and the
// files shimgen generates for them.
//
// A script type is an ordinary Go struct marked with a directive:
//
//	//shimgen:script class=Player base=Godot.CharacterBody2D
//	type PlayerImpl struct {
//		//shimgen:range 0 600 10
//		Speed float64
//
//		//shimgen:optional-nodepath path=HUD
//		HUD shim.Option[*godot.CanvasLayer]
//	}
//
// Members wired as optional must be declared as Option so the generated
// Ready hook can represent a missing node or resource as None.
package shim

// Option holds a value that may be absent.
type Option[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

// None returns the absent value for T.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsSome reports whether a value is present.
func (o Option[T]) IsSome() bool {
	return o.ok
}

// IsNone reports whether the value is absent.
func (o Option[T]) IsNone() bool {
	return !o.ok
}

// OrElse returns the value, or fallback when absent.
func (o Option[T]) OrElse(fallback T) T {
	if o.ok {
		return o.value
	}
	return fallback
}

// NodeReceiver is implemented by script types that want a reference to the
// host node they are attached to. Generated Ready hooks call SetNode before
// any other wiring reaches user code.
type NodeReceiver[T any] interface {
	SetNode(node T)
}
