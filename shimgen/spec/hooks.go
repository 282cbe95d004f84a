package spec

import (
	"go/types"
	"strings"

	"github.com/teranos/shimgen/shimgen/host"
)

// Hook identifies one lifecycle hook the host calls on a node
type Hook uint32

const (
	HookReady Hook = 1 << iota
	HookProcess
	HookPhysicsProcess
	HookInput
	HookUnhandledInput
	HookNotification
	HookEnterTree
	HookExitTree
	HookGuiInput
	HookShortcutInput
	HookDraw
	HookCanDropData
	HookDropData
	HookGetDragData
	HookGetTooltip
	HookGetMinimumSize
)

// HookSet is a set of hooks
type HookSet uint32

// Has reports whether h is in the set
func (s HookSet) Has(h Hook) bool { return s&HookSet(h) != 0 }

// With returns the set plus h
func (s HookSet) With(h Hook) HookSet { return s | HookSet(h) }

// Type keys used in the hook table. Keys prefixed host. name a host type.
const (
	keyFloat64    = "float64"
	keyInt64      = "int64"
	keyBool       = "bool"
	keyString     = "string"
	keyInputEvent = "host." + host.InputEvent
	keyVector2    = "host." + host.Vector2
	keyVariant    = "host." + host.Variant
)

// HookParam is a parameter of a hook: the name used in generated code and the type key
type HookParam struct {
	Name string
	Key  string
}

// HookDef is one row of the hook table
type HookDef struct {
	Hook    Hook
	Name    string
	Params  []HookParam
	Results []string
}

// Hooks is the closed hook table, in emission order
var Hooks = []HookDef{
	{Hook: HookReady, Name: "Ready"},
	{Hook: HookProcess, Name: "Process", Params: []HookParam{{"delta", keyFloat64}}},
	{Hook: HookPhysicsProcess, Name: "PhysicsProcess", Params: []HookParam{{"delta", keyFloat64}}},
	{Hook: HookInput, Name: "Input", Params: []HookParam{{"event", keyInputEvent}}},
	{Hook: HookUnhandledInput, Name: "UnhandledInput", Params: []HookParam{{"event", keyInputEvent}}},
	{Hook: HookNotification, Name: "Notification", Params: []HookParam{{"what", keyInt64}}},
	{Hook: HookEnterTree, Name: "EnterTree"},
	{Hook: HookExitTree, Name: "ExitTree"},
	{Hook: HookGuiInput, Name: "GuiInput", Params: []HookParam{{"event", keyInputEvent}}},
	{Hook: HookShortcutInput, Name: "ShortcutInput", Params: []HookParam{{"event", keyInputEvent}}},
	{Hook: HookDraw, Name: "Draw"},
	{Hook: HookCanDropData, Name: "CanDropData",
		Params: []HookParam{{"atPosition", keyVector2}, {"data", keyVariant}}, Results: []string{keyBool}},
	{Hook: HookDropData, Name: "DropData",
		Params: []HookParam{{"atPosition", keyVector2}, {"data", keyVariant}}},
	{Hook: HookGetDragData, Name: "GetDragData",
		Params: []HookParam{{"atPosition", keyVector2}}, Results: []string{keyVariant}},
	{Hook: HookGetTooltip, Name: "GetTooltip",
		Params: []HookParam{{"atPosition", keyVector2}}, Results: []string{keyString}},
	{Hook: HookGetMinimumSize, Name: "GetMinimumSize", Results: []string{keyVector2}},
}

// hookByName indexes the table
var hookByName = func() map[string]HookDef {
	m := make(map[string]HookDef, len(Hooks))
	for _, h := range Hooks {
		m[h.Name] = h
	}
	return m
}()

// LookupHook returns the table row for a method name
func LookupHook(name string) (HookDef, bool) {
	h, ok := hookByName[name]
	return h, ok
}

// Matches reports whether sig has exactly the hook's parameter and result types
func (d HookDef) Matches(v host.Vocabulary, sig *types.Signature) bool {
	if sig.Variadic() || sig.Params().Len() != len(d.Params) || sig.Results().Len() != len(d.Results) {
		return false
	}
	for i, p := range d.Params {
		if !matchKey(v, sig.Params().At(i).Type(), p.Key) {
			return false
		}
	}
	for i, r := range d.Results {
		if !matchKey(v, sig.Results().At(i).Type(), r) {
			return false
		}
	}
	return true
}

func matchKey(v host.Vocabulary, t types.Type, key string) bool {
	if name, ok := strings.CutPrefix(key, "host."); ok {
		return v.Is(t, name)
	}
	obj := types.Universe.Lookup(key)
	if obj == nil {
		return false
	}
	return types.Identical(t, obj.Type())
}
