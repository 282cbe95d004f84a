package host

import (
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func namedIn(pkgPath, name string) *types.Named {
	pkg := types.NewPackage(pkgPath, "godot")
	obj := types.NewTypeName(token.NoPos, pkg, name, nil)
	return types.NewNamed(obj, types.NewStruct(nil, nil), nil)
}

func TestVocabularyNamed(t *testing.T) {
	v := Vocabulary{ImportPath: "example.com/game/godot", Alias: "godot"}

	vec := namedIn("example.com/game/godot", "Vector2")
	other := namedIn("example.com/other", "Vector2")

	name, ok := v.Named(vec)
	assert.True(t, ok)
	assert.Equal(t, "Vector2", name)

	name, ok = v.Named(types.NewPointer(vec))
	assert.True(t, ok, "one pointer is looked through")
	assert.Equal(t, "Vector2", name)

	_, ok = v.Named(types.NewPointer(types.NewPointer(vec)))
	assert.False(t, ok, "only one pointer is looked through")

	_, ok = v.Named(other)
	assert.False(t, ok)

	_, ok = v.Named(types.Typ[types.Int])
	assert.False(t, ok)

	assert.True(t, v.Is(vec, Vector2))
	assert.False(t, v.Is(vec, Variant))
}

func TestIsExportType(t *testing.T) {
	v := Vocabulary{ImportPath: "example.com/game/godot"}

	assert.True(t, v.IsExportType(namedIn(v.ImportPath, "Color")))
	assert.True(t, v.IsExportType(types.NewPointer(namedIn(v.ImportPath, "PackedScene"))))
	assert.False(t, v.IsExportType(namedIn(v.ImportPath, "Node2D")))
	assert.False(t, v.IsExportType(namedIn("example.com/elsewhere", "Color")))
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Godot.Node", "Node"},
		{"Godot.CharacterBody2D", "CharacterBody2D"},
		{"Control", "Control"},
		{"other.Sprite2D", "Sprite2D"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseName(tt.in))
		})
	}
	assert.Equal(t, "Node", BaseName(DefaultBase))
}
