package marker

import (
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		comment  string
		wantOK   bool
		wantErr  bool
		wantName string
		wantArgs []string
		wantOpts map[string]string
	}{
		{
			name:     "script with options and switch",
			comment:  "//shimgen:script class=Foo base=Godot.Node2D tool icon=res://icon.svg",
			wantOK:   true,
			wantName: Script,
			wantArgs: []string{"tool"},
			wantOpts: map[string]string{"class": "Foo", "base": "Godot.Node2D", "icon": "res://icon.svg"},
		},
		{
			name:     "quoted filter keeps commas",
			comment:  `//shimgen:file "*.png,*.jpg"`,
			wantOK:   true,
			wantName: File,
			wantArgs: []string{"*.png,*.jpg"},
			wantOpts: map[string]string{},
		},
		{
			name:     "quoted option value",
			comment:  `//shimgen:tooltip "Units per second" `,
			wantOK:   true,
			wantName: Tooltip,
			wantArgs: []string{"Units per second"},
			wantOpts: map[string]string{},
		},
		{
			name:     "option keys are case-insensitive",
			comment:  "//shimgen:subgroup Speed Prefix=spd_",
			wantOK:   true,
			wantName: Subgroup,
			wantArgs: []string{"Speed"},
			wantOpts: map[string]string{"prefix": "spd_"},
		},
		{
			name:    "plain comment is not a directive",
			comment: "// Speed is in pixels per second",
			wantOK:  false,
		},
		{
			name:    "space after slashes is not a directive",
			comment: "// shimgen:script",
			wantOK:  false,
		},
		{
			name:    "unknown directive",
			comment: "//shimgen:scirpt",
			wantOK:  true,
			wantErr: true,
		},
		{
			name:    "unterminated quote",
			comment: `//shimgen:tooltip "oops`,
			wantOK:  true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok, err := Parse(tt.comment)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantName, d.Name)
			assert.Equal(t, tt.wantArgs, d.Args)
			assert.Equal(t, tt.wantOpts, d.Opts)
		})
	}
}

func TestDirectiveBool(t *testing.T) {
	d, _, err := Parse("//shimgen:nodepath required=false slider")
	require.NoError(t, err)

	v, set, err := d.Bool("required")
	require.NoError(t, err)
	assert.True(t, set)
	assert.False(t, v)

	v, set, err = d.Bool("slider")
	require.NoError(t, err)
	assert.True(t, set)
	assert.True(t, v)

	_, set, _ = d.Bool("tool")
	assert.False(t, set)

	bad, _, err := Parse("//shimgen:preload res://a.png required=maybe")
	require.NoError(t, err)
	_, _, err = bad.Bool("required")
	assert.Error(t, err)
	assert.False(t, bad.Flag("required"))
}

func TestFromComments(t *testing.T) {
	doc := &ast.CommentGroup{List: []*ast.Comment{
		{Text: "// Player is the controllable character."},
		{Text: "//shimgen:script class=Player"},
	}}
	trailing := &ast.CommentGroup{List: []*ast.Comment{{Text: "//shimgen:flags"}}}

	set, err := FromComments(TargetType, doc, nil, trailing)
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.True(t, set.Has(Script))
	assert.True(t, set.Has(Flags))
	assert.False(t, set.Has(Connect))

	d, ok := set.Get(Script)
	require.True(t, ok)
	assert.Equal(t, "Player", d.Opts["class"])
}

func TestFromCommentsRejectsWrongTarget(t *testing.T) {
	doc := &ast.CommentGroup{List: []*ast.Comment{
		{Text: "//shimgen:nodepath"},
		{Text: "//shimgen:range 0 10"},
	}}

	set, err := FromComments(TargetMethod, doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot annotate a method")
	assert.Empty(t, set)
}

func TestSetAll(t *testing.T) {
	doc := &ast.CommentGroup{List: []*ast.Comment{
		{Text: "//shimgen:connect path=Start signal=pressed"},
		{Text: "//shimgen:connect path=Retry signal=pressed"},
	}}
	set, err := FromComments(TargetMethod, doc)
	require.NoError(t, err)

	all := set.All(Connect)
	require.Len(t, all, 2)
	assert.Equal(t, "Start", all[0].Opts["path"])
	assert.Equal(t, "Retry", all[1].Opts["path"])
}
