// Package marker parses //shimgen: comment directives.
//
// A directive is a line comment with no space after the slashes, a name,
// and shell-quoted arguments. Arguments of the form key=value become
// options; everything else is positional:
//
//	//shimgen:script class=Player base=Godot.Node2D tool
//	//shimgen:file "*.png,*.jpg"
//	//shimgen:subgroup Speed prefix=spd_
package marker

import (
	"go/ast"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/shimgen/errors"
)

// Prefix introduces every directive
const Prefix = "//shimgen:"

// Token is the marker text the source locator looks for in candidate files
const Token = "shimgen:script"

// Directive names
const (
	Script = "script"
	Flags  = "flags"

	NodePath         = "nodepath"
	OptionalNodePath = "optional-nodepath"
	Preload          = "preload"

	Range          = "range"
	File           = "file"
	Dir            = "dir"
	ResourceType   = "resource-type"
	Multiline      = "multiline"
	ColorNoAlpha   = "color-no-alpha"
	EnumList       = "enum-list"
	Layers2DRender = "layers-2d-render"
	Category       = "category"
	Subgroup       = "subgroup"
	Tooltip        = "tooltip"
	Ignore         = "ignore"

	Connect = "connect"
)

// Target is the kind of declaration a directive may annotate
type Target int

const (
	TargetType Target = iota
	TargetField
	TargetMethod
)

func (t Target) String() string {
	switch t {
	case TargetType:
		return "type"
	case TargetField:
		return "field"
	case TargetMethod:
		return "method"
	}
	return "unknown"
}

var targets = map[string]Target{
	Script: TargetType,
	Flags:  TargetType,

	NodePath:         TargetField,
	OptionalNodePath: TargetField,
	Preload:          TargetField,
	Range:            TargetField,
	File:             TargetField,
	Dir:              TargetField,
	ResourceType:     TargetField,
	Multiline:        TargetField,
	ColorNoAlpha:     TargetField,
	EnumList:         TargetField,
	Layers2DRender:   TargetField,
	Category:         TargetField,
	Subgroup:         TargetField,
	Tooltip:          TargetField,
	Ignore:           TargetField,

	Connect: TargetMethod,
}

// Names returns every known directive name, sorted.
func Names() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Directive is one parsed //shimgen: comment
type Directive struct {
	Name string
	Args []string
	Opts map[string]string
	Pos  token.Pos
}

// Arg returns the i-th positional argument or "".
func (d Directive) Arg(i int) string {
	if i < 0 || i >= len(d.Args) {
		return ""
	}
	return d.Args[i]
}

// Opt returns a key=value option.
func (d Directive) Opt(key string) (string, bool) {
	v, ok := d.Opts[key]
	return v, ok
}

// Bool reports a boolean switch given either as a bare word or as key=bool.
// The second result is false when the switch is absent.
func (d Directive) Bool(key string) (value bool, set bool, err error) {
	if raw, ok := d.Opts[key]; ok {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return false, true, errors.Newf("%s: %s=%q is not a boolean", d.Name, key, raw)
		}
		return b, true, nil
	}
	for _, a := range d.Args {
		if a == key {
			return true, true, nil
		}
	}
	return false, false, nil
}

// Flag is Bool without the error, for switches that only exist as bare words.
func (d Directive) Flag(key string) bool {
	b, _, err := d.Bool(key)
	return err == nil && b
}

// Parse parses a single raw comment. ok is false for comments that are not directives.
func Parse(comment string) (d Directive, ok bool, err error) {
	if !strings.HasPrefix(comment, Prefix) {
		return Directive{}, false, nil
	}
	body := strings.TrimSpace(comment[len(Prefix):])
	name, rest, _ := strings.Cut(body, " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return Directive{}, true, errors.Newf("empty directive %q", comment)
	}
	if _, known := targets[name]; !known {
		return Directive{}, true, errors.WithHintf(errors.Newf("unknown directive %q", Prefix+name),
			"known directives: %s", strings.Join(Names(), ", "))
	}

	words, err := shellquote.Split(rest)
	if err != nil {
		return Directive{}, true, errors.Wrapf(err, "directive %q", comment)
	}

	d = Directive{Name: name, Opts: map[string]string{}}
	for _, w := range words {
		if k, v, isOpt := strings.Cut(w, "="); isOpt && k != "" {
			d.Opts[strings.ToLower(k)] = v
			continue
		}
		d.Args = append(d.Args, w)
	}
	return d, true, nil
}

// Set is the list of directives attached to one declaration
type Set []Directive

// FromComments parses every directive in the given comment groups and
// checks that each one may annotate target. Nil groups are skipped.
func FromComments(target Target, groups ...*ast.CommentGroup) (Set, error) {
	var set Set
	var errs []error
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			d, ok, err := Parse(c.Text)
			if !ok {
				continue
			}
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if targets[d.Name] != target {
				errs = append(errs, errors.Newf("%s%s cannot annotate a %s", Prefix, d.Name, target))
				continue
			}
			d.Pos = c.Slash
			set = append(set, d)
		}
	}
	if len(errs) > 0 {
		return set, errors.Join(errs...)
	}
	return set, nil
}

// Get returns the first directive with the given name
func (s Set) Get(name string) (Directive, bool) {
	for _, d := range s {
		if d.Name == name {
			return d, true
		}
	}
	return Directive{}, false
}

// Has reports whether a directive with the given name is present
func (s Set) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// All returns every directive with the given name, in source order
func (s Set) All(name string) []Directive {
	var out []Directive
	for _, d := range s {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}
