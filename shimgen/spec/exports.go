package spec

import (
	"go/types"
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/shimgen/errors"
	"github.com/teranos/shimgen/shimgen/host"
	"github.com/teranos/shimgen/shimgen/marker"
)

// Exportable reports whether values of t can be shown in the editor
func (b *Builder) Exportable(t types.Type) bool {
	switch u := types.Unalias(t).(type) {
	case *types.Basic:
		return exportableBasic(u)
	case *types.Slice:
		return b.Exportable(u.Elem())
	case *types.Array:
		return b.Exportable(u.Elem())
	case *types.Map:
		return b.Exportable(u.Key()) && b.Exportable(u.Elem())
	case *types.Pointer:
		return b.host.IsExportType(u)
	case *types.Named:
		if b.host.IsExportType(u) {
			return true
		}
		_, isEnum := b.enum(u)
		return isEnum
	}
	return false
}

func exportableBasic(t *types.Basic) bool {
	info := t.Info()
	switch {
	case info&types.IsUntyped != 0:
		return false
	case info&types.IsBoolean != 0, info&types.IsString != 0, info&types.IsInteger != 0:
		return true
	case info&types.IsFloat != 0:
		return true
	}
	return false
}

// enum is Enum limited to types declared in the loaded module. Named
// integers from elsewhere, such as time.Duration, are not enums here.
func (b *Builder) enum(t types.Type) ([]*types.Const, bool) {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok || b.mod == nil {
		return nil, false
	}
	if _, ok := b.mod.Lookup(named.Obj()); !ok {
		return nil, false
	}
	return Enum(named)
}

// Enum reports whether t is a named integer type with constants declared
// in its package, and returns those constants in declaration order.
func Enum(t types.Type) ([]*types.Const, bool) {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return nil, false
	}
	basic, ok := named.Underlying().(*types.Basic)
	if !ok || basic.Info()&types.IsInteger == 0 {
		return nil, false
	}
	scope := named.Obj().Pkg().Scope()
	var members []*types.Const
	for _, name := range scope.Names() {
		if c, ok := scope.Lookup(name).(*types.Const); ok && types.Identical(c.Type(), named) {
			members = append(members, c)
		}
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].Pos() < members[j].Pos() })
	return members, len(members) > 0
}

// isFlags reports whether an enum type carries the flags marker
func (b *Builder) isFlags(t types.Type) bool {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok || b.mod == nil {
		return false
	}
	decl, ok := b.mod.Lookup(named.Obj())
	if !ok {
		return false
	}
	set, _ := marker.FromComments(marker.TargetType, decl.Doc...)
	return set.Has(marker.Flags)
}

// defaultHint is the hint implied by the type alone
func (b *Builder) defaultHint(t types.Type) *Hint {
	members, isEnum := b.enum(t)
	if !isEnum || !b.isFlags(t) {
		return nil
	}
	names := make([]string, len(members))
	for i, c := range members {
		names[i] = c.Name()
	}
	return &Hint{Kind: host.HintFlags, Value: strings.Join(names, ",")}
}

var hintDirectives = []string{
	marker.Range, marker.File, marker.Dir, marker.ResourceType, marker.Multiline,
	marker.ColorNoAlpha, marker.EnumList, marker.Layers2DRender,
}

// explicitHint converts the field's hint directive, if any
func explicitHint(set marker.Set) (*Hint, error) {
	var found []marker.Directive
	for _, name := range hintDirectives {
		found = append(found, set.All(name)...)
	}
	if len(found) == 0 {
		return nil, nil
	}
	if len(found) > 1 {
		return nil, errors.Newf("at most one editor hint per field, found %d", len(found))
	}

	d := found[0]
	switch d.Name {
	case marker.Range:
		value, err := formatRange(d)
		if err != nil {
			return nil, err
		}
		return &Hint{Kind: host.HintRange, Value: value}, nil
	case marker.File:
		return &Hint{Kind: host.HintFile, Value: d.Arg(0)}, nil
	case marker.Dir:
		return &Hint{Kind: host.HintDir}, nil
	case marker.ResourceType:
		if d.Arg(0) == "" {
			return nil, errors.Newf("%s%s needs a type name", marker.Prefix, d.Name)
		}
		return &Hint{Kind: host.HintResourceType, Value: d.Arg(0)}, nil
	case marker.Multiline:
		return &Hint{Kind: host.HintMultilineText}, nil
	case marker.ColorNoAlpha:
		return &Hint{Kind: host.HintColorNoAlpha}, nil
	case marker.EnumList:
		if d.Arg(0) == "" {
			return nil, errors.Newf("%s%s needs a comma-separated list", marker.Prefix, d.Name)
		}
		return &Hint{Kind: host.HintEnum, Value: strings.Join(d.Args, ",")}, nil
	case marker.Layers2DRender:
		return &Hint{Kind: host.HintLayers2DRender}, nil
	}
	return nil, nil
}

// formatRange renders "min,max[,step][,1]". With slider the step is always
// written and a trailing 1 enables the slider.
func formatRange(d marker.Directive) (string, error) {
	var nums []float64
	slider := false
	for _, a := range d.Args {
		if a == "slider" {
			slider = true
			continue
		}
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return "", errors.WithHint(
				errors.Newf("%srange: %q is not a number", marker.Prefix, a),
				"usage: //shimgen:range <min> <max> [step] [slider]")
		}
		nums = append(nums, f)
	}
	if v, set, err := d.Bool("slider"); err != nil {
		return "", err
	} else if set {
		slider = v
	}
	if len(nums) < 2 || len(nums) > 3 {
		return "", errors.WithHint(
			errors.Newf("%srange takes min, max and an optional step, got %d numbers", marker.Prefix, len(nums)),
			"usage: //shimgen:range <min> <max> [step] [slider]")
	}
	if step, ok := d.Opt("step"); ok {
		f, err := strconv.ParseFloat(step, 64)
		if err != nil {
			return "", errors.Newf("%srange: step %q is not a number", marker.Prefix, step)
		}
		if len(nums) == 2 {
			nums = append(nums, f)
		} else {
			nums[2] = f
		}
	}

	parts := []string{formatNumber(nums[0]), formatNumber(nums[1])}
	switch {
	case len(nums) == 3:
		parts = append(parts, formatNumber(nums[2]))
	case slider:
		parts = append(parts, "0")
	}
	if slider {
		parts = append(parts, "1")
	}
	return strings.Join(parts, ","), nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
