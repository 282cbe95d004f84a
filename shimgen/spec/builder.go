package spec

import (
	"fmt"
	"go/token"
	"go/types"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/teranos/shimgen/errors"
	"github.com/teranos/shimgen/logger"
	"github.com/teranos/shimgen/shimgen/host"
	"github.com/teranos/shimgen/shimgen/marker"
	"github.com/teranos/shimgen/shimgen/module"
)

// signalPrefix starts the name of every signal declaration method
const signalPrefix = "Signal"

// Options configures a Builder
type Options struct {
	Host host.Vocabulary

	// ShimPackages are the import paths whose Option type marks a member optional
	ShimPackages []string
}

// Builder builds specs for the types of one loaded module
type Builder struct {
	host host.Vocabulary
	shim map[string]bool
	mod  *module.Module
	log  *zap.SugaredLogger
}

// NewBuilder returns a builder over mod. mod may be nil, in which case no
// named integer is treated as an enum.
func NewBuilder(mod *module.Module, opts Options) *Builder {
	shim := make(map[string]bool, len(opts.ShimPackages))
	for _, p := range opts.ShimPackages {
		if p != "" {
			shim[p] = true
		}
	}
	return &Builder{
		host: opts.Host,
		shim: shim,
		mod:  mod,
		log:  logger.ComponentLogger("shimgen.spec"),
	}
}

// typeBuild accumulates problems for one type
type typeBuild struct {
	t    *module.Type
	errs ValidationErrors
}

func (tb *typeBuild) fail(member string, pos token.Pos, format string, args ...interface{}) {
	tb.errs = append(tb.errs, &ValidationError{
		Type:   tb.t.FQN(),
		Member: member,
		Pos:    tb.t.Position(pos),
		Msg:    fmt.Sprintf(format, args...),
	})
}

func (tb *typeBuild) failErr(member string, pos token.Pos, err error) {
	hint := errors.FlattenHints(err)
	for _, line := range strings.Split(err.Error(), "\n") {
		tb.errs = append(tb.errs, &ValidationError{
			Type: tb.t.FQN(), Member: member, Pos: tb.t.Position(pos), Msg: line, Hint: hint,
		})
	}
}

// Build returns the spec for a marked type, or nil for an unmarked one.
// Every problem in the type is reported, as ValidationErrors.
func (b *Builder) Build(t *module.Type) (*ScriptSpec, error) {
	tb := &typeBuild{t: t}

	set, err := marker.FromComments(marker.TargetType, t.Doc...)
	if err != nil {
		tb.failErr("", t.Obj.Pos(), err)
	}
	script, marked := set.Get(marker.Script)
	if !marked {
		return nil, tb.errs.errOrNil()
	}
	if n := len(set.All(marker.Script)); n > 1 {
		tb.fail("", script.Pos, "%d script markers, expected one", n)
	}

	b.log.Debugw("Building spec", logger.FieldType, t.FQN())

	s := &ScriptSpec{Impl: t.Obj, HookSigs: map[Hook]*types.Signature{}}
	b.header(tb, s, script)

	named, ok := t.Obj.Type().(*types.Named)
	if !ok {
		tb.fail("", t.Obj.Pos(), "script marker on an alias; mark the named type itself")
		return nil, tb.errs
	}
	switch {
	case t.PkgName() == "main":
		tb.fail("", t.Obj.Pos(), "script types cannot live in package main, which cannot be imported")
	case named.TypeParams().Len() > 0:
		tb.fail("", t.Obj.Pos(), "script marker on a generic type")
	}
	if _, isIface := named.Underlying().(*types.Interface); isIface {
		tb.fail("", t.Obj.Pos(), "script marker on an interface type")
	}

	if st, isStruct := named.Underlying().(*types.Struct); isStruct {
		b.fields(tb, s, st)
	} else {
		for name, groups := range t.Fields {
			if fs, _ := marker.FromComments(marker.TargetField, groups...); len(fs) > 0 {
				tb.fail(name, t.Obj.Pos(), "field directives need a struct type")
			}
		}
	}
	b.methods(tb, s, named)
	s.Constructor = constructor(named)
	checkMemberNames(tb, s)

	if len(tb.errs) > 0 {
		return nil, tb.errs
	}
	return s, nil
}

// header fills in the script marker options
func (b *Builder) header(tb *typeBuild, s *ScriptSpec, d marker.Directive) {
	s.ClassName = tb.t.Obj.Name()
	if v, ok := d.Opt("class"); ok && v != "" {
		s.ClassName = v
	}
	if !token.IsIdentifier(s.ClassName) || !token.IsExported(s.ClassName) {
		tb.fail("", d.Pos, "class name %q is not an exported Go identifier", s.ClassName)
	}

	s.BaseTypeName = host.DefaultBase
	if v, ok := d.Opt("base"); ok && v != "" {
		s.BaseTypeName = v
	}
	if base := host.BaseName(s.BaseTypeName); !token.IsIdentifier(base) || !token.IsExported(base) {
		tb.fail("", d.Pos, "base type %q is not a host type name", s.BaseTypeName)
	}

	tool, _, err := d.Bool("tool")
	if err != nil {
		tb.failErr("", d.Pos, err)
	}
	s.Tool = tool
	s.Icon, _ = d.Opt("icon")
	for _, a := range d.Args {
		if a != "tool" {
			tb.fail("", d.Pos, "unexpected argument %q to %s%s", a, marker.Prefix, marker.Script)
		}
	}
}

// fields extracts wiring members and exports in declaration order
func (b *Builder) fields(tb *typeBuild, s *ScriptSpec, st *types.Struct) {
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		set, err := marker.FromComments(marker.TargetField, tb.t.Fields[f.Name()]...)
		if err != nil {
			tb.failErr(f.Name(), f.Pos(), err)
		}

		if f.Embedded() || !f.Exported() {
			if len(set) > 0 {
				tb.fail(f.Name(), f.Pos(), "directives need an exported, non-embedded field")
			}
			continue
		}

		wired, err := b.wiring(s, f, set)
		if err != nil {
			tb.failErr(f.Name(), f.Pos(), err)
			continue
		}
		if wired || set.Has(marker.Ignore) {
			if hasExportDirectives(set) {
				tb.fail(f.Name(), f.Pos(), "export directives on a member that is not exported")
			}
			continue
		}

		if !b.Exportable(f.Type()) {
			if hasExportDirectives(set) {
				tb.fail(f.Name(), f.Pos(), "type %s cannot be exported", f.Type())
			}
			continue
		}

		m, err := b.export(f, set)
		if err != nil {
			tb.failErr(f.Name(), f.Pos(), err)
			continue
		}
		s.Exports = append(s.Exports, m)
	}
}

func hasExportDirectives(set marker.Set) bool {
	for _, d := range set {
		switch d.Name {
		case marker.Ignore, marker.NodePath, marker.OptionalNodePath, marker.Preload:
		default:
			return true
		}
	}
	return false
}

func (b *Builder) export(f *types.Var, set marker.Set) (ExportMember, error) {
	m := ExportMember{Name: f.Name(), Type: f.Type()}

	hint, err := explicitHint(set)
	if err != nil {
		return m, err
	}
	if hint == nil {
		hint = b.defaultHint(f.Type())
	}
	m.Hint = hint

	if d, ok := set.Get(marker.Category); ok {
		if m.Category = strings.Join(d.Args, " "); m.Category == "" {
			return m, errors.Newf("%s%s needs a name", marker.Prefix, marker.Category)
		}
	}
	if d, ok := set.Get(marker.Subgroup); ok {
		name := strings.Join(d.Args, " ")
		if name == "" {
			return m, errors.Newf("%s%s needs a name", marker.Prefix, marker.Subgroup)
		}
		prefix, _ := d.Opt("prefix")
		m.Subgroup = &Subgroup{Name: name, Prefix: prefix}
	}
	if d, ok := set.Get(marker.Tooltip); ok {
		m.Tooltip = strings.Join(d.Args, " ")
	}
	return m, nil
}

// wiring records node path and preload members. It reports whether f is one.
func (b *Builder) wiring(s *ScriptSpec, f *types.Var, set marker.Set) (bool, error) {
	var found []marker.Directive
	for _, name := range []string{marker.NodePath, marker.OptionalNodePath, marker.Preload} {
		found = append(found, set.All(name)...)
	}
	if len(found) == 0 {
		return false, nil
	}
	if len(found) > 1 {
		return true, errors.Newf("a member takes one wiring directive, found %d", len(found))
	}
	d := found[0]

	inner, optional := b.Option(f.Type())
	m := WiringMember{Field: f.Name(), Optional: optional, Type: f.Type()}
	if optional {
		m.Type = inner
		m.Wrapper = f.Type()
	}

	switch d.Name {
	case marker.NodePath:
		required, set, err := d.Bool("required")
		if err != nil {
			return true, err
		}
		if !set {
			required = true
		}
		if required && optional {
			return true, errors.WithHint(
				errors.Newf("required node path on optional member of type %s", f.Type()),
				"use //shimgen:optional-nodepath, or declare the member without shim.Option")
		}
		if !required && !optional {
			return true, errors.WithHint(
				errors.Newf("optional node path on member of non-optional type %s", f.Type()),
				"declare the member as shim.Option[T]")
		}
		m.Required = required
		m.Path = optString(d, "path", f.Name())
		s.NodePaths = append(s.NodePaths, m)

	case marker.OptionalNodePath:
		if !optional {
			return true, errors.WithHint(
				errors.Newf("optional node path on member of non-optional type %s", f.Type()),
				"declare the member as shim.Option[T]")
		}
		m.Path = optString(d, "path", f.Name())
		s.NodePaths = append(s.NodePaths, m)

	case marker.Preload:
		m.Path = d.Arg(0)
		if p, ok := d.Opt("path"); ok {
			m.Path = p
		}
		if m.Path == "" {
			return true, errors.Newf("%s%s needs a resource path", marker.Prefix, marker.Preload)
		}
		required, set, err := d.Bool("required")
		if err != nil {
			return true, err
		}
		switch {
		case !set:
			required = !optional
		case required && optional:
			return true, errors.Newf("required preload on optional member of type %s", f.Type())
		case !required && !optional:
			return true, errors.WithHint(
				errors.Newf("optional preload on member of non-optional type %s", f.Type()),
				"declare the member as shim.Option[T]")
		}
		m.Required = required
		s.Preloads = append(s.Preloads, m)
	}
	return true, nil
}

func optString(d marker.Directive, key, fallback string) string {
	if v, ok := d.Opt(key); ok && v != "" {
		return v
	}
	return fallback
}

// Option reports whether t is shim.Option[T] and returns T
func (b *Builder) Option(t types.Type) (types.Type, bool) {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok || named.Obj().Pkg() == nil || named.Obj().Name() != "Option" {
		return nil, false
	}
	if !b.shim[named.Obj().Pkg().Path()] || named.TypeArgs().Len() != 1 {
		return nil, false
	}
	return named.TypeArgs().At(0), true
}

// methods finds hooks, signals and auto-connect handlers in the pointer method set
func (b *Builder) methods(tb *typeBuild, s *ScriptSpec, named *types.Named) {
	mset := types.NewMethodSet(types.NewPointer(named))
	declared := map[string]*types.Func{}
	for i := 0; i < mset.Len(); i++ {
		sel := mset.At(i)
		// promoted methods belong to embedded types
		if len(sel.Index()) > 1 {
			continue
		}
		fn, ok := sel.Obj().(*types.Func)
		if !ok {
			continue
		}
		declared[fn.Name()] = fn
	}

	names := make([]string, 0, len(declared))
	for name := range declared {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return declared[names[i]].Pos() < declared[names[j]].Pos() })

	for _, name := range names {
		fn := declared[name]
		sig := fn.Type().(*types.Signature)
		if !fn.Exported() {
			continue
		}
		if h, ok := LookupHook(name); ok {
			if h.Matches(b.host, sig) {
				s.Hooks = s.Hooks.With(h.Hook)
				s.HookSigs[h.Hook] = sig
			} else {
				b.log.Debugw("Method shares a hook name but not its signature",
					logger.FieldType, tb.t.FQN(), "method", name)
			}
			continue
		}
		if sigName, ok := signalName(name); ok && sig.Results().Len() == 0 {
			s.Signals = append(s.Signals, Signal{Name: sigName, Method: name, Params: params(sig)})
		}
	}

	// connect directives, in source order of their methods
	methodNames := make([]string, 0, len(tb.t.Methods))
	for name := range tb.t.Methods {
		methodNames = append(methodNames, name)
	}
	sort.Strings(methodNames)
	type pending struct {
		d  marker.Directive
		ac AutoConnect
	}
	var conns []pending
	for _, name := range methodNames {
		set, err := marker.FromComments(marker.TargetMethod, tb.t.Methods[name])
		if err != nil {
			tb.failErr(name, token.NoPos, err)
			continue
		}
		for _, d := range set.All(marker.Connect) {
			fn, ok := declared[name]
			if !ok || !fn.Exported() {
				tb.fail(name, d.Pos, "auto-connect handler %s is not an exported method", name)
				continue
			}
			path, _ := d.Opt("path")
			signal, _ := d.Opt("signal")
			if path == "" || signal == "" {
				tb.fail(name, d.Pos, "%s%s needs path= and signal=", marker.Prefix, marker.Connect)
				continue
			}
			sig := fn.Type().(*types.Signature)
			conns = append(conns, pending{d: d, ac: AutoConnect{
				Path: path, Signal: signal, Handler: name, Params: params(sig),
			}})
		}
	}
	sort.SliceStable(conns, func(i, j int) bool { return conns[i].d.Pos < conns[j].d.Pos })
	for _, c := range conns {
		s.AutoConnects = append(s.AutoConnects, c.ac)
	}
}

// checkMemberNames rejects specs whose generated fields and methods would clash
func checkMemberNames(tb *typeBuild, s *ScriptSpec) {
	seen := map[string]string{}
	add := func(name, from string) {
		if prev, dup := seen[name]; dup {
			tb.fail("", tb.t.Obj.Pos(), "generated member %s for %s collides with %s", name, from, prev)
			return
		}
		seen[name] = from
	}
	add(host.BaseName(s.BaseTypeName), "the base type")
	add("impl", "the implementation field")
	for _, g := range s.Signals {
		add(g.Name, "signal "+g.Name)
		add("Emit"+g.Name, "signal "+g.Name)
	}
	for _, e := range s.Exports {
		add(e.Name, "export "+e.Name)
		add("Set"+e.Name, "export "+e.Name)
	}
	for _, h := range Hooks {
		if s.Hooks.Has(h.Hook) || (h.Hook == HookReady && s.NeedsReady()) {
			add(h.Name, "hook "+h.Name)
		}
	}
}

// signalName returns X for a method named SignalX
func signalName(method string) (string, bool) {
	rest, ok := strings.CutPrefix(method, signalPrefix)
	if !ok || rest == "" {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsUpper(r) {
		return "", false
	}
	return rest, true
}

func params(sig *types.Signature) []Param {
	out := make([]Param, sig.Params().Len())
	for i := range out {
		p := sig.Params().At(i)
		name := p.Name()
		if name == "" || name == "_" {
			name = "arg" + strconv.Itoa(i)
		}
		out[i] = Param{Name: name, Type: p.Type()}
	}
	return out
}

// constructor finds New<Impl>() returning Impl or *Impl
func constructor(named *types.Named) *Constructor {
	name := "New" + named.Obj().Name()
	fn, ok := named.Obj().Pkg().Scope().Lookup(name).(*types.Func)
	if !ok {
		return nil
	}
	sig := fn.Type().(*types.Signature)
	if sig.Params().Len() != 0 || sig.Results().Len() != 1 {
		return nil
	}
	res := sig.Results().At(0).Type()
	if types.Identical(res, named) {
		return &Constructor{Func: name}
	}
	if types.Identical(res, types.NewPointer(named)) {
		return &Constructor{Func: name, Pointer: true}
	}
	return nil
}
