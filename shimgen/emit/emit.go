// Package emit renders a ScriptSpec as a Go source file that forwards the
// host's lifecycle, property and signal surface to the implementation.
package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"go/types"
	"strconv"
	"strings"

	"github.com/teranos/shimgen/errors"
	"github.com/teranos/shimgen/shimgen/header"
	"github.com/teranos/shimgen/shimgen/host"
	"github.com/teranos/shimgen/shimgen/locate"
	"github.com/teranos/shimgen/shimgen/spec"
)

// GeneratedLine is the standard marker recognized by Go tooling
const GeneratedLine = "// Code generated by shimgen. DO NOT EDIT."

// DefaultPackage names the generated package when none is configured
const DefaultPackage = "shims"

// Options configures an Emitter
type Options struct {
	Host       host.Vocabulary
	ShimImport string // package providing NodeReceiver
	Package    string
	Version    string
}

// Emitter renders specs. It holds no per-spec state and is safe to reuse.
type Emitter struct {
	opts Options
}

// New returns an Emitter
func New(opts Options) *Emitter {
	if opts.Package == "" {
		opts.Package = DefaultPackage
	}
	if opts.Host.Alias == "" {
		opts.Host.Alias = "godot"
	}
	return &Emitter{opts: opts}
}

// Emit renders s. src is the located source file, or nil. Output is
// gofmt-formatted and identical for identical inputs.
func (e *Emitter) Emit(s *spec.ScriptSpec, src *locate.Location) ([]byte, error) {
	prov := header.Provenance{Version: e.opts.Version, TypeFQN: s.ImplFQN()}
	if src != nil {
		prov.SourceFile = src.Rel
		prov.SourceHash = src.Hash
	}

	w := &writer{
		s:    s,
		opts: e.opts,
		im: newImports(map[string]string{
			e.opts.Host.ImportPath: e.opts.Host.Alias,
			e.opts.ShimImport:      "shim",
		}),
	}
	w.body()

	var out bytes.Buffer
	out.WriteString(header.Format(prov))
	out.WriteString("\n")
	out.WriteString(GeneratedLine + "\n\n")
	out.WriteString("package " + e.opts.Package + "\n\n")
	if block := w.im.block(); block != "" {
		out.WriteString(block + "\n")
	}
	out.Write(w.buf.Bytes())

	formatted, err := format.Source(out.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "format generated code for %s", s.ClassName)
	}
	return formatted, nil
}

// writer renders one spec body
type writer struct {
	s    *spec.ScriptSpec
	opts Options
	im   *imports
	buf  bytes.Buffer
}

func (w *writer) p(format string, args ...interface{}) {
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

func (w *writer) typ(t types.Type) string {
	return types.TypeString(t, w.im.qualifier)
}

func (w *writer) hostName(name string) string {
	return w.im.alias(w.opts.Host.ImportPath, w.opts.Host.Alias) + "." + name
}

func (w *writer) shimName(path, name string) string {
	return w.im.alias(path, "shim") + "." + name
}

func (w *writer) implType() string {
	return w.im.alias(w.s.ImplPkgPath(), w.s.Impl.Pkg().Name()) + "." + w.s.ImplName()
}

func (w *writer) baseField() string {
	return host.BaseName(w.s.BaseTypeName)
}

func (w *writer) body() {
	w.decl()
	w.constructor()
	for _, m := range w.s.Exports {
		w.export(m)
	}
	if w.s.NeedsReady() {
		w.ready()
	}
	for _, h := range spec.Hooks {
		if h.Hook == spec.HookReady || !w.s.Hooks.Has(h.Hook) {
			continue
		}
		w.forward(h)
	}
	for _, sig := range w.s.Signals {
		w.emitter(sig)
	}
}

func (w *writer) decl() {
	s := w.s
	w.p("// %s is the host script for %s.", s.ClassName, s.ImplName())
	w.p("//")
	w.p("%s %s", host.DirectiveClass, s.ClassName)
	if s.Tool {
		w.p("%s", host.DirectiveTool)
	}
	if s.Icon != "" {
		w.p("%s %s", host.DirectiveIcon, strconv.Quote(s.Icon))
	}
	w.p("type %s struct {", s.ClassName)
	w.p("\t%s", w.hostName(w.baseField()))
	w.p("\timpl %s", w.implType())
	for _, sig := range s.Signals {
		w.p("")
		w.p("\t%s", host.DirectiveSignal)
		decl, _ := w.params(sig.Params)
		w.p("\t%s func(%s)", sig.Name, decl)
	}
	w.p("}")
	w.p("")
}

func (w *writer) constructor() {
	s := w.s
	w.p("// New%s returns a %s with a fresh %s.", s.ClassName, s.ClassName, s.ImplName())
	w.p("func New%s() *%s {", s.ClassName, s.ClassName)
	if c := s.Constructor; c != nil {
		ctor := w.im.alias(s.ImplPkgPath(), s.Impl.Pkg().Name()) + "." + c.Func + "()"
		if c.Pointer {
			ctor = "*" + ctor
		}
		w.p("\ts := &%s{}", s.ClassName)
		w.p("\ts.impl = %s", ctor)
		w.p("\treturn s")
	} else {
		w.p("\treturn &%s{}", s.ClassName)
	}
	w.p("}")
	w.p("")
}

func (w *writer) export(m spec.ExportMember) {
	if m.Category != "" {
		w.p("%s %s", host.DirectiveCategory, strconv.Quote(m.Category))
	}
	if g := m.Subgroup; g != nil {
		if g.Prefix != "" {
			w.p("%s %s prefix=%s", host.DirectiveSubgroup, strconv.Quote(g.Name), strconv.Quote(g.Prefix))
		} else {
			w.p("%s %s", host.DirectiveSubgroup, strconv.Quote(g.Name))
		}
	}
	if m.Tooltip != "" {
		w.p("%s %s", host.DirectiveTooltip, strconv.Quote(m.Tooltip))
	}
	switch {
	case m.Hint == nil:
		w.p("%s", host.DirectiveExport)
	case m.Hint.Value == "":
		w.p("%s %s", host.DirectiveExport, m.Hint.Kind)
	default:
		w.p("%s %s %s", host.DirectiveExport, m.Hint.Kind, strconv.Quote(m.Hint.Value))
	}

	t := w.typ(m.Type)
	w.p("func (s *%s) %s() %s { return s.impl.%s }", w.s.ClassName, m.Name, t, m.Name)
	w.p("")
	w.p("func (s *%s) Set%s(value %s) { s.impl.%s = value }", w.s.ClassName, m.Name, t, m.Name)
	w.p("")
}

func (w *writer) ready() {
	s := w.s
	w.p("func (s *%s) Ready() {", s.ClassName)

	for _, m := range s.NodePaths {
		local := "n" + m.Field
		w.p("\t%s, ok := s.%s(%s(%s)).(%s)", local, host.FuncGetNodeOrNull,
			w.hostName(host.FuncNewNodePath), strconv.Quote(m.Path), w.typ(m.Type))
		if m.Optional {
			w.optional(m, local)
			continue
		}
		w.p("\tif !ok {")
		w.p("\t\tpanic(%s)", strconv.Quote(fmt.Sprintf(
			"[shimgen][%s] Missing required node at path '%s' for member %s", s.ClassName, m.Path, m.Field)))
		w.p("\t}")
		w.p("\ts.impl.%s = %s", m.Field, local)
	}

	for _, m := range s.Preloads {
		local := "p" + m.Field
		w.p("\t%s, ok := %s(%s).(%s)", local, w.hostName(host.FuncLoad), strconv.Quote(m.Path), w.typ(m.Type))
		if m.Optional {
			w.optional(m, local)
			continue
		}
		w.p("\tif !ok {")
		w.p("\t\tpanic(%s)", strconv.Quote(fmt.Sprintf(
			"[shimgen][%s] Missing preload resource '%s' for member %s", s.ClassName, m.Path, m.Field)))
		w.p("\t}")
		w.p("\ts.impl.%s = %s", m.Field, local)
	}

	base := w.hostName(w.baseField())
	w.p("\tif r, ok := any(&s.impl).(%s[*%s]); ok {", w.shimName(w.opts.ShimImport, "NodeReceiver"), base)
	w.p("\t\tr.SetNode(&s.%s)", w.baseField())
	w.p("\t}")

	for i, c := range s.AutoConnects {
		local := "c" + strconv.Itoa(i)
		w.p("\t%s := s.%s(%s(%s))", local, host.FuncGetNodeOrNull,
			w.hostName(host.FuncNewNodePath), strconv.Quote(c.Path))
		w.p("\tif %s == nil {", local)
		w.p("\t\tpanic(%s)", strconv.Quote(fmt.Sprintf(
			"[shimgen][%s] Missing node at path '%s' for signal '%s' handler %s", s.ClassName, c.Path, c.Signal, c.Handler)))
		w.p("\t}")
		decl, call := w.params(c.Params)
		w.p("\t%s.%s(%s(%s), %s(func(%s) { s.impl.%s(%s) }))", local, host.FuncConnect,
			w.hostName(host.FuncNewStringName), strconv.Quote(c.Signal),
			w.hostName(host.FuncNewCallable), decl, c.Handler, call)
	}

	if s.Hooks.Has(spec.HookReady) {
		w.p("\ts.impl.Ready()")
	}
	w.p("}")
	w.p("")
}

// optional assigns Some on a hit and None on a miss
func (w *writer) optional(m spec.WiringMember, local string) {
	path := optionPath(m.Wrapper, w.opts.ShimImport)
	w.p("\tif ok {")
	w.p("\t\ts.impl.%s = %s(%s)", m.Field, w.shimName(path, "Some"), local)
	w.p("\t} else {")
	w.p("\t\ts.impl.%s = %s[%s]()", m.Field, w.shimName(path, "None"), w.typ(m.Type))
	w.p("\t}")
}

// optionPath is the package declaring the member's Option type
func optionPath(t types.Type, fallback string) string {
	if named, ok := types.Unalias(t).(*types.Named); ok && named.Obj().Pkg() != nil {
		return named.Obj().Pkg().Path()
	}
	return fallback
}

func (w *writer) forward(h spec.HookDef) {
	sig := w.s.HookSigs[h.Hook]
	params := make([]string, len(h.Params))
	names := make([]string, len(h.Params))
	for i, hp := range h.Params {
		names[i] = hp.Name
		params[i] = hp.Name + " " + w.typ(sig.Params().At(i).Type())
	}
	call := fmt.Sprintf("s.impl.%s(%s)", h.Name, strings.Join(names, ", "))

	if sig.Results().Len() == 0 {
		w.p("func (s *%s) %s(%s) { %s }", w.s.ClassName, h.Name, strings.Join(params, ", "), call)
	} else {
		w.p("func (s *%s) %s(%s) %s { return %s }", w.s.ClassName, h.Name, strings.Join(params, ", "),
			w.results(sig), call)
	}
	w.p("")
}

func (w *writer) results(sig *types.Signature) string {
	res := sig.Results()
	if res.Len() == 1 {
		return w.typ(res.At(0).Type())
	}
	parts := make([]string, res.Len())
	for i := range parts {
		parts[i] = w.typ(res.At(i).Type())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (w *writer) emitter(sig spec.Signal) {
	w.p("// Emit%s calls the %s handler, if one is connected.", sig.Name, sig.Name)
	decl, call := w.params(sig.Params)
	w.p("func (s *%s) Emit%s(%s) {", w.s.ClassName, sig.Name, decl)
	w.p("\tif s.%s != nil {", sig.Name)
	w.p("\t\ts.%s(%s)", sig.Name, call)
	w.p("\t}")
	w.p("}")
	w.p("")
}

// params renders a parameter list and the matching argument list. Names
// that would shadow the receiver, a generated local or an import alias
// are replaced with argN.
func (w *writer) params(ps []spec.Param) (decl, call string) {
	typs := make([]string, len(ps))
	for i, p := range ps {
		typs[i] = w.typ(p.Type)
	}

	used := make(map[string]bool, len(ps))
	for _, p := range ps {
		used[p.Name] = true
	}
	parts := make([]string, len(ps))
	names := make([]string, len(ps))
	for i, p := range ps {
		name := p.Name
		if w.im.taken[name] {
			name = "arg" + strconv.Itoa(i)
			for k := 2; used[name] || w.im.taken[name]; k++ {
				name = "arg" + strconv.Itoa(i) + "_" + strconv.Itoa(k)
			}
			used[name] = true
		}
		names[i] = name
		parts[i] = name + " " + typs[i]
	}
	return strings.Join(parts, ", "), strings.Join(names, ", ")
}
