// Package module loads a Go module with full type information and ties
// comment groups to the type, field and method objects they document.
package module

import (
	"context"
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/teranos/shimgen/errors"
	"github.com/teranos/shimgen/logger"
)

// LoadMode is everything the builder and locators need
const LoadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports

// Options controls a load
type Options struct {
	// Path is a directory (loaded as ./...) or a package pattern resolved from the working directory
	Path string

	// FallbackDirs are tried in order when the primary load fails
	FallbackDirs []string

	// Exclude drops packages whose directory is at or below one of these
	// paths. The output root goes here so stale shims never block a load.
	Exclude []string

	BuildTags []string
	Log       *zap.SugaredLogger
}

// Type is a declared named type with the comments attached to it
type Type struct {
	Obj  *types.TypeName
	Pos  token.Position
	Spec *ast.TypeSpec
	Fset *token.FileSet

	// Doc holds the declaration's doc and trailing comment groups
	Doc []*ast.CommentGroup

	// Fields maps struct field names to their doc and trailing comments
	Fields map[string][]*ast.CommentGroup

	// Methods maps method names to their doc comments
	Methods map[string]*ast.CommentGroup
}

// PkgPath returns the import path of the declaring package
func (t *Type) PkgPath() string { return t.Obj.Pkg().Path() }

// PkgName returns the declared package name
func (t *Type) PkgName() string { return t.Obj.Pkg().Name() }

// FQN returns <pkgpath>.<Name>
func (t *Type) FQN() string { return t.PkgPath() + "." + t.Obj.Name() }

// Position resolves a position inside the type's package
func (t *Type) Position(pos token.Pos) token.Position {
	if t.Fset == nil || !pos.IsValid() {
		return t.Pos
	}
	return t.Fset.Position(pos)
}

// Module is a loaded set of root packages
type Module struct {
	Dir     string
	pkgs    []*packages.Package
	types   []*Type
	byObj   map[*types.TypeName]*Type
	warning int
}

// Load loads opts.Path. A package that go list cannot resolve to any
// source file is fatal. Compile, type and parse errors are logged and the
// partially checked packages are kept.
func Load(ctx context.Context, opts Options) (*Module, error) {
	log := opts.Log
	if log == nil {
		log = logger.ComponentLogger("shimgen.module")
	}

	dir, pattern, err := resolve(opts.Path)
	if err != nil {
		return nil, err
	}

	exclude := make([]string, 0, len(opts.Exclude))
	for _, e := range opts.Exclude {
		if abs, err := filepath.Abs(e); err == nil {
			exclude = append(exclude, abs)
		}
	}

	m, err := load(ctx, dir, pattern, opts.BuildTags, exclude, log)
	if err == nil {
		return m, nil
	}

	for _, fb := range opts.FallbackDirs {
		fbDir, fbPattern := fb, "./..."
		if pattern != "./..." {
			fbPattern = pattern
		}
		log.Debugw("Retrying load from fallback directory",
			logger.FieldPath, fbDir, logger.FieldError, err)
		if fm, ferr := load(ctx, fbDir, fbPattern, opts.BuildTags, exclude, log); ferr == nil {
			return fm, nil
		}
	}
	return nil, err
}

// resolve splits a module argument into the load directory and pattern
func resolve(path string) (dir, pattern string, err error) {
	if path == "" {
		return "", "", errors.Mark(errors.New("module path is empty"), errors.ErrUsage)
	}
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", "", errors.Wrapf(err, "resolve %s", path)
		}
		return abs, "./...", nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", errors.Wrap(err, "working directory")
	}
	return cwd, path, nil
}

func load(ctx context.Context, dir, pattern string, tags, exclude []string, log *zap.SugaredLogger) (*Module, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    LoadMode,
		Dir:     dir,
	}
	if len(tags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(tags, ",")}
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, errors.WithHint(
			errors.Mark(errors.Wrapf(err, "load %s in %s", pattern, dir), errors.ErrModuleLoad),
			"check that the path is inside a Go module and that `go list` works there")
	}
	if len(pkgs) == 0 {
		return nil, errors.Mark(errors.Newf("no packages match %s in %s", pattern, dir), errors.ErrModuleLoad)
	}

	m := &Module{Dir: dir, byObj: map[*types.TypeName]*Type{}}
	for _, pkg := range pkgs {
		if pkgDir := packageDir(pkg); pkgDir != "" && excluded(pkgDir, exclude) {
			log.Debugw("Skipping excluded package", logger.FieldPackage, pkg.PkgPath, logger.FieldPath, pkgDir)
			continue
		}

		// go list -export reports compiler errors as list errors on a package
		// that still has sources; only a package with nothing to check is fatal
		resolved := len(pkg.GoFiles) > 0 || len(pkg.CompiledGoFiles) > 0 || len(pkg.Syntax) > 0
		var fatal []string
		for _, e := range pkg.Errors {
			if e.Kind == packages.ListError && !resolved {
				fatal = append(fatal, e.Error())
				continue
			}
			m.warning++
			log.Warnw("Package has errors, continuing with partial type information",
				logger.FieldPackage, pkg.PkgPath, logger.FieldError, e.Error())
		}
		if len(fatal) > 0 {
			return nil, errors.Mark(
				errors.Newf("package %s: %s", pkg.PkgPath, strings.Join(fatal, "; ")),
				errors.ErrModuleLoad)
		}
		if pkg.Types == nil || pkg.TypesInfo == nil {
			continue
		}
		m.pkgs = append(m.pkgs, pkg)
		m.collect(pkg)
	}

	sort.SliceStable(m.types, func(i, j int) bool {
		a, b := m.types[i], m.types[j]
		if a.PkgPath() != b.PkgPath() {
			return a.PkgPath() < b.PkgPath()
		}
		if a.Pos.Filename != b.Pos.Filename {
			return a.Pos.Filename < b.Pos.Filename
		}
		return a.Pos.Offset < b.Pos.Offset
	})

	log.Debugw("Loaded module",
		logger.FieldPath, dir,
		logger.FieldPackage, pattern,
		logger.FieldCount, len(m.types))
	return m, nil
}

// packageDir is the directory holding pkg's sources, or "" when it has none
func packageDir(pkg *packages.Package) string {
	for _, files := range [][]string{pkg.GoFiles, pkg.CompiledGoFiles, pkg.OtherFiles} {
		if len(files) > 0 {
			return filepath.Dir(files[0])
		}
	}
	return ""
}

func excluded(dir string, roots []string) bool {
	for _, root := range roots {
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

// collect records every type declared in pkg along with its comments
func (m *Module) collect(pkg *packages.Package) {
	methods := map[string]map[string]*ast.CommentGroup{}

	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, s := range d.Specs {
					ts := s.(*ast.TypeSpec)
					obj, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
					if !ok {
						continue
					}
					t := &Type{
						Obj:     obj,
						Pos:     pkg.Fset.Position(ts.Pos()),
						Spec:    ts,
						Fset:    pkg.Fset,
						Fields:  fieldComments(ts),
						Methods: map[string]*ast.CommentGroup{},
					}
					// a grouped declaration's doc belongs to the group, not each member
					if d.Lparen == token.NoPos {
						t.Doc = append(t.Doc, d.Doc)
					}
					t.Doc = append(t.Doc, ts.Doc, ts.Comment)
					m.types = append(m.types, t)
					m.byObj[obj] = t
				}
			case *ast.FuncDecl:
				recv := receiverName(d)
				if recv == "" {
					continue
				}
				if methods[recv] == nil {
					methods[recv] = map[string]*ast.CommentGroup{}
				}
				methods[recv][d.Name.Name] = d.Doc
			}
		}
	}

	for _, t := range m.types {
		if t.Obj.Pkg() != pkg.Types {
			continue
		}
		for name, doc := range methods[t.Obj.Name()] {
			t.Methods[name] = doc
		}
	}
}

func fieldComments(ts *ast.TypeSpec) map[string][]*ast.CommentGroup {
	out := map[string][]*ast.CommentGroup{}
	st, ok := ts.Type.(*ast.StructType)
	if !ok || st.Fields == nil {
		return out
	}
	for _, f := range st.Fields.List {
		for _, n := range f.Names {
			out[n.Name] = []*ast.CommentGroup{f.Doc, f.Comment}
		}
	}
	return out
}

// receiverName returns the base type name of a method receiver, or "" for functions
func receiverName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	expr := fn.Recv.List[0].Type
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

// Types returns every named type declared in the root packages, ordered by
// package path and then declaration position.
func (m *Module) Types() []*Type {
	return m.types
}

// Lookup returns the declaration record for a type object from a root package
func (m *Module) Lookup(obj *types.TypeName) (*Type, bool) {
	t, ok := m.byObj[obj]
	return t, ok
}

// Packages returns the loaded root packages
func (m *Module) Packages() []*packages.Package {
	return m.pkgs
}

// Warnings is the number of non-fatal package errors seen while loading
func (m *Module) Warnings() int {
	return m.warning
}

// Close drops every reference into the loaded packages
func (m *Module) Close() {
	if m == nil {
		return
	}
	m.pkgs = nil
	m.types = nil
	m.byObj = nil
}
