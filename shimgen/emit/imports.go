package emit

import (
	"go/types"
	"strconv"
	"strings"
)

// imports assigns aliases to packages in first-use order
type imports struct {
	preferred map[string]string // path -> alias to try first
	byPath    map[string]string
	taken     map[string]bool
	order     []string
}

// reserved are identifiers generated code declares locally
var reserved = []string{"s", "value", "ok", "r", "panic", "any", "nil"}

func newImports(preferred map[string]string) *imports {
	im := &imports{
		preferred: preferred,
		byPath:    map[string]string{},
		taken:     map[string]bool{},
	}
	for _, name := range reserved {
		im.taken[name] = true
	}
	return im
}

// alias returns the name to qualify path with, registering it on first use
func (im *imports) alias(path, name string) string {
	if a, ok := im.byPath[path]; ok {
		return a
	}
	base := name
	if p, ok := im.preferred[path]; ok && p != "" {
		base = p
	}
	a := base
	for n := 2; im.taken[a]; n++ {
		a = base + strconv.Itoa(n)
	}
	im.byPath[path] = a
	im.taken[a] = true
	im.order = append(im.order, path)
	return a
}

// qualifier renders package-qualified type names through the alias table
func (im *imports) qualifier(p *types.Package) string {
	return im.alias(p.Path(), p.Name())
}

// block renders the import declaration, or "" when nothing was used
func (im *imports) block() string {
	if len(im.order) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("import (\n")
	for _, path := range im.order {
		a := im.byPath[path]
		sb.WriteString("\t" + a + " " + strconv.Quote(path) + "\n")
	}
	sb.WriteString(")\n")
	return sb.String()
}
