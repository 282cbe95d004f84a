package lifecycle

import (
	"sort"
	"strings"
)

// RegenerateSet selects outputs rewritten regardless of the skip rules
type RegenerateSet struct {
	all   bool
	names map[string]bool
}

// ParseRegenerate reads "all" or a comma and/or space separated list of class names
func ParseRegenerate(s string) RegenerateSet {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return RegenerateSet{all: true}
	}
	var r RegenerateSet
	for _, name := range strings.FieldsFunc(s, func(c rune) bool { return c == ',' || c == ' ' || c == '\t' || c == ';' }) {
		if r.names == nil {
			r.names = map[string]bool{}
		}
		r.names[name] = true
	}
	return r
}

// Has reports whether class is forced
func (r RegenerateSet) Has(class string) bool {
	return r.all || r.names[class]
}

// IsZero reports whether nothing is forced
func (r RegenerateSet) IsZero() bool {
	return !r.all && len(r.names) == 0
}

func (r RegenerateSet) String() string {
	if r.all {
		return "all"
	}
	names := make([]string, 0, len(r.names))
	for n := range r.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
