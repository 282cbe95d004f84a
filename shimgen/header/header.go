// Package header formats and parses the provenance block at the top of
// every generated file. The block is the only state carried between runs.
package header

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Header line prefixes. Parsing matches them exactly.
const (
	Open           = "// <auto-generated>"
	Close          = "// </auto-generated>"
	lineGenerated  = "// This file was generated by shimgen."
	lineDoNotEdit  = "// Do NOT edit this file manually. Any changes will be overwritten."
	prefixVersion  = "// shimgenVersion: "
	prefixType     = "// Source Go type: "
	prefixLegacy   = "// Source F# type: "
	prefixFile     = "// SourceFile: "
	prefixHash     = "// SourceHash: "
	probeLineCount = 6
)

// Provenance is what a generated file records about its origin
type Provenance struct {
	Version    string
	TypeFQN    string
	SourceFile string // slash-separated, relative to the source root; empty when not located
	SourceHash string // lowercase hex SHA-256; empty when not located
}

// Format renders the header block, ending with a newline.
// SourceFile and SourceHash lines are written only when set.
func Format(p Provenance) string {
	var sb strings.Builder
	sb.WriteString(Open + "\n")
	sb.WriteString(lineGenerated + "\n")
	sb.WriteString(lineDoNotEdit + "\n")
	sb.WriteString(prefixVersion + p.Version + "\n")
	sb.WriteString(prefixType + p.TypeFQN + "\n")
	if p.SourceFile != "" {
		sb.WriteString(prefixFile + p.SourceFile + "\n")
	}
	if p.SourceHash != "" {
		sb.WriteString(prefixHash + p.SourceHash + "\n")
	}
	sb.WriteString(Close + "\n")
	return sb.String()
}

// Parse reads header fields from the start of content until the closing
// line. Missing fields are empty; unknown lines are ignored.
func Parse(content []byte) Provenance {
	var p Provenance
	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, Close) {
			break
		}
		switch {
		case strings.HasPrefix(line, prefixVersion):
			p.Version = strings.TrimSpace(line[len(prefixVersion):])
		case strings.HasPrefix(line, prefixType):
			p.TypeFQN = strings.TrimSpace(line[len(prefixType):])
		case strings.HasPrefix(line, prefixLegacy):
			p.TypeFQN = strings.TrimSpace(line[len(prefixLegacy):])
		case strings.HasPrefix(line, prefixFile):
			p.SourceFile = strings.TrimSpace(line[len(prefixFile):])
		case strings.HasPrefix(line, prefixHash):
			p.SourceHash = strings.TrimSpace(line[len(prefixHash):])
		}
	}
	return p
}

// IsGenerated reports whether the opening marker appears within the first lines of content.
// Only files passing this probe are ever relocated or deleted.
func IsGenerated(content []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(content))
	for i := 0; i < probeLineCount && sc.Scan(); i++ {
		if strings.HasPrefix(strings.TrimSpace(sc.Text()), Open) {
			return true
		}
	}
	return false
}

// IsOlder reports whether version a is older than b. Only major.minor.patch
// are compared; an unparseable version counts as 0.0.0.
func IsOlder(a, b string) bool {
	return core(a).LessThan(core(b))
}

func core(v string) *semver.Version {
	parsed, err := semver.NewVersion(strings.TrimSpace(v))
	if err != nil {
		return semver.New(0, 0, 0, "", "")
	}
	return semver.New(parsed.Major(), parsed.Minor(), parsed.Patch(), "", "")
}
