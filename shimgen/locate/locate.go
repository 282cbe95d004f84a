// Package locate finds the source file that declares an implementation
// type and hashes it, for provenance headers.
package locate

import (
	"crypto/sha256"
	"encoding/hex"
)

// TypeIdentity is what a locator knows about the type it searches for
type TypeIdentity struct {
	Name    string
	PkgName string
	PkgPath string

	// File is the absolute declaration file recorded by the loader, if any
	File string
}

// FQN is <pkgpath>.<Name>
func (t TypeIdentity) FQN() string { return t.PkgPath + "." + t.Name }

// Location is a located source file
type Location struct {
	Rel  string // slash-separated, relative to the source root
	Hash string // lowercase hex SHA-256 of the file contents
}

// Locator maps a type to its source file under root. ok is false when no
// file qualifies; err is reserved for I/O failures.
type Locator interface {
	Locate(root string, t TypeIdentity) (loc Location, ok bool, err error)
}

// Hash returns the lowercase hex SHA-256 of content
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
