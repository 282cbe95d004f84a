package locate

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/teranos/shimgen/errors"
)

// Position uses the declaration file recorded by the loader
type Position struct{}

// Locate implements Locator. Files outside root are not found.
func (Position) Locate(root string, t TypeIdentity) (Location, bool, error) {
	if t.File == "" {
		return Location{}, false, nil
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Location{}, false, errors.Wrapf(err, "resolve source root %s", root)
	}
	rel, err := filepath.Rel(absRoot, t.File)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Location{}, false, nil
	}
	content, err := os.ReadFile(t.File)
	if err != nil {
		return Location{}, false, errors.Wrapf(err, "read %s", t.File)
	}
	return Location{Rel: filepath.ToSlash(rel), Hash: Hash(content)}, true, nil
}
