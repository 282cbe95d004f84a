package locate

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.uber.org/zap"

	"github.com/teranos/shimgen/errors"
	"github.com/teranos/shimgen/logger"
	"github.com/teranos/shimgen/shimgen/header"
	"github.com/teranos/shimgen/shimgen/marker"
)

// Candidate scores
const (
	ScorePackage = 2
	ScoreDecl    = 5
	ScoreMarker  = 1

	DefaultMinScore = 3
)

// HeuristicOptions configures the scoring locator
type HeuristicOptions struct {
	// MinScore is the lowest winning score; zero means DefaultMinScore
	MinScore int

	// Exclude lists directories never searched, such as the output root
	Exclude []string

	Log *zap.SugaredLogger
}

// Heuristic scores every Go source file under the root. File contents are
// read once per root and shared by concurrent Locate calls.
type Heuristic struct {
	minScore int
	exclude  []string
	log      *zap.SugaredLogger

	mu      sync.Mutex
	indexes map[string]*rootIndex
}

type sourceFile struct {
	rel     string
	content string
	hash    string
}

type rootIndex struct {
	once  sync.Once
	files []sourceFile
	err   error
}

// NewHeuristic returns the default locator
func NewHeuristic(opts HeuristicOptions) *Heuristic {
	h := &Heuristic{
		minScore: opts.MinScore,
		log:      opts.Log,
		indexes:  map[string]*rootIndex{},
	}
	if h.minScore <= 0 {
		h.minScore = DefaultMinScore
	}
	if h.log == nil {
		h.log = logger.ComponentLogger("shimgen.locate")
	}
	for _, dir := range opts.Exclude {
		if abs, err := filepath.Abs(dir); err == nil {
			h.exclude = append(h.exclude, abs)
		}
	}
	return h
}

// Locate implements Locator
func (h *Heuristic) Locate(root string, t TypeIdentity) (Location, bool, error) {
	idx, err := h.index(root)
	if err != nil {
		return Location{}, false, err
	}

	declRe := regexp.MustCompile(`(?m)(^|\s)type\s+` + regexp.QuoteMeta(t.Name) + `\b`)
	groupRe := regexp.MustCompile(`(?m)^\s+` + regexp.QuoteMeta(t.Name) + `\s+(struct|interface|[\w\[*])`)
	pkgRe := regexp.MustCompile(`(?m)^package\s+` + regexp.QuoteMeta(t.PkgName) + `\b`)

	best, bestScore := -1, 0
	for i, f := range idx {
		score := 0
		if t.PkgName != "" && pkgRe.MatchString(f.content) {
			score += ScorePackage
		}
		if declRe.MatchString(f.content) ||
			(strings.Contains(f.content, "type (") && groupRe.MatchString(f.content)) {
			score += ScoreDecl
		}
		if strings.Contains(f.content, marker.Token) {
			score += ScoreMarker
		}
		if score > 0 && logger.ShouldOutput(logger.Verbosity, logger.OutputLocatorScores) {
			h.log.Debugw("Scored candidate",
				logger.FieldType, t.FQN(), logger.FieldSource, f.rel, "score", score)
		}
		// strictly greater keeps the first file on ties
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 || bestScore < h.minScore {
		return Location{}, false, nil
	}
	return Location{Rel: idx[best].rel, Hash: idx[best].hash}, true, nil
}

func (h *Heuristic) index(root string) ([]sourceFile, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve source root %s", root)
	}

	h.mu.Lock()
	idx, ok := h.indexes[abs]
	if !ok {
		idx = &rootIndex{}
		h.indexes[abs] = idx
	}
	h.mu.Unlock()

	idx.once.Do(func() {
		idx.files, idx.err = h.scan(abs)
	})
	return idx.files, idx.err
}

// scan reads every candidate file under root in lexical order
func (h *Heuristic) scan(root string) ([]sourceFile, error) {
	ignore := gitignoreMatcher(root, h.log)

	var files []sourceFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")

		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if name == "vendor" || strings.HasPrefix(name, ".") || h.excluded(path) {
				return filepath.SkipDir
			}
			if ignore != nil && ignore.Match(parts, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		if ignore != nil && ignore.Match(parts, false) {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			h.log.Warnw("Skipping unreadable source file", logger.FieldPath, path, logger.FieldError, readErr)
			return nil
		}
		if header.IsGenerated(content) {
			return nil
		}
		files = append(files, sourceFile{
			rel:     filepath.ToSlash(rel),
			content: string(content),
			hash:    Hash(content),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan source root %s", root)
	}
	h.log.Debugw("Indexed source root", logger.FieldPath, root, logger.FieldCount, len(files))
	return files, nil
}

func (h *Heuristic) excluded(dir string) bool {
	for _, ex := range h.exclude {
		if dir == ex {
			return true
		}
	}
	return false
}

// gitignoreMatcher reads .gitignore files below root. A root without any is fine.
func gitignoreMatcher(root string, log *zap.SugaredLogger) gitignore.Matcher {
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		log.Debugw("Ignoring unreadable .gitignore patterns", logger.FieldPath, root, logger.FieldError, err)
		return nil
	}
	if len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}
