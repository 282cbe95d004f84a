// Package lifecycle decides, per generated artifact, whether to write,
// skip, relocate or delete files under the output root. The header block
// of each generated file is the only state it reads.
package lifecycle

import (
	"bytes"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/shimgen/errors"
	"github.com/teranos/shimgen/internal/util"
	"github.com/teranos/shimgen/logger"
	"github.com/teranos/shimgen/shimgen/header"
)

// FileSuffix ends every generated file name
const FileSuffix = "_shim.go"

// Reasons recorded for skipped and forced outputs
const (
	ReasonUnchanged = "unchanged"
	ReasonPreserved = "source hash unchanged; edits preserved"
	ReasonForced    = "forced"
	ReasonNew       = "new"
	ReasonChanged   = "changed"
)

// Options configure a Manager
type Options struct {
	OutRoot    string
	SourceRoot string // empty disables source-relative placement and orphan pruning
	Version    string
	Regenerate RegenerateSet
	DryRun     bool
	FS         FS
	Log        *zap.SugaredLogger
}

// Output is one fully rendered artifact
type Output struct {
	ClassName string
	TypeFQN   string
	SourceRel string // slash-separated; empty when the type was not located
	Hash      string
	Content   []byte
}

// Manager applies outputs against the output root. It is not safe for concurrent use.
type Manager struct {
	opts Options
	fs   FS
	log  *zap.SugaredLogger

	// index holds the header of every generated file under OutRoot,
	// kept current as the manager writes and deletes
	index   map[string]header.Provenance
	live    map[string]bool
	removed map[string]bool
	report  Report
}

// NewManager creates a manager. live is the set of type FQNs emitted in
// this run; outputs of other types are stale.
func NewManager(opts Options, live map[string]bool) *Manager {
	if opts.FS == nil {
		opts.FS = OSFS{}
	}
	if opts.Log == nil {
		opts.Log = logger.ComponentLogger("shimgen.lifecycle")
	}
	opts.OutRoot = filepath.Clean(opts.OutRoot)
	if live == nil {
		live = map[string]bool{}
	}
	return &Manager{
		opts:    opts,
		fs:      opts.FS,
		log:     opts.Log,
		live:    live,
		removed: map[string]bool{},
		report:  Report{DryRun: opts.DryRun},
	}
}

// Prepare ensures the output root exists
func (m *Manager) Prepare() error {
	return PrepareRoot(m.fs, m.opts.OutRoot, m.opts.DryRun)
}

// PrepareRoot creates root. In dry-run nothing is created; the nearest
// existing ancestor must be a directory.
func PrepareRoot(fsys FS, root string, dryRun bool) error {
	if dryRun {
		for dir := root; ; dir = filepath.Dir(dir) {
			info, err := fsys.Stat(dir)
			if err == nil {
				if !info.IsDir() {
					return errors.WithHint(errors.Configf("output root %s: %s is not a directory", root, dir),
						"choose an output directory that is not below a file")
				}
				return nil
			}
			if parent := filepath.Dir(dir); parent == dir {
				return nil
			}
		}
	}
	if err := fsys.MkdirAll(root); err != nil {
		return errors.WithHint(
			errors.Mark(errors.Wrapf(err, "create output root %s", root), errors.ErrConfig),
			"check permissions on the parent directory")
	}
	return nil
}

// Target is the output path for a class: the source's directory mirrored
// under OutRoot, or OutRoot itself when the source is unknown.
func (m *Manager) Target(className, sourceRel string) string {
	name := FileName(className)
	if sourceRel == "" || m.opts.SourceRoot == "" {
		return filepath.Join(m.opts.OutRoot, name)
	}
	dir := path.Dir(NormalizeRel(sourceRel))
	return filepath.Join(m.opts.OutRoot, filepath.FromSlash(dir), name)
}

// FileName is the generated file name for a class
func FileName(className string) string {
	return util.ToSnakeCase(className) + FileSuffix
}

// NormalizeRel makes a source-relative path comparable: forward slashes,
// no leading "./".
func NormalizeRel(rel string) string {
	rel = strings.ReplaceAll(rel, `\`, "/")
	for strings.HasPrefix(rel, "./") {
		rel = rel[2:]
	}
	return rel
}

// Report returns the counts so far
func (m *Manager) Report() *Report {
	return &m.report
}

// Apply writes out when the rules require it, then removes its previous
// locations and stale outputs of the same source.
func (m *Manager) Apply(out Output) Outcome {
	if err := m.loadIndex(); err != nil {
		m.fail("", out.ClassName, "scan output root", err)
	}
	target := m.Target(out.ClassName, out.SourceRel)
	log := m.log.With(logger.FieldClass, out.ClassName, logger.FieldPath, target)

	previous := m.previousLocations(out, target)

	op, reason := m.decide(out, target)
	res := Outcome{Path: target, Op: op, Reason: reason}
	switch op {
	case OpFail:
		m.fail(target, out.ClassName, "write", errors.New(reason))
		return res
	case OpSkip:
		m.report.Skipped++
		m.record(PlanItem{Op: OpSkip, Path: target, Class: out.ClassName, Reason: reason})
		log.Debugw("Skipped", logger.FieldReason, reason)
	case OpWrite:
		if err := m.write(target, out.Content); err != nil {
			m.fail(target, out.ClassName, "write", err)
			res.Op = OpFail
			return res
		}
		m.report.Written++
		m.record(PlanItem{Op: OpWrite, Path: target, Class: out.ClassName, Reason: reason})
		m.index[target] = header.Parse(out.Content)
		log.Infow(m.prefix()+"Wrote", logger.FieldReason, reason)
	}

	for _, old := range previous {
		if !m.remove(old, OpMove, target, out.ClassName, "") {
			continue
		}
		m.report.Moves++
		res.Moved = append(res.Moved, old)
		log.Infow(m.prefix()+"Moved", logger.FieldOldPath, old)
	}

	for _, dup := range m.duplicates(out, target) {
		if !m.remove(dup, OpDelete, "", out.ClassName, "duplicate output for "+out.TypeFQN) {
			continue
		}
		m.report.Deletes++
		res.Deleted = append(res.Deleted, dup)
		log.Infow(m.prefix()+"Deleted stale output", logger.FieldOldPath, dup)
	}
	return res
}

// Sweep deletes generated files whose source file is gone or whose type
// was not emitted this run. It does nothing without a source root.
func (m *Manager) Sweep() {
	if m.opts.SourceRoot == "" {
		return
	}
	if err := m.loadIndex(); err != nil {
		m.fail("", "", "scan output root", err)
		return
	}
	for _, p := range m.indexed() {
		h := m.index[p]
		reason := ""
		switch {
		case h.SourceFile != "" && !m.sourceExists(h.SourceFile):
			reason = "source file missing"
		case h.TypeFQN != "" && !m.live[h.TypeFQN]:
			reason = "type no longer annotated"
		default:
			continue
		}
		if m.remove(p, OpDelete, "", "", reason) {
			m.report.Deletes++
			m.log.Infow(m.prefix()+"Pruned orphan", logger.FieldPath, p, logger.FieldReason, reason)
		}
	}
}

func (m *Manager) decide(out Output, target string) (Op, string) {
	existing, err := m.fs.ReadFile(target)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.log.Warnw("Could not read existing output", logger.FieldPath, target, logger.FieldError, err)
		}
		return OpWrite, ReasonNew
	}
	if !header.IsGenerated(existing) {
		return OpFail, "refusing to overwrite a file without the generated marker"
	}
	if m.opts.Regenerate.Has(out.ClassName) {
		return OpWrite, ReasonForced
	}
	if bytes.Equal(existing, out.Content) {
		return OpSkip, ReasonUnchanged
	}
	old := header.Parse(existing)
	if old.SourceHash != "" && old.SourceHash == out.Hash && !header.IsOlder(old.Version, m.opts.Version) {
		return OpSkip, ReasonPreserved
	}
	return OpWrite, ReasonChanged
}

// previousLocations finds generated files with the target's name elsewhere
// under OutRoot that belong to this type, matched by source hash first and
// by type FQN otherwise.
func (m *Manager) previousLocations(out Output, target string) []string {
	name := filepath.Base(target)
	var byHash, byFQN []string
	for _, p := range m.indexed() {
		if p == target || filepath.Base(p) != name {
			continue
		}
		h := m.index[p]
		switch {
		case out.Hash != "" && h.SourceHash == out.Hash:
			byHash = append(byHash, p)
		case h.TypeFQN != "" && h.TypeFQN == out.TypeFQN:
			byFQN = append(byFQN, p)
		}
	}
	return append(byHash, byFQN...)
}

// duplicates finds other generated files for the same type, or for the same
// source file whose type is no longer emitted. Outputs of sibling types
// declared in the same file are kept.
func (m *Manager) duplicates(out Output, target string) []string {
	rel := NormalizeRel(out.SourceRel)
	var dups []string
	for _, p := range m.indexed() {
		if p == target {
			continue
		}
		h := m.index[p]
		sameType := h.TypeFQN != "" && h.TypeFQN == out.TypeFQN
		sameSource := rel != "" && strings.EqualFold(NormalizeRel(h.SourceFile), rel)
		if sameType || (sameSource && !m.live[h.TypeFQN]) {
			dups = append(dups, p)
		}
	}
	return dups
}

func (m *Manager) write(target string, content []byte) error {
	if m.opts.DryRun {
		return nil
	}
	if err := m.fs.MkdirAll(filepath.Dir(target)); err != nil {
		return err
	}
	return m.fs.WriteFile(target, content)
}

// remove deletes a generated file and records it. It reports whether the
// file is gone.
func (m *Manager) remove(p string, op Op, to, class, reason string) bool {
	if m.removed[p] {
		return false
	}
	if !m.opts.DryRun {
		content, err := m.fs.ReadFile(p)
		if err != nil || !header.IsGenerated(content) {
			// only files carrying the generated marker are ever deleted
			return false
		}
		if err := m.fs.Remove(p); err != nil {
			m.fail(p, class, "remove", err)
			return false
		}
	}
	m.removed[p] = true
	delete(m.index, p)
	item := PlanItem{Op: op, Path: p, Class: class, Reason: reason}
	if op == OpMove {
		item = PlanItem{Op: OpMove, Path: to, From: p, Class: class}
	}
	m.record(item)
	return true
}

func (m *Manager) fail(p, class, action string, err error) {
	m.report.Failed++
	m.record(PlanItem{Op: OpFail, Path: p, Class: class, Reason: action + ": " + err.Error()})
	m.log.Errorw("Could not "+action, logger.FieldPath, p, logger.FieldClass, class, logger.FieldError, err)
}

func (m *Manager) record(item PlanItem) {
	m.report.Plan = append(m.report.Plan, item)
}

func (m *Manager) prefix() string {
	if m.opts.DryRun {
		return "[DRY-RUN] "
	}
	return ""
}

func (m *Manager) sourceExists(rel string) bool {
	_, err := m.fs.Stat(filepath.Join(m.opts.SourceRoot, filepath.FromSlash(NormalizeRel(rel))))
	return err == nil
}

func (m *Manager) loadIndex() error {
	if m.index != nil {
		return nil
	}
	m.index = map[string]header.Provenance{}
	files, err := m.fs.GoFiles(m.opts.OutRoot)
	if err != nil {
		return err
	}
	for _, p := range files {
		content, err := m.fs.ReadFile(p)
		if err != nil {
			m.log.Warnw("Could not read output", logger.FieldPath, p, logger.FieldError, err)
			continue
		}
		if header.IsGenerated(content) {
			m.index[p] = header.Parse(content)
		}
	}
	return nil
}

func (m *Manager) indexed() []string {
	paths := make([]string, 0, len(m.index))
	for p := range m.index {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
