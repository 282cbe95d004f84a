// Package shimgen runs one generation pass: load the module, build a spec
// per marked type, locate sources, emit shims and reconcile the output root.
package shimgen

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/shimgen/config"
	"github.com/teranos/shimgen/errors"
	"github.com/teranos/shimgen/logger"
	"github.com/teranos/shimgen/shimgen/emit"
	"github.com/teranos/shimgen/shimgen/host"
	"github.com/teranos/shimgen/shimgen/lifecycle"
	"github.com/teranos/shimgen/shimgen/locate"
	"github.com/teranos/shimgen/shimgen/module"
	"github.com/teranos/shimgen/shimgen/spec"
	"github.com/teranos/shimgen/version"
)

// Options for a pass
type Options struct {
	ModulePath string
	OutRoot    string
	SourceRoot string // optional
	DryRun     bool

	Config *config.Config

	// Version is stamped into headers; empty means version.Version
	Version string

	// FS overrides the output filesystem
	FS lifecycle.FS
}

// Report summarizes a pass
type Report struct {
	RunID      string `json:"run_id"`
	Scanned    int    `json:"scanned"`
	Annotated  int    `json:"annotated"`
	DurationMS int64  `json:"duration_ms"`
	lifecycle.Report
}

// job is one marked type on its way to disk
type job struct {
	t    *module.Type
	spec *spec.ScriptSpec
	loc  *locate.Location
}

// Run performs one pass. Validation errors are returned together, marked
// ErrValidation, before anything is written. A non-nil Report is returned
// whenever scanning started.
func Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()
	if opts.ModulePath == "" {
		return nil, errors.Usagef("module path is required")
	}
	if opts.OutRoot == "" {
		return nil, errors.Usagef("output directory is required")
	}
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.Configf("no configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Version == "" {
		opts.Version = version.Version
	}
	if _, err := version.Parse(opts.Version); err != nil {
		return nil, errors.Mark(err, errors.ErrConfig)
	}
	if opts.FS == nil {
		opts.FS = lifecycle.OSFS{}
	}

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.LoggerFromContext(ctx, logger.ComponentLogger("shimgen"))
	if logger.ShouldOutput(logger.Verbosity, logger.OutputRunInfo) {
		log.Infow("Starting pass", "module", opts.ModulePath, logger.FieldPath, opts.OutRoot, "dry_run", opts.DryRun)
	}

	outRoot, err := filepath.Abs(opts.OutRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve output directory %s", opts.OutRoot)
	}
	sourceRoot := ""
	if opts.SourceRoot != "" {
		if sourceRoot, err = filepath.Abs(opts.SourceRoot); err != nil {
			return nil, errors.Wrapf(err, "resolve source root %s", opts.SourceRoot)
		}
		if info, err := os.Stat(sourceRoot); err != nil || !info.IsDir() {
			return nil, errors.WithHint(errors.Configf("source root %s is not a directory", opts.SourceRoot),
				"the third argument must be the directory containing the implementation sources")
		}
	}
	if err := lifecycle.PrepareRoot(opts.FS, outRoot, opts.DryRun); err != nil {
		return nil, err
	}

	mod, err := module.Load(ctx, module.Options{
		Path:         opts.ModulePath,
		FallbackDirs: cfg.Loader.FallbackDirs,
		Exclude:      []string{outRoot},
		BuildTags:    cfg.Loader.BuildTags,
		Log:          log.Named("module"),
	})
	if err != nil {
		return nil, err
	}
	defer mod.Close()

	report := &Report{RunID: runID}
	vocab := host.Vocabulary{ImportPath: cfg.Host.Import, Alias: cfg.Host.Alias}

	jobs, err := build(mod, cfg, vocab, report)
	if err != nil {
		return report, err
	}

	if sourceRoot != "" {
		if err := locateAll(ctx, cfg, sourceRoot, outRoot, jobs, log); err != nil {
			return report, err
		}
	}

	live := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		live[j.spec.ImplFQN()] = true
	}
	mgr := lifecycle.NewManager(lifecycle.Options{
		OutRoot:    outRoot,
		SourceRoot: sourceRoot,
		Version:    opts.Version,
		Regenerate: lifecycle.ParseRegenerate(cfg.Regenerate),
		DryRun:     opts.DryRun,
		FS:         opts.FS,
		Log:        log.Named("lifecycle"),
	}, live)

	emitter := emit.New(emit.Options{
		Host:       vocab,
		ShimImport: cfg.Annotations.Package,
		Package:    cfg.Output.Package,
		Version:    opts.Version,
	})
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		content, err := emitter.Emit(j.spec, j.loc)
		if err != nil {
			return report, err
		}
		out := lifecycle.Output{
			ClassName: j.spec.ClassName,
			TypeFQN:   j.spec.ImplFQN(),
			Content:   content,
		}
		if j.loc != nil {
			out.SourceRel, out.Hash = j.loc.Rel, j.loc.Hash
		}
		mgr.Apply(out)
	}
	mgr.Sweep()

	report.Report = *mgr.Report()
	report.DurationMS = time.Since(start).Milliseconds()
	if logger.ShouldOutput(logger.Verbosity, logger.OutputTiming) {
		log.Debugw("Pass complete", logger.FieldDurationMS, report.DurationMS)
	}
	if report.Failed > 0 {
		return report, errors.Mark(errors.Newf("%d artifact operations failed", report.Failed), errors.ErrArtifactFailures)
	}
	return report, nil
}

// build creates a spec per marked type. Every type is built before any
// error is returned, so one run reports every problem.
func build(mod *module.Module, cfg *config.Config, vocab host.Vocabulary, report *Report) ([]*job, error) {
	builder := spec.NewBuilder(mod, spec.Options{
		Host:         vocab,
		ShimPackages: append([]string{cfg.Annotations.Package}, cfg.Annotations.Legacy...),
	})

	var (
		jobs  []*job
		verrs spec.ValidationErrors
		files = map[string]*job{}
	)
	for _, t := range mod.Types() {
		report.Scanned++
		s, err := builder.Build(t)
		if err != nil {
			var ve spec.ValidationErrors
			if !errors.As(err, &ve) {
				return nil, err
			}
			verrs = append(verrs, ve...)
			continue
		}
		if s == nil {
			continue
		}
		report.Annotated++
		j := &job{t: t, spec: s}
		name := lifecycle.FileName(s.ClassName)
		if prev, ok := files[name]; ok {
			verrs = append(verrs, &spec.ValidationError{
				Type: s.ImplFQN(),
				Pos:  t.Pos,
				Msg:  "class " + s.ClassName + " collides with class " + prev.spec.ClassName + " of " + prev.spec.ImplFQN() + "; both generate " + name,
				Hint: "set a distinct class= on one of the script markers",
			})
			continue
		}
		files[name] = j
		jobs = append(jobs, j)
	}
	if len(verrs) > 0 {
		return nil, errors.Mark(verrs, errors.ErrValidation)
	}
	return jobs, nil
}

// locateAll finds the source file of every job in parallel. Lookups only
// read; a type that cannot be located is emitted without provenance.
func locateAll(ctx context.Context, cfg *config.Config, sourceRoot, outRoot string, jobs []*job, log *zap.SugaredLogger) error {
	var loc locate.Locator
	switch cfg.Locator {
	case config.LocatorPosition:
		loc = locate.Position{}
	default:
		loc = locate.NewHeuristic(locate.HeuristicOptions{
			MinScore: cfg.Locate.MinScore,
			Exclude:  []string{outRoot},
			Log:      log.Named("locate"),
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Locate.Workers)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			id := locate.TypeIdentity{
				Name:    j.t.Obj.Name(),
				PkgName: j.t.PkgName(),
				PkgPath: j.t.PkgPath(),
				File:    j.t.Pos.Filename,
			}
			found, ok, err := loc.Locate(sourceRoot, id)
			switch {
			case err != nil:
				log.Warnw("Source lookup failed", logger.FieldType, id.FQN(), logger.FieldError, err)
			case !ok:
				log.Warnw("Source file not found; emitting without provenance", logger.FieldType, id.FQN())
			default:
				j.loc = &found
			}
			return nil
		})
	}
	return g.Wait()
}
