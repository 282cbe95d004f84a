package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/shimgen/config"
	"github.com/teranos/shimgen/display"
	"github.com/teranos/shimgen/errors"
	"github.com/teranos/shimgen/logger"
	"github.com/teranos/shimgen/shimgen"
	"github.com/teranos/shimgen/watch"
)

var (
	configFile string
	locatorArg string
	dryRun     bool
	watchMode  bool
	jsonOutput bool
	verbosity  int
)

// RootCmd generates shims for a module
var RootCmd = &cobra.Command{
	Use:   "shimgen <module-path> <output-dir> [source-tree-root]",
	Short: "Generate Godot script shims for annotated Go types",
	Long: `shimgen - Generate Godot script shims for annotated Go types.

Loads the module at <module-path>, finds every type marked //shimgen:script
and writes one shim per type under <output-dir>. With [source-tree-root],
outputs mirror the source layout, carry the source hash in their header and
stale outputs are pruned.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (SHIMGEN_* prefix, SHIMGEN_REGENERATE_SCRIPTS)
3. Project config (shimgen.toml, searched upward)
4. User config (~/.shimgen/shimgen.toml)
5. System config (/etc/shimgen/shimgen.toml)
6. Default values

Examples:
  shimgen ./game ./game/shims ./game          # generate with provenance
  shimgen ./game ./game/shims ./game --dry-run
  shimgen ./game ./game/shims ./game --watch
  SHIMGEN_REGENERATE_SCRIPTS=Player shimgen ./game ./game/shims`,
	Args:          validateArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Initialize(jsonOutput, verbosity)
	},
	RunE: runGenerate,
}

func init() {
	RootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	RootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output the report and logs as JSON")
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: shimgen.toml searched upward)")

	RootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be written, moved or deleted without touching files")
	RootCmd.Flags().BoolVar(&watchMode, "watch", false, "Rerun after every source change")
	RootCmd.Flags().StringVar(&locatorArg, "locator", "", "Source locator: heuristic or position (default from config)")

	RootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.Mark(err, errors.ErrUsage)
	})

	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(ConfigCmd)
}

func validateArgs(cmd *cobra.Command, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.WithHint(
			errors.Usagef("expected <module-path> <output-dir> [source-tree-root], got %d arguments", len(args)),
			"run 'shimgen --help' for usage")
	}
	return nil
}

// loadConfig resolves the config and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("locator") {
		cfg.Locator = locatorArg
	}
	if logger.ShouldOutput(verbosity, logger.OutputConfig) {
		logger.Debugw("Effective config", "config", cfg)
	}
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	opts := shimgen.Options{
		ModulePath: args[0],
		OutRoot:    args[1],
		DryRun:     dryRun,
	}
	if len(args) == 3 {
		opts.SourceRoot = args[2]
	}

	if watchMode {
		return runWatch(cmd, opts)
	}
	return runPass(cmd.Context(), cmd, opts)
}

// runPass runs one pass with freshly loaded config and prints its report
func runPass(ctx context.Context, cmd *cobra.Command, opts shimgen.Options) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts.Config = cfg

	report, err := shimgen.Run(ctx, opts)
	if report != nil && !errors.Is(err, errors.ErrValidation) {
		if display.ShouldOutputJSON(cmd) {
			if jerr := display.OutputJSON(cmd.OutOrStdout(), report); jerr != nil {
				return jerr
			}
		} else if perr := display.PrintReport(cmd.OutOrStdout(), report, verbosity); perr != nil {
			return perr
		}
	}
	return err
}

func runWatch(cmd *cobra.Command, opts shimgen.Options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// configuration problems are not going to fix themselves
	err := runPass(ctx, cmd, opts)
	if errors.IsAny(err, errors.ErrUsage, errors.ErrConfig) {
		return err
	}
	if err != nil {
		display.PrintError(cmd.ErrOrStderr(), err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	roots := []string{watchRoot(opts.ModulePath)}
	if opts.SourceRoot != "" {
		roots = append(roots, opts.SourceRoot)
	}
	w, err := watch.New(watch.Options{
		Roots:    roots,
		Ignore:   []string{opts.OutRoot},
		Debounce: time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	logger.Infow("Watching for changes", "roots", roots)
	return w.Run(ctx, func(ctx context.Context) error {
		err := runPass(ctx, cmd, opts)
		if err != nil {
			display.PrintError(cmd.ErrOrStderr(), err)
		}
		return err
	})
}

// watchRoot is the module directory, or the working directory for patterns
func watchRoot(modulePath string) string {
	if info, err := os.Stat(modulePath); err == nil && info.IsDir() {
		return modulePath
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
