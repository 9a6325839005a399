package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/bamsammich/colek/internal/archive"
	"github.com/bamsammich/colek/internal/classify"
	"github.com/bamsammich/colek/internal/config"
	"github.com/bamsammich/colek/internal/dedup"
	"github.com/bamsammich/colek/internal/engine"
	"github.com/bamsammich/colek/internal/event"
	"github.com/bamsammich/colek/internal/filter"
	"github.com/bamsammich/colek/internal/platform"
	"github.com/bamsammich/colek/internal/sink"
	"github.com/bamsammich/colek/internal/stats"
	"github.com/bamsammich/colek/internal/ui"
	"github.com/bamsammich/colek/internal/volume"
)

var version = "dev"

// createdAt orders duplicates; replaced in tests where the filesystem has
// no birth time.
var createdAt = platform.CreationTime

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(volume.NewSystemLister())
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

var (
	_ pflag.Value = (*filterFlag)(nil)
	_ pflag.Value = (*ruleFlag)(nil)
)

// filterFlag is a pflag.Value over a classify.FilterSet. The first use on
// the command line replaces the image default, later uses add to it.
type filterFlag struct {
	set     classify.FilterSet
	changed bool
}

func newFilterFlag() *filterFlag {
	return &filterFlag{set: classify.NewFilterSet(classify.Image)}
}

func (f *filterFlag) String() string { return f.set.String() }
func (*filterFlag) Type() string     { return "filters" }

func (f *filterFlag) Set(val string) error {
	s, err := classify.ParseFilterSet(val)
	if err != nil {
		return err
	}
	if !f.changed {
		f.set = 0
		f.changed = true
	}
	for _, x := range s.Filters() {
		f.set = f.set.With(x)
	}
	return nil
}

// ruleFlag preserves CLI ordering of --exclude and --include by appending
// to a shared filter.Rules.
type ruleFlag struct {
	rules   *filter.Rules
	include bool
}

func (*ruleFlag) String() string { return "" }
func (*ruleFlag) Type() string   { return "pattern" }

func (f *ruleFlag) Set(val string) error {
	if f.include {
		return f.rules.Include(val)
	}
	return f.rules.Exclude(val)
}

type options struct {
	filters     *filterFlag
	rules       *filter.Rules
	excludeFrom string
	minSize     string
	maxSize     string
	verbose     int
	quiet       bool
	workers     int
	roots       []string
	logFile     string
	bwlimit     string

	// subcommand flags
	target    string
	output    string
	level     int
	zstd      bool
	duplicate string
	verify    bool
	algo      string
}

func newRootCmd(lister volume.Lister) *cobra.Command {
	o := &options{
		filters: newFilterFlag(),
		rules:   filter.New(),
	}

	rootCmd := &cobra.Command{
		Use:           "colek",
		Short:         "Collect media files from every mounted drive",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate("colek {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.VarP(o.filters, "filter", "f", "file categories to collect: image, video, music (repeatable, comma delimited)")
	pf.CountVarP(&o.verbose, "verbose", "v", "log progress (-v) or debug detail (-vv)")
	pf.BoolVarP(&o.quiet, "quiet", "q", false, "suppress all output except errors")
	pf.IntVarP(&o.workers, "workers", "n", 0, "number of transform workers (default: NumCPU)")
	pf.StringArrayVar(&o.roots, "root", nil, "scan PATH instead of the detected drives (repeatable)")
	pf.StringVar(&o.logFile, "log", "", "write structured JSON log to FILE")
	pf.StringVar(&o.bwlimit, "bwlimit", "", "read bandwidth limit for copy and zip (e.g. 100M, 1G)")
	pf.Var(&ruleFlag{rules: o.rules}, "exclude", "skip paths matching PATTERN (repeatable)")
	pf.Var(&ruleFlag{rules: o.rules, include: true}, "include", "keep paths matching PATTERN (repeatable)")
	pf.StringVar(&o.excludeFrom, "exclude-from", "", "read exclude/include rules from FILE")
	pf.StringVar(&o.minSize, "min-size", "", "skip files smaller than SIZE (e.g. 10K)")
	pf.StringVar(&o.maxSize, "max-size", "", "skip files larger than SIZE (e.g. 4G)")

	rootCmd.AddCommand(
		newStdoutCmd(o, lister),
		newCopyCmd(o, lister),
		newZipCmd(o, lister),
		newHashCmd(o, lister),
		newDocsCmd(),
	)
	return rootCmd
}

func newStdoutCmd(o *options, lister volume.Lister) *cobra.Command {
	return &cobra.Command{
		Use:   "stdout",
		Short: "Print the path of every matching file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := prepare(cmd, o, lister)
			if err != nil {
				return err
			}
			defer s.close()
			return execute[sink.Listed](s, sink.NewPrint(cmd.OutOrStdout()))
		},
	}
}

func newCopyCmd(o *options, lister volume.Lister) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy every matching file into one directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := prepare(cmd, o, lister)
			if err != nil {
				return err
			}
			defer s.close()

			name := o.target
			if name == "" {
				name = volume.DefaultName("")
			}
			c, err := sink.NewCopy(sink.CopyOptions{
				Dest:    s.destination(name),
				Limiter: s.limiter,
			})
			if err != nil {
				return err
			}
			return execute[sink.Copied](s, c)
		},
	}
	cmd.Flags().StringVarP(&o.target, "target", "t", "", "destination directory (default: colek_<host> on a removable drive)")
	return cmd
}

func newZipCmd(o *options, lister volume.Lister) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zip",
		Short: "Pack every matching file into a zip archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := prepare(cmd, o, lister)
			if err != nil {
				return err
			}
			defer s.close()

			name := o.output
			if name == "" {
				name = volume.DefaultName(".zip")
			}
			method := archive.Deflate
			if o.zstd {
				method = archive.Zstd
			}
			a, err := sink.NewArchive(sink.ArchiveOptions{
				Path:    s.destination(name),
				Method:  method,
				Level:   o.level,
				Limiter: s.limiter,
			})
			if err != nil {
				return err
			}
			return execute[sink.Archived](s, a)
		},
	}
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "archive path (default: colek_<host>.zip on a removable drive)")
	cmd.Flags().IntVar(&o.level, "level", archive.DefaultLevel, "compression level 0-9 (0 stores)")
	cmd.Flags().BoolVar(&o.zstd, "zstd", false, "compress entries with zstd instead of deflate")
	return cmd
}

func newHashCmd(o *options, lister volume.Lister) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Hash every matching file and resolve duplicates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := prepare(cmd, o, lister)
			if err != nil {
				return err
			}
			defer s.close()

			action, err := dedup.ParseAction(o.duplicate)
			if err != nil {
				return engine.NewError(engine.ErrConfig, "parse --duplicate", "", err)
			}
			algo, err := dedup.ParseAlgo(o.algo)
			if err != nil {
				return engine.NewError(engine.ErrConfig, "parse --algo", "", err)
			}

			d := dedup.New(dedup.Options{
				Action:    action,
				Algo:      algo,
				Verify:    o.verify,
				Out:       cmd.OutOrStdout(),
				CreatedAt: createdAt,
				Stats:     s.stats,
				Events:    s.events,
			})
			return execute[dedup.Hashed](s, d)
		},
	}
	cmd.Flags().StringVarP(&o.duplicate, "duplicate", "d", "print", "what to do with a duplicate: remove, rename or print")
	cmd.Flags().BoolVar(&o.verify, "verify", false, "byte-compare files before acting on a hash match")
	cmd.Flags().StringVar(&o.algo, "algo", "blake3", "content hash: blake3 or xxhash")
	return cmd
}

// session carries everything a subcommand shares once flags, config and
// logging are settled.
type session struct {
	cmd      *cobra.Command
	opts     *options
	engine   engine.Config
	volumes  []volume.ScanRoot
	limiter  *rate.Limiter
	stats    *stats.Collector
	events   chan event.Event
	eventLog *slog.Logger
	closeLog func()
}

func (s *session) close() { s.closeLog() }

// destination places a relative output name on the first removable volume.
func (s *session) destination(name string) string {
	dest, fallback := volume.ResolveDest(s.volumes, name)
	if fallback {
		slog.Warn("no removable drive found, writing to the current directory", "path", dest)
	}
	return dest
}

// prepare loads the config file, sets up logging and resolves the scan
// roots. Every error it returns is a setup error.
func prepare(cmd *cobra.Command, o *options, lister volume.Lister) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "error", err)
	}
	if err := applyConfigDefaults(cmd, cfg.Defaults, o); err != nil {
		return nil, err
	}
	ui.ApplyTheme(cfg.Theme)

	eventLog, closeLog, err := setupLogging(cmd.ErrOrStderr(), o)
	if err != nil {
		return nil, err
	}
	s := &session{
		cmd:      cmd,
		opts:     o,
		stats:    stats.NewCollector(),
		events:   make(chan event.Event, 256),
		eventLog: eventLog,
		closeLog: closeLog,
	}

	if err := loadRules(o); err != nil {
		closeLog()
		return nil, err
	}
	if o.bwlimit != "" {
		n, err := filter.ParseSize(o.bwlimit)
		if err != nil || n <= 0 {
			closeLog()
			return nil, engine.ConfigError("invalid --bwlimit %q", o.bwlimit)
		}
		s.limiter = engine.NewBWLimiter(n)
	}

	roots, volumes, err := resolveRoots(o.roots, lister)
	if err != nil {
		closeLog()
		return nil, err
	}
	s.volumes = volumes
	s.engine = engine.Config{
		Roots:   roots,
		Filter:  o.filters.set,
		Workers: o.workers,
		Stats:   s.stats,
		Events:  s.events,
	}
	if !o.rules.Empty() {
		s.engine.Rules = o.rules
	}
	return s, nil
}

// execute runs the pipeline into sk with a presenter on stderr. A failing
// Finish exits 1; per-file errors only show up in the counters.
func execute[R any](s *session, sk engine.Sink[R]) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errW := s.cmd.ErrOrStderr()
	fd := os.Stderr.Fd()
	presenter := ui.NewPresenter(ui.Config{
		W:       errW,
		Stats:   s.stats,
		Sink:    sk.Name(),
		Width:   ui.TermWidth(fd),
		IsTTY:   errW == io.Writer(os.Stderr) && ui.IsTTY(fd),
		Quiet:   s.opts.quiet,
		Verbose: s.opts.verbose > 0,
	})

	presenterEvents := (<-chan event.Event)(s.events)
	if s.eventLog != nil {
		presenterEvents = ui.TeeEvents(s.events, s.eventLog)
	}

	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterEvents)
	}()

	slog.Debug("starting run",
		"sink", sk.Name(),
		"roots", len(s.engine.Roots),
		"filter", s.engine.Filter,
		"workers", s.engine.Workers,
	)

	result := engine.Run(ctx, s.engine, sk)
	stop()
	close(s.events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(errW, "presenter: %v\n", presenterErr)
	}

	if !s.opts.quiet {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(errW, summary)
		}
	}

	if result.Err != nil {
		if errors.Is(result.Err, engine.ErrConfig) {
			return result.Err
		}
		slog.Error("run failed", "sink", sk.Name(), "error", result.Err)
		return &exitError{code: 1}
	}
	return nil
}

func setupLogging(w io.Writer, o *options) (eventLog *slog.Logger, closeFn func(), err error) {
	level := slog.LevelWarn
	switch {
	case o.quiet:
		level = slog.LevelError
	case o.verbose > 1:
		level = slog.LevelDebug
	case o.verbose == 1:
		level = slog.LevelInfo
	}
	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	if o.logFile == "" {
		slog.SetDefault(slog.New(textHandler))
		return nil, func() {}, nil
	}

	lf, err := os.Create(o.logFile)
	if err != nil {
		return nil, nil, engine.NewError(engine.ErrConfig, "open log file", o.logFile, err)
	}
	jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(ui.NewMultiHandler(textHandler, jsonHandler)))
	return slog.New(jsonHandler), func() { _ = lf.Close() }, nil
}

func loadRules(o *options) error {
	if o.excludeFrom != "" {
		if err := o.rules.LoadFile(o.excludeFrom); err != nil {
			return engine.NewError(engine.ErrConfig, "load rules", o.excludeFrom, err)
		}
	}
	var minSize, maxSize int64
	var err error
	if o.minSize != "" {
		if minSize, err = filter.ParseSize(o.minSize); err != nil {
			return engine.ConfigError("invalid --min-size: %w", err)
		}
	}
	if o.maxSize != "" {
		if maxSize, err = filter.ParseSize(o.maxSize); err != nil {
			return engine.ConfigError("invalid --max-size: %w", err)
		}
	}
	if err := o.rules.SetSizeRange(minSize, maxSize); err != nil {
		return engine.NewError(engine.ErrConfig, "size range", "", err)
	}
	return nil
}

// resolveRoots returns the roots to scan and every listed volume. --root
// paths replace the lister's Generic volumes; the full list is still used
// to find a removable destination.
func resolveRoots(paths []string, lister volume.Lister) (roots, volumes []volume.ScanRoot, err error) {
	volumes, listErr := lister.List()

	if len(paths) > 0 {
		if listErr != nil {
			slog.Debug("volume listing unavailable", "error", listErr)
		}
		for _, p := range paths {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, nil, engine.NewError(engine.ErrConfig, "scan root", p, err)
			}
			info, err := os.Stat(abs)
			if err != nil {
				return nil, nil, engine.NewError(engine.ErrConfig, "scan root", abs, err)
			}
			if !info.IsDir() {
				return nil, nil, engine.NewError(engine.ErrConfig, "scan root", abs, errors.New("not a directory"))
			}
			roots = append(roots, volume.ScanRoot{Path: abs, Name: p, Role: volume.Generic})
		}
		return roots, volumes, nil
	}

	if listErr != nil {
		return nil, nil, engine.NewError(engine.ErrConfig, "list volumes", "", listErr)
	}
	roots, err = volume.GenericRoots(volumes)
	if err != nil {
		return nil, nil, engine.NewError(engine.ErrConfig, "select scan roots", "", err)
	}
	for _, r := range roots {
		slog.Info("scan root", "path", r.Path, "device", r.Name)
	}
	return roots, volumes, nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly
// set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, defaults config.DefaultsConfig, o *options) error {
	flags := cmd.Flags()
	if !flags.Changed("filter") && defaults.Filter != nil {
		for _, f := range *defaults.Filter {
			if err := o.filters.Set(f); err != nil {
				return engine.NewError(engine.ErrConfig, "config filter", config.Path(), err)
			}
		}
	}
	if !flags.Changed("exclude") && defaults.Exclude != nil {
		for _, pattern := range *defaults.Exclude {
			if err := o.rules.Exclude(pattern); err != nil {
				return engine.NewError(engine.ErrConfig, "config exclude", config.Path(), err)
			}
		}
	}
	if !flags.Changed("workers") && defaults.Workers != nil {
		o.workers = *defaults.Workers
	}
	if !flags.Changed("bwlimit") && defaults.BWLimit != nil {
		o.bwlimit = *defaults.BWLimit
	}
	if !flags.Changed("duplicate") && defaults.Duplicate != nil {
		o.duplicate = *defaults.Duplicate
	}
	if !flags.Changed("verify") && defaults.Verify != nil {
		o.verify = *defaults.Verify
	}
	if !flags.Changed("algo") && defaults.Algo != nil {
		o.algo = *defaults.Algo
	}
	if !flags.Changed("level") && defaults.Level != nil {
		o.level = *defaults.Level
	}
	if !flags.Changed("zstd") && defaults.Zstd != nil {
		o.zstd = *defaults.Zstd
	}
	return nil
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
