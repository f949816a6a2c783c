package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/tasks"
	"github.com/cyp0633/librecur/tasks/sqlite"
	"github.com/spf13/cobra"
)

// app carries the persistent flags and whatever they build
type app struct {
	dbPath        string
	verbose       bool
	maxMonthSteps int
	cache         bool

	logger *slog.Logger
	engine *recurrence.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "recur",
		Short: "recur - recurring dates and tasks",
		Long: `recur evaluates RRULE recurrence specs and keeps a small task list whose
recurring tasks spawn their next instance when completed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.engine != nil {
				a.engine.Close()
			}
		},
		// No RunE - defaults to showing help when no subcommand is provided
	}

	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", defaultDBPath(), "Task database file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().IntVar(&a.maxMonthSteps, "max-month-steps", recurrence.DefaultEngineConfig.MaxMonthSteps, "Months the monthly calculators search before giving up")
	rootCmd.PersistentFlags().BoolVar(&a.cache, "cache", false, "Memoize recurrence results")

	rootCmd.AddCommand(
		newNextCmd(a),
		newMatchCmd(a),
		newParseCmd(),
		newTaskCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return rootCmd
}

func (a *app) setup(stderr io.Writer) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if a.maxMonthSteps <= 0 {
		return fmt.Errorf("--max-month-steps must be positive, got %d", a.maxMonthSteps)
	}
	config := recurrence.DefaultEngineConfig
	if a.cache {
		config = recurrence.CachedEngineConfig
	}
	config.MaxMonthSteps = a.maxMonthSteps
	a.engine = recurrence.NewEngineWithConfig(config, recurrence.WithLogger(a.logger))
	return nil
}

// withStore opens the task database for the duration of fn
func (a *app) withStore(fn func(store *sqlite.Store) error) error {
	store, err := sqlite.New(a.dbPath, sqlite.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("open task database: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func (a *app) completer(store tasks.Store) *tasks.Completer {
	generator := tasks.NewGenerator(
		tasks.WithEngine(a.engine),
		tasks.WithGeneratorLogger(a.logger),
	)
	return tasks.NewCompleter(store,
		tasks.WithGenerator(generator),
		tasks.WithCompleterLogger(a.logger),
	)
}

func defaultDBPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "recur", "tasks.db")
	}
	return filepath.Join(".recur", "tasks.db")
}

// parseDate reads a command-line date in the local zone
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD[THH:MM[:SS]]", s)
}

func formatDate(t time.Time) string {
	if h, m, s := t.Clock(); h == 0 && m == 0 && s == 0 {
		return t.Format("2006-01-02 Mon")
	}
	return t.Format("2006-01-02 15:04:05 Mon")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
