// Package main provides the CLI entrypoint for typerace.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/verte-zerg/typerace/internal/api"
	"github.com/verte-zerg/typerace/internal/config"
	"github.com/verte-zerg/typerace/internal/model"
	"github.com/verte-zerg/typerace/internal/stats"
	"github.com/verte-zerg/typerace/internal/statsui"
	"github.com/verte-zerg/typerace/internal/store"
	"github.com/verte-zerg/typerace/internal/tui"
)

var _ tui.Backend = (*api.Client)(nil)

const (
	defaultCurveWindow = 10
	defaultTermWidth   = 80
)

var (
	flagServer    string
	flagTimeout   time.Duration
	flagLogLevel  string
	flagLogFile   string
	flagNoHistory bool

	boardMemes bool

	historyMode   string
	historySince  string
	historyLast   int
	historyWindow int
	historyBrowse bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typerace",
		Short:         "Typing speed practice client",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTypeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&flagServer, "server", config.DefaultServer, "backend base URL")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", config.DefaultTimeout, "timeout per backend request")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", config.DefaultLogPath(), "log file path")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "do not keep local round history")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newBoardCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

// loadConfig layers defaults, the config file, the environment and then any
// flags set explicitly on the command line.
func loadConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return model.Config{}, err
	}
	cfg, err := config.Merge(config.Defaults(), fileCfg, envCfg)
	if err != nil {
		return model.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Server = flagServer
	}
	if flags.Changed("timeout") {
		cfg.Timeout = flagTimeout
	}
	if flags.Changed("log-level") {
		level, err := config.ParseLogLevel(flagLogLevel)
		if err != nil {
			return model.Config{}, err
		}
		cfg.LogLevel = level
	}
	if flags.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	if flags.Changed("no-history") {
		cfg.NoHistory = flagNoHistory
	}

	if err := config.Validate(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// openLogger writes text logs to the configured file. The terminal belongs
// to the TUI, so nothing goes to stderr once it runs.
func openLogger(cfg model.Config) (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.LogLevel}))
	closeFn := func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}
	return logger, closeFn, nil
}

func newClient(cfg model.Config, logger *slog.Logger) (*api.Client, error) {
	client, err := api.New(cfg.Server, cfg.Timeout, api.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func openStore() (*store.Store, func(), error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	closeFn := func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	return st, closeFn, nil
}

func runTypeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	opts := tui.Options{
		Backend: client,
		Logger:  logger,
		Timeout: cfg.Timeout,
	}
	if !cfg.NoHistory {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		opts.Store = st
	}

	logger.Info("starting", "server", cfg.Server, "history", !cfg.NoHistory)
	program := tea.NewProgram(tui.NewModel(opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Print the leaderboards",
		Args:  cobra.NoArgs,
		RunE:  runBoardCmd,
	}
	cmd.Flags().BoolVar(&boardMemes, "memes", false, "print only the memeboard")
	return cmd
}

func runBoardCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	var leaders, memes []model.LeaderboardEntry
	g, ctx := errgroup.WithContext(cmd.Context())
	if !boardMemes {
		g.Go(func() error {
			entries, err := client.Leaderboard(ctx, false)
			if err != nil {
				return fmt.Errorf("failed to fetch leaderboard: %w", err)
			}
			leaders = entries
			return nil
		})
	}
	g.Go(func() error {
		entries, err := client.Leaderboard(ctx, true)
		if err != nil {
			return fmt.Errorf("failed to fetch memeboard: %w", err)
		}
		memes = entries
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	width := terminalWidth()
	if !boardMemes {
		if err := stats.RenderBoard(out, "Leaderboard", leaders, width); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if err := stats.RenderBoard(out, "Memeboard", memes, width); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultTermWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show local round history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyMode, "mode", "", "mode filter (single, multi)")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N rounds")
	cmd.Flags().IntVar(&historyWindow, "window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&historyBrowse, "browse", false, "browse history interactively")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	filter, err := historyFilter()
	if err != nil {
		return err
	}
	if historyWindow <= 0 {
		return fmt.Errorf("--window must be > 0")
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if historyBrowse {
		browser := statsui.NewModel(st, statsui.Config{Filter: filter, Window: historyWindow})
		program := tea.NewProgram(browser, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run history TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(context.Background(), st, filter, historyWindow)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report.Rounds); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(report.Rounds) == 0 {
		return nil
	}
	if len(report.Window) < len(report.Rounds) {
		if _, err := fmt.Fprintf(out, "Last %d: %.1f WPM avg, %.1f%% accuracy\n\n",
			report.WindowSummary.Rounds, report.WindowSummary.AvgWPM, report.WindowSummary.AvgAccuracy); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if err := stats.RenderCurves(out, report.Rounds, historyWindow, terminalWidth()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderHistory(out, report.Rounds); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func historyFilter() (model.HistoryFilter, error) {
	var filter model.HistoryFilter
	if historyMode != "" {
		mode, ok := model.ParseMode(historyMode)
		if !ok || (mode != model.ModeSingle && mode != model.ModeMulti) {
			return filter, fmt.Errorf("invalid --mode value %q (want single or multi)", historyMode)
		}
		filter.Mode = &mode
	}
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	if historyLast < 0 {
		return filter, fmt.Errorf("--last must be >= 0")
	}
	filter.Last = historyLast
	return filter, nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typerace configuration
# Uncomment a value to enable it. TYPERACE_* environment variables and CLI
# flags override config values.

[client]
# server = %q   # Backend base URL
# timeout = %q             # Timeout per backend request
# log-level = "info"         # debug, info, warn or error
# log-file = %q
# no-history = false         # Do not keep local round history
`,
		config.DefaultServer,
		config.DefaultTimeout.String(),
		config.DefaultLogPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
