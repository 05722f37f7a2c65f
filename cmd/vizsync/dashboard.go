package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/vanderheijden86/vizsync/pkg/debug"
	"github.com/vanderheijden86/vizsync/pkg/loader"
	"github.com/vanderheijden86/vizsync/pkg/ui"
	"github.com/vanderheijden86/vizsync/pkg/watcher"
)

var (
	logFile  string
	noWatch  bool
	forceRun bool
)

var stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the linked terminal dashboard",
	Long: `Opens the sunburst/treemap, timeline and map panels side by side.
Dataset files are watched and reloaded when they change on disk.

Keys: tab view, j/k move, enter zoom, esc back, space play, left/right year,
s series, / pick entity, q quit.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the dashboard runs")
	dashboardCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload datasets when they change")
	dashboardCmd.Flags().BoolVar(&forceRun, "force", false, "Run even when stdout is not a terminal")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if !forceRun && !stdoutIsTerminal() {
		return errors.New("dashboard needs a terminal (use render or graph for files, or --force)")
	}

	// Log lines on stderr would tear the alt screen.
	restore, err := redirectLogs(logFile)
	if err != nil {
		return err
	}
	defer restore()

	cfg, paths, bundle, err := loadAll(ctxOf(cmd))
	if err != nil {
		return err
	}

	var set *watcher.Set
	if !noWatch {
		set, err = watcher.NewSet(map[string]string{
			loader.DatasetTree:     paths.Tree,
			loader.DatasetTimeline: paths.Timeline,
			loader.DatasetGeo:      paths.Geo,
		})
		if err != nil {
			return fmt.Errorf("watching datasets: %w", err)
		}
		if err := set.Start(); err != nil {
			debug.Warn("live reload disabled: %v", err)
			set = nil
		} else {
			defer set.Stop()
		}
	}

	model := ui.NewModel(ui.Options{
		Config:  cfg,
		Bundle:  bundle,
		Paths:   paths,
		Watcher: set,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctxOf(cmd)))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// redirectLogs sends logs to path, or drops them when path is empty. The
// returned function restores the stderr logger.
func redirectLogs(path string) (func(), error) {
	if path == "" {
		debug.SetLogger(zap.NewNop())
		return func() { debug.SetLogger(nil) }, nil
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}
	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	debug.SetLogger(l.Named("vizsync"))
	return func() {
		_ = l.Sync()
		debug.SetLogger(nil)
	}, nil
}
