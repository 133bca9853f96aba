package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/Iron-Ham/shipyard/internal/config"
	"github.com/Iron-Ham/shipyard/internal/event"
	"github.com/Iron-Ham/shipyard/internal/logging"
	"github.com/Iron-Ham/shipyard/internal/publish"
	"github.com/Iron-Ham/shipyard/internal/runstate"
	"github.com/Iron-Ham/shipyard/internal/scheduler"
	"github.com/Iron-Ham/shipyard/internal/tui"
	"github.com/Iron-Ham/shipyard/internal/workspace"
)

var (
	publishOnly   []string
	publishSkip   []string
	publishResume bool
	publishDryRun bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the workspace in dependency order",
	Long: `Publish discovers the workspace's packages, orders them by their
dependency graph, and publishes them with bounded concurrency. A failed
package blocks its transitive dependents; everything else continues.`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	flags := publishCmd.Flags()
	flags.StringP("dir", "d", "", "workspace root (default is the current directory)")
	flags.IntP("concurrency", "j", 0, "maximum simultaneous publishes")
	flags.String("mode", "", "publisher: command, registry, or dry-run")
	flags.String("command", "", "shell command run per package in command mode")
	flags.String("registry-url", "", "registry base URL for registry mode")
	flags.Bool("watch", false, "pick up packages added or removed during the run")
	flags.Bool("plain", false, "plain text progress instead of the interactive UI")
	flags.StringSliceVar(&publishOnly, "only", nil, "publish only these packages")
	flags.StringSliceVar(&publishSkip, "skip", nil, "leave these packages out of the run")
	flags.BoolVar(&publishResume, "resume", false, "treat packages published by the previous run as done")
	flags.BoolVar(&publishDryRun, "dry-run", false, "shorthand for --mode dry-run")

	_ = viper.BindPFlag("workspace.dir", flags.Lookup("dir"))
	_ = viper.BindPFlag("publish.concurrency", flags.Lookup("concurrency"))
	_ = viper.BindPFlag("publish.mode", flags.Lookup("mode"))
	_ = viper.BindPFlag("publish.command", flags.Lookup("command"))
	_ = viper.BindPFlag("registry.url", flags.Lookup("registry-url"))
	_ = viper.BindPFlag("workspace.watch", flags.Lookup("watch"))
	_ = viper.BindPFlag("ui.plain", flags.Lookup("plain"))
}

func runPublish(cmd *cobra.Command, args []string) error {
	if publishDryRun {
		viper.Set("publish.mode", "dry-run")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir := cfg.Workspace.Dir
	if dir == "" {
		dir = "."
	}
	ws, err := workspace.Load(dir)
	if err != nil {
		return err
	}
	graph := ws.Graph()
	if err := graph.Validate(); err != nil {
		return err
	}

	publishable, err := ws.Publishable(publishOnly, publishSkip)
	if err != nil {
		return err
	}

	var alreadyPublished []string
	stateDir := cfg.Logging.LogDir(ws.Root)
	if publishResume {
		state, err := runstate.Load(stateDir)
		if err != nil {
			return fmt.Errorf("no resumable run state: %w", err)
		}
		alreadyPublished = state.Published
	}

	logger, err := buildLogger(cfg, stateDir)
	if err != nil {
		return err
	}
	defer logger.Close()

	bus := event.NewBus()

	sched := scheduler.FromGraph(graph, publishable, alreadyPublished, scheduler.Config{
		Concurrency:    cfg.Publish.Concurrency,
		MaxRetries:     cfg.Publish.MaxRetries,
		RetryBaseDelay: cfg.Publish.RetryBaseDelay(),
		Observer:       event.NewObserver(bus),
		Logger:         logger,
	})

	publisher, err := buildPublisher(cfg, ws)
	if err != nil {
		return err
	}
	fn := publish.Func(ws, publisher, logger)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	plain := cfg.UI.Plain || !term.IsTerminal(int(os.Stdout.Fd()))

	var program *tea.Program
	if !plain {
		model := tui.New(sched, tui.Options{
			Title:      ws.Manifest.Name,
			Packages:   tui.PackagesFromScheduler(sched, publishable),
			Mode:       scheduler.ViewMode(cfg.UI.ViewMode),
			Filter:     scheduler.DisplayFilter(cfg.UI.Filter),
			WindowSize: cfg.UI.WindowSize,
			Cancel:     cancel,
		})
		program = tea.NewProgram(model)
		detach := tui.Attach(bus, func(msg any) { program.Send(msg) })
		defer detach()
	} else {
		detach := attachPlainReporter(cmd, bus)
		defer detach()
	}

	var watcher *workspace.Watcher
	if cfg.Workspace.Watch {
		watcher, err = workspace.NewWatcher(ws, workspace.WatchCallbacks{
			OnAdd: func(name string, deps []string, level int) {
				if sched.AddPackage(name, deps, level) && program != nil {
					program.Send(tui.PackageAddedMsg{Package: name, Level: level})
				}
			},
			OnRemove: func(name string) {
				if sched.RemovePackage(name, false) && program != nil {
					program.Send(tui.PackageRemovedMsg{Package: name})
				}
			},
		}, logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	logger.WithRun(ws.Root).Info("run starting",
		"packages", len(publishable), "mode", cfg.Publish.Mode, "concurrency", cfg.Publish.Concurrency)
	bus.Publish(event.NewRunStartedEvent(ws.Root, len(publishable)))

	resCh := make(chan *scheduler.Result, 1)
	go func() {
		res := sched.Run(ctx, fn)
		bus.Publish(event.NewRunFinishedEvent(res))
		resCh <- res
	}()

	if program != nil {
		if _, err := program.Run(); err != nil {
			cancel()
			<-resCh
			return err
		}
	}
	res := <-resCh

	if err := saveState(stateDir, res, alreadyPublished); err != nil {
		logger.Warn("saving run state failed", "error", err.Error())
	}

	printSummary(cmd, res)
	if !res.Ok() {
		return fmt.Errorf("%d package(s) failed", len(res.Failed))
	}
	return nil
}

func buildLogger(cfg *config.Config, dir string) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewRotatingLogger(dir, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

func buildPublisher(cfg *config.Config, ws *workspace.Workspace) (publish.Publisher, error) {
	switch cfg.Publish.Mode {
	case "dry-run":
		return &publish.DryRun{}, nil
	case "command":
		return publish.NewCommandPublisher(cfg.Publish.Command), nil
	case "registry":
		url := ws.RegistryURL(cfg.Registry.URL)
		if url == "" {
			return nil, fmt.Errorf("registry mode needs a registry URL in workspace.yaml or --registry-url")
		}
		return publish.NewRegistryPublisher(publish.RegistryOptions{
			BaseURL: url,
			Token:   cfg.Registry.Token,
			Timeout: cfg.Registry.Timeout(),
		})
	default:
		return nil, fmt.Errorf("unknown publish mode %q", cfg.Publish.Mode)
	}
}

// attachPlainReporter prints one line per package outcome. Used when the
// interactive UI is disabled or stdout is not a terminal.
func attachPlainReporter(cmd *cobra.Command, bus *event.Bus) func() {
	out := cmd.OutOrStdout()
	id := bus.SubscribeAll(func(e event.Event) {
		switch e := e.(type) {
		case event.PackageStageEvent:
			switch e.Stage {
			case scheduler.StageRunning:
				fmt.Fprintf(out, "publishing %s\n", e.Package)
			case scheduler.StageRetrying:
				fmt.Fprintf(out, "retrying   %s\n", e.Package)
			case scheduler.StageDone:
				fmt.Fprintf(out, "published  %s\n", e.Package)
			case scheduler.StageFailed:
				fmt.Fprintf(out, "failed     %s\n", e.Package)
			case scheduler.StageBlocked:
				fmt.Fprintf(out, "blocked    %s\n", e.Package)
			}
		case event.SchedulerStateEvent:
			fmt.Fprintf(out, "scheduler %s\n", e.State)
		}
	})
	return func() { bus.Unsubscribe(id) }
}

// saveState merges this run's published packages with any carried over from
// the resumed run so chained resumes keep working.
func saveState(dir string, res *scheduler.Result, carried []string) error {
	return runstate.Save(dir, &runstate.State{
		Published:  append(append([]string{}, carried...), res.Published...),
		Failed:     res.Failed,
		Skipped:    res.Skipped,
		FinishedAt: time.Now().UTC(),
	})
}

func printSummary(cmd *cobra.Command, res *scheduler.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "published %d, failed %d, skipped %d\n",
		len(res.Published), len(res.Failed), len(res.Skipped))
	for name, msg := range res.Failed {
		fmt.Fprintf(out, "  %s: %s\n", name, msg)
	}
}
