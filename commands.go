package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/s1natex/taskboard-GO/internal/config"
	"github.com/s1natex/taskboard-GO/internal/snapshot"
	"github.com/s1natex/taskboard-GO/internal/tasks"
	"github.com/s1natex/taskboard-GO/internal/telemetry"
)

type rootOptions struct {
	configPath string
	store      string
	dataPath   string
	remoteURL  string
	logLevel   string
}

// load resolves configuration: defaults, file, environment, then any flag the
// user actually set.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("TASKBOARD_CONFIG")
	}
	flags := cmd.Flags()
	return config.LoadWith(path, os.Getenv, func(cfg *config.Config) {
		if flags.Changed("store") {
			cfg.Store.Mode = config.StoreMode(strings.ToLower(o.store))
		}
		if flags.Changed("data") {
			cfg.Store.DataPath = o.dataPath
		}
		if flags.Changed("remote-url") {
			cfg.Store.RemoteURL = o.remoteURL
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = o.logLevel
		}
		if flags.Changed("addr") {
			cfg.Addr, _ = flags.GetString("addr")
		}
	})
}

// withApp runs fn against the configured store, logging to stderr so command
// output stays clean.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := o.load(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
	a, err := openApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "taskboard",
		Short: "A small task board with a web UI, a task API, and a CLI",
		Long: `taskboard keeps a list of short tasks with a priority and a category.

The tasks live either in a local SQLite file (--store local) or in another
taskboard reached over HTTP (--store remote --remote-url URL).

CONFIGURATION:
  Priority order: command-line flags > environment variables > config file > defaults

    TASKBOARD_CONFIG                 YAML config file
    TASKBOARD_ADDR                   Listen address for serve (default: :8080)
    TASKBOARD_STORE                  local or remote (default: local)
    TASKBOARD_DATA                   SQLite file (default: data/taskboard.db)
    TASKBOARD_REMOTE_URL             Collaborator base URL for the remote store
    TASKBOARD_REMOTE_API_KEY         X-API-Key sent to the collaborator
    TASKBOARD_REMOTE_TIMEOUT         Per-call timeout (default: none)
    TASKBOARD_AUTH_MODE              none, apikey or bearer for the task API
    TASKBOARD_RATE_LIMIT_RPS         Requests per second per client (default: off)
    TASKBOARD_TRACE_EXPORTER         none, stdout or otlp
    TASKBOARD_SNAPSHOT_SCHEDULE      Cron spec for JSON snapshots (default: off)
    LOG_LEVEL                        debug, info, warn or error`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&opts.store, "store", "", "task store: local or remote")
	pf.StringVar(&opts.dataPath, "data", "", "SQLite file for the local store")
	pf.StringVar(&opts.remoteURL, "remote-url", "", "base URL of the collaborator for the remote store")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level")

	root.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newAddCmd(opts),
		newToggleCmd(opts),
		newRemoveCmd(opts),
		newPriorityCmd(opts),
		newCategoryCmd(opts),
		newCategoriesCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
	)
	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board UI and the task API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel, os.Stdout)
			slog.SetDefault(logger) // for third-party packages that use slog

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			exporter, err := telemetry.ParseExporter(cfg.Tracing.Exporter)
			if err != nil {
				return err
			}
			shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
				Exporter:     exporter,
				ServiceName:  cfg.Tracing.ServiceName,
				OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					logger.Warn("tracing_shutdown_failed", slog.String("error", err.Error()))
				}
			}()

			a, err := openApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if cfg.Snapshot.Schedule != "" {
				exp := snapshot.NewExporter(a.store, cfg.Snapshot.Dir, cfg.Snapshot.Keep)
				sched, err := snapshot.NewScheduler(cfg.Snapshot.Schedule, config.SnapshotParser, exp, logger)
				if err != nil {
					return err
				}
				sched.Start()
				defer sched.Stop()
				logger.Info("snapshot_scheduled", slog.String("schedule", cfg.Snapshot.Schedule), slog.String("dir", cfg.Snapshot.Dir))
			}

			logger.Info("store_ready", slog.String("mode", string(cfg.Store.Mode)))
			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           newRouter(a, cfg),
				ReadHeaderTimeout: 5 * time.Second,
			}
			return serve(ctx, srv, logger)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var filter, category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				q := tasks.Query{Status: tasks.ParseStatus(filter), Category: category}
				list, err := a.store.List(ctx, q)
				if err != nil {
					return err
				}
				return printTasks(cmd.OutOrStdout(), list, time.Now())
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "all, active or completed")
	cmd.Flags().StringVar(&category, "category", tasks.AllCategories, "category name or all")
	return cmd
}

func printTasks(w io.Writer, list []tasks.Task, now time.Time) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tPRIORITY\tCATEGORY\tCREATED\tCONTENT")
	for _, t := range list {
		done := " "
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(tw, "%d\t[%s]\t%s\t%s\t%s\t%s\n", t.ID, done, t.Priority, t.Category, age(t.CreatedAt, now), t.Content)
	}
	return tw.Flush()
}

// age renders a created_at value relative to now, or verbatim if it does not parse.
func age(createdAt string, now time.Time) string {
	ts, err := time.ParseInLocation(tasks.CreatedAtLayout, createdAt, now.Location())
	if err != nil {
		return createdAt
	}
	return humanize.RelTime(ts, now, "ago", "from now")
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var priority, category string
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := tasks.Draft{Content: strings.Join(args, " "), Category: category}
			if priority != "" {
				p, err := tasks.ParsePriority(priority)
				if err != nil {
					return err
				}
				d.Priority = p
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				err := a.store.Add(ctx, d)
				if errors.Is(err, tasks.ErrContentRequired) {
					return nil
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "Task added successfully")
				return err
			})
		},
	}
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high (default medium)")
	cmd.Flags().StringVar(&category, "category", "", "category (default General)")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func newToggleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between active and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.store.Toggle(ctx, id); err != nil {
					return err
				}
				t, err := tasks.Find(ctx, a.store, id)
				if err != nil {
					return err
				}
				msg := "Task marked as active"
				if t.Completed {
					msg = "Task completed!"
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
				return err
			})
		},
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Are you sure you want to delete this task?") {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Delete cancelled.")
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.store.Remove(ctx, id); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Task deleted successfully")
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func newPriorityCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "priority <id> <low|medium|high>",
		Short: "Change a task's priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := tasks.ParsePriority(args[1])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.store.SetPriority(ctx, id, p); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Priority updated to %s\n", p)
				return err
			})
		},
	}
}

func newCategoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "category <id> <name>",
		Short: "Move a task to another category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.store.SetCategory(ctx, id, args[1]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Category updated to %s\n", args[1])
				return err
			})
		},
	}
}

func newCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				cats, err := a.store.Categories(ctx)
				if err != nil {
					return err
				}
				for _, c := range cats {
					fmt.Fprintln(cmd.OutOrStdout(), c)
				}
				return nil
			})
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all tasks as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if out == "" || out == "-" {
					return snapshot.Write(ctx, cmd.OutOrStdout(), a.store)
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := snapshot.Write(ctx, f, a.store); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the local task collection with a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if a.local == nil {
					return errors.New("import needs the local store")
				}
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				n, err := snapshot.Restore(ctx, f, a.kv)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks\n", n)
				return err
			})
		},
	}
}
