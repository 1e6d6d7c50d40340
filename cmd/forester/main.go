// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/mdhender/forester"
	"github.com/mdhender/forester/config"
	"github.com/mdhender/forester/engine"
	"github.com/mdhender/forester/grammar"
	"github.com/mdhender/forester/harness"
	"github.com/mdhender/forester/model"
	"github.com/mdhender/forester/renderer"
	store "github.com/mdhender/forester/stores/sqlite"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// app holds the state shared by the commands once the root command's
// pre-run has loaded the configuration.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	a := &app{}
	var configFile string
	addFlags := func(cmd *cobra.Command) error {
		cmd.PersistentFlags().StringVarP(&configFile, "config-file", "c", configFile, "load configuration from file")
		cmd.PersistentFlags().Bool("debug", false, "log debugging information")
		cmd.PersistentFlags().Bool("quiet", false, "log less information")
		cmd.PersistentFlags().Bool("show-version", false, "show version")
		cmd.PersistentFlags().String("grammar-dir", "", "load grammar fragments from directory instead of the builtin grammar")
		cmd.PersistentFlags().String("start", "", "start rule")
		return nil
	}
	var cmdRoot = &cobra.Command{
		Use:   "forester",
		Short: "Parse forest ambiguity checker",
		Long:  `Parse source files with a generalized parser and report which parse unambiguously.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			quiet, _ := cmd.Flags().GetBool("quiet")
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			} else if quiet {
				level = slog.LevelWarn
			}
			a.logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				NoColor:    !isTerminal(os.Stderr),
				TimeFormat: time.TimeOnly,
			}))
			slog.SetDefault(a.logger)

			if showVersion, _ := cmd.Flags().GetBool("show-version"); showVersion {
				fmt.Printf("forester: version %q\n", forester.Version().Core())
			}

			var searchPaths []string
			if wd, err := os.Getwd(); err == nil {
				searchPaths = append(searchPaths, wd)
			}
			if home, err := os.UserHomeDir(); err == nil {
				searchPaths = append(searchPaths, home)
			}
			cfg, err := config.Load(afero.NewOsFs(), configFile, searchPaths...)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("grammar-dir") {
				cfg.Grammar.Dir, _ = cmd.Flags().GetString("grammar-dir")
			}
			if cmd.Flags().Changed("start") {
				cfg.Grammar.Start, _ = cmd.Flags().GetString("start")
			}
			a.cfg = cfg
			return nil
		},
	}
	cmdRoot.AddCommand(cmdFile(a))
	cmdRoot.AddCommand(cmdDir(a))
	cmdRoot.AddCommand(cmdTokens(a))
	cmdRoot.AddCommand(cmdRuns(a))
	cmdRoot.AddCommand(cmdVersion())
	if err := addFlags(cmdRoot); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmdRoot.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newEngine compiles the configured grammar.
func (a *app) newEngine() (*engine.Engine, error) {
	var g *grammar.Grammar
	var err error
	if a.cfg.Grammar.Dir == "" {
		g, err = grammar.Builtin()
	} else {
		g, err = grammar.LoadFS(afero.NewOsFs(), a.cfg.Grammar.Dir)
	}
	if err != nil {
		return nil, err
	}
	options := []engine.Option{engine.WithLogger(a.logger)}
	if a.cfg.Grammar.Start != "" {
		options = append(options, engine.WithStart(a.cfg.Grammar.Start))
	}
	return engine.New(g, options...)
}

func (a *app) grammarName() string {
	if a.cfg.Grammar.Dir == "" {
		return "builtin"
	}
	return a.cfg.Grammar.Dir
}

func (a *app) colored() bool {
	switch a.cfg.Report.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	return isTerminal(os.Stdout)
}

func (a *app) openStore() (*store.SQLiteStore, error) {
	if a.cfg.Results.Database == "" {
		return nil, errors.New("no results database: set results.database or --database")
	}
	return store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: a.cfg.Results.Database})
}

func cmdFile(a *app) *cobra.Command {
	var graphvizForest string
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&graphvizForest, "graphviz-forest", graphvizForest, "write the parse forest as a Graphviz digraph")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "file <path>",
		Short:        "parse one file and show the full result",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.newEngine()
			if err != nil {
				return err
			}
			h, err := harness.New(e, harness.WithLogger(a.logger))
			if err != nil {
				return err
			}
			fr, err := h.File(cmd.Context(), args[0], graphvizForest)
			if err != nil {
				return err
			}
			var te *forester.TokenizeError
			if errors.As(fr.TokenizeErr, &te) {
				te.Print(os.Stderr)
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdDir(a *app) *cobra.Command {
	var verbose bool
	var width int
	var patterns []string
	var database string
	var noRecord bool
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVarP(&verbose, "verbose", "v", verbose, "show the full result of every file")
		cmd.Flags().IntVar(&width, "width", config.DefaultReportWidth, "status characters per line")
		cmd.Flags().StringSliceVarP(&patterns, "pattern", "p", patterns, "glob pattern selecting input files")
		cmd.Flags().StringVar(&database, "database", database, "record the run in this SQLite database")
		cmd.Flags().BoolVar(&noRecord, "no-record", noRecord, "do not record the run")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "dir <path>",
		Short:        "classify every matching file below a directory",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("width") {
				a.cfg.Report.Width = width
			}
			if cmd.Flags().Changed("pattern") {
				a.cfg.Inputs.Patterns = patterns
			}
			if cmd.Flags().Changed("database") {
				a.cfg.Results.Database = database
			}

			e, err := a.newEngine()
			if err != nil {
				return err
			}
			options := []harness.Option{
				harness.WithLogger(a.logger),
				harness.WithVerbose(verbose),
				harness.WithWidth(a.cfg.Report.Width),
				harness.WithColor(a.colored()),
				harness.WithPatterns(a.cfg.Inputs.Patterns...),
				harness.WithGrammarName(a.grammarName()),
			}
			if !noRecord && a.cfg.Results.Database != "" {
				s, err := a.openStore()
				if err != nil {
					return err
				}
				defer s.Close()
				options = append(options, harness.WithRecorder(s))
			}
			h, err := harness.New(e, options...)
			if err != nil {
				return err
			}
			_, err = h.Dir(cmd.Context(), args[0])
			return err
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdTokens(a *app) *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "tokens <path>",
		Short:        "print the tokens of a file",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			input, err := afero.ReadFile(afero.NewOsFs(), file)
			if err != nil {
				return err
			}
			ts, err := forester.Tokenize(cmd.Context(), file, input, a.logger)
			if err != nil {
				var te *forester.TokenizeError
				if errors.As(err, &te) {
					te.Print(os.Stderr)
				}
				return err
			}
			for i, tok := range ts.Tokens {
				joint := ""
				if tok.Joint {
					joint = "joint"
				}
				fmt.Printf("%-35s %5d %-8s %-5s %q\n", fmt.Sprintf("%s:%d:%d:", file, tok.Line, tok.Column), i, tok.Kind, joint, tok.Lexeme(input))
			}
			return nil
		},
	}
	return cmd
}

func cmdRuns(a *app) *cobra.Command {
	var limit int
	var database string
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list, 0 for all")
		cmd.PersistentFlags().StringVar(&database, "database", database, "SQLite database the runs are recorded in")
		return nil
	}
	// withStore opens the results database for the duration of fn.
	withStore := func(cmd *cobra.Command, fn func(s *store.SQLiteStore, r *renderer.Renderer) error) error {
		if cmd.Flags().Changed("database") {
			a.cfg.Results.Database = database
		}
		s, err := a.openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		r, err := renderer.New()
		if err != nil {
			return err
		}
		return fn(s, r)
	}
	var cmd = &cobra.Command{
		Use:          "runs",
		Short:        "list recorded runs",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *store.SQLiteStore, r *renderer.Renderer) error {
				runs, err := s.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return r.Runs(os.Stdout, runs)
			})
		},
	}
	var cmdShow = &cobra.Command{
		Use:          "show <run>",
		Short:        "show the file results of a run",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, func(s *store.SQLiteStore, r *renderer.Renderer) error {
				run, err := s.GetRun(cmd.Context(), id)
				if err != nil {
					return err
				} else if run == nil {
					return fmt.Errorf("run %d: not found", id)
				}
				results, err := s.RunResults(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := r.Runs(os.Stdout, []*model.Run{run}); err != nil {
					return err
				}
				return r.Results(os.Stdout, results)
			})
		},
	}
	var cmdDiff = &cobra.Command{
		Use:          "diff <from> <to>",
		Short:        "list files whose category changed between two runs",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			to, err := parseRunID(args[1])
			if err != nil {
				return err
			}
			return withStore(cmd, func(s *store.SQLiteStore, r *renderer.Renderer) error {
				for _, id := range []int64{from, to} {
					if run, err := s.GetRun(cmd.Context(), id); err != nil {
						return err
					} else if run == nil {
						return fmt.Errorf("run %d: not found", id)
					}
				}
				changes, err := s.ChangedFiles(cmd.Context(), from, to)
				if err != nil {
					return err
				}
				return r.Changes(os.Stdout, changes)
			})
		},
	}
	cmd.AddCommand(cmdShow)
	cmd.AddCommand(cmdDiff)
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func parseRunID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("run %q: want a positive run number", s)
	}
	return id, nil
}

func cmdVersion() *cobra.Command {
	showBuildInfo := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&showBuildInfo, "build-info", showBuildInfo, "show build information")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "display the application's version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showBuildInfo {
				fmt.Println(forester.Version().String())
				return nil
			}
			fmt.Println(forester.Version().Core())
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}
