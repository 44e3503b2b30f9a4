package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/lexandro/gotoword-mcp/config"
	"github.com/lexandro/gotoword-mcp/ignore"
	"github.com/lexandro/gotoword-mcp/index"
	"github.com/lexandro/gotoword-mcp/occurrence"
	"github.com/lexandro/gotoword-mcp/register"
	"github.com/lexandro/gotoword-mcp/server"
	"github.com/lexandro/gotoword-mcp/tools"
	"github.com/lexandro/gotoword-mcp/watcher"
)

// rootOptions are the flags shared by every command that indexes a project.
type rootOptions struct {
	rootDir         string
	configPath      string
	excludes        []string
	maxFileSize     int64
	maxResults      int
	logLevel        string
	logFile         string
	searchTimeout   time.Duration
	syncInterval    time.Duration
	caseInsensitive bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	defaults := config.Default()

	rootCmd := &cobra.Command{
		Use:   "gotoword-mcp",
		Short: "Find every occurrence of text in a project, served over MCP",
		Long: `gotoword-mcp indexes the words of every file in a project and serves occurrence
search over MCP on stdio. Candidate files are chosen from the word index, then scanned
for every, possibly overlapping, occurrence of the filter.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.rootDir, "root", "", "Project root directory (default: current working directory)")
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: <root>/"+config.FileName+")")
	flags.StringArrayVar(&opts.excludes, "exclude", nil, "Extra ignore pattern (repeatable)")
	flags.Int64Var(&opts.maxFileSize, "max-file-size", defaults.MaxFileSize, "Maximum file size in bytes")
	flags.IntVar(&opts.maxResults, "max-results", defaults.MaxResults, "Occurrences shown per result page")
	flags.StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
	flags.StringVar(&opts.logFile, "log-file", "", "Log file path (server default: <root>/gotoword-mcp.log)")
	flags.DurationVar(&opts.searchTimeout, "search-timeout", time.Duration(defaults.SearchTimeout), "Time limit of one search, 0 for none")
	flags.DurationVar(&opts.syncInterval, "sync-interval", time.Duration(defaults.SyncInterval), "Index verification period, 0 to disable")
	flags.BoolVar(&opts.caseInsensitive, "case-insensitive", defaults.CaseInsensitive, "Search case-insensitively unless a request says otherwise")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve MCP on stdio (the default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd, opts)
			},
		},
		newSearchCommand(opts),
		newRegisterCommand(),
	)
	return rootCmd
}

// resolve returns the absolute project root and the effective config:
// defaults, then the config file, then flags set on the command line.
func (opts *rootOptions) resolve(cmd *cobra.Command) (string, config.Config, error) {
	rootDir := opts.rootDir
	if rootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", config.Config{}, fmt.Errorf("getting working directory: %w", err)
		}
		rootDir = wd
	}
	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return "", config.Config{}, fmt.Errorf("resolving root %s: %w", rootDir, err)
	}

	configPath, explicit := opts.configPath, true
	if configPath == "" {
		configPath, explicit = filepath.Join(rootDir, config.FileName), false
	}
	cfg, err := config.Load(configPath, explicit)
	if err != nil {
		return "", config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, opts.excludes...)
	}
	if flags.Changed("max-file-size") {
		cfg.MaxFileSize = opts.maxFileSize
	}
	if flags.Changed("max-results") {
		cfg.MaxResults = opts.maxResults
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}
	if flags.Changed("search-timeout") {
		cfg.SearchTimeout = config.Duration(opts.searchTimeout)
	}
	if flags.Changed("sync-interval") {
		cfg.SyncInterval = config.Duration(opts.syncInterval)
	}
	if flags.Changed("case-insensitive") {
		cfg.CaseInsensitive = opts.caseInsensitive
	}

	if err := cfg.Validate(); err != nil {
		return "", config.Config{}, err
	}
	return rootDir, cfg, nil
}

// newIndexer builds empty indexes for rootDir. The caller closes the word index.
func newIndexer(rootDir string, cfg config.Config, logger *slog.Logger) (*indexer, error) {
	wordIndex, err := index.NewWordIndex(logger)
	if err != nil {
		return nil, fmt.Errorf("creating word index: %w", err)
	}
	return &indexer{
		rootDir:   rootDir,
		fileIndex: index.NewFileIndex(),
		wordIndex: wordIndex,
		ignoreMatcher: ignore.NewMatcher(ignore.MatcherOptions{
			RootDir:          rootDir,
			CustomPatterns:   cfg.Exclude,
			MaxFileSizeBytes: cfg.MaxFileSize,
		}),
		workers: cfg.Workers,
		logger:  logger,
	}, nil
}

func defaultMode(cfg config.Config) occurrence.ComparisonMode {
	if cfg.CaseInsensitive {
		return occurrence.CaseInsensitive
	}
	return occurrence.CaseSensitive
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	rootDir, cfg, err := opts.resolve(cmd)
	if err != nil {
		return err
	}

	// Logs never go to stdout, which carries the MCP stdio transport
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = filepath.Join(rootDir, "gotoword-mcp.log")
	}
	logger, closeLog := setupLogger(cfg.SlogLevel(), logFile)
	defer closeLog()

	logger.Info("starting gotoword-mcp",
		"root", rootDir,
		"maxFileSize", cfg.MaxFileSize,
		"maxResults", cfg.MaxResults,
		"caseInsensitive", cfg.CaseInsensitive,
	)

	startTime := time.Now()

	ix, err := newIndexer(rootDir, cfg, logger)
	if err != nil {
		logger.Error("failed to create indexes", "error", err)
		return err
	}
	defer ix.wordIndex.Close()

	indexedCount, totalSize, err := ix.indexAll(ctx)
	if err != nil {
		logger.Error("initial indexing failed", "error", err)
		return err
	}
	logger.Info("initial indexing complete",
		"files", indexedCount,
		"totalSize", totalSize,
		"words", ix.wordIndex.WordCount(),
		"duration", time.Since(startTime),
	)

	fileWatcher, err := watcher.NewWatcher(rootDir, ix.ignoreMatcher, time.Duration(cfg.Debounce), logger)
	if err != nil {
		logger.Warn("failed to start file watcher, continuing without live updates", "error", err)
	} else {
		go fileWatcher.Run(ctx)
		go ix.handleWatcherEvents(ctx, fileWatcher.Events())
	}
	if cfg.SyncInterval > 0 {
		go ix.runPeriodicSync(ctx, time.Duration(cfg.SyncInterval))
	}

	store := occurrence.NewStore(cfg.ResultCapacity)
	handlers := server.Handlers{
		Search: &tools.SearchHandler{
			Index:             ix.wordIndex,
			Store:             store,
			Session:           &occurrence.Session{Logger: logger},
			DefaultMode:       defaultMode(cfg),
			DefaultMaxResults: cfg.MaxResults,
			DefaultTimeout:    time.Duration(cfg.SearchTimeout),
			Logger:            logger,
		},
		Results: &tools.ResultsHandler{
			Store:        store,
			Texts:        ix.wordIndex,
			DefaultLimit: cfg.MaxResults,
			Logger:       logger,
		},
		Candidates: &tools.CandidatesHandler{Index: ix.wordIndex, Logger: logger},
		Status: &tools.StatusHandler{
			FileIndex: ix.fileIndex,
			WordIndex: ix.wordIndex,
			Store:     store,
			StartTime: startTime,
			RootDir:   rootDir,
			Logger:    logger,
		},
		Reindex: &tools.ReindexHandler{
			DoReindex: ix.reindex,
			Limiter:   tools.NewReindexLimiter(time.Duration(cfg.ReindexCooldown)),
			Logger:    logger,
		},
	}

	mcpServer := server.Setup(handlers)

	logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("MCP server error", "error", err)
		return err
	}
	logger.Info("MCP server stopped")
	return nil
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var ignoreCase bool
	var glob string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "search <filter>",
		Short: "Index the project once and print every occurrence of filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDir, cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ignore-case") {
				cfg.CaseInsensitive = ignoreCase
			}
			if cmd.Flags().Changed("timeout") {
				cfg.SearchTimeout = config.Duration(timeout)
			}
			files, err := index.GlobFilter(glob)
			if err != nil {
				return err
			}

			logger, closeLog := setupLogger(cfg.SlogLevel(), cfg.LogFile)
			defer closeLog()
			ix, err := newIndexer(rootDir, cfg, logger)
			if err != nil {
				return err
			}
			defer ix.wordIndex.Close()

			if _, _, err := ix.indexAll(cmd.Context()); err != nil {
				return err
			}

			ctx := cmd.Context()
			if cfg.SearchTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.SearchTimeout))
				defer cancel()
			}

			session := &occurrence.Session{Logger: logger}
			scope := occurrence.Scope{Mode: defaultMode(cfg), Index: ix.wordIndex, Texts: ix.wordIndex, Files: files}
			result, found := session.Run(args[0], scope, occurrence.CancelOnDone(ctx))
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), "No occurrences found.")
				return nil
			}

			printOccurrences(cmd.OutOrStdout(), result, ix.wordIndex)
			if result.Cancelled {
				fmt.Fprintln(cmd.ErrOrStderr(), "search cancelled, results are partial")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "Match case-insensitively")
	cmd.Flags().StringVar(&glob, "glob", "", "Only search files matching this glob (e.g. **/*.go)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop after this long and print what was found")
	return cmd
}

func printOccurrences(w io.Writer, result occurrence.SearchResult, texts occurrence.FileTextProvider) {
	for _, o := range result.Occurrences {
		text, _ := texts.CurrentText(o.File)
		location, ok := tools.Locate(text, o.Start)
		if !ok || !o.MatchesIn(text, result.Filter, result.Mode) {
			continue
		}
		fmt.Fprintf(w, "%s:%d:%d: %s\n", o.File, location.Line, location.Column, location.LineText)
	}
}

func newRegisterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register project|user [directory] [-- server flags]",
		Short: "Register this server in an MCP client config",
		Long: `Register writes the server into <directory>/.mcp.json (project scope, default directory ".")
or ~/.claude.json (user scope). Arguments after "--" are passed to the server on every start.`,
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: []string{register.ScopeProject, register.ScopeUser},
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, serverArgs := register.SplitServerArgs(args, cmd.ArgsLenAtDash())
			if len(positional) == 0 {
				return fmt.Errorf("scope is required (%q or %q)", register.ScopeProject, register.ScopeUser)
			}

			options := register.Options{
				Scope:      positional[0],
				ServerName: register.DeriveServerName(os.Args[0]),
				ServerArgs: serverArgs,
			}
			if len(positional) > 1 {
				if options.Scope != register.ScopeProject {
					return fmt.Errorf("a directory is only accepted for the %q scope", register.ScopeProject)
				}
				options.Directory = positional[1]
			}

			configPath, err := register.Register(options)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %q in %s\n", options.ServerName, configPath)
			return nil
		},
	}
}

// setupLogger creates an slog.Logger writing to logFile, or to stderr when logFile is
// empty or cannot be opened. The returned func closes the log file.
func setupLogger(level slog.Level, logFile string) (*slog.Logger, func()) {
	writer := os.Stderr
	closeLog := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
		} else {
			writer = f
			closeLog = func() { f.Close() }
		}
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closeLog
}
