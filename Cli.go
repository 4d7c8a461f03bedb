package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/reaandrew/secscanner/config"
	"github.com/reaandrew/secscanner/core"
	"github.com/reaandrew/secscanner/notifiers"
	"github.com/reaandrew/secscanner/orchestrator"
	"github.com/reaandrew/secscanner/reporters"
	"github.com/reaandrew/secscanner/scanners"
	"github.com/reaandrew/secscanner/server"
	"github.com/reaandrew/secscanner/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Cli represents the command-line interface
type Cli struct {
	configPath   string
	reportFormat string
	outputDir    string
	baseUrl      string
	options      scanOptions

	cfg    config.Config
	out    io.Writer
	errOut io.Writer
	// newApp and githubApi are swapped in tests to avoid real stores and endpoints.
	newApp    func(ctx context.Context, cfg config.Config, notifier core.Notifier) (*App, error)
	githubApi func(ctx context.Context, token, baseURL string) (utils.GithubApi, error)
	// skipLogging keeps tests from redirecting the global logger to a file.
	skipLogging bool
}

// scanOptions mirrors the optional ScanRequest fields as flags.
type scanOptions struct {
	branch                 string
	useWebSearch           bool
	sendReport             bool
	recipient              string
	createIssues           bool
	includeRecommendations bool
	scanDepth              int
	fileTypes              string
	scanHistory            bool
	verifyBranch           bool
}

func NewCli() *Cli {
	return &Cli{
		out:    os.Stdout,
		errOut: os.Stderr,
		newApp: NewApp,
		githubApi: func(ctx context.Context, token, baseURL string) (utils.GithubApi, error) {
			client, err := utils.NewGithubApiClient(ctx, token, baseURL)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

// Execute sets up and runs the root command
func (cli *Cli) Execute() error {
	return cli.RootCommand().Execute()
}

func (cli *Cli) RootCommand() *cobra.Command {
	if _, ok := cli.errOut.(*lockedWriter); !ok {
		cli.errOut = &lockedWriter{w: cli.errOut}
	}

	rootCmd := &cobra.Command{
		Use:          "secscanner",
		Short:        "secscanner requests security scans of repositories and keeps their history.",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.loadConfig()
		},
	}
	rootCmd.SetOut(cli.out)
	rootCmd.SetErr(cli.errOut)
	rootCmd.PersistentFlags().StringVar(&cli.configPath, "config", "", "Path to a YAML or TOML config file (default ./secscanner.yaml when present)")

	rootCmd.AddCommand(cli.createScanCommand())
	rootCmd.AddCommand(cli.createHistoryCommand())
	rootCmd.AddCommand(cli.createServeCommand())
	return rootCmd
}

func (cli *Cli) loadConfig() error {
	path := cli.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigFile); err == nil {
			path = config.DefaultConfigFile
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cli.cfg = cfg
	if !cli.skipLogging {
		setupLogging(cfg.Logging)
	}
	log.Printf("Loaded configuration (history backend %s)", cfg.History.Backend)
	return nil
}

func (cli *Cli) openApp(ctx context.Context) (*App, error) {
	notifier := notifiers.MultiNotifier{
		notifiers.ConsoleNotifier{Writer: cli.errOut},
		notifiers.LogNotifier{},
	}
	return cli.newApp(ctx, cli.cfg, notifier)
}

func closeApp(app *App) {
	if err := app.Close(); err != nil {
		log.Printf("Error closing scan history: %v", err)
	}
}

// createScanCommand creates the 'scan' subcommand with its flags and subcommands
func (cli *Cli) createScanCommand() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Request security scans for a repository, a GitHub organization or a GitLab instance.",
	}

	flags := scanCmd.PersistentFlags()
	flags.StringVar(&cli.reportFormat, "report", "", "Report format (console, json, xlsx, http)")
	flags.StringVar(&cli.outputDir, "output-dir", "", "Directory for json and xlsx reports")
	flags.StringVar(&cli.baseUrl, "baseurl", "", "Http report base url")
	flags.BoolVar(&cli.options.useWebSearch, "use-web-search", false, "Let the scanner consult web sources")
	flags.BoolVar(&cli.options.sendReport, "send-report", false, "Ask the scanner to email a report")
	flags.StringVar(&cli.options.recipient, "recipient", "", "Report recipient used with --send-report")
	flags.BoolVar(&cli.options.createIssues, "create-issues", false, "Ask the scanner to open issues for findings")
	flags.BoolVar(&cli.options.includeRecommendations, "include-recommendations", false, "Include remediation advice")
	flags.IntVar(&cli.options.scanDepth, "scan-depth", 0, "How deep the scanner should analyse")
	flags.StringVar(&cli.options.fileTypes, "file-types", "", "Comma separated file globs to restrict the scan to")
	flags.BoolVar(&cli.options.scanHistory, "scan-history", false, "Include git history in the scan")

	scanRepoCmd := &cobra.Command{
		Use:   "repo <REPOSITORY>",
		Short: "Scan a single repository.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.scanRepo(cmd, args[0])
		},
	}
	scanRepoCmd.Flags().StringVar(&cli.options.branch, "branch", "", "Branch to scan (default main)")
	scanRepoCmd.Flags().BoolVar(&cli.options.verifyBranch, "verify-branch", false, "Check the branch exists on the remote before scanning")

	scanOrgCmd := &cobra.Command{
		Use:   "github_org <ORG_NAME>",
		Short: "Scan every repository within a GitHub organization on its default branch.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := cli.githubApi(cmd.Context(), cli.cfg.Github.Token, cli.cfg.Github.BaseURL)
			if err != nil {
				return err
			}
			return cli.scanBatch(cmd, scanners.GithubOrgSource{Org: args[0], GithubClient: api})
		},
	}

	var gitlabToken, gitlabURL string
	var noCache bool
	scanGitlabCmd := &cobra.Command{
		Use:   "gitlab",
		Short: "Scan every project visible on a GitLab instance.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if gitlabToken == "" {
				gitlabToken = cli.cfg.Gitlab.Token
			}
			if gitlabURL == "" {
				gitlabURL = cli.cfg.Gitlab.BaseURL
			}
			api, err := utils.NewGitlabApiClient(gitlabToken, gitlabURL, noCache || cli.cfg.Gitlab.NoCache)
			if err != nil {
				return err
			}
			return cli.scanBatch(cmd, scanners.GitlabSource{GitlabApi: api})
		},
	}
	scanGitlabCmd.Flags().StringVar(&gitlabToken, "gitlab-token", "", "GitLab token (default GITLAB_TOKEN)")
	scanGitlabCmd.Flags().StringVar(&gitlabURL, "gitlab-url", "", "GitLab API base URL")
	scanGitlabCmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the local project cache")

	scanCmd.AddCommand(scanRepoCmd)
	scanCmd.AddCommand(scanOrgCmd)
	scanCmd.AddCommand(scanGitlabCmd)
	return scanCmd
}

// buildScanRequest sets only the options whose flags were given, so absent
// options are left out of the upstream payload.
func buildScanRequest(repository string, opts scanOptions, changed func(name string) bool) (core.ScanRequest, error) {
	request := core.ScanRequest{Repository: repository, Branch: opts.branch}

	if changed("use-web-search") {
		request.UseWebSearch = core.Bool(opts.useWebSearch)
	}
	if changed("send-report") {
		request.SendReport = core.Bool(opts.sendReport)
	}
	if changed("recipient") {
		request.Recipient = opts.recipient
	}
	if changed("create-issues") {
		request.CreateIssues = core.Bool(opts.createIssues)
	}
	if changed("include-recommendations") {
		request.IncludeRecommendations = core.Bool(opts.includeRecommendations)
	}
	if changed("scan-depth") {
		if opts.scanDepth < 0 {
			return core.ScanRequest{}, fmt.Errorf("--scan-depth must not be negative")
		}
		request.ScanDepth = core.Int(opts.scanDepth)
	}
	if changed("file-types") {
		patterns, err := utils.ParseFileTypes(opts.fileTypes)
		if err != nil {
			return core.ScanRequest{}, err
		}
		request.FileTypes = patterns
	}
	if changed("scan-history") {
		request.ScanHistory = core.Bool(opts.scanHistory)
	}
	return request, nil
}

func (cli *Cli) scanRepo(cmd *cobra.Command, repository string) error {
	ctx := cmd.Context()
	request, err := buildScanRequest(repository, cli.options, cmd.Flags().Changed)
	if err != nil {
		return err
	}

	if cli.options.verifyBranch {
		lister := utils.GitBranchLister{Token: cli.cfg.Github.Token}
		if err := utils.VerifyBranch(ctx, lister, repository, request.EffectiveBranch()); err != nil {
			return err
		}
	}

	reporter, err := cli.createReporter(cli.reportFormat, cli.outputDir, cli.baseUrl)
	if err != nil {
		return err
	}

	app, err := cli.openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(app)

	spinner := &loadingSpinner{
		writer:      cli.errOut,
		description: fmt.Sprintf("Scanning %s@%s", repository, request.EffectiveBranch()),
	}
	app.Orchestrator.OnStateChange = spinner.OnStateChange
	result, err := app.Orchestrator.RunScan(ctx, request)
	if err != nil {
		return err
	}

	return reporter.Report([]core.ScanResult{result})
}

func (cli *Cli) scanBatch(cmd *cobra.Command, source scanners.RepositorySource) error {
	options, err := buildScanRequest("", cli.options, cmd.Flags().Changed)
	if err != nil {
		return err
	}

	reporter, err := cli.createReporter(cli.reportFormat, cli.outputDir, cli.baseUrl)
	if err != nil {
		return err
	}

	app, err := cli.openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(app)

	batch := scanners.BatchScanner{
		Scanner:          app.Orchestrator,
		Reporter:         reporter,
		ProgressReporter: utils.NewBarProgressReporterTo(cli.errOut, 0, "Scanning repositories"),
		Options:          options,
	}
	result, err := batch.Scan(cmd.Context(), source)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.errOut, "%d scanned, %d used generated results, %d skipped\n", result.Completed, result.Fallback, result.Skipped)
	return nil
}

func (cli *Cli) createHistoryCommand() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage stored scan results.",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored scan results, most recent first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(cmd, func(app *App) error {
				history := app.Orchestrator.History()
				if len(history) == 0 {
					fmt.Fprintln(cli.out, "No scan results")
					return nil
				}
				for _, result := range history {
					fmt.Fprintf(cli.out, "%s  %s@%s  %s  %d findings\n",
						result.Id, result.Repository, result.Branch, result.Timestamp, result.Summary.Total())
				}
				return nil
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <SCAN_ID>",
		Short: "Show one stored scan result.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(cmd, func(app *App) error {
				result, ok := app.Orchestrator.Find(args[0])
				if !ok {
					return fmt.Errorf("scan result %s not found", args[0])
				}
				return reporters.ConsoleReporter{Writer: cli.out}.Report([]core.ScanResult{result})
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored scan result.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(cmd, func(app *App) error {
				app.Orchestrator.ClearHistory()
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <SCAN_ID>",
		Short: "Delete one stored scan result.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(cmd, func(app *App) error {
				app.Orchestrator.DeleteResult(args[0])
				return nil
			})
		},
	}

	var exportFormat, exportDir, exportUrl string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored history as a report.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reporter, err := cli.createReporter(exportFormat, exportDir, exportUrl)
			if err != nil {
				return err
			}
			return cli.withApp(cmd, func(app *App) error {
				return reporter.Report(app.Orchestrator.History())
			})
		},
	}
	exportCmd.Flags().StringVar(&exportFormat, "report", "json", "Report format (console, json, xlsx, http)")
	exportCmd.Flags().StringVar(&exportDir, "output-dir", "", "Directory for json and xlsx reports")
	exportCmd.Flags().StringVar(&exportUrl, "baseurl", "", "Http report base url")

	historyCmd.AddCommand(listCmd, showCmd, clearCmd, deleteCmd, exportCmd)
	return historyCmd
}

func (cli *Cli) createServeCommand() *cobra.Command {
	var addr string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan state over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cli.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cli.withApp(cmd, func(app *App) error {
				srv := server.NewServer(addr, app.Orchestrator)
				errs := make(chan error, 1)
				go func() {
					errs <- srv.ListenAndServe()
				}()
				fmt.Fprintf(cli.errOut, "Listening on %s\n", addr)
				log.Printf("Scan API listening on %s", addr)

				select {
				case err := <-errs:
					return err
				case <-ctx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return err
				}
				if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return serveCmd
}

func (cli *Cli) withApp(cmd *cobra.Command, fn func(app *App) error) error {
	app, err := cli.openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(app)
	return fn(app)
}

// createReporter falls back to the configured format and directory for
// whatever the flags left empty.
func (cli *Cli) createReporter(format, outputDir, baseUrl string) (core.Reporter, error) {
	if format == "" {
		format = cli.cfg.Report.Format
	}
	if outputDir == "" {
		outputDir = cli.cfg.Report.OutputDir
	}

	if format == "http" {
		if baseUrl == "" {
			return nil, fmt.Errorf("--baseurl is required for http reports")
		}
		return reporters.NewDefaultHttpReporter(baseUrl), nil
	}
	return reporters.CreateReporter(format, outputDir, cli.out)
}

// loadingSpinner plays while the orchestrator is Scanning. Install
// OnStateChange as the orchestrator's state hook.
type loadingSpinner struct {
	writer      io.Writer
	description string

	bar     *utils.BarProgressReporter
	done    chan struct{}
	stopped chan struct{}
}

func (s *loadingSpinner) OnStateChange(state orchestrator.State) {
	switch state {
	case orchestrator.Scanning:
		s.start()
	case orchestrator.Idle:
		s.stop()
	}
}

func (s *loadingSpinner) start() {
	if s.done != nil {
		return
	}
	s.bar = utils.NewSpinner(s.writer, s.description)
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go func(bar *utils.BarProgressReporter, done, stopped chan struct{}) {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Increment()
			}
		}
	}(s.bar, s.done, s.stopped)
}

func (s *loadingSpinner) stop() {
	if s.done == nil {
		return
	}
	close(s.done)
	<-s.stopped
	s.bar.Finish()
	s.done = nil
}

// lockedWriter serializes writes from the spinner goroutine and notifiers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
