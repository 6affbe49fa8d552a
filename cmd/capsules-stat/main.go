package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"capsules-stat/internal/common"
	"capsules-stat/internal/services"
)

const (
	pluginName = "capsules-stat"
	tokenEnv   = "GITLAB_ACCESS_TOKEN"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout io.Writer) int {
	fs := flag.NewFlagSet(pluginName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configPath     = fs.String("config", "", "Path to configuration file")
		gitlabURI      = fs.String("gitlab_uri", common.DefaultGitLabURI, "URI of the Gitlab instance")
		projectID      = fs.Int64("gitlab_project_id", common.DefaultProjectID, "Gitlab Project ID")
		traces         = fs.String("traces", common.DefaultOutputDir, "Where to place traces")
		startPage      = fs.Int("start_page", common.DefaultStartPage, "Starting page")
		quiet          = fs.Bool("quiet", false, "Suppress banner output")
		version        = fs.Bool("version", false, "Show version information")
		help           = fs.Bool("help", false, "Show help message")
		validateConfig = fs.Bool("validate", false, "Validate configuration and exit")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			showHelp(stdout)
			return 0
		}
		fmt.Fprintf(os.Stderr, "Invalid arguments: %v\n", err)
		showHelp(stdout)
		return 2
	}

	if *version {
		fmt.Fprintf(stdout, "%s v%s (commit: %s)\n", pluginName, common.GetFullVersion(), common.GetGitCommit())
		return 0
	}

	if *help {
		showHelp(stdout)
		return 0
	}

	cfg, err := common.ReadConfig(*configPath, getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	// Explicit flags win over the file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "gitlab_uri":
			cfg.GitLab.URI = *gitlabURI
		case "gitlab_project_id":
			cfg.GitLab.ProjectID = *projectID
		case "traces":
			cfg.Export.OutputDir = *traces
		case "start_page":
			cfg.Export.StartPage = *startPage
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	if *validateConfig {
		fmt.Fprintln(stdout, "Configuration is valid")
		return 0
	}

	token := getenv(tokenEnv)
	if token == "" {
		err := common.NewConfigurationError("TOKEN_MISSING", tokenEnv+" is not set")
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}

	if err := common.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	logger := common.GetLogger()

	logger.Info().
		Str("version", common.GetVersion()).
		Str("build", common.GetBuild()).
		Str("gitlab_uri", cfg.GitLab.URI).
		Msg("Starting capsules-stat trace export")

	if !*quiet {
		common.PrintBanner(pluginName, cfg, *configPath, common.GetLogFilePath())
	}

	storage, err := services.NewStorage(&cfg.Storage)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize storage")
		return 1
	}
	defer storage.Close()

	client := services.NewGitLabClient(&cfg.GitLab, token, logger)

	project, err := client.GetProject(ctx, cfg.GitLab.ProjectID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve project")
		return 1
	}

	logger.Info().
		Str("project", project.PathWithNamespace).
		Str("output_dir", cfg.Export.OutputDir).
		Int("start_page", cfg.Export.StartPage).
		Msg("Project resolved")

	if last, err := storage.GetLastRun(project.ID); err != nil {
		logger.Warn().Err(err).Msg("Failed to read previous run")
	} else if last != nil {
		logger.Info().
			Int("start_page", last.StartPage).
			Int("end_page", last.EndPage).
			Int("traces_written", last.TracesWritten).
			Str("finished", last.FinishedAt.Format("2006-01-02 15:04")).
			Msg("Previous run")
	}

	if exported, err := storage.LoadExports(project.ID); err != nil {
		logger.Warn().Err(err).Msg("Failed to read export ledger")
	} else {
		logger.Info().Int("traces", len(exported)).Msg("Ledger loaded")
	}

	exporter := services.NewExporter(&cfg.Export, client, storage, logger)
	summary, err := exporter.Export(ctx, project)
	if err != nil {
		logger.Error().Err(err).Msg("Export failed")
		if !*quiet {
			common.PrintError(fmt.Sprintf("Export stopped after %d pages: %v", summary.PagesRequested, err))
		}
		return 1
	}

	logger.Info().
		Int("pages", summary.PagesRequested).
		Int("jobs_seen", summary.JobsSeen).
		Int("traces_written", summary.TracesWritten).
		Dur("duration", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("Export complete")

	if !*quiet {
		common.PrintSuccess(fmt.Sprintf("Exported %d traces from %d pages", summary.TracesWritten, summary.PagesRequested))
	}

	return 0
}

func showHelp(w io.Writer) {
	fmt.Fprintf(w, "%s v%s - GitLab CI trace exporter\n\n", pluginName, common.GetVersion())
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s [flags]\n\n", pluginName)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -gitlab_uri string         URI of the Gitlab instance (default \"https://gitlab.com\")")
	fmt.Fprintln(w, "  -gitlab_project_id int     Gitlab Project ID (default 25333072)")
	fmt.Fprintln(w, "  -traces string             Where to place traces (default \"traces\")")
	fmt.Fprintln(w, "  -start_page int            Starting page (default 1)")
	fmt.Fprintln(w, "  -config string             Configuration file path")
	fmt.Fprintln(w, "  -quiet                     Suppress banner output")
	fmt.Fprintln(w, "  -version                   Show version information")
	fmt.Fprintln(w, "  -help                      Show help message")
	fmt.Fprintln(w, "  -validate                  Validate configuration and exit")
	fmt.Fprintln(w, "\nEnvironment:")
	fmt.Fprintf(w, "  %s        Personal access token (required)\n", tokenEnv)
	fmt.Fprintln(w, "\nExamples:")
	fmt.Fprintf(w, "  %s                                  # Export 100 pages from page 1\n", pluginName)
	fmt.Fprintf(w, "  %s -start_page 101                  # Continue where the last run stopped\n", pluginName)
	fmt.Fprintf(w, "  %s -config /path/to/config.toml     # Use custom config file\n", pluginName)
}
