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
	"strconv"
	"strings"
	"syscall"

	"github.com/nao1215/validity/internal/config"
	"github.com/nao1215/validity/internal/database"
	"github.com/nao1215/validity/internal/fetch"
	"github.com/nao1215/validity/internal/inference"
	"github.com/nao1215/validity/internal/log"
	"github.com/nao1215/validity/internal/metrics"
	"github.com/nao1215/validity/internal/model"
	"github.com/nao1215/validity/internal/pipeline"
	"github.com/nao1215/validity/internal/report"
	"github.com/nao1215/validity/internal/scorer"
	"github.com/nao1215/validity/internal/tor"
	"github.com/spf13/cobra"
)

var (
	// errEvaluationFailed makes the process exit non-zero after a failed
	// evaluation. The report itself already carries the cause.
	errEvaluationFailed = errors.New("evaluation failed")

	errInvalidWeightList = errors.New("invalid --weights: expected a preset name or five comma-separated numbers")
)

// NewRateCmd creates the rate command.
func NewRateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate <query> <url>",
		Short: "Rate a web page for a search query",
		Long: `Rate fetches the page, extracts its <p> text and computes the validity score.

Components that need an API key score 0 when the key is missing:
  fact-check  VALIDITY_FACTCHECK_API_KEY or "validity auth set factcheck"
  citation    VALIDITY_SERPAPI_KEY or "validity auth set serpapi"

Examples:
  # Rate a page with the balanced weights
  validity rate "Does coffee cause dehydration?" https://example.org/coffee

  # Only look at relevance and bias
  validity rate -w relevance "climate change" https://example.org/article

  # Custom weights: domain trust, relevance, fact-check, bias, citation
  validity rate -w 0.4,0.4,0.2,0,0 "vaccines" https://example.org/

  # Keep scoring when the page is unreachable
  validity rate --on-fetch-error degrade "query" https://unreachable.example/

  # JSON report with metadata, written to a file
  validity rate --json --detailed -o report.json "query" https://example.org/`,
		Args: cobra.ExactArgs(2),
		RunE: runRateCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for fetching the page")
	cmd.Flags().Duration("inference-timeout", config.DefaultInferenceTimeout,
		"Timeout for each model server request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with the page request")
	cmd.Flags().String("on-fetch-error", string(config.FetchPolicyFail),
		`Fetch error policy: "fail" reports only the error, "degrade" keeps scoring`)
	cmd.Flags().StringP("weights", "w", model.PresetBalanced,
		"Weight preset ("+strings.Join(model.PresetNames(), ", ")+") or five comma-separated weights")

	cmd.Flags().String("embedding-url", config.DefaultEmbeddingURL,
		"Base URL of the sentence embedding server")
	cmd.Flags().String("classifier-url", config.DefaultClassifierURL,
		"Base URL of the sentiment classification server")

	cmd.Flags().Bool("no-trust-db", false,
		"Do not read domain trust scores from the SQLite database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the domain trust database")

	cmd.Flags().StringP("proxy", "e", "",
		"Fetch through an external Tor SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Fetch through an embedded Tor daemon")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .validity in current or home directory)")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().Bool("detailed", false,
		"Wrap the JSON scores with evaluation metadata (implies --json)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics in node-exporter textfile format")
	cmd.Flags().String("log-format", log.FormatText,
		`Log format on stderr: "text" or "json"`)

	return cmd
}

func runRateCmd(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	logger, err := log.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if err := cfg.ResolveCredentials(); err != nil {
		logger.Warn("could not read credentials from keyring", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runRate(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildConfig layers defaults, the configuration file and the flags the
// user set explicitly.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Query = args[0]
	cfg.URL = args[1]
	cfg.Verbose = getVerboseFlag(cmd)

	flags := cmd.Flags()
	var err error

	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		f, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		if err := f.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("inference-timeout") {
		if cfg.InferenceTimeout, err = flags.GetDuration("inference-timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("on-fetch-error") {
		s, err := flags.GetString("on-fetch-error")
		if err != nil {
			return nil, err
		}
		if cfg.FetchPolicy, err = config.ParseFetchPolicy(s); err != nil {
			return nil, err
		}
	}
	if flags.Changed("weights") {
		s, err := flags.GetString("weights")
		if err != nil {
			return nil, err
		}
		if cfg.Weights, err = parseWeights(s); err != nil {
			return nil, err
		}
	}
	if flags.Changed("embedding-url") {
		if cfg.EmbeddingURL, err = flags.GetString("embedding-url"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("classifier-url") {
		if cfg.ClassifierURL, err = flags.GetString("classifier-url"); err != nil {
			return nil, err
		}
	}

	noTrustDB, err := flags.GetBool("no-trust-db")
	if err != nil {
		return nil, err
	}
	if noTrustDB {
		cfg.UseTrustDB = false
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UseEmbeddedTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.DetailedJSON, err = flags.GetBool("detailed"); err != nil {
		return nil, err
	}
	if cfg.DetailedJSON {
		cfg.JSONReport = true
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.LogFormat, err = flags.GetString("log-format"); err != nil {
		return nil, err
	}
	if cfg.MetricsFile, err = flags.GetString("metrics-file"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseWeights accepts a preset name or the five weights in report order:
// domain trust, relevance, fact-check, bias, citation.
func parseWeights(s string) (model.Weights, error) {
	if !strings.Contains(s, ",") {
		return model.Preset(strings.TrimSpace(s))
	}

	parts := strings.Split(s, ",")
	if len(parts) != len(model.Components()) {
		return model.Weights{}, fmt.Errorf("%w: got %d values", errInvalidWeightList, len(parts))
	}
	v := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.Weights{}, fmt.Errorf("%w: %q", errInvalidWeightList, p)
		}
		v[i] = f
	}

	w := model.Weights{
		DomainTrust: v[0],
		Relevance:   v[1],
		FactCheck:   v[2],
		Bias:        v[3],
		Citation:    v[4],
	}
	if err := w.Validate(); err != nil {
		return model.Weights{}, err
	}
	return w, nil
}

// runRate wires the collaborators, evaluates the page and writes the report.
func runRate(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	torClient, stopTor, err := setupTor(ctx, cfg, stderr, logger)
	if err != nil {
		return err
	}
	defer stopTor()

	fetcher := fetch.New(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithTorClient(torClient),
		fetch.WithLogger(logger),
	)

	inferenceOpts := []inference.Option{
		inference.WithTimeout(cfg.InferenceTimeout),
		inference.WithToken(cfg.InferenceToken),
		inference.WithLogger(logger),
	}
	embedder, err := inference.New(cfg.EmbeddingURL, inferenceOpts...)
	if err != nil {
		return fmt.Errorf("embedding server: %w", err)
	}
	classifier, err := inference.New(cfg.ClassifierURL, inferenceOpts...)
	if err != nil {
		return fmt.Errorf("classifier server: %w", err)
	}

	truster, closeDB := buildDomainTruster(cfg, logger)
	defer closeDB()

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.New()
	}

	p, err := pipeline.DefaultPipeline(pipeline.Dependencies{
		Fetcher:         fetcher,
		FetchPolicy:     cfg.FetchPolicy,
		DomainTruster:   truster,
		Embedder:        embedder,
		Classifier:      classifier,
		BiasPolicy:      scorer.NewBiasPolicy(cfg.BiasLabels, cfg.BiasFallback),
		FactChecker:     buildFactChecker(cfg, logger),
		CitationCounter: buildCitationCounter(cfg, logger),
		Logger:          logger,
	}, pipeline.WithLogger(logger), pipeline.WithMetrics(recorder))
	if err != nil {
		return err
	}

	logger.Debug("evaluating page",
		"url", cfg.URL,
		"embedding", embedder.BaseURL(),
		"classifier", classifier.BaseURL(),
		"steps", p.StepNames(),
		"policy", cfg.FetchPolicy,
		"tor", fetcher.TorEnabled(),
	)
	rep := pipeline.Evaluate(ctx, p, cfg.Query, cfg.URL, cfg.Weights)

	if err := outputReport(cfg, rep, stdout); err != nil {
		return err
	}
	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}
	if rep.Failed() {
		return errEvaluationFailed
	}
	return nil
}

// buildDomainTruster chains the trust database, the configured table and
// the placeholder score. The returned func closes the database.
func buildDomainTruster(cfg *config.Config, logger *slog.Logger) (scorer.DomainTruster, func()) {
	var lookups []scorer.TrustLookup
	closeDB := func() {}

	if cfg.UseTrustDB {
		db, err := database.Open(cfg.DBDir, database.ReadOptions())
		switch {
		case err == nil:
			logger.Debug("using trust database", "path", db.Path())
			lookups = append(lookups, db)
			closeDB = func() {
				if err := db.Close(); err != nil {
					logger.Warn("failed to close trust database", "error", err)
				}
			}
		case errors.Is(err, database.ErrDatabaseNotFound):
			logger.Debug("no trust database", "dir", cfg.DBDir)
		default:
			logger.Warn("trust database unavailable", "error", err)
		}
	}
	if len(cfg.DomainTrust) > 0 {
		lookups = append(lookups, scorer.Table(cfg.DomainTrust))
	}

	return scorer.NewChain(scorer.Constant(cfg.DomainTrustDefault), lookups...), closeDB
}

func buildFactChecker(cfg *config.Config, logger *slog.Logger) scorer.FactChecker {
	if cfg.FactCheckAPIKey == "" {
		logger.Info("no fact-check API key, fact-check score is 0",
			"env", config.CredentialFactCheck.EnvVar())
		return scorer.NoFactCheck{}
	}
	return scorer.NewGoogleFactCheck(cfg.FactCheckEndpoint, cfg.FactCheckAPIKey,
		scorer.WithServiceLogger(logger)).WithLanguage(cfg.FactCheckLanguage)
}

func buildCitationCounter(cfg *config.Config, logger *slog.Logger) scorer.CitationCounter {
	if cfg.SerpAPIKey == "" {
		logger.Info("no SerpAPI key, citation score is 0",
			"env", config.CredentialSerpAPI.EnvVar())
		return scorer.NoCitations{}
	}
	return scorer.NewScholarCitations(cfg.ScholarEndpoint, cfg.SerpAPIKey,
		scorer.WithServiceLogger(logger))
}

// setupTor returns a Tor client when a proxy or the embedded daemon is
// configured, and nil otherwise. The returned func stops the daemon.
func setupTor(ctx context.Context, cfg *config.Config, status io.Writer, logger *slog.Logger) (*tor.Client, func(), error) {
	switch {
	case cfg.ProxyAddress != "":
		client, err := tor.NewClient(cfg.ProxyAddress, cfg.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
		}
		logger.Debug("using external Tor proxy", "proxy", cfg.ProxyAddress)
		return client, func() {}, nil
	case cfg.UseEmbeddedTor:
		return startEmbeddedTor(ctx, cfg, status, logger)
	default:
		return nil, func() {}, nil
	}
}

func startEmbeddedTor(ctx context.Context, cfg *config.Config, status io.Writer, logger *slog.Logger) (*tor.Client, func(), error) {
	fmt.Fprintln(status, "Starting embedded Tor daemon...")
	fmt.Fprintf(status, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embeddedTor := tor.NewEmbeddedTor(tor.WithStartupTimeout(cfg.TorStartupTimeout))
	if err := embeddedTor.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}
	stop := func() {
		if err := embeddedTor.Stop(); err != nil {
			logger.Warn("failed to stop embedded Tor", "error", err)
		}
	}
	logger.Info("embedded Tor daemon started", "socksAddr", embeddedTor.SocksAddr())

	client, err := embeddedTor.NewClient(cfg.Timeout)
	if err != nil {
		stop()
		return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
	}
	return client, stop, nil
}

// outputReport writes the report in the configured format to stdout or
// to cfg.ReportFile. With a report file, a plain text summary still goes
// to stdout.
func outputReport(cfg *config.Config, rep *model.Report, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport && cfg.DetailedJSON:
		w = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	if cfg.ReportFile != "" && (cfg.JSONReport || cfg.MarkdownReport) {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout))
	}

	if _, err := w.Write(rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
