// Command replybot runs the marketplace review-reply bot: it polls the
// marketplace event feed and answers feedback with generated replies.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"replybot/pkg/backend"
	"replybot/pkg/config"
	"replybot/pkg/logx"
	"replybot/pkg/market"
	"replybot/pkg/metrics"
	"replybot/pkg/persistence"
	"replybot/pkg/reply"
	"replybot/pkg/version"
	"replybot/pkg/webui"
)

// Ledger entries older than this are pruned at startup.
const ledgerRetentionDays = 30

func main() {
	var configPath string
	var showVersion bool
	var initSecrets bool
	var debug bool
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.BoolVar(&initSecrets, "init-secrets", false, "Provision the encrypted secrets file and exit")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if debug {
		logx.SetDebug(true)
	}

	if showVersion {
		fmt.Printf("replybot %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		return
	}

	if initSecrets {
		if err := provisionSecrets(config.SecretsFileName); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to provision secrets: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Secrets written to %s\n", config.SecretsFileName)
		return
	}

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	logger := logx.NewLogger("replybot")

	if err := run(configPath, logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// provisionSecrets prompts for the marketplace token and a password, then
// writes the encrypted secrets file next to the binary.
func provisionSecrets(path string) error {
	fmt.Fprint(os.Stderr, "Marketplace auth token: ")
	token, err := term.ReadPassword(syscall.Stdin)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if len(token) == 0 {
		return fmt.Errorf("token cannot be empty")
	}

	fmt.Fprint(os.Stderr, "Secrets password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	return config.EncryptSecrets(path, string(password), map[string]string{
		config.SecretAuthToken: string(token),
	})
}

func run(configPath string, logger *logx.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ledger, err := persistence.Open(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Warn("Failed to close state database: %v", err)
		}
	}()

	if _, err := ledger.PruneBefore(context.Background(), time.Now().AddDate(0, 0, -ledgerRetentionDays)); err != nil {
		logger.Warn("Ledger prune failed: %v", err)
	}

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)

	client, err := backend.NewClient(&cfg.Generation, recorder)
	if err != nil {
		return fmt.Errorf("failed to create generation backend: %w", err)
	}

	session := market.NewClient(cfg.Market.BaseURL, cfg.Market.AuthToken, cfg.Market.RequestTimeout)
	generator := reply.NewGenerator(client, cfg.Generation, recorder)
	prompts := reply.NewPromptBuilder(cfg.Generation.PromptTemplate)
	orchestrator := reply.NewOrchestrator(session, generator, prompts, ledger, recorder, cfg.MinRating)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Web.Enabled {
		var query *metrics.QueryService
		if cfg.Web.PrometheusURL != "" {
			query, err = metrics.NewQueryService(cfg.Web.PrometheusURL)
			if err != nil {
				return fmt.Errorf("failed to create metrics query service: %w", err)
			}
		}
		statusServer := webui.NewServer(*cfg, query)
		if err := statusServer.StartServer(ctx); err != nil {
			return fmt.Errorf("failed to start status server: %w", err)
		}
	}

	// The run id correlates log lines across restarts sharing one ledger.
	logger.Info("Starting run %s with provider=%s model=%s min_rating=%d poll_interval=%s",
		uuid.New().String(), cfg.Generation.Provider, cfg.Generation.Model, cfg.MinRating, cfg.Market.PollInterval)

	runner := market.NewRunner(session, cfg.Market.PollInterval)
	go runner.Run(ctx)

	// Events are handled sequentially. Handle never returns an error: a bad
	// event is logged and the loop moves on.
	for event := range runner.Events() {
		orchestrator.Handle(ctx, event)
	}

	logger.Info("Event feed closed, shutting down")
	return nil
}
