package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spacesedan/textflow/config"
	"github.com/spacesedan/textflow/internal/analysis"
	"github.com/spacesedan/textflow/internal/cache"
	"github.com/spacesedan/textflow/internal/clients"
	"github.com/spacesedan/textflow/internal/clients/kafka_client"
	"github.com/spacesedan/textflow/internal/db"
	"github.com/spacesedan/textflow/internal/langdetect"
	"github.com/spacesedan/textflow/internal/logging"
	"github.com/spacesedan/textflow/internal/models"
	"github.com/spacesedan/textflow/internal/processing"
)

func main() {
	os.Exit(run())
}

func run() int {
	envName := flag.String("env", "", "Environment name used to pick config/envs/.env.<name> (defaults to APP_ENV or dev)")
	only := flag.String("only", "", "Comma separated operations to run (sentiment, opinion-mining, entities, linked-entities, language-detection, key-phrases)")
	flag.Parse()

	env := strings.TrimSpace(*envName)
	if env == "" {
		env = os.Getenv("APP_ENV")
	}
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		logging.InitLogger("info")
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		return 1
	}
	logging.InitLogger(cfg.LogLevel)

	kinds, err := parseKinds(*only)
	if err != nil {
		slog.Error("Invalid -only flag", slog.String("error", err.Error()))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, closeAnalyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create analyzer", slog.String("error", err.Error()))
		return 1
	}
	defer closeAnalyzer()

	if cfg.ValkeyAddress != "" {
		vc, err := clients.NewValkeyClient(ctx, clients.ValkeyConfig{
			Address:  cfg.ValkeyAddress,
			Password: cfg.ValkeyPassword,
			UseTLS:   cfg.ValkeyTLS,
		})
		if err != nil {
			slog.Warn("Result cache disabled", slog.String("error", err.Error()))
		} else {
			defer vc.Close()
			analyzer = cache.New(analyzer, vc, cfg.CacheTTL)
		}
	}

	sinks, closeSinks := newSinks(ctx, cfg)
	defer closeSinks()

	invoker := analysis.NewInvoker(analyzer, analysis.WithSinks(sinks...))
	tasks := processing.FilterTasks(processing.DefaultTasks(cfg.Language, cfg.ModelVersion), kinds)

	slog.Info("Running text analysis demo",
		slog.String("environment", cfg.Environment),
		slog.String("backend", invoker.Backend()),
		slog.Int("operations", len(tasks)))

	summary, err := processing.Run(ctx, invoker, tasks, os.Stdout, os.Stderr)
	slog.Info("Demo finished",
		slog.Int("succeeded", len(summary.Succeeded)),
		slog.Int("skipped", len(summary.Skipped)),
		slog.Int("failed", len(summary.Failed)))
	if err != nil {
		return 1
	}
	return 0
}

func newAnalyzer(ctx context.Context, cfg *config.Config) (analysis.Analyzer, func(), error) {
	switch cfg.Backend {
	case config.BackendGoogle:
		gc, err := clients.NewGoogleLanguageClient(ctx, cfg.GoogleCredentials)
		if err != nil {
			return nil, nil, err
		}
		return gc, func() { _ = gc.Close() }, nil
	case config.BackendLocal:
		detector := langdetect.New(langdetect.ParseLanguages(cfg.LocalLanguages)...)
		return clients.NewLocalClient(detector), func() {}, nil
	default:
		ac, err := clients.NewAzureClient(cfg.AzureEndpoint, cfg.AzureKey)
		if err != nil {
			return nil, nil, err
		}
		return ac, func() {}, nil
	}
}

// newSinks builds the optional result sinks. A sink that cannot start is
// logged and left out.
func newSinks(ctx context.Context, cfg *config.Config) ([]analysis.Sink, func()) {
	var (
		sinks   []analysis.Sink
		closers []func()
	)

	if cfg.ArchiveTable != "" {
		client, err := clients.NewDynamoDBClient(ctx, clients.AWSConfig{
			Region:   cfg.AWSRegion,
			Endpoint: cfg.AWSEndpoint,
		})
		if err != nil {
			slog.Warn("DynamoDB archive disabled", slog.String("error", err.Error()))
		} else {
			sinks = append(sinks, db.NewArchive(client, cfg.ArchiveTable))
		}
	}

	if cfg.KafkaBroker != "" {
		publisher, err := kafka_client.NewResultsPublisher(kafka_client.KafkaConfig{
			Broker: cfg.KafkaBroker,
			Topic:  cfg.KafkaResultsTopic,
		})
		if err != nil {
			slog.Warn("Kafka publisher disabled", slog.String("error", err.Error()))
		} else {
			sinks = append(sinks, publisher)
			closers = append(closers, publisher.Close)
		}
	}

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}

func parseKinds(raw string) ([]models.Kind, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var kinds []models.Kind
	for _, part := range strings.Split(raw, ",") {
		kind, err := models.ParseKind(part)
		if err != nil {
			return nil, fmt.Errorf("parse -only: %w", err)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
