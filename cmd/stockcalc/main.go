package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/trogers1052/stock-calculator/internal/api"
	"github.com/trogers1052/stock-calculator/internal/cache"
	"github.com/trogers1052/stock-calculator/internal/cli"
	"github.com/trogers1052/stock-calculator/internal/config"
	"github.com/trogers1052/stock-calculator/internal/database"
	"github.com/trogers1052/stock-calculator/internal/kafka"
	"github.com/trogers1052/stock-calculator/internal/ledger"
	"github.com/trogers1052/stock-calculator/internal/logger"
	"github.com/trogers1052/stock-calculator/internal/server"
)

var dbURL = flag.String("db", "", "Storage location: SQLite file, :memory: or postgres:// URL (overrides DATABASE_URL)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	commander.Register(commander.CommandsCommand(), "help")

	app := &cli.App{}
	cli.Register(commander, app)

	flag.Parse()
	os.Exit(run(commander, app))
}

func run(commander *subcommands.Commander, app *cli.App) int {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{})
		fallback.Error().Err(err).Msg("Failed to load configuration")
		return int(subcommands.ExitFailure)
	}
	if *dbURL != "" {
		cfg.Database.URL = *dbURL
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)

	db, err := database.New(database.Config{URL: cfg.Database.URL})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return int(subcommands.ExitFailure)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Error().Err(err).Msg("Failed to run migrations")
		return int(subcommands.ExitFailure)
	}

	var publisher ledger.EventPublisher
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		defer producer.Close()
		publisher = producer
	}

	l := ledger.New(db, publisher, log)

	app.Ledger = l
	app.Currency = cfg.Currency
	app.Serve = func(ctx context.Context) error {
		return serve(ctx, cfg, l, log)
	}

	return int(commander.Execute(context.Background()))
}

func serve(ctx context.Context, cfg *config.Config, l *ledger.Ledger, log zerolog.Logger) error {
	var consumer server.Runner
	if cfg.Kafka.Enabled() {
		var dedupe kafka.Deduplicator
		if cfg.Redis.Enabled() {
			client, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				return err
			}
			defer client.Close()
			dedupe = cache.NewDeduplicator(client, cfg.Redis.DedupeTTL)
		} else {
			log.Warn().Msg("REDIS_ADDR not set, ledger commands will not be de-duplicated")
		}
		consumer = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.CommandsTopic, cfg.Kafka.GroupID, l, dedupe, log)
	}

	srv := server.New(server.Config{
		Addr:     cfg.Server.Address(),
		Handler:  api.NewHandler(l, log),
		Consumer: consumer,
		Log:      log,
	})

	log.Info().
		Str("addr", cfg.Server.Address()).
		Str("storage", l.StorageLocation()).
		Bool("kafka", cfg.Kafka.Enabled()).
		Msg("Starting stock calculator")

	return srv.Run(ctx)
}
