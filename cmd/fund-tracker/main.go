package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/STTM-NSU/fund-tracker/internal/config"
	"github.com/STTM-NSU/fund-tracker/internal/logger"
	"github.com/STTM-NSU/fund-tracker/internal/postgres"
	"github.com/STTM-NSU/fund-tracker/internal/trace"
	"github.com/google/subcommands"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
)

const (
	_cfgFilePath = "./configs/fund-tracker.yaml"
	_version     = "0.1.0"
)

var cfgPath = flag.String("config", _cfgFilePath, "Path to the YAML config file")

// app carries what every subcommand needs.
type app struct {
	cfg    config.Config
	logger logger.Logger
	db     *sqlx.DB
}

func main() {
	os.Exit(int(run()))
}

func run() subcommands.ExitStatus {
	commander := subcommands.NewCommander(flag.CommandLine, os.Args[0])
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&syncCmd{}, "prices")
	commander.Register(&backfillCmd{}, "prices")
	commander.Register(&enrichCmd{}, "prices")

	commander.Register(&portfolioCmd{}, "reports")
	commander.Register(&realizedCmd{}, "reports")
	commander.Register(&serveCmd{}, "reports")

	commander.Register(&investCmd{}, "ledger")
	commander.Register(&redeemCmd{}, "ledger")
	commander.Register(&correctCmd{}, "ledger")
	commander.Register(&deleteCmd{}, "ledger")
	commander.Register(&recomputeCmd{}, "ledger")

	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch flag.Arg(0) {
	case "", "help", "flags", "commands":
		return commander.Execute(ctx)
	}

	a, cleanup := setup()
	defer cleanup()

	return commander.Execute(ctx, a)
}

func setup() (*app, func()) {
	bootLogger, bootSync, err := logger.NewZapLogger(logger.Info)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	if err := godotenv.Load(); err != nil {
		bootLogger.Warnf("can't detect .env file")
	}

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		bootLogger.Warnf("%s: using default config", err)
		cfg = config.Default()
	}
	bootSync()

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%s: bad log level", err)
	}
	zapLogger, loggerSync, err := logger.NewZapLogger(level)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}

	if cfg.Tracing {
		if err := trace.Init(os.Stderr, _version); err != nil {
			zapLogger.Warnf("%s: can't init tracing", err)
		}
	}

	pgConfig := postgres.NewConfigFromEnv().Setup()
	zapLogger.Debugf("trying to connect to db: %s", pgConfig.Redacted())
	db, err := postgres.NewDB(context.Background(), pgConfig)
	if err != nil {
		zapLogger.Fatalf("%s: can't connect to db", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			zapLogger.Errorf("%s: can't close db", err)
		}
		if err := trace.Shutdown(context.Background()); err != nil {
			zapLogger.Errorf("%s: can't flush traces", err)
		}
		loggerSync()
	}

	return &app{cfg: cfg, logger: zapLogger, db: db}, cleanup
}

func appFrom(args []interface{}) *app {
	if len(args) == 0 {
		return nil
	}
	a, _ := args[0].(*app)
	return a
}
