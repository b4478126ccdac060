package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/tendril/config"
	contactrepo "github.com/Ramsey-B/tendril/internal/repositories/contact"
	participationrepo "github.com/Ramsey-B/tendril/internal/repositories/participation"
	relationshiprepo "github.com/Ramsey-B/tendril/internal/repositories/relationship"
	relationshiptyperepo "github.com/Ramsey-B/tendril/internal/repositories/relationshiptype"
	"github.com/Ramsey-B/tendril/pkg/catalog"
	"github.com/Ramsey-B/tendril/pkg/database"
	"github.com/Ramsey-B/tendril/pkg/events"
	"github.com/Ramsey-B/tendril/pkg/graph"
	"github.com/Ramsey-B/tendril/pkg/inference"
	"github.com/Ramsey-B/tendril/pkg/ingest"
	"github.com/Ramsey-B/tendril/pkg/kafka"
	"github.com/Ramsey-B/tendril/pkg/middleware"
	"github.com/Ramsey-B/tendril/pkg/routes/health"
	inferenceroute "github.com/Ramsey-B/tendril/pkg/routes/inference"
	relationshiproute "github.com/Ramsey-B/tendril/pkg/routes/relationship"
	relationshiptyperoute "github.com/Ramsey-B/tendril/pkg/routes/relationshiptype"
	"github.com/Ramsey-B/tendril/pkg/scoring"
	"github.com/Ramsey-B/tendril/pkg/startup"
	"github.com/Ramsey-B/tendril/pkg/tracing"
	"github.com/Ramsey-B/tendril/pkg/tracing/exporters"
)

// Version is set at build time.
var Version = "dev"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg)

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(&exporters.ConsoleExporter{}))
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)
	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}

	db := database.NewDatabaseInstance(sqlxDB, logger)
	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	migrationDriver, err := postgres.WithInstance(sqlxDB.DB, &postgres.Config{})
	if err != nil {
		logger.WithError(err).Error("failed to create migration driver")
		os.Exit(1)
	}
	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
	})
	if err := migrations.Migrate(cfg.DatabaseName, migrationDriver); err != nil {
		logger.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	emitter := events.NewEmitter(producer, logger)

	typeRepo := relationshiptyperepo.NewRepository(db, logger)
	relRepo := relationshiprepo.NewRepository(db, logger)
	contactRepo := contactrepo.NewRepository(db, logger)
	participationRepo := participationrepo.NewRepository(db, logger)

	catalogSvc := catalog.NewService(typeRepo, relRepo, logger)
	pairer := graph.NewPairer(relRepo, logger)
	graphSvc := graph.NewService(catalogSvc, relRepo, pairer, emitter, logger)
	scorer := scoring.NewScorer(scoring.Config{
		MaxConversations: cfg.ScoringMaxConversations,
		MaxMessages:      cfg.ScoringMaxMessages,
		RecencyFullDays:  cfg.ScoringRecencyFullDays,
		RecencyFloorDays: cfg.ScoringRecencyFloorDays,
		RecencyFloor:     scoring.DefaultConfig().RecencyFloor,
	})
	reconciler := inference.NewReconciler(contactRepo, participationRepo, relRepo, catalogSvc, pairer, scorer, emitter, logger)

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		logger.WithError(err).Error("failed to create DI container")
		os.Exit(1)
	}
	mustRegister(logger, ectoinject.RegisterInstance[ectologger.Logger](container, logger))
	mustRegister(logger, ectoinject.RegisterInstance[database.DB](container, db))
	mustRegister(logger, ectoinject.RegisterInstance[*catalog.Service](container, catalogSvc))
	mustRegister(logger, ectoinject.RegisterInstance[*graph.Service](container, graphSvc))
	mustRegister(logger, ectoinject.RegisterInstance[*inference.Reconciler](container, reconciler))

	factConsumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaFactsTopic,
		ConsumerGroup: cfg.KafkaFactsConsumerGroup,
	}, logger, ingest.NewFactIngestor(participationRepo, logger).Handle)
	contactConsumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaContactTopic,
		ConsumerGroup: cfg.KafkaContactConsumerGroup,
	}, logger, ingest.NewContactIngestor(contactRepo, logger).Handle)

	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, err := ectoinject.SetActiveContainer(c.Request().Context(), container.GetContainerID())
			if err != nil {
				return err
			}
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	api := e.Group("/api/v1")
	relationshiptyperoute.Register(api.Group("/relationship-types"))
	relationshiproute.Register(api.Group("/relationships"))
	inferenceroute.Register(api.Group("/inference"))

	checker := health.NewChecker(db, map[string]health.ConsumerHealth{
		"facts":    factConsumer,
		"contacts": contactConsumer,
	}, Version)
	checker.RegisterRoutes(e)

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&startup.Dep{
		Name: "database",
		StartFn: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
		StopFn: func(ctx context.Context) error {
			return db.Close()
		},
	})
	if cfg.KafkaConsumerEnabled {
		boot.AddDependency(&startup.Dep{
			Name:    "kafka-facts-consumer",
			Deps:    []string{"database"},
			StartFn: factConsumer.Start,
			StopFn: func(ctx context.Context) error {
				return factConsumer.Stop()
			},
		})
		boot.AddDependency(&startup.Dep{
			Name:    "kafka-contact-consumer",
			Deps:    []string{"database"},
			StartFn: contactConsumer.Start,
			StopFn: func(ctx context.Context) error {
				return contactConsumer.Stop()
			},
		})
	}
	boot.AddDependency(&startup.Dep{
		Name: "http-server",
		Deps: []string{"database"},
		StartFn: func(ctx context.Context) error {
			go func() {
				addr := fmt.Sprintf(":%d", cfg.Port)
				if err := e.Start(addr); err != nil && !strings.Contains(err.Error(), "Server closed") {
					logger.WithError(err).Error("http server stopped")
					os.Exit(1)
				}
			}()
			return nil
		},
		StopFn: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("startup failed")
		os.Exit(1)
	}
	checker.SetReady(true)
	logger.Infof("%s listening on port %d", cfg.AppName, cfg.Port)

	<-ctx.Done()
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Error("failed to close kafka producer")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down tracer provider")
	}
}

// newLogger builds the ectologger facade over a zap core.
func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	return ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		fields := make([]zap.Field, 0, len(msg.Fields)+1)
		for k, v := range msg.Fields {
			fields = append(fields, zap.Any(k, v))
		}
		if msg.Err != nil {
			fields = append(fields, zap.Error(msg.Err))
		}

		switch strings.ToLower(fmt.Sprint(msg.Level)) {
		case "debug":
			zapLogger.Debug(msg.Message, fields...)
		case "warn", "warning":
			zapLogger.Warn(msg.Message, fields...)
		case "error":
			zapLogger.Error(msg.Message, fields...)
		case "fatal":
			zapLogger.Fatal(msg.Message, fields...)
		default:
			zapLogger.Info(msg.Message, fields...)
		}
	})
}

func mustRegister(logger ectologger.Logger, err error) {
	if err != nil {
		logger.WithError(err).Error("failed to register dependency")
		os.Exit(1)
	}
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
