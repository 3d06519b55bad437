package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
	"github.com/phbpx/leadsync/feed"
	"github.com/phbpx/leadsync/handler"
	"github.com/phbpx/leadsync/reconcile"
	"github.com/phbpx/leadsync/stats"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var build = "develop"

func main() {

	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	log, err := newLog("leadsync-api")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run("leadsync-api", log); err != nil {
		log.Errorw("startup", "err", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(serverName string, log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Http struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:60s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			Host            string        `conf:"default:0.0.0.0:3000"`
		}
		DB struct {
			Kind         string `conf:"default:postgres,help:record store backend: postgres|mongo|memory"`
			URL          string `conf:"mask"`
			User         string `conf:"default:leadsvc"`
			Password     string `conf:"default:leadsvc,mask"`
			Host         string `conf:"default:localhost"`
			Name         string `conf:"default:leads"`
			MaxIdleConns int    `conf:"default:2"`
			MaxOpenConns int    `conf:"default:0"`
			DisableTLS   bool   `conf:"default:true"`
		}
		Mongo struct {
			URL            string        `conf:"default:mongodb://localhost:27017,mask"`
			Name           string        `conf:"default:leads"`
			ConnectTimeout time.Duration `conf:"default:10s"`
		}
		Feed struct {
			URL     string        `conf:"default:https://opensheet.elk.sh/1RsvlpFEVERK8myvdbQnlbt6yB2uz6gPHe9PqDpIbEdw/Sheet1"`
			Timeout time.Duration `conf:"default:30s"`
		}
		Jaeger struct {
			Enabled     bool   `conf:"default:false"`
			ReporterURI string `conf:"default:http://localhost:14268/api/traces"`
			ServiceName string `conf:"default:leadsync-api"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "lead sync service",
		},
	}

	const prefix = "LEAD"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Record Store Support

	log.Infow("startup", "status", "initializing record store", "kind", cfg.DB.Kind)

	st, err := openStores(context.Background(), storeConfig{
		Kind:              cfg.DB.Kind,
		PostgresURL:       cfg.DB.URL,
		PostgresUser:      cfg.DB.User,
		PostgresPassword:  cfg.DB.Password,
		PostgresHost:      cfg.DB.Host,
		PostgresName:      cfg.DB.Name,
		PostgresMaxIdle:   cfg.DB.MaxIdleConns,
		PostgresMaxOpen:   cfg.DB.MaxOpenConns,
		PostgresNoTLS:     cfg.DB.DisableTLS,
		MongoURL:          cfg.Mongo.URL,
		MongoName:         cfg.Mongo.Name,
		MongoConnectLimit: cfg.Mongo.ConnectTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("opening record store: %w", err)
	}
	defer func() {
		log.Infow("shutdown", "status", "stopping record store", "kind", cfg.DB.Kind)
		st.close()
	}()

	// =========================================================================
	// Start Tracing Support

	if cfg.Jaeger.Enabled {
		log.Infow("startup", "status", "initializing OT/Jaeger tracing support")

		traceProvider, err := startTracing(
			cfg.Jaeger.ServiceName,
			cfg.Jaeger.ReporterURI,
		)
		if err != nil {
			return fmt.Errorf("starting tracing: %w", err)
		}
		defer traceProvider.Shutdown(context.Background())
	}

	// =========================================================================
	// Create router

	log.Infow("startup", "status", "initializing router")

	otelLog := otelzap.New(log.Desugar(), otelzap.WithStackTrace(true)).Sugar()

	feedClient := feed.NewClient(cfg.Feed.URL, cfg.Feed.Timeout)
	reconciler := reconcile.New(st.leads, otelLog)
	aggregator := stats.NewAggregator(st.leads)

	router := handler.NewRouter(serverName, handler.Handlers{
		Leads:  handler.NewLeadHandler(feedClient, reconciler, aggregator, st.leads, otelLog),
		Status: handler.NewStatusHandler(st.checks, otelLog),
		Health: handler.NewHealthHandler(map[string]handler.CheckFunc{
			"store": st.check,
		}, 5*time.Second),
	})

	// =========================================================================
	// Start API Server

	log.Infow("startup", "status", "initializing http server", "host", cfg.Http.Host)

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// The HTTP Server
	server := &http.Server{
		Addr:         cfg.Http.Host,
		Handler:      router,
		ReadTimeout:  cfg.Http.ReadTimeout,
		WriteTimeout: cfg.Http.WriteTimeout,
		IdleTimeout:  cfg.Http.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- server.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func newLog(serviceName string) (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
	}

	log, err := config.Build()
	if err != nil {
		return nil, err
	}

	return log.Sugar(), nil
}

func startTracing(serviceName, reporterURL string) (*tracesdk.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(reporterURL)))
	if err != nil {
		return nil, fmt.Errorf("creating new exporter: %w", err)
	}

	tp := tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.AlwaysSample()),
		// Always be sure to batch in production.
		tracesdk.WithBatcher(exp,
			tracesdk.WithMaxExportBatchSize(tracesdk.DefaultMaxExportBatchSize),
			tracesdk.WithBatchTimeout(tracesdk.DefaultScheduleDelay*time.Millisecond),
		),
		// Record information about this application in a Resource.
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("exporter", "jaeger"),
		)),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}
