package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/packsight/packsight/internal/config"
	"github.com/packsight/packsight/internal/httpserver"
	"github.com/packsight/packsight/internal/models"
	"github.com/packsight/packsight/internal/notify"
	"github.com/packsight/packsight/internal/pipeline"
	"github.com/packsight/packsight/internal/sink"
	"github.com/packsight/packsight/internal/source"
	"github.com/packsight/packsight/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := log.New(os.Stdout, "[packsight] ", log.LstdFlags)

	orders, catalog, st := buildSources(cfg, logger)
	out := buildSink(cfg, logger)
	notifier := buildNotifier(cfg, logger)

	coord := pipeline.NewCoordinator(orders, catalog, out, notifier, logger)
	registry := pipeline.NewRegistry()
	registry.Register(pipeline.DefaultPipelineID, coord)

	server := httpserver.New(registry, st, httpserver.NewVerifier(cfg.AuthSecret), httpserver.RunDefaults{
		Categories: cfg.Categories,
		MaxOrders:  cfg.MaxOrders,
	}, logger)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Router(),
	}

	go func() {
		logger.Printf("packsight service listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	if cfg.RunOnStart {
		go runOnce(coord, st, cfg, logger)
	}

	waitForShutdown(httpServer)
}

// buildSources picks Postgres-backed sources and run store when a database is
// configured, file-backed ones otherwise. A Redis URL wraps the catalog
// source in a shared cache either way.
func buildSources(cfg config.Config, logger *log.Logger) (source.OrderSource, source.CatalogSource, store.Store) {
	var (
		orders  source.OrderSource
		catalog source.CatalogSource
		st      store.Store
	)

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		if err := db.Ping(); err != nil {
			log.Fatalf("ping db: %v", err)
		}
		orders = source.NewPGOrderSource(db)
		catalog = source.NewPGCatalogSource(db)
		st = store.NewPGStore(db)
		logger.Printf("using postgres sources")
	} else {
		orders = source.NewFileOrderSource(cfg.ResourceDir, cfg.EncryptionKey)
		catalog = source.NewFileCatalogSource(cfg.ResourceDir)
		st = store.NewMemoryStore()
		logger.Printf("using file sources under %s", cfg.ResourceDir)
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("parse redis url: %v", err)
		}
		catalog = source.NewCachedCatalogSource(catalog, redis.NewClient(opts), cfg.CatalogCacheTTL, logger)
		logger.Printf("catalog cache enabled (ttl=%s)", cfg.CatalogCacheTTL)
	}

	return orders, catalog, st
}

func buildSink(cfg config.Config, logger *log.Logger) sink.Sink {
	fileSink, err := sink.NewFileSink(cfg.DataDir)
	if err != nil {
		log.Fatalf("init file sink: %v", err)
	}
	sinks := []sink.Sink{fileSink}

	if cfg.S3Bucket != "" {
		s3Sink, err := sink.NewS3Sink(context.Background(), cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			log.Fatalf("init s3 sink: %v", err)
		}
		sinks = append(sinks, s3Sink)
		logger.Printf("archiving artifacts to s3://%s/%s", cfg.S3Bucket, cfg.S3Prefix)
	}

	if len(sinks) == 1 {
		return sinks[0]
	}
	return sink.NewMultiSink(sinks...)
}

func buildNotifier(cfg config.Config, logger *log.Logger) notify.Notifier {
	var notifiers []notify.Notifier

	if cfg.WebhookURL != "" {
		webhook, err := notify.NewWebhookNotifier(notify.WebhookConfig{URL: cfg.WebhookURL})
		if err != nil {
			log.Fatalf("init webhook notifier: %v", err)
		}
		notifiers = append(notifiers, webhook)
		logger.Printf("webhook delivery enabled")
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic != "" {
		producer, err := notify.NewKafkaNotifier(notify.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			log.Fatalf("init kafka notifier: %v", err)
		}
		notifiers = append(notifiers, producer)
		logger.Printf("kafka delivery enabled (topic=%s)", cfg.KafkaTopic)
	}

	switch len(notifiers) {
	case 0:
		return notify.NopNotifier{}
	case 1:
		return notifiers[0]
	default:
		return notify.NewMultiNotifier(notifiers...)
	}
}

// runOnce executes one pipeline run at startup, recorded like any other run.
func runOnce(coord *pipeline.Coordinator, st store.Store, cfg config.Config, logger *log.Logger) {
	ctx := context.Background()
	run, err := st.CreateRun(ctx, store.RunInput{
		Pipeline:   pipeline.DefaultPipelineID,
		Categories: cfg.Categories,
		MaxOrders:  cfg.MaxOrders,
	})
	if err != nil {
		logger.Printf("startup run: %v", err)
		return
	}
	results, err := coord.Run(ctx, cfg.Categories, cfg.MaxOrders)
	status := pipeline.OverallStatus(results)
	if err != nil {
		logger.Printf("startup run %s: %v", run.ID, err)
		status = models.RunStatusFailed
	}
	if _, err := st.FinishRun(ctx, run.ID, status, results); err != nil {
		logger.Printf("finish startup run %s: %v", run.ID, err)
	}
}

func waitForShutdown(srv *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
