package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fishball-groupbuy/internal/config"
	"fishball-groupbuy/internal/db"
	"fishball-groupbuy/internal/groupbuy"
	httpapi "fishball-groupbuy/internal/http"
	"fishball-groupbuy/internal/logger"
	"fishball-groupbuy/internal/queue"
	"fishball-groupbuy/internal/store"
	"fishball-groupbuy/internal/ws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	var docStore store.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		defer pool.Close()

		pgStore, err := store.NewPGStore(ctx, pool, log)
		if err != nil {
			log.Fatal("document store init failed", zap.Error(err))
		}
		defer pgStore.Close()
		docStore = pgStore
	} else {
		log.Warn("DATABASE_URL is empty; using in-memory store, data will not survive restarts")
		docStore = store.NewMemStore()
	}

	var queueClient *queue.Client
	if cfg.RabbitMQURL != "" {
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; continuing without events", zap.Error(err))
		} else if err := queue.EnsureEventsTopology(qc); err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq topology failed", zap.Error(err))
			}
			log.Warn("rabbitmq topology failed; continuing without events", zap.Error(err))
			_ = qc.Close()
		} else {
			queueClient = qc
			defer qc.Close()
		}

		if queueClient != nil {
			if cfg.RabbitMQWorkerMode == "daemon" {
				log.Info("notification worker enabled", zap.String("queue", queue.NotificationsQueue))
				go func() {
					err := queueClient.ConsumeWithRetry(queue.NotificationsQueue, func(ctx context.Context, body []byte) error {
						return queue.ProcessGroupEvent(ctx, log, body)
					}, 5, 5*time.Second)
					if err != nil {
						log.Error("consumer stopped", zap.Error(err))
					}
				}()
			} else {
				log.Info("notification worker disabled", zap.String("mode", cfg.RabbitMQWorkerMode))
			}
		}
	} else {
		log.Info("group events disabled (RABBITMQ_URL is empty)")
	}

	events := queue.NewPublisher(queueClient, log)
	svc := groupbuy.NewService(docStore, log, events, cfg.StoreWriteTimeout)
	wsServer := ws.New(docStore, svc, log, cfg)

	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(svc, log, cfg, wsServer),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("groupbuy api ready", zap.String("base", "/api"))
		log.Info("groupbuy ws ready", zap.String("base", "/ws"))
		log.Info("groupbuy service listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}
