package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/tnhan0211/serverzola/internal/api"
	"github.com/tnhan0211/serverzola/internal/auth"
	"github.com/tnhan0211/serverzola/internal/chat"
	"github.com/tnhan0211/serverzola/internal/config"
	"github.com/tnhan0211/serverzola/internal/events"
	"github.com/tnhan0211/serverzola/internal/identity"
	"github.com/tnhan0211/serverzola/internal/logger"
	"github.com/tnhan0211/serverzola/internal/metrics"
	"github.com/tnhan0211/serverzola/internal/notify"
	"github.com/tnhan0211/serverzola/internal/presence"
	"github.com/tnhan0211/serverzola/internal/privacy"
	"github.com/tnhan0211/serverzola/internal/repository"
	"github.com/tnhan0211/serverzola/internal/storage"
	"github.com/tnhan0211/serverzola/internal/ws"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfgPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	lg, err := logger.New(logger.Config{Development: cfg.App.Env != "production"})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Mongo
	mc, err := repository.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		lg.Fatalw("mongo connect", "err", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()
	db := mc.Database(cfg.Mongo.Database)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		lg.Fatalw("ensure indexes", "err", err)
	}

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	presenceStore := presence.NewRedisStore(rdb, cfg.Redis.Prefix)

	// Kafka
	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicMessageSent, cfg.Kafka.TopicNotification)
	defer func() { _ = publisher.Close() }()

	// S3
	blobs, err := storage.NewS3Store(ctx, cfg.S3.Region, cfg.S3.Bucket)
	if err != nil {
		lg.Fatalw("s3 init", "err", err)
	}

	// Repositories
	users := repository.NewUserRepo(db)
	messages := repository.NewMessageRepo(db)
	groups := repository.NewGroupRepo(db)
	notifications := repository.NewNotificationRepo(db)
	privacySettings := repository.NewPrivacyRepo(db)
	friendships := repository.NewFriendshipRepo(db)

	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.TokenTTL)
	if err != nil {
		lg.Fatalw("token manager", "err", err)
	}

	hub := ws.NewHub(presenceStore, lg)
	emitter := notify.NewEmitter(notifications, hub, publisher, lg)
	privacySvc := privacy.NewService(privacySettings, friendships, users, lg)
	identitySvc := identity.NewService(users, tokens)

	chatSvc := chat.NewService(chat.Deps{
		Messages: messages,
		Groups:   groups,
		Users:    users,
		Friends:  friendships,
		Gate:     privacySvc,
		Presence: presenceStore,
		Blobs:    blobs,
		Notifier: emitter,
		Bc:       hub,
		Events:   publisher,
		Log:      lg,
	})

	gateway := ws.NewGateway(hub, chatSvc, tokens, cfg.WS.SendBuffer, cfg.WS.RateLimitPerSec, lg)
	go gateway.Run(ctx)

	app := api.NewServer(api.Deps{
		Tokens:   tokens,
		Gateway:  gateway,
		Auth:     api.NewAuthHandler(identitySvc),
		Chat:     api.NewChatHandler(chatSvc),
		Privacy:  api.NewPrivacyHandler(privacySvc),
		Notify:   api.NewNotifyHandler(emitter),
		Activity: api.NewActivityHandler(presenceStore),
	})

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.App.Port)); err != nil {
			lg.Fatalw("server listen", "err", err)
		}
	}()
	lg.Infow("server started", "port", cfg.App.Port, "env", cfg.App.Env)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(shutdownCtx)
	lg.Info("server stopped")
}
