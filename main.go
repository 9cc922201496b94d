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

	"github.com/Mel4sa/WORKNEST-sub000/broker"
	"github.com/Mel4sa/WORKNEST-sub000/cache"
	"github.com/Mel4sa/WORKNEST-sub000/config"
	"github.com/Mel4sa/WORKNEST-sub000/handlers"
	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/middleware"
	"github.com/Mel4sa/WORKNEST-sub000/repositories"
	"github.com/Mel4sa/WORKNEST-sub000/services"
	"github.com/Mel4sa/WORKNEST-sub000/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.Log.File, cfg.Log.Level)
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting WorkNest API...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := repositories.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB, database %s", cfg.Mongo.DBName)

	db := client.Database(cfg.Mongo.DBName)
	if err := repositories.EnsureIndexes(ctx, db); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: %v", err)
	}

	users := repositories.NewMongoUserRepository(db)
	projects := repositories.NewMongoProjectRepository(db)
	invitations := repositories.NewMongoInvitationRepository(db)

	var notificationRepo repositories.NotificationRepository = repositories.NewMongoNotificationRepository(db)
	var cassandra *repositories.CassandraNotificationRepository
	if cfg.Notifications.Backend == "cassandra" {
		cassandra, err = repositories.NewCassandraNotificationRepository(cfg.Notifications.CassandraDB)
		if err != nil {
			logging.Logger.Fatalf("Event ID: CASSANDRA_CONNECTION_FAILED, Description: %v", err)
		}
		if err := cassandra.CreateTable(ctx); err != nil {
			logging.Logger.Fatalf("Event ID: CASSANDRA_SCHEMA_FAILED, Description: %v", err)
		}
		notificationRepo = cassandra
		logging.Logger.Info("Event ID: NOTIFICATIONS_BACKEND, Description: Using Cassandra notification store")
	}

	var mailer services.Mailer = services.LogMailer{}
	var emailQueue *broker.EmailQueue
	if cfg.Broker.RabbitMQURL != "" {
		emailQueue, err = broker.NewEmailQueue(cfg.Broker.RabbitMQURL, cfg.Broker.EmailQueue)
		if err != nil {
			logging.Logger.Fatalf("Event ID: RABBITMQ_CONNECTION_FAILED, Description: %v", err)
		}
		mailer = emailQueue
	}

	var activity services.ActivityPublisher = services.NoopActivityPublisher{}
	var producer *broker.ActivityProducer
	if cfg.Broker.KafkaBroker != "" {
		producer = broker.NewActivityProducer(cfg.Broker.KafkaBroker, cfg.Broker.KafkaTopic)
		activity = producer
		logging.Logger.Infof("Event ID: KAFKA_PRODUCER_READY, Description: Publishing project activity to %s", cfg.Broker.KafkaTopic)
	}

	var media services.MediaUploader
	if cfg.Media.ServiceURL != "" {
		media = storage.NewMediaClient(cfg.Media.ServiceURL, cfg.Media.APIKey, "worknest/avatars")
	} else {
		logging.Logger.Warn("Event ID: MEDIA_DISABLED, Description: MEDIA_SERVICE_URL is not set, avatar uploads are disabled")
	}

	var authLimiter middleware.Limiter = middleware.NewLocalLimiter(cfg.RateLimit.AuthPerMinute)
	var redisLimiter *middleware.RedisLimiter
	if cfg.RateLimit.RedisURL != "" {
		redisLimiter, err = middleware.NewRedisLimiter(cfg.RateLimit.RedisURL, cfg.RateLimit.AuthPerMinute)
		if err != nil {
			logging.Logger.Warnf("Event ID: REDIS_UNAVAILABLE, Description: Falling back to in-process rate limiting: %v", err)
		} else {
			authLimiter = redisLimiter
		}
	}

	blackList := services.DefaultBlackList()
	if cfg.Auth.PasswordBlacklistFile != "" {
		blackList, err = services.LoadBlackList(cfg.Auth.PasswordBlacklistFile)
		if err != nil {
			logging.Logger.Fatalf("Event ID: BLACKLIST_LOAD_FAILED, Description: %v", err)
		}
	}

	notificationSvc := services.NewNotificationService(notificationRepo, cache.NewUnreadCache("notifications", 30*time.Second))
	jwtSvc := services.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry, cfg.Auth.ResetTokenExpiry)
	userSvc := services.NewUserService(users, projects, invitations, notificationSvc, jwtSvc, mailer, media, services.UserOptions{
		BlackList:                 blackList,
		EnforcePasswordComplexity: cfg.Auth.EnforcePasswordComplexity,
		FrontendURL:               cfg.FrontendURL,
		MaxAvatarBytes:            cfg.Media.MaxBytes,
	})
	projectSvc := services.NewProjectService(projects, users, invitations, notificationSvc, activity)
	inviteSvc := services.NewInvitationService(invitations, users, projectSvc, notificationSvc)
	chatSvc := services.NewChatService(
		repositories.NewMongoChatRepository(db),
		repositories.NewMongoMessageRepository(db),
		users,
		notificationSvc,
		cache.NewUnreadCache("chat", 30*time.Second),
	)

	router := handlers.NewRouter(handlers.Handlers{
		Auth:          handlers.NewAuthHandler(userSvc),
		Users:         handlers.NewUserHandler(userSvc, cfg.Media.MaxBytes),
		Projects:      handlers.NewProjectHandler(projectSvc),
		Invites:       handlers.NewInviteHandler(inviteSvc),
		Notifications: handlers.NewNotificationHandler(notificationSvc),
		Chats:         handlers.NewChatHandler(chatSvc),
		Health:        handlers.NewHealthHandler(repositories.MongoPinger{Client: client}),
	}, handlers.RouterOptions{
		Authenticator:  userSvc,
		AuthLimiter:    authLimiter,
		CORSOrigin:     cfg.Server.CORSOrigin,
		TrustedProxies: cfg.RateLimit.TrustedProxies,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop
	logging.Logger.Infof("Event ID: SERVER_SHUTDOWN, Description: Received %s, shutting down", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_FAILED, Description: %v", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logging.Logger.Warnf("Event ID: KAFKA_CLOSE_FAILED, Description: %v", err)
		}
	}
	if emailQueue != nil {
		if err := emailQueue.Close(); err != nil {
			logging.Logger.Warnf("Event ID: RABBITMQ_CLOSE_FAILED, Description: %v", err)
		}
	}
	if redisLimiter != nil {
		_ = redisLimiter.Close()
	}
	if cassandra != nil {
		cassandra.CloseSession()
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: DB_DISCONNECT_FAILED, Description: %v", err)
	}
	logging.Logger.Info("Event ID: SERVICE_STOPPED, Description: WorkNest API stopped")
}
