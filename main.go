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

	"golang.org/x/sync/errgroup"

	"foodcollab/domain/model"
	"foodcollab/infrastructure/cache"
	instagramclient "foodcollab/infrastructure/clients/instagram"
	"foodcollab/infrastructure/configuration"
	"foodcollab/infrastructure/logger"
	"foodcollab/infrastructure/persistence"
	"foodcollab/infrastructure/pubsub"
	"foodcollab/infrastructure/realtime"
	httpHandler "foodcollab/interfaces/http"
	"foodcollab/server"
	"foodcollab/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	psqlDb, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		os.Exit(1)
	}
	if err := persistence.EnsureCoreSchema(psqlDb); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed ensuring core schema")
		os.Exit(1)
	}
	logger.GetLogger().Info("Database connected.")

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - webhook archive disabled")
		mongoDb = nil
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - webhook archive disabled")
		mongoDb = nil
	} else {
		logger.GetLogger().Info("MongoDB connected successfully")
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Pub/Sub not available - verification events disabled")
		pubSubClient = nil
	}

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - worker lease disabled")
		redisClient = nil
	} else {
		logger.GetLogger().Info("Redis client initialized successfully.")
	}

	verification := configuration.C.Verification
	stateMaxAge := time.Duration(verification.StateMaxAgeMin) * time.Minute

	userRepository := persistence.NewUserRepository(psqlDb)
	stateRepository := persistence.NewOAuthStateRepository(psqlDb, stateMaxAge)
	profileRepository := persistence.NewProfileRepository(psqlDb)
	submissionRepository := persistence.NewSubmissionRepository(psqlDb)
	verificationRepository := persistence.NewStoryVerificationRepository(psqlDb)
	notificationRepository := persistence.NewNotificationRepository(psqlDb)
	webhookArchive := persistence.NewWebhookEventArchive(mongoDb)

	igClient := instagramclient.NewClient(&instagramclient.Config{
		ClientID:     configuration.C.OAuth.Instagram.ClientID,
		ClientSecret: configuration.C.OAuth.Instagram.ClientSecret,
	})

	eventPublisher := pubsub.NewEventPublisher(pubSubClient, configuration.C.Pubsub.Topic)
	workerLock := cache.NewWorkerLock(redisClient, "verification:worker:lease", 2*time.Minute)

	notificationHub := realtime.NewNotificationHub()

	userUsecase := usecase.NewUserUsecase(userRepository, app.SecretKey)
	connectUsecase := usecase.NewConnectUsecase(usecase.ConnectConfig{
		ClientID:            configuration.C.OAuth.Instagram.ClientID,
		ClientSecret:        configuration.C.OAuth.Instagram.ClientSecret,
		RedirectURI:         configuration.C.OAuth.Instagram.RedirectURI,
		Scopes:              configuration.C.OAuth.Instagram.Scopes,
		DefaultRedirectPath: app.DefaultRedirectPath,
	}, stateRepository, profileRepository, igClient)
	webhookUsecase := usecase.NewWebhookUsecase(verificationRepository, webhookArchive, configuration.C.Webhook.VerifyToken)
	submissionUsecase := usecase.NewSubmissionUsecase(submissionRepository, verificationRepository)
	verificationUsecase := usecase.NewVerificationUsecase(
		verificationRepository,
		submissionRepository,
		profileRepository,
		notificationRepository,
		stateRepository,
		igClient,
		eventPublisher,
		workerLock,
		usecase.VerificationPolicy{
			MaxAttempts: verification.MaxAttempts,
			RetryDelay:  time.Duration(verification.RetryDelayMinutes) * time.Minute,
			BatchSize:   verification.BatchSize,
			StateMaxAge: stateMaxAge,
		},
	).WithBroadcaster(func(n *model.Notification) { notificationHub.BroadcastNotification(n) })

	userHandler := httpHandler.NewUserHandler(userUsecase)
	instagramOAuthHandler := httpHandler.NewInstagramOAuthHandler(connectUsecase)
	webhookHandler := httpHandler.NewWebhookHandler(webhookUsecase)
	submissionHandler := httpHandler.NewSubmissionHandler(submissionUsecase)
	notificationHandler := httpHandler.NewNotificationHandler(notificationRepository)
	verificationHandler := httpHandler.NewVerificationHandler(verificationUsecase)

	router := server.InitiateRouter(
		userHandler,
		instagramOAuthHandler,
		webhookHandler,
		submissionHandler,
		notificationHandler,
		verificationHandler,
		notificationHub,
		app.SecretKey,
	)

	// Background verification worker (ticker loop)
	g.Go(func() error {
		ticker := time.NewTicker(time.Duration(verification.IntervalSeconds) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				procCtx, cancelProc := context.WithTimeout(ctx, 30*time.Second)
				if err := verificationUsecase.ProcessPending(procCtx); err != nil {
					logger.GetLogger().WithField("error", err).Error("verification worker pass failed")
				}
				cancelProc()
			}
		}
	})

	port := app.Port
	logger.GetLogger().WithField("port", port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	if pubSubClient != nil {
		_ = pubSubClient.Close()
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}
