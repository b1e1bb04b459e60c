package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkrite/cache"
	"linkrite/config"
	"linkrite/database"
	"linkrite/handlers"
	"linkrite/logger"
	"linkrite/media"
	"linkrite/middleware"
	"linkrite/notify"
	"linkrite/repositories"
	"linkrite/repositories/memstore"
	"linkrite/routes"
	"linkrite/services"
	"linkrite/session"
	"linkrite/websocket"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "development")
		log.Fatal().Err(err).Msg("configuration rejected")
	}
	logger.Init(cfg.LogLevel, cfg.AppEnv)
	log.Info().Str("env", cfg.AppEnv).Str("store", cfg.Store).Msg("starting Linkrite API")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ===== STORAGE =====
	var mongoClient *mongo.Client
	var stores *repositories.Stores
	if cfg.Store == "memory" {
		log.Warn().Msg("STORE=memory: data is kept in process and lost on restart")
		stores = memstore.New()
	} else {
		mongoClient, err = database.Connect(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MongoDB")
		}
		db := mongoClient.Database(cfg.DBName)
		if err := database.EnsureIndexes(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to create indexes")
		}
		stores = repositories.NewMongoStores(db)
	}

	// ===== REDIS (optional) =====
	redisClient, err := cache.Connect(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without it")
		redisClient = nil
	}

	var revocations session.Revocations
	var bridge websocket.Bridge
	if redisClient != nil {
		revocations = session.NewRedisRevocations(redisClient)
		bridge = websocket.NewRedisBridge(redisClient)
	}
	sessions := session.NewManager(cfg.JWTSecret, cfg.JWTTTL, revocations)

	// ===== REALTIME =====
	hub := websocket.NewManager(bridge)
	go hub.Start(ctx)

	// ===== NOTIFICATIONS =====
	push := notify.NewPush(stores.Push, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
	var mailer *notify.Mailer
	if cfg.MailEnabled() {
		mailer = notify.NewMailer(notify.MailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
		})
	}
	log.Info().Bool("push", cfg.PushEnabled()).Bool("mail", mailer.Enabled()).Msg("notifications")

	// ===== SERVICES =====
	deps := services.Deps{
		Stores:    stores,
		Sessions:  sessions,
		Publisher: hub,
		Notifier:  notify.NewNotifier(push, mailer),
	}
	if cfg.GoogleEnabled() {
		deps.GoogleOAuth = services.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, []byte(cfg.JWTSecret))
	}
	if cfg.GoogleClientID != "" {
		deps.GoogleIDTokens = services.NewGoogleIDTokenVerifier(cfg.GoogleClientID)
	}
	if cfg.FirebaseAdminEnabled() {
		fv, err := services.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.FirebaseCredentialsBase64, cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Warn().Err(err).Msg("Firebase sign-in disabled")
		} else {
			deps.FirebaseTokens = fv
		}
	}
	if cfg.CloudinaryURL != "" {
		up, err := media.NewCloudinaryUploader(cfg.CloudinaryURL)
		if err != nil {
			log.Warn().Err(err).Msg("avatar upload disabled")
		} else {
			deps.Avatars = up
		}
	}
	svc := services.New(deps)

	// ===== ROUTER =====
	h := handlers.New(svc, push, handlers.PublicConfig{
		Firebase:             cfg.Firebase,
		StripePublishableKey: cfg.StripePublishableKey,
		GoogleSignIn:         deps.GoogleOAuth != nil,
		GoogleClientID:       cfg.GoogleClientID,
		FirebaseSignIn:       deps.FirebaseTokens != nil,
	})
	router := routes.SetupRouter(routes.Deps{
		Handler:     h,
		Sessions:    sessions,
		Hub:         hub,
		RateLimiter: middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// ===== GRACEFUL SHUTDOWN =====
	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	closeBackends(mongoClient, redisClient)
	log.Info().Msg("server stopped")
	os.Exit(0)
}

func closeBackends(mongoClient *mongo.Client, redisClient *redis.Client) {
	if err := database.Disconnect(mongoClient); err != nil {
		log.Error().Err(err).Msg("closing MongoDB")
	}
	cache.Close(redisClient)
}
