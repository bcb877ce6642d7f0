package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/dfryer1193/feedapi/blog/application"
	"github.com/dfryer1193/feedapi/blog/domain"
	"github.com/dfryer1193/feedapi/blog/persistence"
	"github.com/dfryer1193/feedapi/internal/config"
	"github.com/dfryer1193/feedapi/internal/middleware"
	"github.com/dfryer1193/feedapi/internal/rest"
	"github.com/dfryer1193/feedapi/shared/db/mongo"
	"github.com/dfryer1193/feedapi/shared/db/postgres"
	"github.com/dfryer1193/feedapi/shared/db/sqlite"
	"github.com/dfryer1193/feedapi/shared/events"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout = 5 * time.Second
	startupTimeout  = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := config.ConfigureLogging(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logging")
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStart()

	postRepo, closeStore, err := openPostRepository(startCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("Failed to connect to post store")
	}
	defer closeStore()

	images, imageDir, err := openImageStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.ImageBackend).Msg("Failed to set up image store")
	}

	publisher, closePublisher, err := openEventPublisher(startCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to event stream")
	}
	defer closePublisher()

	postService := application.NewPostService(postRepo, images,
		application.WithEventPublisher(publisher),
		application.WithErrorReporter(func(err error) {
			log.Error().Err(err).Msg("Background image cleanup failed")
		}),
	)
	defer func() {
		if err := postService.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to gracefully close post service")
		}
	}()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(gin.CustomRecovery(middleware.HandlePanics()))
	r.Use(middleware.CORS(cfg.AllowedOrigin))
	r.Use(middleware.ErrorHandler())

	renderer := application.NewMarkdownRenderer("/" + persistence.ImageURLPrefix)
	rest.NewApi(r, rest.NewPostHandler(postService, renderer), imageDir)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreBackend).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}

func openPostRepository(ctx context.Context, cfg *config.Config) (domain.PostRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		client := mongo.NewMongoDB(cfg.Mongo)
		if err := client.Connect(ctx); err != nil {
			return nil, nil, err
		}
		database, err := client.Database()
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				log.Error().Err(err).Msg("Failed to disconnect from MongoDB")
			}
		}
		return persistence.NewMongoPostRepository(database), closeFn, nil

	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		return persistence.NewPostgresPostRepository(pool), pool.Close, nil

	default:
		database := sqlite.NewSQLiteDB(cfg.SQLite)
		if err := database.Connect(); err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := database.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
			}
		}
		return persistence.NewPostRepository(database.DB()), closeFn, nil
	}
}

// openImageStore returns the configured store and, for local storage, the
// directory to serve images from.
func openImageStore(cfg *config.Config) (domain.ImageStore, string, error) {
	if cfg.ImageBackend == config.ImagesS3 {
		sess, err := session.NewSession()
		if err != nil {
			return nil, "", err
		}
		return persistence.NewS3ImageStore(s3.New(sess), cfg.S3Bucket), "", nil
	}

	store := persistence.NewLocalImageStore(cfg.ImageDir)
	if err := os.MkdirAll(store.Dir(), 0755); err != nil {
		return nil, "", err
	}
	return store, store.Dir(), nil
}

func openEventPublisher(ctx context.Context, cfg *config.Config) (domain.EventPublisher, func(), error) {
	if cfg.Redis.Addr == "" {
		return events.NopPublisher{}, func() {}, nil
	}

	client, err := events.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
		}
	}
	return events.NewRedisPublisher(client, cfg.Redis.Stream), closeFn, nil
}
