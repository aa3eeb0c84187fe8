package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/herecomesthebride/boutique-api/config"
	"github.com/herecomesthebride/boutique-api/controllers"
	"github.com/herecomesthebride/boutique-api/middleware"
	"github.com/herecomesthebride/boutique-api/productsync"
	"github.com/herecomesthebride/boutique-api/services"
	"github.com/herecomesthebride/boutique-api/store"
	"github.com/herecomesthebride/boutique-api/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	// Bootstrap logger until the configured one is built
	bootstrap, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(bootstrap)

	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.InitLogger(cfg)
	if err != nil {
		zap.S().Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Starting bridal boutique API server...", zap.String("env", cfg.GoEnv))

	// Connect to database
	if err := config.ConnectDatabase(cfg.GetDatabaseURL()); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	db := config.GetDB()
	if err := config.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migration completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownServices, err := initServices(ctx, cfg, db)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer shutdownServices()

	router := setupRouter(cfg, middleware.EnsureValidToken(cfg))
	listener, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		logger.Fatal("Failed to listen", zap.String("port", cfg.Port), zap.Error(err))
	}

	logger.Info("Server is running", zap.String("addr", "http://localhost:"+cfg.Port))
	if err := serve(ctx, newServer(router), listener, 10*time.Second); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}

func newServer(handler http.Handler) *http.Server {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown waits for handlers; event streams only end when told to
	server.RegisterOnShutdown(controllers.CloseStreams)
	return server
}

// serve runs server on listener until ctx ends, then shuts it down, giving
// in-flight requests up to shutdownTimeout to finish
func serve(ctx context.Context, server *http.Server, listener net.Listener, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// initServices builds the stores, repositories and sync coordinator the
// handlers look up, and returns a function releasing their background work
func initServices(ctx context.Context, cfg *config.Config, db *gorm.DB) (func(), error) {
	hub := store.NewHub()

	kv := store.NewGormStore(db, hub)
	services.InitRequestStores(services.NewDreamDressStore(kv), services.NewAppointmentStore(kv))

	repo := services.NewGormProductRepository(db, hub)
	services.InitProductRepository(repo)

	utils.UploadDir = cfg.UploadDir
	imageService, err := newImageService(ctx, cfg)
	if err != nil {
		return nil, err
	}
	services.InitImageService(imageService)

	var channel productsync.LiveChannel
	switch cfg.LiveChannel {
	case config.LiveChannelPostgres:
		channel = productsync.NewPgChannel(cfg.GetDatabaseURL(), config.ProductsChannel, repo)
	default:
		channel = productsync.NewHubChannel(hub, repo)
	}

	scheduler := productsync.NewCronScheduler()
	productsync.InitCoordinator(productsync.NewCoordinator(repo, channel,
		productsync.WithPolicy(productsync.Policy{
			RetryBackoff: cfg.SyncRetryBackoff,
			MaxRetries:   cfg.SyncMaxRetries,
			PollInterval: cfg.SyncPollInterval,
		}),
		productsync.WithScheduler(scheduler),
		productsync.WithLogger(zap.L().Named("productsync")),
	))
	zap.L().Info("Product sync ready", zap.String("live_channel", cfg.LiveChannel))

	return func() {
		scheduler.Stop()
		hub.Wait()
	}, nil
}

func newImageService(ctx context.Context, cfg *config.Config) (services.ImageService, error) {
	switch cfg.ImageHost {
	case config.ImageHostS3:
		s3Service, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 service: %w", err)
		}
		zap.L().Info("Product images stored in S3", zap.String("bucket", cfg.AWSS3Bucket))
		return services.NewS3ImageService(s3Service, cfg.MaxImageSizeBytes), nil
	case config.ImageHostLocal:
		zap.L().Info("Product images stored locally", zap.String("dir", cfg.UploadDir))
		return services.NewLocalImageService(cfg.UploadDir, "", cfg.MaxImageSizeBytes), nil
	default:
		zap.L().Info("Product images uploaded to image host", zap.String("endpoint", cfg.ImageUploadURL))
		return services.NewHTTPImageService(cfg.ImageUploadURL, cfg.ImageClientID, cfg.MaxImageSizeBytes), nil
	}
}
