package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/adapter/repo"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/adapter/repo/promptcache"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/adapter/repo/sqlite"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/generation"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/http/handlers"
	httpapi "github.com/bitstorm-tech/app.voenix.shop-sub002/internal/http/httpapi"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/imagecodec"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/imagestore"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/infra"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/infra/credentials"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/metrics"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/providers/image"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/providers/openai"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/ratelimit"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/storage"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/upload"
)

// persistence is the set of repositories for the configured driver.
type persistence struct {
	images  domain.ImageRepository
	prompts domain.PromptLookup
	creds   *credentials.Store
	ping    func(ctx context.Context) error
	close   func()
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	db, err := openPersistence(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to connect database")
	}
	defer db.close()

	paths, err := storage.NewResolver(cfg.StorageRoot)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare storage directories")
	}
	files, err := storage.NewFileStore(paths.Root())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage root")
	}

	var mirror storage.Mirror
	if cfg.MinIOEnabled() {
		m, err := storage.NewMinIOMirror(ctx, storage.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect minio mirror")
		}
		mirror = m
	}

	prompts := promptcache.New(db.prompts, cfg.PromptCacheSize, cfg.PromptCacheTTL)
	strategy, err := newStrategy(ctx, cfg, db.creds, prompts, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure image generation")
	}

	validator := upload.NewValidator(cfg.MaxUploadBytes, cfg.AllowedContentTypes)
	codec := imagecodec.New()
	userStore := imagestore.NewUserImageStore(paths, files, db.images, validator, codec, logger)
	publicStore := imagestore.NewPublicImageStore(paths, files, validator, codec, mirror, logger)
	recorder := metrics.New()
	limiter := ratelimit.New(db.images, cfg.GenerationRateLimit, cfg.GenerationRateWindow, logger)

	orchestrator := generation.New(generation.Deps{
		Validator:   validator,
		Limiter:     limiter,
		Prompts:     prompts,
		Images:      userStore,
		TestResults: publicStore,
		Codec:       codec,
		Strategy:    strategy,
		Metrics:     recorder,
		Logger:      logger,
	})

	app := &handlers.App{
		Config:       cfg,
		Logger:       logger,
		Generator:    orchestrator,
		UserImages:   userStore,
		PublicImages: publicStore,
		Paths:        paths,
		Files:        files,
		Metrics:      recorder,
		Quota:        limiter,
		Ping:         db.ping,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:          cfg.JWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMin:    cfg.RateLimitPerMin,
		Logger:             logger,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("strategy", strategy.Name()).
			Str("storage_root", paths.Root()).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func openPersistence(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*persistence, error) {
	switch cfg.DatabaseDriver {
	case infra.DriverSQLite:
		db, err := infra.OpenSQLX(ctx, infra.DriverSQLite, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := infra.Migrate(ctx, db, infra.DriverSQLite, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &persistence{
			images:  sqlite.NewImageRepository(db, logger),
			prompts: sqlite.NewPromptRepository(db, logger),
			ping:    db.PingContext,
			close:   func() { _ = db.Close() },
		}, nil
	default:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		runner := infra.NewSQLRunner(pool, logger)
		return &persistence{
			images:  repo.NewImageRepository(runner),
			prompts: repo.NewPromptRepository(runner),
			creds:   credentials.NewStore(runner),
			ping:    pool.Ping,
			close:   pool.Close,
		}, nil
	}
}

// newStrategy selects the generation strategy once at startup.
func newStrategy(ctx context.Context, cfg *infra.Config, creds *credentials.Store, prompts domain.PromptLookup, logger zerolog.Logger) (image.Strategy, error) {
	if cfg.GenerationStrategy == infra.StrategyTest {
		logger.Warn().Msg("using deterministic test image strategy; no provider calls will be made")
		return image.NewDeterministicTestStrategy(), nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	key, err := credentials.ResolveOpenAIKey(lookupCtx, cfg.OpenAIAPIKey, creds)
	if err != nil {
		return nil, fmt.Errorf("load provider key: %w", err)
	}
	if key == "" {
		return nil, errors.New("remote strategy requires OPENAI_API_KEY or a stored openai integration token")
	}
	client := openai.NewClient(openai.Options{
		APIKey:         key,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.OpenAIImageModel,
		RequestTimeout: cfg.OpenAITimeout,
		Logger:         logger,
	})
	return image.NewRemoteProviderStrategy(client, prompts, logger), nil
}
