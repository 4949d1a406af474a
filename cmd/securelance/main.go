package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/aakaru/securelance/internal/config"
	"github.com/aakaru/securelance/internal/infra/database"
	"github.com/aakaru/securelance/internal/infra/gateway"
	"github.com/aakaru/securelance/internal/infra/repository"
	"github.com/aakaru/securelance/internal/present/rest"
	"github.com/aakaru/securelance/internal/present/rest/middleware"
	"github.com/aakaru/securelance/internal/service"
	"github.com/aakaru/securelance/internal/usecase"
)

func main() {
	godotenv.Load()

	configPath := os.Getenv("SECURELANCE_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	conf, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	if conf.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to setup trace provider", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer shutdown(ctx)
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		panic("failed to connect database")
	}

	err = database.MigratePostgres(db)
	if err != nil {
		panic("failed to migrate database")
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	blobs, err := gateway.NewS3BlobStore(ctx, conf.Server.Blob)
	if err != nil {
		slog.Error("failed to setup blob store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	identityRepo := repository.NewIdentityRepository(db)
	gigRepo := repository.NewGigRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	secret := []byte(conf.Server.TokenSecret)

	signal := service.NewSignalService(rdb)
	authService := service.NewAuthService(identityRepo, secret)

	authUC := usecase.NewAuthUsecase(identityRepo, secret)
	reputationUC := usecase.NewReputationUsecase(identityRepo)
	gigUC := usecase.NewGigUsecase(gigRepo, reputationUC, signal)
	leaderboardUC := usecase.NewLeaderboardUsecase(identityRepo, gateway.NewMemcachedRankingCache(mc))
	submissionUC := usecase.NewSubmissionUsecase(submissionRepo, blobs)
	profileUC := usecase.NewProfileUsecase(identityRepo, blobs, gateway.NewMemcachedProfileCache(mc))

	authMiddleware := middleware.NewAuthMiddleware(authService)
	handler := rest.NewHandler(authUC, gigUC, leaderboardUC, submissionUC, profileUC, signal)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("securelance"))
	}
	e.Use(authMiddleware.IdentifyIdentity)

	handler.RegisterRoutes(e, authMiddleware)

	e.Logger.Fatal(e.Start(conf.Server.ListenAddr))
}

func setupTraceProvider(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := sdkresource.New(ctx,
		sdkresource.WithAttributes(
			semconv.ServiceName("securelance"),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
