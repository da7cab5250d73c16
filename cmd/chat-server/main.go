package main

import (
	"context"
	stdlog "log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/jonatasJS/back-end/internal/chat"
	appConfig "github.com/jonatasJS/back-end/internal/config"
	"github.com/jonatasJS/back-end/internal/files"
	uploadsHandler "github.com/jonatasJS/back-end/internal/http-server/handlers/uploads"
	mwLogger "github.com/jonatasJS/back-end/internal/http-server/middleware/logger"
	"github.com/jonatasJS/back-end/internal/lib/logger/handlers/slogpretty"
	"github.com/jonatasJS/back-end/internal/lib/logger/sl"
	"github.com/jonatasJS/back-end/internal/messages"
	"github.com/jonatasJS/back-end/internal/presence"
	"github.com/jonatasJS/back-end/internal/storage/postgres"
	"github.com/jonatasJS/back-end/internal/storage/sqlite"
	wsHandler "github.com/jonatasJS/back-end/internal/ws/handler"
	"github.com/jonatasJS/back-end/internal/ws/hub"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found, skipping...")
	}

	cfg := appConfig.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting chat-server", slog.String("env", cfg.Env))

	ctx := context.Background()

	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}
	defer store.Close()

	h := hub.NewHub()
	go h.Run()

	registry := presence.NewRegistry()
	ctrl := chat.NewController(store, registry, h, log, cfg.Chat.UploadColorFromSession)

	fileStore, err := newFileStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to init file store", sl.Err(err))
		os.Exit(1)
	}

	uh := uploadsHandler.New(fileStore, ctrl, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/ws", wsHandler.WSHandler(h, ctrl, log))
	router.Post("/upload-audio", uh.UploadAudio())

	if ds, ok := fileStore.(*files.DiskStore); ok {
		fileServer := http.StripPrefix(cfg.Files.URLPrefix, http.FileServer(http.Dir(ds.Dir())))
		router.Handle(cfg.Files.URLPrefix+"/*", fileServer)
	}

	log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	if err := srv.ListenAndServe(); err != nil {
		log.Error("failed to start server", sl.Err(err))
	}

	log.Error("server stopped")
}

func newStore(ctx context.Context, cfg *appConfig.Config) (messages.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return postgres.New(ctx, cfg.DatabaseDSN)
	default:
		return sqlite.New(cfg.Storage.SQLitePath)
	}
}

func newFileStore(ctx context.Context, cfg *appConfig.Config, log *slog.Logger) (files.Store, error) {
	if cfg.Files.Driver != "s3" {
		return files.NewDiskStore(cfg.Files.Dir, cfg.Files.URLPrefix)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Files.S3.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Files.S3.AccessKey, cfg.Files.S3.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Files.S3.Endpoint)
		o.UsePathStyle = true
	})

	log.Info("using s3 file store", slog.String("bucket", cfg.Files.S3.Bucket))

	return files.NewS3Store(cfg.Files.S3.Bucket, cfg.Files.S3.PublicBaseURL, s3Client), nil
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return setupPrettySlog()
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
