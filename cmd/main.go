package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"

	restctx "github.com/jenkass/reddit-parser/internal/api/rest/context"
	"github.com/jenkass/reddit-parser/internal/api/rest/handler"
	"github.com/jenkass/reddit-parser/internal/api/rest/router"
	httpServer "github.com/jenkass/reddit-parser/internal/api/rest/server"
	"github.com/jenkass/reddit-parser/internal/config"
	"github.com/jenkass/reddit-parser/internal/logger"
	"github.com/jenkass/reddit-parser/internal/model"
	"github.com/jenkass/reddit-parser/internal/repository/file"
	mongorepo "github.com/jenkass/reddit-parser/internal/repository/mongo"
	"github.com/jenkass/reddit-parser/internal/repository/postgres"
	"github.com/jenkass/reddit-parser/internal/server"
	"github.com/jenkass/reddit-parser/internal/service"
	"github.com/jenkass/reddit-parser/internal/storage/local"
	storage "github.com/jenkass/reddit-parser/internal/storage/minio"
	"github.com/jenkass/reddit-parser/internal/validator"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	var (
		backend string
		envFile string
	)

	rootCmd := &cobra.Command{
		Use:          "reddit-parser",
		Short:        "HTTP service storing parsed Reddit posts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("failed to load env file: %w", err)
				}
			} else {
				_ = godotenv.Load()
			}

			if cmd.Flags().Changed("database") {
				if err := os.Setenv("STORAGE_BACKEND", backend); err != nil {
					return err
				}
			}

			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}

			return run(cfg)
		},
	}
	rootCmd.Flags().StringVarP(&backend, "database", "d", config.BackendMongo,
		"storage backend: mongo, postgres or file")
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file to load instead of ./.env")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run serves until a signal arrives. Startup errors are returned rather
// than exiting so deferred cleanup still runs.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	logger := logger.New(cfg.LogLevel, cfg.LogFormat)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "backend", cfg.Backend, "error", err)
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStore()

	v, err := validator.New()
	if err != nil {
		logger.Error("failed to load payload schemas", "error", err)
		return fmt.Errorf("failed to load payload schemas: %w", err)
	}

	ctxMgr := restctx.NewManager()
	postService := service.NewPost(store, ctxMgr, logger)
	postHandler := handler.NewPost(postService, v, cfg.HTTP.MaxBodyBytes, logger)

	srv := httpServer.NewHTTPServer(
		router.New(postHandler, ctxMgr, logger).Register(),
		fmt.Sprintf(":%s", cfg.HTTP.Port),
		cfg.HTTP.ReadTimeout,
	)

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address(), "backend", cfg.Backend)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
	return nil
}

// openStore connects the backend selected by cfg. The returned func
// releases its connections.
func openStore(ctx context.Context, cfg *config.Config, logger *logger.Logger) (model.PostStore, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewPostRepository(db), func() { _ = db.Close() }, nil

	case config.BackendFile:
		medium, err := openMedium(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		name := cfg.File.FileName(time.Now())
		logger.Info("using posts file", "name", name, "medium", cfg.File.Medium)
		return file.NewPostRepository(medium, name), func() {}, nil

	default:
		conn, err := mongorepo.NewConnection(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		return mongorepo.NewPostRepository(conn), func() { _ = conn.Close(context.Background()) }, nil
	}
}

func openMedium(ctx context.Context, cfg *config.Config) (model.Storage, error) {
	if cfg.File.Medium == config.MediumLocal {
		return local.New(cfg.File.Dir)
	}

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
