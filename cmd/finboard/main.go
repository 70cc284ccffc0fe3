package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/finboard/finboard/internal/ai"
	"github.com/finboard/finboard/internal/config"
	"github.com/finboard/finboard/internal/db"
	"github.com/finboard/finboard/internal/embedcache"
	"github.com/finboard/finboard/internal/handler"
	"github.com/finboard/finboard/internal/job"
	"github.com/finboard/finboard/internal/middleware"
	"github.com/finboard/finboard/internal/repo"
	"github.com/finboard/finboard/internal/schedule"
	"github.com/finboard/finboard/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "finboard",
		Short: "finboard news retrieval backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run finboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	chunkRepo := repo.NewChunkRepo(conn)
	docRepo := repo.NewDocumentRepo(conn)
	themeCacheRepo := repo.NewThemeCacheRepo(conn)
	embeddingCacheRepo := repo.NewEmbeddingCacheRepo(conn)

	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	timeout := time.Duration(cfg.AI.Timeout) * time.Second
	generator := ai.NewGenerator(provider, cfg.AI.Model, timeout)
	embedder := ai.NewEmbedder(provider, cfg.AI.EmbedModel, timeout)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, embeddingCacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.EmbedCacheSize, time.Duration(cfg.AI.EmbedCacheTTL)*time.Second)

	searchService := service.NewSearchService(chunkRepo, docRepo, embedder, generator)
	labeler := service.NewThemeLabeler(generator)
	themeService := service.NewThemeService(chunkRepo, themeCacheRepo, labeler, cfg.Themes.DefaultWindowHours, cfg.Themes.DefaultThemeCount)
	statsService := service.NewStatsService(docRepo, chunkRepo)
	backfillService := service.NewBackfillService(chunkRepo, embedder, cfg.Jobs.BackfillBatchSize, cfg.Jobs.BackfillMaxBatches, cfg.Jobs.BackfillSinceHours)

	scheduler := schedule.NewCronScheduler()
	if cfg.Jobs.BackfillSpec != "" {
		if err := scheduler.AddJob(job.NewEmbeddingBackfillJob(backfillService), cfg.Jobs.BackfillSpec); err != nil {
			return err
		}
	}
	if cfg.Jobs.ThemeWarmSpec != "" {
		if err := scheduler.AddJob(job.NewThemeWarmJob(themeService), cfg.Jobs.ThemeWarmSpec); err != nil {
			return err
		}
	}
	if cfg.Jobs.CacheCleanupSpec != "" {
		if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(embeddingCacheRepo, cfg.Jobs.CacheCleanupMaxAgeDay), cfg.Jobs.CacheCleanupSpec); err != nil {
			return err
		}
	}

	deps := handler.RouterDeps{
		Search:         handler.NewSearchHandler(searchService),
		Themes:         handler.NewThemeHandler(themeService),
		Stats:          handler.NewStatsHandler(statsService),
		Internal:       handler.NewInternalHandler(backfillService, themeService),
		InternalSecret: cfg.InternalSecret,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.CORS(cfg.CORSAllowlist),
		gzip.Gzip(gzip.DefaultCompression),
	)
	handler.RegisterRoutes(engine.Group("/api/v1"), deps)

	srv := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)

	go func() {
		logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
