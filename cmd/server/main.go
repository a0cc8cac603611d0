package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"ledgerflow/internal/cache"
	"ledgerflow/internal/config"
	"ledgerflow/internal/doctext"
	"ledgerflow/internal/extractor"
	_ "ledgerflow/internal/extractor/claude"
	_ "ledgerflow/internal/extractor/gemini"
	"ledgerflow/internal/handler"
	"ledgerflow/internal/matcher"
	"ledgerflow/internal/parser"
	"ledgerflow/internal/port"
	"ledgerflow/internal/repository/postgres"
	"ledgerflow/internal/router"
	"ledgerflow/internal/service"
	s3storage "ledgerflow/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Repositories
	tenantRepo := postgres.NewTenantRepo(db)
	userRepo := postgres.NewUserRepo(db)
	batchRepo := postgres.NewImportBatchRepo(db)
	lineRepo := postgres.NewImportLineRepo(db)
	catalogRepo := postgres.NewCatalogRepo(db)
	historyRepo := postgres.NewMatchHistoryRepo(db)
	metricRepo := postgres.NewProcessingMetricRepo(db)
	jobRepo := postgres.NewImportJobRepo(db)
	purchRepo := postgres.NewPurchaseRepo(db)
	saleRepo := postgres.NewSaleRepo(db)

	// Object storage
	s3Client, err := s3storage.NewS3Client(context.Background(), &cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Summary cache
	var summaryCache port.SummaryCache
	if cfg.Redis.Enabled {
		summaryCache, err = cache.NewRedisSummaryCache(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
	} else {
		summaryCache = cache.NewNoopSummaryCache()
	}

	// Extraction providers, chained primary -> secondary when a secondary is
	// configured.
	provider, err := buildExtractionProvider(&cfg.Extractor)
	if err != nil {
		return err
	}

	// One shared limiter throttles provider calls across the whole worker
	// pool.
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.Queue.ProviderRatePerMin)/60.0), cfg.Queue.ProviderBurst)
	cascade := parser.NewCascade(
		parser.NewAIStrategy(provider, limiter),
		parser.NewRegexStrategy(parser.DefaultLabelSynonyms()),
	)

	suggester := matcher.NewMatcher(historyRepo, catalogRepo, cfg.Matcher)

	// Services
	authSvc := service.NewAuthService(userRepo, tenantRepo, cfg.JWT)
	uploadSvc := service.NewUploadService(batchRepo, jobRepo, s3Client, &cfg.S3, cfg.Upload, cfg.Queue)
	importSvc := service.NewImportService(batchRepo, lineRepo, metricRepo, s3Client, doctext.New(), cascade, suggester, cfg.Matcher.AutoMatchThreshold)
	reviewSvc := service.NewReviewService(batchRepo, lineRepo, catalogRepo, historyRepo, purchRepo, saleRepo,
		jobRepo, s3Client, suggester, summaryCache, &cfg.S3, cfg.Queue)
	catalogSvc := service.NewCatalogService(catalogRepo)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	importH := handler.NewImportHandler(uploadSvc, reviewSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, authSvc, authH, importH, catalogH, healthH)

	// Background queue worker
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := service.NewImportQueueWorker(jobRepo, importSvc, cfg.Queue)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		stop()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	<-workerDone
	log.Printf("Shutdown complete")
	return nil
}

func buildExtractionProvider(cfg *config.ExtractorConfig) (port.ExtractionProvider, error) {
	primary, err := extractor.NewProvider(&cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("failed to create primary extraction provider: %w", err)
	}

	secondaryCfg := cfg.SecondaryConfig()
	if secondaryCfg == nil {
		return primary, nil
	}
	secondary, err := extractor.NewProvider(secondaryCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create secondary extraction provider: %w", err)
	}
	return extractor.NewFallbackProvider(
		[]port.ExtractionProvider{primary, secondary},
		[]string{cfg.Primary.Provider, secondaryCfg.Provider},
	), nil
}
