package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Athena/internal/config"
	"Athena/internal/database/kafka"
	"Athena/internal/database/milvus"
	"Athena/internal/database/minio"
	"Athena/internal/database/mysql"
	"Athena/internal/database/redis"
	"Athena/internal/embedding"
	"Athena/internal/knowledge/cache"
	"Athena/internal/knowledge/pipeline"
	"Athena/internal/knowledge/ratelimit"
	"Athena/internal/knowledge/splitters"
	"Athena/internal/knowledge/vectorstore"
	"Athena/internal/knowledge_service/api"
	"Athena/internal/knowledge_service/service"
	"Athena/internal/knowledge_service/store"
	"Athena/internal/llm"
	"Athena/pkg/logger"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(cfg.Logger.Level)
	appLogger := logger.New("KnowledgeService")
	appLogger.Info("Starting Knowledge Service...")

	ctx := context.Background()

	// 3. Initialize Backing Services
	db, err := mysql.NewDB(&cfg.Databases.MySQL)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	st := store.NewStore(db)
	if err := st.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}

	rdb, err := redis.NewClient(ctx, &cfg.Databases.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	milvusClient, err := milvus.NewClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		log.Fatalf("Failed to connect to Milvus: %v", err)
	}
	if err := milvusClient.EnsureCollection(ctx, cfg.Embedding.Dimension); err != nil {
		log.Fatalf("Failed to ensure Milvus collection: %v", err)
	}

	minioClient, err := minio.NewClient(ctx, &cfg.Databases.MinIO)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}

	securityWriter, err := kafka.NewWriter(&cfg.Databases.Kafka, store.SecurityAuditTopic)
	if err != nil {
		appLogger.Warn(fmt.Sprintf("Kafka unavailable, security alerts limited to the audit log: %v", err))
	}

	// 4. Build the Pipelines
	splitter, err := splitters.NewTokenSplitter(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		log.Fatalf("Failed to create splitter: %v", err)
	}

	embedder, err := embedding.NewFromConfig(&cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	synthesizer, err := llm.NewFromConfig(&cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	fragmentStore := vectorstore.NewFragmentStore(milvusClient, appLogger)
	answerCache := cache.NewAnswerCache(rdb, time.Duration(cfg.Cache.TTLSeconds)*time.Second, appLogger)
	limiter := ratelimit.NewFixedWindowLimiter(rdb, map[string]int{
		pipeline.OperationQuery: cfg.RateLimit.QueriesPerMinute,
		service.OperationUpload: cfg.RateLimit.UploadsPerMinute,
	})
	recorder := store.NewRecorder(st, securityWriter, appLogger)

	indexingPipeline := pipeline.NewIndexingPipeline(splitter, embedder, fragmentStore, appLogger)
	queryPipeline := pipeline.NewQueryPipeline(
		limiter,
		embedder,
		fragmentStore,
		answerCache,
		synthesizer,
		recorder,
		appLogger,
		cfg.Retrieval.TopKChunks,
		cfg.Retrieval.SimilarityThreshold,
		time.Duration(cfg.Cache.TTLSeconds)*time.Second,
	)

	svc := service.New(
		st,
		recorder,
		minioClient,
		cfg.Databases.MinIO.Bucket,
		rdb,
		milvusClient,
		limiter,
		indexingPipeline,
		queryPipeline,
		appLogger,
	)

	// 5. Start the HTTP Server
	handler := api.NewHandler(svc, appLogger)
	auth := api.AuthMiddleware(st, cfg.Auth.JwtSecret)
	router := api.SetupRouter(handler, auth)

	srv := &http.Server{
		Addr:    cfg.App.ListenAddr,
		Handler: router,
	}
	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", cfg.App.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	if securityWriter != nil {
		_ = securityWriter.Close()
	}
	_ = milvusClient.Close()
	_ = rdb.Close()

	appLogger.Info("Server gracefully stopped")
}
