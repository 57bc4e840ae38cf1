package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fcnquote/internal/api"
	"github.com/wonny/fcnquote/internal/api/handlers"
	"github.com/wonny/fcnquote/internal/features"
	"github.com/wonny/fcnquote/internal/model"
	"github.com/wonny/fcnquote/internal/quote"
	"github.com/wonny/fcnquote/internal/scheduler"
	"github.com/wonny/fcnquote/internal/scheduler/jobs"
	"github.com/wonny/fcnquote/internal/snapshot"
	"github.com/wonny/fcnquote/pkg/config"
	"github.com/wonny/fcnquote/pkg/database"
	"github.com/wonny/fcnquote/pkg/logger"
	"github.com/wonny/fcnquote/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- FCN 쿠폰 계산 엔드포인트 제공
- 스냅샷 조회/관리 엔드포인트 제공

Endpoints:
  GET    /health                    - Health check
  GET    /api/dates/available       - 기준일 목록 조회
  GET    /api/stocks/available      - 종목 목록 조회
  POST   /api/stocks/details        - 종목 상세 조회
  GET    /api/market/params         - 시장 지표 조회
  POST   /api/fcn/calculate         - 단건 쿠폰 계산
  POST   /api/fcn/batch-calculate   - 조합 일괄 계산
  POST   /api/snapshots/{date}      - 스냅샷 업로드
  DELETE /api/snapshots/{date}      - 스냅샷 삭제

Example:
  go run ./cmd/fcnquote api
  go run ./cmd/fcnquote api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== FCN Quote API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to Redis (optional second cache tier)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	cache := redis.NewCache(redisClient, "fcnquote")

	// 5. Create snapshot store
	repo := snapshot.NewRepository(db.Pool)
	if err := repo.Init(context.Background()); err != nil {
		return fmt.Errorf("init snapshot repository: %w", err)
	}
	store := snapshot.NewStore(repo, cache, log)

	// 6. Load feature artifacts
	schema, err := features.LoadSchema(cfg.Artifacts.SchemaPath)
	if err != nil {
		return fmt.Errorf("load feature schema: %w", err)
	}
	cal, err := features.LoadCalibration(cfg.Artifacts.CalibrationPath)
	if err != nil {
		return fmt.Errorf("load calibration: %w", err)
	}
	builder := features.NewBuilder(cal)

	log.WithField("columns", schema.Len()).Info("Feature schema loaded")

	// 7. Create yield model client
	modelClient := model.NewClient(cfg, log)

	// 8. Create quote engine
	engine := quote.NewEngine(store, modelClient, builder, schema, cfg.Quote, log)

	// 9. Create handlers
	quoteHandler := handlers.NewQuoteHandler(engine, log)
	marketHandler := handlers.NewMarketHandler(store, modelClient, schema, log)
	snapshotHandler := handlers.NewSnapshotHandler(store, log)

	// 10. Create router and server
	router := api.NewRouter(quoteHandler, marketHandler, snapshotHandler, log)
	server := api.New(cfg, log, router)

	// 11. Start cache warm scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewWarmJob(store, cfg.Quote.WarmSchedule, log)); err != nil {
		return fmt.Errorf("schedule warm job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 12. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET    /health")
	fmt.Println("  GET    /api/dates/available")
	fmt.Println("  GET    /api/stocks/available")
	fmt.Println("  POST   /api/stocks/details")
	fmt.Println("  GET    /api/market/params")
	fmt.Println("  POST   /api/fcn/calculate")
	fmt.Println("  POST   /api/fcn/batch-calculate")
	fmt.Println("  POST   /api/snapshots/{date}")
	fmt.Println("  DELETE /api/snapshots/{date}")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
