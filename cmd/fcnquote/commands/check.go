package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fcnquote/internal/model"
	"github.com/wonny/fcnquote/pkg/config"
	"github.com/wonny/fcnquote/pkg/database"
	"github.com/wonny/fcnquote/pkg/logger"
)

// testDBCmd verifies database connectivity
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "데이터베이스 연결 테스트",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		status, err := db.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}

		fmt.Println("✅ Database connection OK")
		fmt.Printf("   total_conns=%d idle_conns=%d max_conns=%d response=%s\n",
			status.Stats.TotalConns, status.Stats.IdleConns, status.Stats.MaxConns, status.ResponseTime)
		return nil
	},
}

// testModelCmd verifies the yield model service is reachable
var testModelCmd = &cobra.Command{
	Use:   "test-model",
	Short: "수익률 모델 서비스 연결 테스트",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log := logger.New(cfg)
		client := model.NewClient(cfg, log)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("model service unreachable: %w", err)
		}

		fmt.Printf("✅ Model service OK (%s)\n", cfg.Model.BaseURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testDBCmd)
	rootCmd.AddCommand(testModelCmd)
}
