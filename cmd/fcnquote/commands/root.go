package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fcnquote",
	Short: "FCN Quote - AI 기반 FCN 쿠폰 예측 시스템",
	Long: `FCN Quote Unified CLI

주식 바스켓과 상품 조건으로 FCN 연환산 쿠폰을 예측합니다.
시장 스냅샷 조회부터 feature 생성, 모델 예측까지 단일 파이프라인.

Usage:
  go run ./cmd/fcnquote [command]

Examples:
  go run ./cmd/fcnquote api
  go run ./cmd/fcnquote quote --stocks NVDA,TSLA --tenor 6
  go run ./cmd/fcnquote test-db
  go run ./cmd/fcnquote test-model`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
