package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fcnquote/internal/contracts"
	"github.com/wonny/fcnquote/internal/features"
	"github.com/wonny/fcnquote/internal/model"
	"github.com/wonny/fcnquote/internal/quote"
	"github.com/wonny/fcnquote/internal/snapshot"
	"github.com/wonny/fcnquote/pkg/config"
	"github.com/wonny/fcnquote/pkg/database"
	"github.com/wonny/fcnquote/pkg/logger"
	"github.com/wonny/fcnquote/pkg/redis"
)

// quoteCmd prices a single FCN deal from the command line
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "단건 FCN 쿠폰 계산",
	Long: `지정한 바스켓과 상품 조건으로 연환산 쿠폰을 계산합니다.

Example:
  go run ./cmd/fcnquote quote --stocks NVDA,TSLA,AMD --tenor 6 --strike 95 --ko 140 --ki 65
  go run ./cmd/fcnquote quote --stocks AAPL --tenor 12 --strike 80 --ko 100 --ki 60 --ki-type AKI`,
	RunE: runQuote,
}

// batchCmd prices every basket combination from a stock pool
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "조합 일괄 쿠폰 계산",
	Long: `주식 풀에서 가능한 모든 바스켓 조합의 쿠폰을 계산합니다.

Example:
  go run ./cmd/fcnquote batch --pool NVDA,TSLA,AMD,AAPL,MSFT --sizes 2,3 --tenor 6 --strike 95 --ko 140 --ki 65`,
	RunE: runBatch,
}

var (
	quoteStocks  string
	quotePool    string
	quoteSizes   []int
	quoteTenor   int
	quoteStrike  float64
	quoteKO      float64
	quoteKI      float64
	quoteKIType  string
	quoteCost    float64
	quoteNonCall int
	quoteDate    string
	quoteTop     int
)

func init() {
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(batchCmd)

	for _, cmd := range []*cobra.Command{quoteCmd, batchCmd} {
		cmd.Flags().IntVar(&quoteTenor, "tenor", 6, "테너 (개월, 2-12)")
		cmd.Flags().Float64Var(&quoteStrike, "strike", 95, "행사가 (%)")
		cmd.Flags().Float64Var(&quoteKO, "ko", 140, "KO 배리어 (%)")
		cmd.Flags().Float64Var(&quoteKI, "ki", 65, "KI 배리어 (%)")
		cmd.Flags().StringVar(&quoteKIType, "ki-type", "EKI", "KI 유형 (AKI|EKI)")
		cmd.Flags().Float64Var(&quoteCost, "cost", 99, "비용 (%)")
		cmd.Flags().IntVar(&quoteNonCall, "non-call", 1, "비호출 기간 (개월)")
		cmd.Flags().StringVar(&quoteDate, "date", "", "기준일 (YYYYMMDD, 생략 시 최신)")
	}

	quoteCmd.Flags().StringVar(&quoteStocks, "stocks", "", "종목 코드 (쉼표 구분, 1-4개)")
	quoteCmd.MarkFlagRequired("stocks")

	batchCmd.Flags().StringVar(&quotePool, "pool", "", "종목 풀 (쉼표 구분)")
	batchCmd.Flags().IntSliceVar(&quoteSizes, "sizes", []int{2}, "바스켓 크기 (1-4)")
	batchCmd.Flags().IntVar(&quoteTop, "top", 10, "출력할 상위 조합 수")
	batchCmd.MarkFlagRequired("pool")
}

func runQuote(cmd *cobra.Command, args []string) error {
	engine, cleanup, err := wireEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, err := engine.Quote(ctx, dealFromFlags(), splitSymbols(quoteStocks), quoteDate)
	if err != nil {
		return fmt.Errorf("quote failed: %w", err)
	}

	fmt.Printf("\n=== FCN Quote (%s) ===\n", result.PricingDate)
	fmt.Printf("Basket:   %s\n", strings.Join(result.RankedSymbols, ", "))
	fmt.Printf("Coupon:   %.2f%% p.a.\n", result.Coupon)
	fmt.Printf("SOFR:     %.2f  VIX: %.2f\n", result.Market.SOFRRate, result.Market.VIXIndex)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	engine, cleanup, err := wireEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := engine.BatchQuote(ctx, dealFromFlags(), splitSymbols(quotePool), quoteSizes, quoteDate)
	if err != nil {
		return fmt.Errorf("batch quote failed: %w", err)
	}

	fmt.Printf("\n=== Batch FCN Quotes (%s, %d combos) ===\n", result.PricingDate, result.TotalCount)
	top := quoteTop
	if top > len(result.Quotes) {
		top = len(result.Quotes)
	}
	for i := 0; i < top; i++ {
		q := result.Quotes[i]
		fmt.Printf("%3d. %-30s %6.2f%%  risk=%s\n", i+1, strings.Join(q.Stocks, ","), q.Coupon, q.RiskLevel)
	}
	return nil
}

// dealFromFlags builds deal terms from the shared quote flags
func dealFromFlags() contracts.DealTerms {
	barrier := contracts.BarrierEuropeanKI
	if quoteKIType == string(contracts.BarrierAccruedKI) {
		barrier = contracts.BarrierAccruedKI
	}

	nonCall := quoteNonCall
	if nonCall > quoteTenor {
		nonCall = quoteTenor
	}

	return contracts.DealTerms{
		Strike:      quoteStrike,
		KOBarrier:   quoteKO,
		KIBarrier:   quoteKI,
		Tenor:       quoteTenor,
		NonCall:     nonCall,
		Cost:        quoteCost,
		BarrierType: barrier,
	}
}

func splitSymbols(csv string) []string {
	parts := strings.Split(csv, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// wireEngine assembles the full quote pipeline for CLI commands
func wireEngine() (*quote.Engine, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	cache := redis.NewCache(redisClient, "fcnquote")
	store := snapshot.NewStore(snapshot.NewRepository(db.Pool), cache, log)

	schema, err := features.LoadSchema(cfg.Artifacts.SchemaPath)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, nil, fmt.Errorf("load feature schema: %w", err)
	}
	cal, err := features.LoadCalibration(cfg.Artifacts.CalibrationPath)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, nil, fmt.Errorf("load calibration: %w", err)
	}

	engine := quote.NewEngine(store, model.NewClient(cfg, log), features.NewBuilder(cal), schema, cfg.Quote, log)

	cleanup := func() {
		redisClient.Close()
		db.Close()
	}
	return engine, cleanup, nil
}
