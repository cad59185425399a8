// PrimeFlare - N-th prime via a memory-bounded segmented sieve, with R2
// report archiving and a Telegram front end.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bigneek/primeflare/pkg/bot"
	"github.com/bigneek/primeflare/pkg/config"
	"github.com/bigneek/primeflare/pkg/quota"
	"github.com/bigneek/primeflare/pkg/report"
	"github.com/bigneek/primeflare/pkg/sieve"
	"github.com/bigneek/primeflare/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	// Only config and logger setup report through log; everything after
	// goes through zap.
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	s := sieve.New(sieve.Config{SegmentSize: cfg.SegmentSize}, logger)

	switch os.Args[1] {
	case "nth":
		runNth(s, os.Args[2:])
	case "publish":
		runPublish(cfg, s, logger, os.Args[2:])
	case "show":
		runShow(cfg, logger, os.Args[2:])
	case "reconcile":
		runReconcile(cfg, logger)
	case "bot":
		runBot(cfg, s, logger)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// openStore returns R2 when credentials are set, otherwise an in-memory store.
func openStore(cfg config.Config, logger *zap.Logger) (storage.ObjectStore, string) {
	if cfg.HasR2() {
		r2, err := storage.NewR2Client(cfg.AccountID, cfg.R2AccessKey, cfg.R2SecretKey)
		if err == nil {
			return r2, "r2"
		}
		logger.Warn("R2 client init failed, falling back to memory", zap.Error(err))
	}
	return storage.NewMemStore(), "memory"
}

func parseIndexArg(arg string) int64 {
	idx, err := strconv.ParseInt(strings.ReplaceAll(arg, "_", ""), 10, 64)
	if err != nil {
		fmt.Printf("Not an index: %q\n", arg)
		os.Exit(1)
	}
	return idx
}

func runNth(s *sieve.Segmented, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: primeflare nth <index>...")
		os.Exit(1)
	}
	for _, arg := range args {
		idx := parseIndexArg(arg)
		p, err := s.NthPrime(idx)
		if err != nil {
			fmt.Printf("NthPrime(%d) failed: %v\n", idx, err)
			var insufficient *sieve.InsufficientBoundError
			if errors.As(err, &insufficient) {
				os.Exit(2)
			}
			os.Exit(1)
		}
		fmt.Printf("%d\t%d\n", idx, p)
	}
}

func runPublish(cfg config.Config, s *sieve.Segmented, logger *zap.Logger, args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: primeflare publish <index>")
		os.Exit(1)
	}
	store, backend := openStore(cfg, logger)
	if backend == "memory" {
		logger.Warn("no R2 credentials; report will not outlive this process")
	}

	idx := parseIndexArg(args[0])
	res, err := s.Compute(idx)
	if err != nil {
		logger.Fatal("compute failed", zap.Int64("index", idx), zap.Error(err))
	}
	rep, err := report.FromResult(res)
	if err != nil {
		logger.Fatal("report failed", zap.Error(err))
	}
	pub := report.NewPublisher(store, cfg.R2Bucket, logger)
	if err := pub.Publish(context.Background(), rep); err != nil {
		logger.Fatal("publish failed", zap.Int64("index", idx), zap.Error(err))
	}
	fmt.Printf("Published %s/reports/%d.json: NthPrime(%d) = %d (report %s)\n",
		cfg.R2Bucket, rep.Index, rep.Index, rep.Prime, rep.ID)
}

// openPublisher opens the R2 archive. Reading reports from a fresh memory
// store would always come back empty, so R2 is required.
func openPublisher(cfg config.Config, logger *zap.Logger, cmd string) *report.Publisher {
	if !cfg.HasR2() {
		logger.Fatal("CLOUDFLARE_ACCOUNT_ID, R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY are required", zap.String("command", cmd))
	}
	store, _ := openStore(cfg, logger)
	return report.NewPublisher(store, cfg.R2Bucket, logger)
}

func runShow(cfg config.Config, logger *zap.Logger, args []string) {
	if len(args) > 1 {
		fmt.Println("Usage: primeflare show [index]")
		os.Exit(1)
	}
	pub := openPublisher(cfg, logger, "show")
	ctx := context.Background()

	if len(args) == 0 {
		listReports(ctx, pub, cfg.R2Bucket, logger)
		return
	}

	idx := parseIndexArg(args[0])
	rep, err := pub.Load(ctx, idx)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Printf("No published report for index %d\n", idx)
		os.Exit(1)
	}
	if err != nil {
		logger.Fatal("load failed", zap.Int64("index", idx), zap.Error(err))
	}
	fmt.Printf("Report %s\n", rep.ID)
	fmt.Printf("  NthPrime(%d) = %d (verified: %v)\n", rep.Index, rep.Prime, rep.Verified)
	fmt.Printf("  limit %d, %d segment(s) of %d, %d ms\n", rep.Limit, rep.Segments, rep.SegmentSize, rep.ElapsedMS)
	fmt.Printf("  created %s\n", rep.CreatedAt.Format("2006-01-02 15:04:05 MST"))
}

func listReports(ctx context.Context, pub *report.Publisher, bucket string, logger *zap.Logger) {
	stored, err := pub.List(ctx)
	if err != nil {
		logger.Fatal("list failed", zap.Error(err))
	}
	ledger, err := pub.Ledger(ctx)
	if err != nil {
		logger.Fatal("ledger read failed", zap.Error(err))
	}
	if len(stored) == 0 {
		fmt.Printf("No reports in %s\n", bucket)
		return
	}
	fmt.Printf("%d report(s) in %s/reports/:\n", len(stored), bucket)
	for _, idx := range stored {
		fmt.Printf("  %d\n", idx)
	}
	if len(ledger.Indices) != len(stored) {
		fmt.Printf("Ledger lists %d index(es); run 'primeflare reconcile' to rebuild it\n", len(ledger.Indices))
	}
}

func runReconcile(cfg config.Config, logger *zap.Logger) {
	pub := openPublisher(cfg, logger, "reconcile")
	missing, err := pub.Reconcile(context.Background())
	if err != nil {
		logger.Fatal("reconcile failed", zap.Error(err))
	}
	if missing == nil {
		fmt.Println("Ledger already matches stored reports")
		return
	}
	fmt.Printf("Ledger rebuilt; added %d index(es): %v\n", len(missing), missing)
}

func runBot(cfg config.Config, s *sieve.Segmented, logger *zap.Logger) {
	if cfg.TelegramToken == "" {
		logger.Fatal("TELEGRAM_BOT_TOKEN is required for bot mode")
	}
	store, backend := openStore(cfg, logger)
	b, err := bot.New(bot.Config{
		TelegramToken: cfg.TelegramToken,
		Backend:       backend,
		Bucket:        cfg.R2Bucket,
	}, bot.Services{
		Sieve: s,
		Quota: quota.NewManager(store, cfg.R2Bucket, quota.Limits{
			MaxIndex:    cfg.QuotaMaxIndex,
			MaxRequests: cfg.QuotaMaxRequests,
		}),
		Publisher: report.NewPublisher(store, cfg.R2Bucket, logger),
	}, logger)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}
	if err := b.Run(); err != nil {
		logger.Fatal("bot stopped", zap.Error(err))
	}
}

func printUsage() {
	fmt.Println("PrimeFlare - N-th prime via segmented sieve")
	fmt.Println("Usage:")
	fmt.Println("  primeflare nth <index>...     # zero-based: nth 0 -> 2")
	fmt.Println("  primeflare publish <index>    # compute and archive a report")
	fmt.Println("  primeflare show [index]       # print an archived report, or list them")
	fmt.Println("  primeflare reconcile          # rebuild the ledger from stored reports")
	fmt.Println("  primeflare bot                # run the Telegram bot")
}
