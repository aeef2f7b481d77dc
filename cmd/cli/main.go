package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerbook/internal/app"
	"github.com/dvloznov/ledgerbook/internal/config"
	"github.com/dvloznov/ledgerbook/internal/domain"
	"github.com/dvloznov/ledgerbook/internal/gateway"
	infraBQ "github.com/dvloznov/ledgerbook/internal/infra/bigquery"
	"github.com/dvloznov/ledgerbook/internal/inventory"
	"github.com/dvloznov/ledgerbook/internal/ledger"
	"github.com/dvloznov/ledgerbook/internal/logger"
	"github.com/dvloznov/ledgerbook/internal/notionsync"
	"github.com/dvloznov/ledgerbook/internal/report"
	"github.com/dvloznov/ledgerbook/internal/storage"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "report":
		runReport(log)
	case "dashboard":
		runDashboard(log)
	case "low-stock":
		runLowStock(log)
	case "audit-stock":
		runAuditStock(log)
	case "analyze":
		runAnalyze(log)
	case "recommend":
		runRecommend(log)
	case "export-bigquery":
		runExportBigQuery(log)
	case "sync-notion":
		runSyncNotion(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Ledgerbook CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  report           Print the profit and loss statement")
	fmt.Println("  dashboard        Print the financial summary and stock overview")
	fmt.Println("  low-stock        List products at or below the stock threshold")
	fmt.Println("  audit-stock      Check stock levels against transaction history")
	fmt.Println("  analyze          Run a risk assessment and store the result")
	fmt.Println("  recommend        Ask for a business strategy recommendation")
	fmt.Println("  export-bigquery  Export new transactions to BigQuery")
	fmt.Println("  sync-notion      Mirror transactions into a Notion database")
	fmt.Println("  help             Show this help message")
	fmt.Println("\nConfiguration is read from the environment (and .env).")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}

// openLedger loads configuration and the ledger, exiting on failure.
func openLedger(ctx context.Context, log zerolog.Logger) (*config.Config, *ledger.Store, storage.KV) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	store, kv, err := app.OpenLedger(ctx, cfg, nil, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger")
	}
	return cfg, store, kv
}

func parseDate(log zerolog.Logger, name, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		log.Fatal().Err(err).Str(name, value).Msgf("Error: invalid %s format, expected YYYY-MM-DD", name)
	}
	return t
}

func runReport(log zerolog.Logger) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	startDate := fs.String("start-date", "", "Only include transactions on or after YYYY-MM-DD")
	endDate := fs.String("end-date", "", "Only include transactions on or before YYYY-MM-DD")
	fs.Parse(os.Args[2:])

	start := parseDate(log, "start-date", *startDate)
	end := parseDate(log, "end-date", *endDate)

	ctx := logger.WithContext(context.Background(), log)
	_, store, kv := openLedger(ctx, log)
	defer kv.Close()

	asOf := time.Now()
	if !end.IsZero() {
		asOf = end
	}
	stmt := report.ProfitAndLoss(report.FilterByDate(store.Transactions(), start, end))
	if err := stmt.Render(os.Stdout, asOf); err != nil {
		log.Fatal().Err(err).Msg("Failed to render statement")
	}
}

func runDashboard(log zerolog.Logger) {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	cfg, store, kv := openLedger(ctx, log)
	defer kv.Close()

	snap := store.Snapshot()
	view := report.Dashboard(snap.Transactions, snap.Products, snap.Risk, cfg.LowStockThreshold)

	fmt.Println("\n=== Ringkasan ===")
	fmt.Printf("Pendapatan:   %s\n", report.FormatMoney(view.Summary.TotalIncome))
	fmt.Printf("Pengeluaran:  %s\n", report.FormatMoney(view.Summary.TotalExpense))
	fmt.Printf("Laba Bersih:  %s\n", report.FormatMoney(view.Summary.NetProfit))
	fmt.Printf("Transaksi:    %d\n", view.Summary.TransactionCount)
	fmt.Printf("Nilai Stok:   %s\n", report.FormatMoney(view.StockValue))
	if view.RiskScore != nil {
		fmt.Printf("Skor Risiko:  %.0f\n", *view.RiskScore)
	} else {
		fmt.Println("Skor Risiko:  -")
	}
	fmt.Printf("Stok Menipis: %d produk\n", len(view.LowStock))

	fmt.Printf("\n=== Transaksi Terakhir (%d) ===\n", len(view.RecentEntries))
	for _, tx := range view.RecentEntries {
		fmt.Printf("%s  %-8s %-40s %20s\n", tx.Date.Format("2006-01-02"), tx.Type, tx.Description, report.FormatMoney(tx.Amount))
	}
	fmt.Println()
}

func runLowStock(log zerolog.Logger) {
	fs := flag.NewFlagSet("low-stock", flag.ExitOnError)
	threshold := fs.Int64("threshold", -1, "Stock threshold (defaults to LOW_STOCK_THRESHOLD)")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	cfg, store, kv := openLedger(ctx, log)
	defer kv.Close()

	limit := cfg.LowStockThreshold
	if *threshold >= 0 {
		limit = *threshold
	}

	items := report.LowStockItems(store.Products(), limit)
	fmt.Printf("\n=== Stok <= %d (%d produk) ===\n", limit, len(items))
	for _, p := range items {
		fmt.Printf("%-30s %6d %s\n", p.Name, p.Stock, p.Unit)
	}
	fmt.Println()
}

func runAuditStock(log zerolog.Logger) {
	fs := flag.NewFlagSet("audit-stock", flag.ExitOnError)
	openingPath := fs.String("opening", "", "JSON array of products holding known opening stock (optional)")
	fs.Parse(os.Args[2:])

	opening := map[string]int64{}
	if *openingPath != "" {
		data, err := os.ReadFile(*openingPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *openingPath).Msg("Failed to read opening stock")
		}
		var products []domain.Product
		if err := json.Unmarshal(data, &products); err != nil {
			log.Fatal().Err(err).Str("path", *openingPath).Msg("Failed to decode opening stock")
		}
		for _, p := range products {
			opening[p.ID] = p.Stock
		}
	}

	ctx := logger.WithContext(context.Background(), log)
	_, store, kv := openLedger(ctx, log)
	defer kv.Close()

	snap := store.Snapshot()

	fmt.Println("\n=== Stock Audit ===")
	problems := 0
	for _, line := range inventory.Audit(snap.Products, snap.Transactions, opening) {
		if line.Issue != inventory.IssueNone {
			problems++
		}
		fmt.Printf("%-30s stock=%6d net=%+6d opening=%6d expected=%6d %s\n",
			line.Product.Name, line.Product.Stock, line.Net, line.Opening, line.Expected, line.Issue)
	}

	dangling := inventory.Dangling(snap.Products, snap.Transactions)
	if len(dangling) > 0 {
		fmt.Printf("\n=== Transactions referencing deleted products (%d) ===\n", len(dangling))
		sort.Slice(dangling, func(i, j int) bool { return dangling[i].Date.Before(dangling[j].Date) })
		for _, tx := range dangling {
			q, _ := tx.LinkedQuantity()
			fmt.Printf("%s  %s  %s x%d\n", tx.Date.Format("2006-01-02"), tx.ID, tx.ProductName, q)
		}
	}

	fmt.Printf("\n%d product(s) flagged, %d dangling transaction(s)\n\n", problems, len(dangling))
	if problems > 0 {
		os.Exit(2)
	}
}

func runAnalyze(log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	timeout := fs.Duration("timeout", 0, "Analysis timeout (defaults to ANALYSIS_TIMEOUT)")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	cfg, store, kv := openLedger(ctx, log)
	defer kv.Close()

	gw, err := app.NewGateway(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create analysis gateway")
	}

	limit := cfg.AnalysisTimeout
	if *timeout > 0 {
		limit = *timeout
	}
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	snap := store.Snapshot()
	ra, err := gw.AssessRisk(ctx, snap.Transactions, snap.Products)
	if err != nil {
		log.Fatal().Err(err).Str("kind", gateway.ErrorKind(err)).Msg(gateway.UserMessage(err))
	}
	store.SetRiskAssessment(ctx, *ra)

	fmt.Printf("\n=== Risk Assessment (%s) ===\n", ra.LastUpdated.Format(time.RFC3339))
	fmt.Printf("Score:  %.0f / 100\n", ra.OverallScore)
	fmt.Printf("Advice: %s\n", ra.GeneralAdvice)
	for i, a := range ra.Anomalies {
		fmt.Printf("\n%d. [%s] %s\n", i+1, a.Severity, a.Description)
		if a.TransactionID != "" {
			fmt.Printf("   Transaction: %s\n", a.TransactionID)
		}
		fmt.Printf("   Recommendation: %s\n", a.Recommendation)
	}
	fmt.Println()
}

func runRecommend(log zerolog.Logger) {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	cfg, store, kv := openLedger(ctx, log)
	defer kv.Close()

	gw, err := app.NewGateway(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create analysis gateway")
	}
	if !gw.Available() {
		log.Fatal().Msg(gateway.UserMessage(gateway.ErrUnavailable))
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.AnalysisTimeout)
	defer cancel()

	text := gw.RecommendStrategy(ctx, report.Summarize(store.Transactions()))
	if text == "" {
		log.Fatal().Msg("Could not generate a recommendation")
	}
	fmt.Println(text)
}

func runExportBigQuery(log zerolog.Logger) {
	fs := flag.NewFlagSet("export-bigquery", flag.ExitOnError)
	projectID := fs.String("project", "", "BigQuery project ID (defaults to BQ_PROJECT_ID)")
	dataset := fs.String("dataset", "", "BigQuery dataset (defaults to BQ_DATASET)")
	startDate := fs.String("start-date", "", "Only export transactions on or after YYYY-MM-DD")
	endDate := fs.String("end-date", "", "Only export transactions on or before YYYY-MM-DD")
	fs.Parse(os.Args[2:])

	start := parseDate(log, "start-date", *startDate)
	end := parseDate(log, "end-date", *endDate)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	cfg, store, kv := openLedger(ctx, log)
	defer kv.Close()

	if *projectID == "" {
		*projectID = cfg.BigQueryProjectID
	}
	if *dataset == "" {
		*dataset = cfg.BigQueryDataset
	}
	if *projectID == "" {
		log.Fatal().Msg("Error: --project or BQ_PROJECT_ID is required")
	}

	exporter, err := infraBQ.NewExporter(ctx, *projectID, *dataset, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery exporter")
	}
	defer exporter.Close()

	n, err := exporter.ExportTransactions(ctx, report.FilterByDate(store.Transactions(), start, end))
	if err != nil {
		log.Fatal().Err(err).Int("exported", n).Msg("Export failed")
	}

	fmt.Printf("Exported %d transaction(s) to %s.%s\n", n, *projectID, *dataset)
}

func runSyncNotion(log zerolog.Logger) {
	fs := flag.NewFlagSet("sync-notion", flag.ExitOnError)
	notionToken := fs.String("notion-token", "", "Notion API token (defaults to NOTION_TOKEN)")
	notionDBID := fs.String("notion-db-id", "", "Notion database ID (defaults to NOTION_DATABASE_ID)")
	dryRun := fs.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	cfg, store, kv := openLedger(ctx, log)
	defer kv.Close()

	if *notionToken == "" {
		*notionToken = cfg.NotionToken
	}
	if *notionDBID == "" {
		*notionDBID = cfg.NotionDatabaseID
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token or NOTION_TOKEN is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id or NOTION_DATABASE_ID is required")
	}

	client := notionsync.NewNotionClient(*notionToken)
	res, err := notionsync.SyncTransactions(ctx, client, *notionDBID, store.Transactions(), *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Notion sync failed")
	}

	prefix := ""
	if *dryRun {
		prefix = "[DRY RUN] "
	}
	fmt.Printf("%sCreated %d, archived %d, unchanged %d, failed %d\n", prefix, res.Created, res.Archived, res.Skipped, res.Failed)
}
