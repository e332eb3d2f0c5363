package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/viviztech/voterapp/internal/analytics"
	"github.com/viviztech/voterapp/internal/common"
	"github.com/viviztech/voterapp/internal/store"
)

// analyze prints aggregate statistics over the extracted roll and can export
// the full roll to an XLSX workbook.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	xlsxOut := flag.String("xlsx", "", "write the full voter roll to this XLSX file")
	flag.Parse()

	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	svc := analytics.NewService(st, logger)
	sum, err := svc.Summarize(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed (maybe no data yet?): %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--- Voter Roll Analysis ---")
	fmt.Printf("Total voters extracted: %d\n", sum.TotalVoters)

	fmt.Println("\nGender distribution:")
	for _, g := range sum.Gender {
		label := g.Gender
		if label == "" {
			label = "(blank)"
		}
		fmt.Printf("  %-10s %d\n", label, g.Count)
	}

	fmt.Println("\nAge statistics:")
	fmt.Printf("  min %d  max %d  avg %.1f\n", sum.MinAge, sum.MaxAge, sum.AvgAge)

	fmt.Println("\n--- Ages 18-29 ---")
	fmt.Printf("Total: %d", sum.YouthCount)
	if sum.TotalVoters > 0 {
		fmt.Printf(" (%.2f%%)", float64(sum.YouthCount)/float64(sum.TotalVoters)*100)
	}
	fmt.Println()
	fmt.Printf("Average age: %.1f\n", sum.YouthAvgAge)
	fmt.Printf("Gender split: Male %d, Female %d\n", sum.YouthMale, sum.YouthFemale)

	fmt.Println("\nVoters per polling station:")
	for _, sc := range sum.PerStation {
		fmt.Printf("  station %d: %d\n", sc.StationID, sc.Count)
	}

	if *xlsxOut != "" {
		data, err := svc.ExportVotersXLSX(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxOut, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", *xlsxOut, err)
			os.Exit(1)
		}
		fmt.Printf("\nExported voter roll to %s\n", *xlsxOut)
	}
}
