package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"thronebutt-scraper/internal/ioformats"
	"thronebutt-scraper/internal/metrics"
)

var batchFlags struct {
	input       string
	output      string
	concurrency int
	metricsAddr string
}

func init() {
	f := batchCmd.Flags()
	f.StringVarP(&batchFlags.input, "input", "i", "", "Input file: csv with race_type,year,identifier[,page,all_pages] columns, or ndjson.")
	f.StringVarP(&batchFlags.output, "output", "o", "", "Output NDJSON file (default stdout).")
	f.IntVar(&batchFlags.concurrency, "concurrency", 0, "Races fetched at once (default from config).")
	f.StringVar(&batchFlags.metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address while running.")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch --input races.csv [--output results.ndjson]",
	Short: "Fetches every race listed in a csv or ndjson file and writes one NDJSON result per race.",
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := ioformats.ReadParams(batchFlags.input)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if batchFlags.concurrency > 0 {
			cfg.BatchConcurrency = batchFlags.concurrency
		}
		if batchFlags.metricsAddr != "" {
			go metrics.ExposeMetrics(batchFlags.metricsAddr)
		}

		svc, err := service()
		if err != nil {
			return err
		}
		results := svc.Batch(cmd.Context(), params)

		w, closeOut, err := openOutput(batchFlags.output)
		if err != nil {
			return err
		}
		defer closeOut()
		return ioformats.WriteNDJSON(w, results)
	},
}
