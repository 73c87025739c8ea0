package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func createLoadCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Run one load and write the exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			svc := a.service()
			load := svc.Load
			if force {
				load = svc.Reload
			}
			result, err := load(ctx)
			if err != nil {
				return err
			}
			r := result.Report
			fmt.Printf("items=%d records=%d companies=%d skipped_items=%d skipped_records=%d geocoded(cache=%d provider=%d fallback=%d) reused=%t elapsed=%s\n",
				r.Items, r.Records, r.Companies, r.SkippedItems, r.SkippedRecords,
				r.Geocoded.Cache, r.Geocoded.Provider, r.Geocoded.Fallback, r.Reused,
				r.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Rebuild even when the input is unchanged")
	return cmd
}
