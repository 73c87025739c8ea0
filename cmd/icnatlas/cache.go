package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

func createCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the geocode cache",
	}
	cacheCmd.AddCommand(createCacheStatsCmd())
	cacheCmd.AddCommand(createCacheExportCmd())
	cacheCmd.AddCommand(createCacheImportCmd())
	cacheCmd.AddCommand(createCacheClearCmd())
	return cacheCmd
}

func createCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(context.Background())
			if err != nil {
				return err
			}
			defer a.close()

			var found int
			snapshot := a.cache.Snapshot()
			for _, entry := range snapshot {
				if entry.Found {
					found++
				}
			}
			fmt.Printf("entries=%d found=%d fallback=%d\n", len(snapshot), found, len(snapshot)-found)
			return nil
		},
	}
}

func createCacheExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the cache as JSON to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(context.Background())
			if err != nil {
				return err
			}
			defer a.close()

			blob, err := a.cache.Export()
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], blob, 0o644); err != nil {
				return eris.Wrapf(err, "write %s", args[0])
			}
			fmt.Printf("exported %d entries to %s\n", a.cache.Len(), args[0])
			return nil
		},
	}
}

func createCacheImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Replace the cache with entries from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			blob, err := os.ReadFile(args[0])
			if err != nil {
				return eris.Wrapf(err, "read %s", args[0])
			}
			if err := a.cache.Import(blob); err != nil {
				return err
			}
			if err := a.saveCache(ctx); err != nil {
				return err
			}
			fmt.Printf("imported %d entries\n", a.cache.Len())
			return nil
		},
	}
}

func createCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			a.cache.Clear()
			if err := a.saveCache(ctx); err != nil {
				return err
			}
			fmt.Println("geocode cache cleared")
			return nil
		},
	}
}
