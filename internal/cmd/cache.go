package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/resumeforge/resumeforge/internal/observability"
	"github.com/resumeforge/resumeforge/internal/output"
)

var (
	cacheListLimit  int
	cacheListOutput string
	cachePurgeAll   bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the generation cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached generations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(cacheListOutput)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		gens, err := db.ListGenerations(cmd.Context(), cacheListLimit)
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatGenerations(gens)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return err
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cached generations (or all with --all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		var removed int64
		if cachePurgeAll {
			removed, err = db.ClearGenerations(cmd.Context())
		} else {
			removed, err = db.PurgeExpiredGenerations(cmd.Context(), time.Now())
		}
		if err != nil {
			return err
		}

		observability.CLILogger.Info(fmt.Sprintf("Removed %d cached generation(s)", removed),
			zap.Int64("removed", removed),
			zap.Bool("all", cachePurgeAll))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePurgeCmd)

	cacheListCmd.Flags().IntVar(&cacheListLimit, "limit", 50, "maximum entries to list")
	cacheListCmd.Flags().StringVarP(&cacheListOutput, "output-format", "o", "table", "output format: table, json, markdown")
	cachePurgeCmd.Flags().BoolVar(&cachePurgeAll, "all", false, "delete every entry, not only expired ones")
}
