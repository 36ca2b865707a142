package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/resumeforge/resumeforge/internal/ailink"
	"github.com/resumeforge/resumeforge/internal/observability"
	"github.com/resumeforge/resumeforge/internal/output"
	"github.com/resumeforge/resumeforge/internal/resume"
	"github.com/resumeforge/resumeforge/internal/store"
)

var (
	tailorResumePath string
	tailorJobPath    string
	tailorModel      string
	tailorOutput     string
	tailorExport     string
	tailorOut        string
	tailorNoCache    bool
	tailorInfo       resume.PersonalInfo
)

var tailorCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Tailor a resume to a job description",
	Long: `Send a resume and a job description to the configured AI provider and
print the tailored, structured resume.

Use --export pdf|docx to also write a document. Pass "-" to read the resume
from stdin. The web app's per-client limit does not apply here.`,
	Example: `  resumeforge tailor --resume resume.txt --job job.txt
  resumeforge tailor --resume resume.txt --job job.txt --export pdf --name "Ada Lovelace"
  cat resume.txt | resumeforge tailor --resume - --job job.txt -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := output.ParseFormat(tailorOutput)
		if err != nil {
			return err
		}

		resumeText, err := readInput(tailorResumePath, cmd.InOrStdin())
		if err != nil {
			return err
		}
		jobText, err := readInput(tailorJobPath, cmd.InOrStdin())
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var cache ailink.Cache
		if cfg.Cache.Enabled && !tailorNoCache {
			db, err := openStore(ctx, cfg.Store)
			if err != nil {
				observability.CLILogger.Warn("Generation cache disabled: store unavailable", zap.Error(err))
			} else {
				defer db.Close() // nolint:errcheck // best-effort cleanup
				cache = store.NewGenerationCache(db, cfg.Cache.TTL)
			}
		}

		service, cleanup, err := newTailorService(cfg, cache)
		if err != nil {
			return err
		}
		defer cleanup()

		start := time.Now()
		result, err := service.Tailor(ctx, ailink.TailorRequest{
			ResumeText:     string(resumeText),
			JobDescription: string(jobText),
			Model:          tailorModel,
		})
		if err != nil {
			failure := ailink.ClassifyError(err)
			observability.CLILogger.Debug("Generation failed",
				zap.String("code", failure.Code),
				zap.Any("details", failure.Details),
				zap.Error(err))
			return fmt.Errorf("%s: %w", failure.Message, err)
		}
		observability.CLILogger.Debug("Generation complete",
			zap.String("model", result.Model),
			zap.Bool("cached", result.Cached),
			zap.Duration("elapsed", time.Since(start)))

		if err := printResume(cmd.OutOrStdout(), format, tailorInfo, result.Resume); err != nil {
			return err
		}

		if strings.TrimSpace(tailorExport) != "" {
			path, err := writeDocument(tailorExport, tailorInfo, result.Resume, tailorOut)
			if err != nil {
				return err
			}
			observability.CLILogger.Info("Document written", zap.String("path", path))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tailorCmd)

	tailorCmd.Flags().StringVar(&tailorResumePath, "resume", "", "resume text file (\"-\" for stdin)")
	tailorCmd.Flags().StringVar(&tailorJobPath, "job", "", "job description text file")
	tailorCmd.Flags().StringVar(&tailorModel, "model", "", "model override (default from ailink.model)")
	tailorCmd.Flags().StringVarP(&tailorOutput, "output-format", "o", "table", "output format: table, json, markdown")
	tailorCmd.Flags().StringVar(&tailorExport, "export", "", "also write a document: pdf or docx")
	tailorCmd.Flags().StringVar(&tailorOut, "out", "", "document path (default \"<name>.<ext>\")")
	tailorCmd.Flags().BoolVar(&tailorNoCache, "no-cache", false, "bypass the generation cache")
	addPersonalInfoFlags(tailorCmd, &tailorInfo)

	_ = tailorCmd.MarkFlagRequired("resume")
	_ = tailorCmd.MarkFlagRequired("job")
}
