package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/linkforge/internal/model"
)

var (
	runPublisher  string
	runTarget     string
	runAnchor     string
	runAnchorType string
	runMinWords   int
	runLanguage   string
	runDryRun     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline for a single job",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		machine, err := buildMachine(st, runDryRun)
		if err != nil {
			return err
		}

		result := machine.Execute(ctx, model.JobInput{
			PublisherDomain: runPublisher,
			TargetURL:       runTarget,
			AnchorText:      runAnchor,
			AnchorTypeHint:  model.AnchorType(runAnchorType),
			MinWordCount:    runMinWords,
			Language:        runLanguage,
		})

		zap.L().Info("run finished",
			zap.String("job_id", result.JobID),
			zap.String("final_state", string(result.FinalState)),
			zap.Bool("success", result.Success),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if !result.Success {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runPublisher, "publisher", "", "publisher domain (required)")
	runCmd.Flags().StringVar(&runTarget, "target", "", "target page URL (required)")
	runCmd.Flags().StringVar(&runAnchor, "anchor", "", "anchor text (required)")
	runCmd.Flags().StringVar(&runAnchorType, "anchor-type", "", "anchor type hint (exact, partial, brand, generic)")
	runCmd.Flags().IntVar(&runMinWords, "min-words", 0, "minimum word count (default from config)")
	runCmd.Flags().StringVar(&runLanguage, "language", "", "content language tag, e.g. en or sv")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "use the deterministic stub writer instead of Claude")
	_ = runCmd.MarkFlagRequired("publisher")
	_ = runCmd.MarkFlagRequired("target")
	_ = runCmd.MarkFlagRequired("anchor")
	rootCmd.AddCommand(runCmd)
}
