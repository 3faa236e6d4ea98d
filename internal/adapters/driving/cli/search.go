package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

var (
	searchLimit       int
	searchMinScore    float64
	searchRelevanceW  float64
	searchRecencyW    float64
	searchImportanceW float64
	searchNoSum       bool
	searchHosted      bool
	searchJSON        bool
)

var searchCmd = &cobra.Command{
	Use:   "search [topic]",
	Short: "Recall documents for a topic",
	Long: `Runs a similarity search for the topic, re-scores candidates by
relevance and recency, and prints the surviving documents with an
optional one-sentence summary.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultRecallLimit, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", domain.DefaultMinScore, "minimum composite score")
	searchCmd.Flags().Float64Var(&searchRelevanceW, "relevance-weight", domain.DefaultRelevanceWeight, "relevance weight in the composite score")
	searchCmd.Flags().Float64Var(&searchRecencyW, "recency-weight", domain.DefaultRecencyWeight, "recency weight in the composite score")
	searchCmd.Flags().Float64Var(&searchImportanceW, "importance-weight", domain.DefaultImportanceWeight, "importance weight in the composite score")
	searchCmd.Flags().BoolVar(&searchNoSum, "no-summary", false, "skip the LLM summary")
	searchCmd.Flags().BoolVar(&searchHosted, "hosted", false, "summarize with the hosted backend")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	topic := args[0]

	opts := domain.DefaultRecallOptions()
	opts.Limit = searchLimit
	opts.MinScore = searchMinScore
	opts.Weights = domain.ScoreWeights{
		Importance: searchImportanceW,
		Recency:    searchRecencyW,
		Relevance:  searchRelevanceW,
	}
	opts.IncludeSummary = !searchNoSum
	opts.UseLocalLLM = !searchHosted

	result, err := recallService.Recall(context.Background(), topic, opts)
	if err != nil {
		return fmt.Errorf("recall failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(result.Documents) == 0 {
		cmd.Println(domain.NoDocumentsSummary)
		return nil
	}

	for i, doc := range result.Documents {
		cmd.Printf("  [%d] %.3f (relevance %.2f, recency %.2f)\n", i+1, doc.Score, doc.Relevance, doc.Recency)
		cmd.Printf("      %s\n", doc.Text)
		cmd.Println()
	}
	cmd.Printf("Mean score: %.3f\n", result.MeanScore)
	if result.Summary != "" {
		cmd.Printf("Summary: %s\n", result.Summary)
	}
	return nil
}
