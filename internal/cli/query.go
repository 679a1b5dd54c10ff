package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"semindex/internal/domain"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the index",
	Long: `Rank indexed chunks against a natural-language query by cosine similarity.

Examples:
  semindex query -q "how do parrots learn words"
  semindex query -q "red planet" --top-k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	idx, closeIndex, err := openIndex(nil)
	if err != nil {
		return err
	}
	defer closeIndex()

	// Determine top-k
	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	results, err := idx.Query(queryText, topK)
	if errors.Is(err, domain.ErrEmptyIndex) {
		return fmt.Errorf("no index found. Run 'semindex index' first")
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	// Output results
	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
	for i, r := range results {
		fmt.Printf("--- [%d] %s (score: %.3f) ---\n", i+1, r.ChunkID, r.Score)
		fmt.Println(truncate(r.Text, maxSnippetRunes))
		fmt.Println()
	}
	return nil
}

const maxSnippetRunes = 500

// truncate shortens text to at most n runes for display.
func truncate(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}
