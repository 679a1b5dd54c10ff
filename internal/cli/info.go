package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"semindex/config"
)

var infoTerms int

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().IntVar(&infoTerms, "terms", 0, "list the N most distinctive TF-IDF terms")
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	idx, closeIndex, err := openIndex(nil)
	if err != nil {
		return err
	}
	defer closeIndex()

	fmt.Printf("Method:     %s\n", idx.Method())
	if reason := idx.FallbackReason(); reason != "" {
		fmt.Printf("Fallback:   %s\n", reason)
	}
	fmt.Printf("Documents:  %d\n", len(idx.Documents()))
	fmt.Printf("Chunks:     %d\n", idx.Len())
	fmt.Printf("Dimension:  %d\n", idx.Dimension())
	if cfg.Persistence.Enabled {
		fmt.Printf("Store:      %s (%s)\n", config.IndexPath(GetRootDir(), cfg), cfg.Persistence.Format)
	} else {
		fmt.Printf("Store:      disabled\n")
	}
	if embedding := cfg.Embedding; embedding.Provider != "" && embedding.Provider != "none" {
		fmt.Printf("Embedding:  %s %s\n", embedding.Provider, embedding.Model)
	}

	if terms := idx.DistinctiveTerms(infoTerms); len(terms) > 0 {
		fmt.Printf("\nDistinctive terms:\n")
		for _, tw := range terms {
			fmt.Printf("  %-20s %.3f\n", tw.Term, tw.Weight)
		}
	}
	return nil
}
