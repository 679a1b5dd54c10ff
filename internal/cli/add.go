package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"semindex/internal/adapter/fs"
)

var (
	addID    string
	addFile  string
	addForce bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a single document and rebuild the index",
	Long: `Chunk one document under the given id, embed it and merge it into the
index. Use --file - to read the document from stdin.

Examples:
  semindex add --id handbook --file handbook.txt
  cat notes.txt | semindex add --id notes --file - --force`,
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addID, "id", "", "document id (required)")
	addCmd.Flags().StringVar(&addFile, "file", "", "file to read, - for stdin (required)")
	addCmd.Flags().BoolVarP(&addForce, "force", "f", false, "re-vectorize the document if it is already indexed")
	addCmd.MarkFlagRequired("id")
	addCmd.MarkFlagRequired("file")
}

func readDocument(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return fs.DecodeText("stdin", data)
	}
	return fs.ReadText(path)
}

func runAdd(cmd *cobra.Command, args []string) error {
	text, err := readDocument(addFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg := GetConfig()
	idx, closeIndex, err := openIndex(newBuildProgress().update)
	if err != nil {
		return err
	}
	defer closeIndex()
	printFallback(idx)

	result, err := idx.AddDocument(addID, text, cfg.Index.ChunkTokens, cfg.Index.ChunkOverlap, addForce)
	if err != nil {
		return err
	}
	if result.Skipped {
		fmt.Printf("Document %q is already indexed; use --force to re-vectorize it.\n", addID)
		return nil
	}

	report, err := idx.Build()
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	if err := saveIndex(idx); err != nil {
		return err
	}

	fmt.Printf("\nAdded %s (%d chunks):\n", addID, result.Chunks)
	printReport(report)
	return nil
}
