package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every document from the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, closeIndex, err := openIndex(nil)
		if err != nil {
			return err
		}
		defer closeIndex()

		n := idx.Len()
		if err := idx.Clear(); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
		fmt.Printf("Cleared %d chunks.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
