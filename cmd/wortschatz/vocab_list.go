package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wortschatz/wortschatz/internal/types"
)

var (
	listSortBy     string
	listDescending bool
	listLimit      int
)

var vocabListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored phrases",
	Args:  cobra.NoArgs,
	RunE:  runVocabList,
}

func init() {
	vocabListCmd.Flags().StringVar(&listSortBy, "sort", "id",
		"Sort key: alphabetical, mastery, id")
	vocabListCmd.Flags().BoolVar(&listDescending, "desc", false,
		"Sort in descending order")
	vocabListCmd.Flags().IntVar(&listLimit, "limit", 0,
		"Maximum number of phrases to show (0 = all)")
}

func runVocabList(cmd *cobra.Command, args []string) error {
	s, err := resolveStore()
	if err != nil {
		return err
	}
	defer s.Close()

	switch types.SortKey(listSortBy) {
	case types.SortAlphabetical, types.SortMastery, types.SortID:
	default:
		return fmt.Errorf("unknown sort key %q", listSortBy)
	}

	phrases := s.GetVocabulary(listLimit, types.SortKey(listSortBy), !listDescending)

	if vocabJSONOutput {
		return printJSON(cmd.OutOrStdout(), types.PhraseList{
			Phrases: phrases,
			Total:   len(phrases),
		})
	}

	if len(phrases) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No phrases found.")
		return nil
	}
	printPhraseTable(cmd.OutOrStdout(), phrases)
	return nil
}
