package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wortschatz/wortschatz/internal/types"
)

var dueLimit int

var vocabDueCmd = &cobra.Command{
	Use:   "due",
	Short: "List phrases due for review",
	Args:  cobra.NoArgs,
	RunE:  runVocabDue,
}

func init() {
	vocabDueCmd.Flags().IntVar(&dueLimit, "limit", 0,
		"Maximum number of phrases to show (0 = all)")
}

func runVocabDue(cmd *cobra.Command, args []string) error {
	s, err := resolveStore()
	if err != nil {
		return err
	}
	defer s.Close()

	phrases := s.GetDuePhrases(dueLimit)

	if vocabJSONOutput {
		return printJSON(cmd.OutOrStdout(), types.PhraseList{
			Phrases: phrases,
			Total:   len(phrases),
		})
	}

	if len(phrases) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to review.")
		return nil
	}
	printPhraseTable(cmd.OutOrStdout(), phrases)
	return nil
}
