package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/wortschatz/wortschatz/internal/config"
	"github.com/wortschatz/wortschatz/internal/store"
	"github.com/wortschatz/wortschatz/internal/types"
)

var (
	vocabPathOverride string
	vocabJSONOutput   bool
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Inspect a phrase file",
	Long:  "List and inspect stored phrases without running the server.",
}

func init() {
	vocabCmd.PersistentFlags().StringVar(&vocabPathOverride, "path", "",
		"Phrase file path (overrides config and WORTSCHATZ_DB_PATH)")
	vocabCmd.PersistentFlags().BoolVar(&vocabJSONOutput, "json", false,
		"Output in JSON format")

	vocabCmd.AddCommand(vocabListCmd)
	vocabCmd.AddCommand(vocabDueCmd)
}

// resolveStore opens the phrase file named by --path or the configuration.
func resolveStore() (*store.FileStore, error) {
	path := vocabPathOverride
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		path = cfg.Database.Path
	}
	return store.NewFileStore(path)
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// printPhraseTable renders phrases as an aligned table.
func printPhraseTable(w io.Writer, phrases []types.Phrase) {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "ID\tGERMAN\tEASE\tINTERVAL\tSTREAK\tNEXT REVIEW")
	for _, p := range phrases {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%dd\t%d\t%s\n",
			p.ID, p.German, p.EaseFactor, p.IntervalDays, p.Repetition,
			formatReview(p.NextReview))
	}
	tw.Flush()
}

func formatReview(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
