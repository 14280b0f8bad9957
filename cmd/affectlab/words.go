package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/affectlab/affectlab-server/internal/service"
	"github.com/affectlab/affectlab-server/internal/wordfreq"
)

// Output formats for the words command.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var (
	wordsOutput        string
	wordsLimit         int
	wordsKeepStopwords bool
)

// wordsCmd ranks the most frequent words of a file or stdin
var wordsCmd = &cobra.Command{
	Use:   "words <file|->",
	Short: "Rank the most frequent words of a text",
	Long: `Count words in a text file, or stdin when the argument is "-", and print
the most frequent ones with their share of all counted words.`,
	Args: cobra.ExactArgs(1),
	RunE: runWords,
}

func init() {
	wordsCmd.Flags().StringVarP(&wordsOutput, "output", "o", outputTable, "Output format (table, json, yaml)")
	wordsCmd.Flags().IntVarP(&wordsLimit, "limit", "n", wordfreq.DefaultLimit, "Number of words to show")
	wordsCmd.Flags().BoolVar(&wordsKeepStopwords, "keep-stopwords", false, "Count stop words and one-letter tokens")
}

// wordsReport is the structured output of the words command.
type wordsReport struct {
	Summary     string               `json:"summary" yaml:"summary"`
	TotalWords  int                  `json:"total_words" yaml:"total_words"`
	UniqueWords int                  `json:"unique_words" yaml:"unique_words"`
	Words       []wordfreq.WordCount `json:"words" yaml:"words"`
}

func runWords(cmd *cobra.Command, args []string) error {
	switch wordsOutput {
	case outputTable, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q (must be table, json or yaml)", wordsOutput)
	}

	text, err := readText(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty text provided")
	}

	a := wordfreq.Analyze(text, wordfreq.Options{Limit: wordsLimit, KeepStopwords: wordsKeepStopwords})
	report := wordsReport{
		Summary:     service.TextSummary(a.TotalWords, a.UniqueWords),
		TotalWords:  a.TotalWords,
		UniqueWords: a.UniqueWords,
		Words:       a.Words,
	}

	out := cmd.OutOrStdout()
	switch wordsOutput {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return printWordTable(out, report)
	}
}

func readText(stdin io.Reader, arg string) (string, error) {
	var r io.Reader = stdin
	if arg != "-" {
		f, err := os.Open(arg) //#nosec G304 -- path supplied by the user
		if err != nil {
			return "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func printWordTable(w io.Writer, report wordsReport) error {
	fmt.Fprintln(w, report.Summary)
	if len(report.Words) == 0 {
		return nil
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "RANK\tWORD\tCOUNT\tPERCENT\t")
	for i, wc := range report.Words {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f%%\t\n", i+1, wc.Word, wc.Count, wc.Percentage)
	}
	return tw.Flush()
}
