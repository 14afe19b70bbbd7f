package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/localrivet/aisummarizer/internal/analysis"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var (
		text   string
		only   []string
		output string
	)

	cmd := &cobra.Command{
		Use:   "analyze [file|url|-]",
		Short: "Analyze text: stats, sentiment, entities, keywords and readability",
		Long: `Analyze text from a file, a URL, --text or stdin.

Sentiment and entities need local models configured under analysis.
Analyses that cannot run are reported without failing the others.`,
		Example: `  aisummarizer analyze article.md
  aisummarizer analyze --only keywords,readability -o json report.pdf`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := analysis.ParseKinds(only)
			if err != nil {
				return err
			}
			if err := checkOutput(output); err != nil {
				return err
			}

			svc, err := root.newService(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			src, err := readInput(cmd.Context(), cmd, svc, text, args)
			if err != nil {
				return err
			}
			report, err := svc.Analyze(cmd.Context(), src.Text, kinds...)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, report, func(w io.Writer) {
				printReport(w, report)
			})
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Text to analyze")
	cmd.Flags().StringSliceVar(&only, "only", nil, "Analyses to run (stats, sentiment, entities, keywords, readability)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	return cmd
}

func checkOutput(output string) error {
	switch output {
	case "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use text, json or yaml)", output)
	}
}

// writeOutput encodes v as json or yaml, or calls text for plain output.
func writeOutput(w io.Writer, output string, v any, text func(io.Writer)) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		text(w)
		return nil
	}
}
