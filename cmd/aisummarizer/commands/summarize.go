package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/localrivet/aisummarizer/internal/analysis"
	"github.com/localrivet/aisummarizer/internal/export"
	"github.com/localrivet/aisummarizer/internal/summarizer"
)

type summarizeOptions struct {
	text      string
	minLength int
	maxLength int
	out       string
	format    string
	title     string
	copy      bool
	speak     bool
	detailed  bool
	analyze   bool
}

func newSummarizeCmd(root *rootOptions) *cobra.Command {
	opts := &summarizeOptions{}

	cmd := &cobra.Command{
		Use:   "summarize [file|url|-]",
		Short: "Summarize a document",
		Long: `Summarize a document from a file, a URL, --text or stdin.

Every chunk summary is kept between --min and --max words. Both default to
the configured lengths (30 and 130 unless changed).`,
		Example: `  aisummarizer summarize report.pdf
  aisummarizer summarize --max 60 https://example.com/article
  cat notes.txt | aisummarizer summarize --out notes.md --analyze
  aisummarizer summarize minutes.docx --out archive.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, root, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.text, "text", "t", "", "Text to summarize")
	f.IntVar(&opts.minLength, "min", 0, "Minimum words per chunk summary")
	f.IntVar(&opts.maxLength, "max", 0, "Maximum words per chunk summary (at most 1000)")
	f.StringVarP(&opts.out, "out", "o", "", "Save the summary to this file")
	f.StringVarP(&opts.format, "format", "f", "", "Export format: txt, md, pdf, json, yaml or sqlite (default from --out extension)")
	f.StringVar(&opts.title, "title", "", "Title for exported documents")
	f.BoolVar(&opts.copy, "copy", false, "Copy the summary to the clipboard")
	f.BoolVar(&opts.speak, "speak", false, "Read the summary aloud")
	f.BoolVar(&opts.detailed, "detailed", false, "Print how each chunk was handled")
	f.BoolVar(&opts.analyze, "analyze", false, "Analyze the summary and include the report")

	return cmd
}

func runSummarize(cmd *cobra.Command, root *rootOptions, opts *summarizeOptions, args []string) error {
	ctx := cmd.Context()

	svc, err := root.newService(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	var format export.Format
	if opts.format != "" {
		if format, err = export.ParseFormat(opts.format); err != nil {
			return err
		}
	}

	src, err := readInput(ctx, cmd, svc, opts.text, args)
	if err != nil {
		return err
	}

	minLength, maxLength := opts.minLength, opts.maxLength
	if !cmd.Flags().Changed("min") {
		minLength = svc.Config().Summarizer.MinLength
	}
	if !cmd.Flags().Changed("max") {
		maxLength = svc.Config().Summarizer.MaxLength
	}

	res, err := svc.SummarizeDetailed(ctx, src.Text, minLength, maxLength)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Summary)
	if opts.detailed {
		printChunks(out, res)
	}

	doc := export.NewDocument(res.Summary)
	doc.Title = opts.title
	if doc.Title == "" {
		doc.Title = src.Title
	}
	doc.Source = src.Source
	doc.MinLength = minLength
	doc.MaxLength = maxLength
	doc.Chunks = len(res.Chunks)
	doc.Degraded = res.Degraded()

	if opts.analyze {
		report, err := svc.Analyze(ctx, res.Summary)
		if err != nil {
			return err
		}
		doc.Analysis = report
		printReport(out, report)
	}

	if opts.out != "" {
		if err := svc.Export(opts.out, format, doc); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved summary to %s\n", opts.out)
	}
	if opts.copy {
		if err := svc.CopyToClipboard(res.Summary); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Summary copied to clipboard")
	}
	if opts.speak {
		if err := svc.Speak(ctx, res.Summary); err != nil {
			return err
		}
	}
	return nil
}

func printChunks(w io.Writer, res *summarizer.Result) {
	fmt.Fprintf(w, "\nRequest %s: %d chunk(s), %d kept as source text\n", res.RequestID, len(res.Chunks), res.FallbackCount())
	for _, c := range res.Chunks {
		line := fmt.Sprintf("  chunk %d: %d words, bounds %s, %s", c.Index, c.WordCount, c.Bounds, c.Outcome)
		if c.Error != "" {
			line += " (" + c.Error + ")"
		}
		fmt.Fprintln(w, line)
	}
}

func printReport(w io.Writer, r *analysis.Report) {
	fmt.Fprintln(w)
	if r.Stats != nil {
		fmt.Fprintf(w, "Words: %d  Sentences: %d  Characters: %d  Reading time: %.2f min\n",
			r.Stats.Words, r.Stats.Sentences, r.Stats.Characters, r.Stats.ReadingTimeMinutes)
	}
	if r.Sentiment != nil {
		fmt.Fprintf(w, "Sentiment: %s (%.2f)\n", r.Sentiment.Label, r.Sentiment.Score)
	}
	if len(r.Entities) > 0 {
		fmt.Fprintln(w, "Entities:")
		for _, e := range r.Entities {
			fmt.Fprintf(w, "  %s: %s (%.2f)\n", e.Group, e.Word, e.Score)
		}
	}
	if len(r.Keywords) > 0 {
		fmt.Fprintln(w, "Keywords:")
		for _, k := range r.Keywords {
			fmt.Fprintf(w, "  %s (%.3f)\n", k.Phrase, k.Score)
		}
	}
	if r.Readability != nil {
		fmt.Fprintf(w, "Readability: Flesch %.2f, Flesch-Kincaid grade %.2f, %s\n",
			r.Readability.FleschReadingEase, r.Readability.FleschKincaidGrade, r.Readability.TextStandard)
	}
	for _, kind := range analysis.AllKinds {
		if msg, failed := r.Errors[kind]; failed {
			fmt.Fprintf(w, "%s unavailable: %s\n", kind, msg)
		}
	}
}
