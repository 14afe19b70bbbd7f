package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/localrivet/aisummarizer/internal/archive"
	"github.com/localrivet/aisummarizer/internal/errortypes"
)

type archiveOptions struct {
	db     string
	output string
}

func newArchiveCmd(root *rootOptions) *cobra.Command {
	opts := &archiveOptions{}

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse summaries exported to a SQLite file",
		Long: `Browse summaries saved with --out file.db or --format sqlite.

The file defaults to archive.path from the config (.aisummarizer.db).`,
	}
	cmd.PersistentFlags().StringVar(&opts.db, "db", "", "Archive file")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "Output format: text, json or yaml")

	cmd.AddCommand(
		newArchiveListCmd(root, opts),
		newArchiveSearchCmd(root, opts),
		newArchiveShowCmd(root, opts),
		newArchiveRemoveCmd(root, opts),
	)
	return cmd
}

// openArchive opens an existing archive file; it never creates one.
func openArchive(root *rootOptions, opts *archiveOptions) (*archive.SQLiteStore, error) {
	if err := checkOutput(opts.output); err != nil {
		return nil, err
	}
	path := opts.db
	if path == "" {
		cfg, err := root.loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Archive.Path
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errortypes.ValidationError(err, fmt.Sprintf("no archive at %s", path))
	}

	store := archive.NewSQLiteStore(nil)
	if err := store.Initialize(path); err != nil {
		return nil, err
	}
	return store, nil
}

func newArchiveListCmd(root *rootOptions, opts *archiveOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived summaries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openArchive(root, opts)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.List(limit)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, entries, func(w io.Writer) {
				if len(entries) == 0 {
					fmt.Fprintln(w, "No summaries archived.")
					return
				}
				for _, e := range entries {
					printEntryLine(w, e, "")
				}
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", archive.DefaultListLimit, "Maximum entries to list")
	return cmd
}

func newArchiveSearchCmd(root *rootOptions, opts *archiveOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find archived summaries similar to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openArchive(root, opts)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			matches, err := store.Search(strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, matches, func(w io.Writer) {
				if len(matches) == 0 {
					fmt.Fprintln(w, "No matching summaries.")
					return
				}
				for _, m := range matches {
					printEntryLine(w, m.Entry, fmt.Sprintf(" [%.3f]", m.Similarity))
				}
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Maximum matches")
	return cmd
}

func newArchiveShowCmd(root *rootOptions, opts *archiveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print one archived summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openArchive(root, opts)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entry, err := store.Get(args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, entry, func(w io.Writer) {
				fmt.Fprintf(w, "ID:      %s\n", entry.ID)
				fmt.Fprintf(w, "Source:  %s\n", entry.Source)
				fmt.Fprintf(w, "Created: %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))
				fmt.Fprintf(w, "Lengths: %d-%d words, %d chunk(s)", entry.MinLength, entry.MaxLength, entry.Chunks)
				if entry.Degraded {
					fmt.Fprint(w, ", some kept as source text")
				}
				fmt.Fprintf(w, "\n\n%s\n", entry.Summary)
			})
		},
	}
}

func newArchiveRemoveCmd(root *rootOptions, opts *archiveOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID...",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove archived summaries",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openArchive(root, opts)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for _, id := range args {
				if err := store.Delete(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
			}
			return nil
		},
	}
}

func printEntryLine(w io.Writer, e archive.Entry, suffix string) {
	summary := e.Summary
	if r := []rune(summary); len(r) > 72 {
		summary = string(r[:69]) + "..."
	}
	fmt.Fprintf(w, "%s  %s%s  %s\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04"), suffix, summary)
}
