// Package commands implements the aisummarizer command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/localrivet/aisummarizer"
	"github.com/localrivet/aisummarizer/internal/config"
	"github.com/localrivet/aisummarizer/internal/document"
	"github.com/localrivet/aisummarizer/internal/errortypes"
	"github.com/localrivet/aisummarizer/internal/logger"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	engine     string
	logLevel   string
	logFormat  string
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "aisummarizer",
		Short: "Summarize long documents with AI models",
		Long: `aisummarizer condenses text of any length.

Documents are split into 1000 word chunks and each chunk is summarized
within the requested word bounds. A chunk the engine cannot summarize is
kept as is, so a summary is always produced once the input is valid.

Input can be a text, markdown, HTML, PDF or Office file, a URL, or stdin.
Summaries can be analyzed, read aloud, copied or exported.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", config.DefaultConfigFilename, "Config file path")
	pf.StringVarP(&opts.engine, "engine", "e", "", "Engine: basic, lexrank, anthropic, openai, google or xai")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error or disabled")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")

	cmd.AddCommand(
		newSummarizeCmd(opts),
		newAnalyzeCmd(opts),
		newSpeakCmd(opts),
		newServeCmd(opts),
		newArchiveCmd(opts),
		newConfigCmd(opts),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs the command line.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads the config file and environment, then applies flags.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithPath(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.engine != "" {
		cfg.Summarizer.Engine = strings.ToLower(o.engine)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	lc := logger.DefaultConfig()
	lc.Level = cfg.Logging.Level
	lc.Format = logger.Format(cfg.Logging.Format)
	lc.Output = w
	return logger.New(lc)
}

// newService loads configuration and builds the service, logging to the
// command's stderr.
func (o *rootOptions) newService(cmd *cobra.Command) (*aisummarizer.Service, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg, cmd.ErrOrStderr())
	return aisummarizer.NewService(aisummarizer.ServiceOptions{Config: cfg, Logger: log})
}

// readInput returns the text to work on: --text, stdin for no argument or
// "-", otherwise a file or URL.
func readInput(ctx context.Context, cmd *cobra.Command, svc *aisummarizer.Service, text string, args []string) (*document.Document, error) {
	if text != "" {
		return &document.Document{Source: "text", Format: "text", Text: text}, nil
	}
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, errortypes.ValidationError(document.ErrNoText, "no text provided")
		}
		return &document.Document{Source: "stdin", Format: "text", Text: string(data)}, nil
	}
	return svc.Load(ctx, args[0])
}
