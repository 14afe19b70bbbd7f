package commands

import (
	"github.com/spf13/cobra"
)

func newSpeakCmd(root *rootOptions) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "speak [file|url|-]",
		Short: "Read text aloud",
		Long: `Read text aloud with the configured speech program.

The program defaults to espeak. Set speech.command to use another one,
such as say or spd-say.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := root.newService(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			src, err := readInput(cmd.Context(), cmd, svc, text, args)
			if err != nil {
				return err
			}
			return svc.Speak(cmd.Context(), src.Text)
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Text to read")
	return cmd
}
