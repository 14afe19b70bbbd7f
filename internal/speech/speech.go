// Package speech reads text aloud through a local text-to-speech program.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/localrivet/aisummarizer/internal/errortypes"
)

// DefaultCommand is the speech synthesizer used when none is configured.
const DefaultCommand = "espeak"

// ErrNothingToSpeak is returned for blank input.
var ErrNothingToSpeak = errors.New("nothing to speak")

// Speaker turns text into audio.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// CommandSpeaker runs an external program with the text as its last
// argument, e.g. espeak, say or spd-say.
type CommandSpeaker struct {
	Command string
	Args    []string
	Voice   string
	Rate    int

	path   string
	logger *slog.Logger
}

// NewCommandSpeaker returns a speaker for command, or DefaultCommand.
func NewCommandSpeaker(command string, logger *slog.Logger, args ...string) *CommandSpeaker {
	if command == "" {
		command = DefaultCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandSpeaker{Command: command, Args: args, logger: logger}
}

// Initialize resolves the program on PATH.
func (s *CommandSpeaker) Initialize() error {
	path, err := exec.LookPath(s.Command)
	if err != nil {
		return errortypes.ConfigError(err, fmt.Sprintf("speech program %q not found", s.Command))
	}
	s.path = path
	return nil
}

// args builds the argv for text. For espeak the options are ended with
// "--" so a summary starting with "-" is spoken rather than parsed. Other
// programs get the text as is after the configured args.
func (s *CommandSpeaker) args(text string) []string {
	args := append([]string{}, s.Args...)
	if isEspeak(s.Command) {
		if s.Voice != "" {
			args = append(args, "-v", s.Voice)
		}
		if s.Rate > 0 {
			args = append(args, "-s", fmt.Sprint(s.Rate))
		}
		args = append(args, "--")
	}
	return append(args, text)
}

// isEspeak reports whether command runs espeak or espeak-ng, by name or path.
func isEspeak(command string) bool {
	switch filepath.Base(command) {
	case DefaultCommand, "espeak-ng":
		return true
	}
	return false
}

// Speak blocks until the program exits or ctx is done.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errortypes.ValidationError(ErrNothingToSpeak, "There is no summary to speak.")
	}
	if s.path == "" {
		if err := s.Initialize(); err != nil {
			return err
		}
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.path, s.args(text)...)
	cmd.Stderr = &stderr

	s.logger.Debug("Speaking text", "command", s.Command, "chars", len(text))
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errortypes.ExternalError(err, strings.TrimSpace("speech failed: "+stderr.String()))
	}
	return nil
}

// Close is a no-op; the program is started per call.
func (s *CommandSpeaker) Close() error {
	return nil
}
