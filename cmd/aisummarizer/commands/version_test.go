package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/localrivet/aisummarizer"
)

func TestNewVersionCmd(t *testing.T) {
	cmd := NewVersionCmd()

	if cmd.Use != "version" {
		t.Errorf("Use = %q, want %q", cmd.Use, "version")
	}
	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}
}

func TestVersionCmd_Output(t *testing.T) {
	original := versionInfo
	originalLib := aisummarizer.Version
	defer func() {
		versionInfo = original
		aisummarizer.Version = originalLib
	}()

	SetVersion("1.2.3", "abc123", "2026-01-31")

	cmd := NewVersionCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, expected := range []string{"aisummarizer 1.2.3", "Commit: abc123", "Built:  2026-01-31"} {
		if !strings.Contains(output.String(), expected) {
			t.Errorf("Output should contain %q, got:\n%s", expected, output.String())
		}
	}
	if aisummarizer.Version != "1.2.3" {
		t.Errorf("library Version = %q, want %q", aisummarizer.Version, "1.2.3")
	}
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	cmd := NewVersionCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})

	if err := cmd.Execute(); err == nil {
		t.Error("version should reject arguments")
	}
}
