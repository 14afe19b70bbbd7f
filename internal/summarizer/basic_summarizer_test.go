package summarizer

import (
	"context"
	"strings"
	"testing"
)

func TestBasicSummarizer_Initialize(t *testing.T) {
	summarizer := NewBasicSummarizer()
	err := summarizer.Initialize()
	if err != nil {
		t.Errorf("Initialize() error = %v, want nil", err)
	}
}

func TestBasicSummarizer_Summarize(t *testing.T) {
	tests := []struct {
		name string
		text string
		min  int
		max  int
		want string
	}{
		{
			name: "short text",
			text: "This is a short text.",
			min:  1,
			max:  100,
			want: "This is a short text.",
		},
		{
			name: "whitespace is normalized",
			text: "  This   is\na short\ttext. ",
			min:  1,
			max:  100,
			want: "This is a short text.",
		},
		{
			name: "sentence boundary",
			text: "First sentence here. Second sentence is a bit longer. Third one.",
			min:  2,
			max:  9,
			want: "First sentence here. Second sentence is a bit longer.",
		},
		{
			name: "question and exclamation",
			text: "Is this working? Yes it is! And then more words follow here.",
			min:  3,
			max:  8,
			want: "Is this working? Yes it is!",
		},
		{
			name: "sentences too short for min",
			text: "Hi. This is a long sentence that keeps going on and on.",
			min:  5,
			max:  6,
			want: "Hi. This is a long sentence...",
		},
		{
			name: "no sentence boundary",
			text: "this text has no sentence boundary at all just words",
			min:  1,
			max:  4,
			want: "this text has no...",
		},
		{
			name: "quoted sentence end",
			text: `He said "stop." Then he left the room quietly.`,
			min:  1,
			max:  5,
			want: `He said "stop."`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewBasicSummarizer()
			got, err := s.Summarize(context.Background(), tt.text, tt.min, tt.max)
			if err != nil {
				t.Fatalf("Summarize() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Summarize() = %q, want %q", got, tt.want)
			}
			if n := len(strings.Fields(got)); n > tt.max {
				t.Errorf("Summarize() returned %d words, max %d", n, tt.max)
			}
		})
	}
}

func TestBasicSummarizer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewBasicSummarizer().Summarize(ctx, "some text", 1, 2); err == nil {
		t.Error("expected error for canceled context")
	}
}
