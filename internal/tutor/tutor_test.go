package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/language"
	"codeberg.org/snonux/marghivasal/internal/testutil"
)

func hausa(t *testing.T) language.Language {
	t.Helper()
	l, err := language.Lookup("ha")
	if err != nil {
		t.Fatalf("Lookup(ha) failed: %v", err)
	}
	return l
}

func TestReply(t *testing.T) {
	gen := &testutil.MockGenerator{Response: " Ina kwana! \n"}
	chat := New(gen, slog.New(slog.DiscardHandler))
	conv := NewConversation(hausa(t))

	reply, err := chat.Reply(context.Background(), conv, "How do I say good morning?")
	if err != nil {
		t.Fatalf("Reply() failed: %v", err)
	}
	if reply != "Ina kwana!" {
		t.Errorf("Reply() = %q", reply)
	}
	if len(conv.Messages) != 3 {
		t.Fatalf("conversation has %d messages, want 3", len(conv.Messages))
	}
	if conv.Messages[1].Sender != User || conv.Messages[2].Sender != Tutor {
		t.Errorf("unexpected senders: %+v", conv.Messages)
	}

	p := gen.LastPrompt()
	if p.Temperature != 0.85 || p.TopK != 40 || p.TopP != 0.95 || p.MaxTokens != 300 {
		t.Errorf("sampling = %+v", p)
	}
	if !strings.Contains(p.Text, "Hausa language tutor") {
		t.Errorf("prompt does not name the language:\n%s", p.Text)
	}
	if !strings.HasSuffix(p.Text, "User: How do I say good morning?") {
		t.Errorf("prompt does not end with the input:\n%s", p.Text)
	}
	if !strings.Contains(p.Text, "Tutor: Sannu!") {
		t.Errorf("prompt is missing the greeting:\n%s", p.Text)
	}
}

func TestReply_TranscriptIsBounded(t *testing.T) {
	gen := &testutil.MockGenerator{Response: "ok"}
	chat := New(gen, slog.New(slog.DiscardHandler))
	conv := NewConversation(hausa(t))

	for i := 0; i < 10; i++ {
		if _, err := chat.Reply(context.Background(), conv, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("Reply() failed: %v", err)
		}
	}

	p := gen.LastPrompt().Text
	transcript := p[strings.Index(p, "Recent conversation:\n"):]
	lines := strings.Split(strings.TrimSpace(transcript), "\n")
	// header, 8 transcript lines, the new input
	if len(lines) != 10 {
		t.Errorf("prompt transcript has %d lines, want 10:\n%s", len(lines), transcript)
	}
	if strings.Contains(transcript, "message 4\n") {
		t.Error("transcript reaches too far back")
	}
	if !strings.Contains(transcript, "User: message 8\n") {
		t.Error("transcript is missing the previous message")
	}
}

func TestReply_Failures(t *testing.T) {
	tests := []struct {
		name string
		gen  *testutil.MockGenerator
		want string
	}{
		{"backend error", &testutil.MockGenerator{Err: apperr.ErrNetwork}, FailureReply},
		{"empty answer", &testutil.MockGenerator{Response: "   "}, EmptyReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := New(tt.gen, slog.New(slog.DiscardHandler))
			reply, err := chat.Reply(context.Background(), NewConversation(hausa(t)), "hi")
			if err != nil {
				t.Fatalf("Reply() failed: %v", err)
			}
			if reply != tt.want {
				t.Errorf("Reply() = %q, want %q", reply, tt.want)
			}
		})
	}

	reply, _ := New(nil, nil).Reply(context.Background(), NewConversation(hausa(t)), "hi")
	if reply != FailureReply {
		t.Errorf("Reply() without generator = %q, want %q", reply, FailureReply)
	}
}

func TestReply_EmptyInput(t *testing.T) {
	gen := &testutil.MockGenerator{Response: "ok"}
	conv := NewConversation(hausa(t))

	_, err := New(gen, nil).Reply(context.Background(), conv, "  ")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Reply() error = %v, want ErrValidation", err)
	}
	if gen.CallCount() != 0 || len(conv.Messages) != 1 {
		t.Error("empty input reached the model or the transcript")
	}
}
