// Package tutor implements the conversational language tutor. The tutor
// keeps a short transcript and asks a generative model for the next reply;
// failures turn into a friendly canned answer instead of an error.
package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/language"
	"codeberg.org/snonux/marghivasal/internal/llm"
)

// Sampling settings for tutor replies
const (
	replyTemperature = 0.85
	replyTopK        = 40
	replyTopP        = 0.95
	replyMaxTokens   = 300

	// transcriptSize is how many earlier messages go into the prompt
	transcriptSize = 8
)

// Canned replies
const (
	FailureReply = "Sorry, the tutor is having trouble right now. Try again?"
	EmptyReply   = "Hmm... let's try that again!"
)

// Sender identifies who wrote a message
type Sender string

const (
	User  Sender = "user"
	Tutor Sender = "tutor"
)

// Message is one line of the conversation
type Message struct {
	Sender Sender    `json:"sender"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}

// Conversation is a chat with the tutor about one language
type Conversation struct {
	Language language.Language
	Messages []Message
}

// NewConversation starts a conversation with the tutor's greeting
func NewConversation(lang language.Language) *Conversation {
	return &Conversation{
		Language: lang,
		Messages: []Message{{
			Sender: Tutor,
			Text:   Welcome(lang),
			Time:   time.Now(),
		}},
	}
}

// Welcome returns the tutor's opening line
func Welcome(lang language.Language) string {
	return fmt.Sprintf("Sannu! I'm your %s practice partner.\nHow can I help you today?", lang.Name)
}

// Chat answers messages in a Conversation
type Chat struct {
	generator llm.Generator
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a tutor backed by generator
func New(generator llm.Generator, logger *slog.Logger) *Chat {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chat{generator: generator, logger: logger, now: time.Now}
}

// Reply adds input and the tutor's answer to conv and returns the answer.
// The only error is an empty input.
func (c *Chat) Reply(ctx context.Context, conv *Conversation, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: say something to the tutor", apperr.ErrValidation)
	}

	prompt := buildPrompt(conv, input)
	conv.Messages = append(conv.Messages, Message{Sender: User, Text: input, Time: c.now()})

	reply := c.generate(ctx, prompt)
	conv.Messages = append(conv.Messages, Message{Sender: Tutor, Text: reply, Time: c.now()})
	return reply, nil
}

func (c *Chat) generate(ctx context.Context, p llm.Prompt) string {
	if c.generator == nil {
		return FailureReply
	}

	text, err := c.generator.Generate(ctx, p)
	if err != nil {
		c.logger.Warn("tutor reply failed", "error", err)
		return FailureReply
	}
	if text = strings.TrimSpace(text); text == "" {
		return EmptyReply
	}
	return text
}

// buildPrompt renders the tutor instructions, the recent transcript and the
// new input. The transcript excludes input itself.
func buildPrompt(conv *Conversation, input string) llm.Prompt {
	name := conv.Language.Name

	var b strings.Builder
	fmt.Fprintf(&b, "You are a friendly, patient %s language tutor.\n", name)
	b.WriteString("Always detect and respond in the language the user is using or requesting.\n")
	fmt.Fprintf(&b, "If the user writes in %s, reply mostly in %s with gentle corrections if needed.\n", name, name)
	fmt.Fprintf(&b, "If the user writes in English, reply in English and offer %s translations and practice.\n", name)
	b.WriteString("Keep replies short and encouraging.\n")
	b.WriteString("Explain grammar or vocabulary briefly when correcting.\n")
	b.WriteString("Recent conversation:\n")

	recent := conv.Messages
	if len(recent) > transcriptSize {
		recent = recent[len(recent)-transcriptSize:]
	}
	for _, m := range recent {
		who := "Tutor"
		if m.Sender == User {
			who = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n", who, m.Text)
	}
	fmt.Fprintf(&b, "User: %s", input)

	return llm.Prompt{
		Text:        b.String(),
		Temperature: replyTemperature,
		TopK:        replyTopK,
		TopP:        replyTopP,
		MaxTokens:   replyMaxTokens,
	}
}
