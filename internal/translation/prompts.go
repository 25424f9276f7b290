package translation

import (
	"fmt"

	"codeberg.org/snonux/marghivasal/internal/language"
	"codeberg.org/snonux/marghivasal/internal/llm"
	"codeberg.org/snonux/marghivasal/internal/phrase"
)

// Sampling settings for the two generative calls
const (
	fallbackTemperature = 0.3
	fallbackMaxTokens   = 400
	polishTemperature   = 0.4
	polishMaxTokens     = 200
)

func fallbackPrompt(text string, source, target language.Language) llm.Prompt {
	return llm.Prompt{
		Text: fmt.Sprintf("Translate this text literally and accurately from %s to %s. "+
			"Preserve meaning, tone, and formatting:\n\n%s\n\n"+
			"Output ONLY the translated text, with no explanations, notes or quotes.",
			source.Name, target.Name, text),
		Temperature: fallbackTemperature,
		MaxTokens:   fallbackMaxTokens,
	}
}

// polishPrompt asks for one sentence in the target language built from the
// approved pair. When the target is the minority language this is a sentence
// in that language. Translating out of a minority language the sentence is in
// the target, the same direction as the raw fallback (the English meaning).
func polishPrompt(text string, source, target, minority language.Language, match phrase.Entry) llm.Prompt {
	var b []byte
	b = fmt.Appendf(b, "A community-approved %s phrase and its English meaning:\n", minority.Name)
	b = fmt.Appendf(b, "%s: %q\nEnglish: %q\n", minority.Name, match.LocalPhrase, match.EnglishMeaning)
	if match.Context != "" {
		b = fmt.Appendf(b, "Usage note: %s\n", match.Context)
	}
	b = fmt.Appendf(b, "\nThe user wrote in %s: %q\n\n", source.Name, text)
	b = fmt.Appendf(b, "Write one natural, fluent sentence in %s that says what the user wrote "+
		"and stays consistent with the approved phrase. "+
		"Return only the final sentence, with no explanations or quotes.", target.Name)

	return llm.Prompt{
		Text:        string(b),
		Temperature: polishTemperature,
		MaxTokens:   polishMaxTokens,
	}
}
