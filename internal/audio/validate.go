package audio

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"codeberg.org/snonux/marghivasal/internal/apperr"
)

// MaxSpeechChars is the longest text the speech APIs accept
const MaxSpeechChars = 4096

// ValidateText checks that text can be spoken
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text cannot be empty", apperr.ErrValidation)
	}
	if n := utf8.RuneCountInString(text); n > MaxSpeechChars {
		return fmt.Errorf("%w: text is %d characters, speech is limited to %d", apperr.ErrValidation, n, MaxSpeechChars)
	}
	return nil
}
