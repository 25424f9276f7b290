// Package language holds the static catalog of languages the translator
// understands and flags the low-resource languages that are served from the
// community phrase dictionary instead of machine translation.
package language

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ErrUnknownLanguage is returned by Lookup for codes outside the catalog.
var ErrUnknownLanguage = errors.New("unknown language")

// Language is an immutable catalog entry
type Language struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Minority bool   `json:"minority"`
	// Key is the dictionary key used by the community suggestion backend.
	// Only minority languages have one.
	Key string `json:"key,omitempty"`
}

// DictionaryKey returns the key used to fetch approved phrases for l
func (l Language) DictionaryKey() string {
	if l.Key != "" {
		return l.Key
	}
	return l.Code
}

func (l Language) String() string {
	return fmt.Sprintf("%s (%s)", l.Name, l.Code)
}

var catalog = []Language{
	// Core Nigerian languages
	{Code: "en", Name: "English"},
	{Code: "ha", Name: "Hausa"},
	{Code: "yo", Name: "Yoruba"},
	{Code: "ig", Name: "Igbo"},
	{Code: "pcm", Name: "Nigerian Pidgin"},
	{Code: "mrt", Name: "Marghi", Minority: true, Key: "marghi"},
	{Code: "hwo", Name: "Hona", Minority: true, Key: "hona"},
	{Code: "glw", Name: "Glavda", Minority: true, Key: "glavda"},
	{Code: "tiv", Name: "Tiv"},
	{Code: "kr", Name: "Kanuri"},
	{Code: "ff", Name: "Fulfulde (Fula)"},
	{Code: "ibb", Name: "Ibibio"},
	{Code: "efi", Name: "Efik"},
	{Code: "nup", Name: "Nupe"},
	{Code: "ann", Name: "Obolo (Andoni)"},
	{Code: "bin", Name: "Edo (Bini)"},
	{Code: "bom", Name: "Berom"},
	{Code: "kcg", Name: "Tyap (Katab)"},

	// Major world languages
	{Code: "ar", Name: "Arabic"},
	{Code: "zh", Name: "Chinese (Simplified)"},
	{Code: "zh-TW", Name: "Chinese (Traditional)"},
	{Code: "fr", Name: "French"},
	{Code: "es", Name: "Spanish"},
	{Code: "de", Name: "German"},
	{Code: "it", Name: "Italian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "ru", Name: "Russian"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "hi", Name: "Hindi"},
	{Code: "bn", Name: "Bengali"},
	{Code: "ur", Name: "Urdu"},
	{Code: "id", Name: "Indonesian"},
	{Code: "tr", Name: "Turkish"},
	{Code: "vi", Name: "Vietnamese"},
	{Code: "th", Name: "Thai"},
	{Code: "pl", Name: "Polish"},
	{Code: "nl", Name: "Dutch"},
	{Code: "sv", Name: "Swedish"},
	{Code: "no", Name: "Norwegian"},
	{Code: "da", Name: "Danish"},
	{Code: "fi", Name: "Finnish"},
	{Code: "uk", Name: "Ukrainian"},
	{Code: "cs", Name: "Czech"},
	{Code: "hu", Name: "Hungarian"},
	{Code: "el", Name: "Greek"},
	{Code: "he", Name: "Hebrew"},
	{Code: "fa", Name: "Persian (Farsi)"},
	{Code: "ro", Name: "Romanian"},
	{Code: "ms", Name: "Malay"},
	{Code: "sw", Name: "Swahili"},
	{Code: "am", Name: "Amharic"},
	{Code: "zu", Name: "Zulu"},
	{Code: "xh", Name: "Xhosa"},
	{Code: "so", Name: "Somali"},
	{Code: "rw", Name: "Kinyarwanda"},
}

// All returns a copy of the catalog in display order
func All() []Language {
	out := make([]Language, len(catalog))
	copy(out, catalog)
	return out
}

// Minorities returns the languages served by the community dictionary
func Minorities() []Language {
	var out []Language
	for _, l := range catalog {
		if l.Minority {
			out = append(out, l)
		}
	}
	return out
}

// Lookup finds a language by code, display name or dictionary key.
// Codes are matched case-insensitively; anything else is canonicalised as a
// BCP 47 tag so "EN", "en-GB" and "en_US" all resolve to English.
func Lookup(code string) (Language, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Language{}, fmt.Errorf("%w: empty code", ErrUnknownLanguage)
	}

	if l, ok := find(code); ok {
		return l, nil
	}

	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err == nil {
		if l, ok := find(tag.String()); ok {
			return l, nil
		}
		if base, conf := tag.Base(); conf != language.No {
			if l, ok := find(base.String()); ok {
				return l, nil
			}
		}
	}

	return Language{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
}

func find(code string) (Language, bool) {
	for _, l := range catalog {
		if strings.EqualFold(l.Code, code) || strings.EqualFold(l.Name, code) || (l.Key != "" && strings.EqualFold(l.Key, code)) {
			return l, true
		}
	}
	return Language{}, false
}
