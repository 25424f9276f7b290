package cli

import (
	"reflect"
	"testing"
)

func TestNewFlags(t *testing.T) {
	flags := NewFlags()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"EnvFile", flags.EnvFile, ".env"},
		{"Locale", flags.Locale, "en"},
		{"Source", flags.Source, "en"},
		{"Target", flags.Target, "mrt"},
		{"AudioProvider", flags.AudioProvider, "auto"},
		{"TTSModel", flags.TTSModel, "gpt-4o-mini-tts"},
		{"Addr", flags.Addr, ":8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.expected) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	boolTests := []struct {
		name  string
		value bool
	}{
		{"Ephemeral", flags.Ephemeral},
		{"Speak", flags.Speak},
		{"Archive", flags.Archive},
		{"ExportAudio", flags.ExportAudio},
	}

	for _, tt := range boolTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value {
				t.Errorf("%s = %v, want false", tt.name, tt.value)
			}
		})
	}

	stringTests := []struct {
		name  string
		value string
	}{
		{"CfgFile", flags.CfgFile},
		{"BatchFile", flags.BatchFile},
		{"Email", flags.Email},
		{"Password", flags.Password},
		{"OpenAIVoice", flags.OpenAIVoice},
		{"OutputFile", flags.OutputFile},
	}

	for _, tt := range stringTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Errorf("%s = %v, want empty string", tt.name, tt.value)
			}
		})
	}
}
