package audio

import (
	"context"
	"path/filepath"
	"strings"
)

// ESpeakProvider implements Provider interface for espeak-ng
type ESpeakProvider struct {
	espeak *ESpeak
}

// NewESpeakProvider creates a new espeak-ng provider
func NewESpeakProvider(config *ESpeakConfig) (Provider, error) {
	espeak, err := New(config)
	if err != nil {
		return nil, err
	}
	return &ESpeakProvider{espeak: espeak}, nil
}

// GenerateAudio generates audio using espeak-ng. The format follows the
// output file extension and defaults to MP3.
func (p *ESpeakProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	switch strings.ToLower(filepath.Ext(outputFile)) {
	case ".wav":
		return p.espeak.GenerateAudio(ctx, text, outputFile)
	case ".mp3":
		return p.espeak.GenerateMP3(ctx, text, outputFile)
	default:
		return p.espeak.GenerateMP3(ctx, text, outputFile+".mp3")
	}
}

// Name returns the provider name
func (p *ESpeakProvider) Name() string {
	return "espeak-ng"
}

// IsAvailable checks if espeak-ng is installed
func (p *ESpeakProvider) IsAvailable() error {
	return checkESpeakInstalled()
}
