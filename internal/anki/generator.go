// Package anki exports lessons as a CSV deck that Anki can import, with
// optional pronunciation audio referenced from the media folder.
package anki

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/marghivasal/internal/learn"
)

// Card represents a single Anki flashcard
type Card struct {
	Front     string // The minority language phrase
	Back      string // English meaning
	AudioFile string // Optional path to pronunciation audio
	Notes     string // Usage context
	Tags      []string
}

// GeneratorOptions configures the Anki export
type GeneratorOptions struct {
	OutputPath     string // Output CSV file path
	MediaFolder    string // Folder audio files are copied into
	IncludeHeaders bool   // Include CSV headers
}

// DefaultGeneratorOptions returns sensible defaults
func DefaultGeneratorOptions() *GeneratorOptions {
	return &GeneratorOptions{
		OutputPath:     "anki_import.csv",
		MediaFolder:    "",
		IncludeHeaders: true,
	}
}

// Generator creates Anki-compatible import files
type Generator struct {
	options *GeneratorOptions
	cards   []Card
}

// NewGenerator creates a new Anki generator
func NewGenerator(options *GeneratorOptions) *Generator {
	if options == nil {
		options = DefaultGeneratorOptions()
	}
	return &Generator{
		options: options,
		cards:   make([]Card, 0),
	}
}

// AddCard adds a card to the collection
func (g *Generator) AddCard(card Card) {
	g.cards = append(g.cards, card)
}

// AddLessons adds one card per lesson, tagged with the dictionary key
func (g *Generator) AddLessons(dictionaryKey string, lessons []learn.Lesson) {
	for _, l := range lessons {
		g.AddCard(Card{
			Front: l.Local,
			Back:  l.English,
			Notes: l.Explanation,
			Tags:  []string{"marghivasal", dictionaryKey, tag(l.Category)},
		})
	}
}

// GetCards returns a slice of all cards for modification
func (g *Generator) GetCards() []Card {
	return g.cards
}

// tag turns a category into an Anki tag, which cannot contain spaces
func tag(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "_"))
}

// GenerateCSV writes the deck to the configured output path. Audio files are
// copied into the media folder first when one is set.
func (g *Generator) GenerateCSV() error {
	if g.options.MediaFolder != "" {
		if err := g.copyMedia(); err != nil {
			return err
		}
	}

	if dir := filepath.Dir(g.options.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.Create(g.options.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	return g.WriteCSV(file)
}

// WriteCSV writes the deck to w
func (g *Generator) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if g.options.IncludeHeaders {
		headers := []string{"Front", "Back", "Audio", "Notes", "Tags"}
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for _, card := range g.cards {
		record := []string{
			card.Front,
			card.Back,
			formatAudioField(card.AudioFile),
			card.Notes,
			strings.Join(card.Tags, " "),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write card: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// formatAudioField formats the audio file reference for Anki
func formatAudioField(audioFile string) string {
	if audioFile == "" {
		return ""
	}
	// Anki audio format: [sound:filename.mp3]
	return fmt.Sprintf("[sound:%s]", filepath.Base(audioFile))
}

func (g *Generator) copyMedia() error {
	if err := os.MkdirAll(g.options.MediaFolder, 0755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	for i, card := range g.cards {
		if card.AudioFile == "" || filepath.Dir(card.AudioFile) == filepath.Clean(g.options.MediaFolder) {
			continue
		}
		newPath, err := copyMediaFile(card.AudioFile, g.options.MediaFolder)
		if err != nil {
			return fmt.Errorf("failed to copy audio file: %w", err)
		}
		g.cards[i].AudioFile = newPath
	}
	return nil
}

// copyMediaFile copies a media file to the destination directory, renaming
// it when a file of the same name is already there
func copyMediaFile(src, destDir string) (string, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return "", err
	}

	filename := filepath.Base(src)
	destPath := filepath.Join(destDir, filename)
	if _, err := os.Stat(destPath); err == nil {
		ext := filepath.Ext(filename)
		base := strings.TrimSuffix(filename, ext)
		for i := 1; ; i++ {
			filename = fmt.Sprintf("%s_%d%s", base, i, ext)
			destPath = filepath.Join(destDir, filename)
			if _, err := os.Stat(destPath); os.IsNotExist(err) {
				break
			}
		}
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer srcFile.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer destFile.Close()

	if _, err := destFile.ReadFrom(srcFile); err != nil {
		return "", err
	}
	if err := os.Chmod(destPath, srcInfo.Mode()); err != nil {
		return "", err
	}
	return destPath, nil
}

// Stats returns statistics about the card collection
func (g *Generator) Stats() (totalCards, withAudio int) {
	totalCards = len(g.cards)
	for _, card := range g.cards {
		if card.AudioFile != "" {
			withAudio++
		}
	}
	return
}
