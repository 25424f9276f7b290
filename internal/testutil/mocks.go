package testutil

import (
	"context"
	"fmt"
	"sync"

	"codeberg.org/snonux/marghivasal/internal/llm"
	"codeberg.org/snonux/marghivasal/internal/phrase"
)

// MockTranslator mocks the machine translation backend
type MockTranslator struct {
	Translations map[string]string
	Errors       map[string]error
	Calls        []string

	mu sync.Mutex
}

// Translate mocks translating text
func (m *MockTranslator) Translate(ctx context.Context, text, fromLang, toLang string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := fmt.Sprintf("Translate: %s (%s->%s)", text, fromLang, toLang)
	m.Calls = append(m.Calls, call)

	if err, ok := m.Errors[text]; ok {
		return "", err
	}

	if translation, ok := m.Translations[text]; ok {
		return translation, nil
	}

	// Default mock translation
	return fmt.Sprintf("mock translation of %s", text), nil
}

// CallCount returns how often Translate was called
func (m *MockTranslator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockGenerator mocks a generative language backend. Every call returns
// Response and Err.
type MockGenerator struct {
	Response string
	Err      error
	Prompts  []llm.Prompt

	mu sync.Mutex
}

// Name returns the mock provider name
func (m *MockGenerator) Name() string {
	return "mock"
}

// Generate records the prompt and returns the canned answer
func (m *MockGenerator) Generate(ctx context.Context, p llm.Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, p)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// CallCount returns how often Generate was called
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// LastPrompt returns the most recent prompt, or a zero prompt
func (m *MockGenerator) LastPrompt() llm.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Prompts) == 0 {
		return llm.Prompt{}
	}
	return m.Prompts[len(m.Prompts)-1]
}

// MockPhraseSource mocks the approved phrase backend, keyed by language code
type MockPhraseSource struct {
	Phrases map[string][]phrase.Entry
	Errors  map[string]error
	Calls   []string

	mu sync.Mutex
}

// FetchApproved mocks fetching approved phrases
func (m *MockPhraseSource) FetchApproved(ctx context.Context, languageCode string) ([]phrase.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, languageCode)
	if err, ok := m.Errors[languageCode]; ok {
		return nil, err
	}
	return m.Phrases[languageCode], nil
}

// MarghiPhrases returns a small approved Marghi dictionary
func MarghiPhrases() []phrase.Entry {
	return []phrase.Entry{
		{LocalPhrase: "Dargu", EnglishMeaning: "Good morning"},
		{LocalPhrase: "Wa ka ya?", EnglishMeaning: "How are you?", Context: "greeting"},
		{LocalPhrase: "N jiri", EnglishMeaning: "Thank you"},
	}
}

// GenerateAudioData generates mock audio data
func GenerateAudioData() []byte {
	// Simple mock MP3 header
	return []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00}
}
