package phrase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeSource counts fetches and can be told to fail
type fakeSource struct {
	mu      sync.Mutex
	entries map[string][]Entry
	err     error
	calls   map[string]int
}

func newFakeSource(entries map[string][]Entry) *fakeSource {
	return &fakeSource{entries: entries, calls: make(map[string]int)}
}

func (f *fakeSource) FetchApproved(_ context.Context, code string) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[code]++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[code], nil
}

func (f *fakeSource) callCount(code string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[code]
}

var marghi = []Entry{
	{LocalPhrase: "Dargu", EnglishMeaning: "Good morning"},
	{LocalPhrase: "Lapya gu?", EnglishMeaning: "How are you?"},
	{LocalPhrase: "N jiri", EnglishMeaning: "Thank you"},
	{LocalPhrase: "Abar cara", EnglishMeaning: "Good night"},
}

func TestCache_FetchesOncePerLanguage(t *testing.T) {
	src := newFakeSource(map[string][]Entry{"mrt": marghi})
	c := NewCache(src, nil)
	ctx := context.Background()

	first := c.Get(ctx, "mrt")
	second := c.Get(ctx, "mrt")

	if len(first) != len(marghi) || len(second) != len(marghi) {
		t.Fatalf("Get() returned %d and %d entries, want %d", len(first), len(second), len(marghi))
	}
	if n := src.callCount("mrt"); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}
	if !c.Cached("mrt") {
		t.Error("Cached(mrt) = false after successful fetch")
	}
}

func TestCache_FailureIsNotCached(t *testing.T) {
	src := newFakeSource(map[string][]Entry{"hwo": {{LocalPhrase: "x", EnglishMeaning: "hello"}}})
	src.err = errors.New("connection refused")
	c := NewCache(src, nil)
	ctx := context.Background()

	got := c.Get(ctx, "hwo")
	if got == nil || len(got) != 0 {
		t.Fatalf("Get() on failure = %#v, want empty non-nil list", got)
	}
	if c.Cached("hwo") {
		t.Error("failed fetch was cached")
	}

	src.err = nil
	got = c.Get(ctx, "hwo")
	if len(got) != 1 {
		t.Errorf("Get() after recovery returned %d entries, want 1", len(got))
	}
	if n := src.callCount("hwo"); n != 2 {
		t.Errorf("source called %d times, want 2", n)
	}
}

func TestCache_Invalidate(t *testing.T) {
	src := newFakeSource(map[string][]Entry{"glw": {{LocalPhrase: "a", EnglishMeaning: "b"}}})
	c := NewCache(src, nil)
	ctx := context.Background()

	c.Get(ctx, "glw")
	c.Invalidate("glw")
	if c.Cached("glw") {
		t.Error("Cached(glw) = true after Invalidate")
	}

	src.entries["glw"] = append(src.entries["glw"], Entry{LocalPhrase: "c", EnglishMeaning: "d"})
	if got := c.Get(ctx, "glw"); len(got) != 2 {
		t.Errorf("Get() after Invalidate returned %d entries, want 2", len(got))
	}
	if n := src.callCount("glw"); n != 2 {
		t.Errorf("source called %d times, want 2", n)
	}
}

func TestCache_GetReturnsCopy(t *testing.T) {
	src := newFakeSource(map[string][]Entry{"mrt": {{LocalPhrase: "Dargu", EnglishMeaning: "Good morning"}}})
	c := NewCache(src, nil)
	ctx := context.Background()

	got := c.Get(ctx, "mrt")
	got[0].LocalPhrase = "modified"

	if again := c.Get(ctx, "mrt"); again[0].LocalPhrase != "Dargu" {
		t.Error("cached entries were modified through Get()")
	}
}

func TestCache_EmptyListIsCached(t *testing.T) {
	src := newFakeSource(map[string][]Entry{})
	c := NewCache(src, nil)
	ctx := context.Background()

	if got := c.Get(ctx, "hwo"); len(got) != 0 {
		t.Fatalf("Get() = %v, want empty", got)
	}
	c.Get(ctx, "hwo")
	if n := src.callCount("hwo"); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantFound bool
		wantLocal string
	}{
		{"exact english", "Good morning", true, "Dargu"},
		{"case insensitive", "good morning", true, "Dargu"},
		{"query inside meaning", "thank", true, "N jiri"},
		{"meaning inside query", "good night my friend", true, "Abar cara"},
		{"local phrase", "dargu", true, "Dargu"},
		{"local phrase inside query", "I said lapya gu? to her", true, "Lapya gu?"},
		{"first match wins", "good", true, "Dargu"},
		{"surrounding whitespace", "   thank you  ", true, "N jiri"},
		{"no match", "where is the market", false, ""},
		{"empty query", "   ", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Match(marghi, tt.query)
			if found != tt.wantFound {
				t.Fatalf("Match(%q) found = %v, want %v", tt.query, found, tt.wantFound)
			}
			if found && got.LocalPhrase != tt.wantLocal {
				t.Errorf("Match(%q) = %q, want %q", tt.query, got.LocalPhrase, tt.wantLocal)
			}
		})
	}
}

func TestMatch_SkipsBlankFields(t *testing.T) {
	entries := []Entry{
		{LocalPhrase: "", EnglishMeaning: ""},
		{LocalPhrase: "N jiri", EnglishMeaning: "Thank you"},
	}

	got, found := Match(entries, "thank you")
	if !found || got.LocalPhrase != "N jiri" {
		t.Errorf("Match() = %+v, %v; blank entry must not match everything", got, found)
	}
}

// slowSource blocks every fetch until release is closed and fails when the
// fetch context was cancelled in the meantime
type slowSource struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (s *slowSource) FetchApproved(ctx context.Context, _ string) ([]Entry, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()
	if first {
		close(s.started)
	}

	<-s.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Entry{{LocalPhrase: "Dargu", EnglishMeaning: "Good morning"}}, nil
}

func TestCache_SharedFetchSurvivesCancelledCaller(t *testing.T) {
	src := &slowSource{started: make(chan struct{}), release: make(chan struct{})}
	c := NewCache(src, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	doneA := make(chan []Entry)
	go func() { doneA <- c.Get(ctxA, "mrt") }()
	<-src.started

	cancelA()
	if got := <-doneA; len(got) != 0 {
		t.Errorf("cancelled caller got %v, want empty", got)
	}

	doneB := make(chan []Entry)
	go func() { doneB <- c.Get(context.Background(), "mrt") }()
	// let the second caller join the fetch that is still in flight
	time.Sleep(50 * time.Millisecond)
	close(src.release)

	if got := <-doneB; len(got) != 1 || got[0].LocalPhrase != "Dargu" {
		t.Errorf("second caller got %v, want the fetched entry", got)
	}
	if !c.Cached("mrt") {
		t.Error("fetched list was not cached")
	}
}
