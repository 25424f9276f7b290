package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/history"
	"codeberg.org/snonux/marghivasal/internal/language"
	"codeberg.org/snonux/marghivasal/internal/llm"
	"codeberg.org/snonux/marghivasal/internal/mt"
	"codeberg.org/snonux/marghivasal/internal/phrase"
)

// DefaultMaxChars is the longest input accepted, in characters
const DefaultMaxChars = 5000

// Step names reported in Outcome.Via
const (
	ViaMachine  = "machine"
	ViaFallback = "generative"
	ViaPolish   = "polish"
	ViaPhrase   = "phrase"
)

// Request is one translation request. Source and Target are catalog codes.
type Request struct {
	Text   string
	Source string
	Target string
}

// PhraseLookup returns the approved phrases for a language, empty when none
// could be loaded
type PhraseLookup interface {
	Get(ctx context.Context, languageCode string) []phrase.Entry
}

// HistoryRecorder persists successful translations
type HistoryRecorder interface {
	Record(ctx context.Context, r history.Record) error
}

// Deps are the collaborators of a Resolver. A nil MT or Generator is treated
// as a backend that always fails.
type Deps struct {
	MT        mt.Translator
	Generator llm.Generator
	Phrases   PhraseLookup
	History   HistoryRecorder
	Logger    *slog.Logger
	MaxChars  int
}

// Resolver maps requests to outcomes
type Resolver struct {
	mt        mt.Translator
	generator llm.Generator
	phrases   PhraseLookup
	history   HistoryRecorder
	logger    *slog.Logger
	maxChars  int
}

// New creates a Resolver
func New(d Deps) *Resolver {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxChars <= 0 {
		d.MaxChars = DefaultMaxChars
	}
	return &Resolver{
		mt:        d.MT,
		generator: d.Generator,
		phrases:   d.Phrases,
		history:   d.History,
		logger:    d.Logger,
		maxChars:  d.MaxChars,
	}
}

// MaxChars returns the configured input limit
func (r *Resolver) MaxChars() int {
	return r.maxChars
}

// job is a validated request
type job struct {
	text   string
	source language.Language
	target language.Language
}

// Resolve maps req to exactly one Outcome. The error is non-nil only for
// invalid input, in which case no backend was called.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Outcome, error) {
	j, err := r.validate(req)
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	if j.source.Minority || j.target.Minority {
		out = r.resolveMinority(ctx, j)
	} else {
		out = r.resolveStandard(ctx, j)
	}

	r.logger.Debug("translation resolved",
		"source", j.source.Code, "target", j.target.Code,
		"outcome", out.Kind.String(), "via", out.Via)

	if out.Ok() {
		r.remember(ctx, j, out.Text)
	}
	return out, nil
}

func (r *Resolver) validate(req Request) (job, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return job{}, fmt.Errorf("%w: please enter text to translate", apperr.ErrValidation)
	}
	if n := utf8.RuneCountInString(text); n > r.maxChars {
		return job{}, fmt.Errorf("%w: text is %d characters, the maximum is %d", apperr.ErrValidation, n, r.maxChars)
	}

	source, err := language.Lookup(req.Source)
	if err != nil {
		return job{}, fmt.Errorf("%w: source: %w", apperr.ErrValidation, err)
	}
	target, err := language.Lookup(req.Target)
	if err != nil {
		return job{}, fmt.Errorf("%w: target: %w", apperr.ErrValidation, err)
	}
	if source.Code == target.Code {
		return job{}, fmt.Errorf("%w: source and target language are both %s", apperr.ErrValidation, source.Name)
	}

	return job{text: text, source: source, target: target}, nil
}

// step is one fallible attempt at producing a translation
type step struct {
	name string
	run  func(ctx context.Context, j job) (string, error)
}

// firstSuccess runs steps in order and stops at the first non-empty result.
// Failures are logged and feed the next step.
func (r *Resolver) firstSuccess(ctx context.Context, j job, steps ...step) (Outcome, bool) {
	for _, s := range steps {
		text, err := s.run(ctx, j)
		text = strings.TrimSpace(text)
		if err == nil && text != "" {
			return succeeded(text, s.name), true
		}
		if err != nil {
			r.logger.Warn("translation step failed", "step", s.name, "error", err)
		} else {
			r.logger.Warn("translation step returned no text", "step", s.name)
		}
	}
	return Outcome{}, false
}

func (r *Resolver) resolveStandard(ctx context.Context, j job) Outcome {
	out, ok := r.firstSuccess(ctx, j,
		step{name: ViaMachine, run: r.machineTranslate},
		step{name: ViaFallback, run: r.generativeFallback},
	)
	if !ok {
		return serviceError("translation failed, please check your connection and try again")
	}
	return out
}

func (r *Resolver) machineTranslate(ctx context.Context, j job) (string, error) {
	if r.mt == nil {
		return "", fmt.Errorf("%w: no machine translation backend configured", apperr.ErrBackend)
	}
	return r.mt.Translate(ctx, j.text, j.source.Code, j.target.Code)
}

func (r *Resolver) generativeFallback(ctx context.Context, j job) (string, error) {
	return r.generate(ctx, fallbackPrompt(j.text, j.source, j.target))
}

func (r *Resolver) generate(ctx context.Context, p llm.Prompt) (string, error) {
	if r.generator == nil {
		return "", fmt.Errorf("%w: no generative backend configured", apperr.ErrBackend)
	}
	return r.generator.Generate(ctx, p)
}

func (r *Resolver) resolveMinority(ctx context.Context, j job) Outcome {
	// With both sides minority the target is the reference dictionary
	minority := j.source
	intoMinority := j.target.Minority
	if intoMinority {
		minority = j.target
	}

	var entries []phrase.Entry
	if r.phrases != nil {
		entries = r.phrases.Get(ctx, minority.Code)
	}
	if len(entries) == 0 {
		return notFound("no approved phrases for %s", minority.Name)
	}

	match, ok := phrase.Match(entries, j.text)
	if !ok {
		return notFound("no matching phrase")
	}

	raw := match.EnglishMeaning
	if intoMinority {
		raw = match.LocalPhrase
	}

	out, ok := r.firstSuccess(ctx, j,
		step{name: ViaPolish, run: func(ctx context.Context, j job) (string, error) {
			return r.generate(ctx, polishPrompt(j.text, j.source, j.target, minority, match))
		}},
		step{name: ViaPhrase, run: func(context.Context, job) (string, error) {
			return raw, nil
		}},
	)
	if !ok {
		// Only reachable when the matched entry has a blank field on the output side
		return notFound("no matching phrase")
	}
	return out
}

// remember appends a history record. Persistence failures never affect the
// outcome.
func (r *Resolver) remember(ctx context.Context, j job, result string) {
	if r.history == nil {
		return
	}
	err := r.history.Record(ctx, history.Record{
		SourceLanguage: j.source.Code,
		TargetLanguage: j.target.Code,
		SourceText:     j.text,
		ResultText:     result,
	})
	if err != nil {
		r.logger.Warn("failed to save translation history", "error", err)
	}
}
