package processor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"codeberg.org/snonux/marghivasal/internal"
	"codeberg.org/snonux/marghivasal/internal/anki"
	"codeberg.org/snonux/marghivasal/internal/apperr"
	"codeberg.org/snonux/marghivasal/internal/archive"
	"codeberg.org/snonux/marghivasal/internal/audio"
	"codeberg.org/snonux/marghivasal/internal/batch"
	"codeberg.org/snonux/marghivasal/internal/cli"
	"codeberg.org/snonux/marghivasal/internal/community"
	"codeberg.org/snonux/marghivasal/internal/history"
	"codeberg.org/snonux/marghivasal/internal/language"
	"codeberg.org/snonux/marghivasal/internal/learn"
	"codeberg.org/snonux/marghivasal/internal/llm"
	"codeberg.org/snonux/marghivasal/internal/logging"
	"codeberg.org/snonux/marghivasal/internal/messages"
	"codeberg.org/snonux/marghivasal/internal/models"
	"codeberg.org/snonux/marghivasal/internal/mt"
	"codeberg.org/snonux/marghivasal/internal/phrase"
	"codeberg.org/snonux/marghivasal/internal/profile"
	"codeberg.org/snonux/marghivasal/internal/server"
	"codeberg.org/snonux/marghivasal/internal/store"
	"codeberg.org/snonux/marghivasal/internal/translation"
	"codeberg.org/snonux/marghivasal/internal/tutor"
)

var _ cli.App = (*Processor)(nil)

// UserError is a failure already rendered for the user. Err keeps the cause
// for errors.Is.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }
func (e *UserError) Unwrap() error { return e.Err }

// Processor handles the commands
type Processor struct {
	flags  *cli.Flags
	cfg    *cli.Config
	out    io.Writer
	in     io.Reader
	logger *slog.Logger

	kv        store.KV
	msgs      *messages.Catalog
	history   *history.Store
	community *community.Client
	phrases   *phrase.Cache
	generator llm.Generator
	resolver  *translation.Resolver
	tutor     *tutor.Chat
	learn     *learn.Service
	profile   *profile.Service
}

// NewProcessor creates the services described by cfg. Output goes to out,
// interactive input (chat, password prompt) comes from in.
func NewProcessor(ctx context.Context, flags *cli.Flags, cfg *cli.Config, out io.Writer, in io.Reader) (*Processor, error) {
	logger, err := logging.New(cfg.Log, server.RequestIDExtractor)
	if err != nil {
		return nil, err
	}

	var kv store.KV
	if cfg.Ephemeral {
		kv = store.NewMemory()
	} else {
		db, err := store.Open(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		kv = db
	}

	p := &Processor{
		flags:     flags,
		cfg:       cfg,
		out:       out,
		in:        in,
		logger:    logger,
		kv:        kv,
		msgs:      messages.New(cfg.Locale, logger),
		history:   history.New(kv),
		community: community.New(cfg.CommunityURL),
	}
	p.phrases = phrase.NewCache(p.community, logger)
	p.profile = profile.New(kv, p.history)
	p.learn = learn.New(p.community, kv, logger)

	// A missing generator is not fatal: the resolver and the tutor treat
	// it as a failing backend, and storage commands do not need it.
	if gen, err := llm.New(ctx, &cfg.LLM); err != nil {
		logger.Warn("generative backend unavailable", "provider", cfg.LLM.Provider, "error", err)
	} else {
		p.generator = gen
	}
	p.tutor = tutor.New(p.generator, logger)

	mtCfg := cfg.Translate
	p.resolver = translation.New(translation.Deps{
		MT:        mt.New(&mtCfg),
		Generator: p.generator,
		Phrases:   p.phrases,
		History:   p.history,
		Logger:    logger,
		MaxChars:  cfg.MaxChars,
	})

	logger.Debug("processor ready",
		"version", internal.Version, "llm", cfg.LLM.Provider, "ephemeral", cfg.Ephemeral)
	return p, nil
}

// Close releases the store
func (p *Processor) Close() error {
	return p.kv.Close()
}

// fail renders err for the user
func (p *Processor) fail(err error) error {
	var ue *UserError
	if errors.As(err, &ue) {
		return err
	}
	return &UserError{Message: p.msgs.Error(err), Err: err}
}

func (p *Processor) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// Translate resolves one phrase from --from to --to
func (p *Processor) Translate(ctx context.Context, text string) error {
	out, err := p.resolver.Resolve(ctx, translation.Request{Text: text, Source: p.flags.Source, Target: p.flags.Target})
	if err != nil {
		return p.fail(err)
	}

	switch out.Kind {
	case translation.Success:
		p.logger.Debug("translated", "via", out.Via)
		p.printf("%s\n", out.Text)
	case translation.NotFound:
		return &UserError{
			Message: p.msgs.T(messages.NotFound, map[string]any{"Reason": out.Reason}),
			Err:     fmt.Errorf("%w: %s", apperr.ErrNotFound, out.Reason),
		}
	default:
		return &UserError{
			Message: p.msgs.T(messages.TranslationFailed, nil),
			Err:     fmt.Errorf("%w: %s", apperr.ErrBackend, out.Reason),
		}
	}

	if p.flags.Speak {
		return p.speak(ctx, out.Text, p.flags.Target)
	}
	return nil
}

// TranslateBatch translates every phrase of a batch file
func (p *Processor) TranslateBatch(ctx context.Context, file string) error {
	entries, err := batch.ReadBatchFile(file)
	if err != nil {
		return err
	}

	results, err := batch.NewProcessor(p.resolver, p.logger).Run(ctx, entries, p.flags.Source, p.flags.Target)
	if werr := batch.Write(p.out, results); werr != nil {
		return werr
	}
	if err != nil {
		return err
	}

	s := batch.Summarize(results)
	p.printf("\n=== Batch Summary ===\n")
	p.printf("Total phrases: %d\n", s.Total)
	p.printf("Translated: %d\n", s.Succeeded)
	if s.NotFound > 0 {
		p.printf("Not found: %d\n", s.NotFound)
	}
	if s.Failed > 0 {
		p.printf("Failed: %d\n", s.Failed)
	}
	if s.Matched > 0 {
		p.printf("Matching the expected text: %d\n", s.Matched)
	}
	p.printf("=====================\n")
	return nil
}

// ListHistory prints recent translations, newest first
func (p *Processor) ListHistory(ctx context.Context) error {
	records, err := p.history.List(ctx)
	if err != nil {
		return p.fail(err)
	}
	if len(records) == 0 {
		p.printf("%s\n", p.msgs.T(messages.HistoryEmpty, nil))
		return nil
	}

	for _, r := range records {
		p.printf("%s  %s -> %s  %s => %s\n",
			r.Timestamp.Local().Format(time.DateTime), r.SourceLanguage, r.TargetLanguage, r.SourceText, r.ResultText)
	}
	return nil
}

// ClearHistory removes all translations. With --archive the records are
// saved as JSON next to the database first.
func (p *Processor) ClearHistory(ctx context.Context) error {
	if p.flags.Archive {
		records, err := p.history.List(ctx)
		if err != nil {
			return p.fail(err)
		}
		path, err := archive.ArchiveHistory(p.stateDir(), records, time.Now())
		if err != nil {
			return fmt.Errorf("archiving history: %w", err)
		}
		p.printf("History archived to %s\n", path)
	}
	if err := p.history.Clear(ctx); err != nil {
		return p.fail(err)
	}
	p.printf("%s\n", p.msgs.T(messages.HistoryCleared, nil))
	return nil
}

// ListPhrases prints the approved phrases of a language
func (p *Processor) ListPhrases(ctx context.Context, lang string) error {
	l, err := lookup(lang)
	if err != nil {
		return p.fail(err)
	}

	entries := p.phrases.Get(ctx, l.Code)
	if len(entries) == 0 {
		return p.fail(fmt.Errorf("%w: no approved phrases for %s", apperr.ErrNotFound, l.Name))
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s = %s", e.LocalPhrase, e.EnglishMeaning)
		if e.Context != "" {
			line += fmt.Sprintf("  [%s]", e.Context)
		}
		p.printf("%s\n", line)
	}
	return nil
}

// SuggestPhrase submits a phrase pair for moderation
func (p *Processor) SuggestPhrase(ctx context.Context, lang, local, english string) error {
	msg, err := p.community.Submit(ctx, community.Suggestion{
		LanguageCode:   lang,
		LocalPhrase:    local,
		EnglishMeaning: english,
		Context:        p.flags.Context,
	})
	if err != nil {
		return p.fail(err)
	}
	p.printf("%s\n", p.msgs.T(messages.SuggestionSent, map[string]any{"Message": msg}))
	return nil
}

// ListLessons prints the lessons of a language
func (p *Processor) ListLessons(ctx context.Context, lang string) error {
	lessons, err := p.learn.Lessons(ctx, lang)
	if err != nil {
		if apperr.Retryable(err) {
			return &UserError{Message: p.msgs.T(messages.LessonsFailed, nil), Err: err}
		}
		return p.fail(err)
	}

	for _, l := range lessons {
		p.printf("%d. %s\n   %s\n   %s\n", l.ID, l.Local, l.English, l.Explanation)
	}
	return nil
}

// MarkLearned counts one more learned lesson
func (p *Processor) MarkLearned(ctx context.Context, lang string) error {
	n, err := p.learn.MarkLearned(ctx, lang)
	if err != nil {
		return p.fail(err)
	}
	l, _ := language.Lookup(lang)
	p.printf("%s\n", p.msgs.T(messages.LessonLearned, map[string]any{"Count": n, "Language": l.Name}))
	return nil
}

// ExportLessons writes the lessons of a language as an Anki CSV deck. With
// --audio every card gets a pronunciation file in <deck>_media.
func (p *Processor) ExportLessons(ctx context.Context, lang string) error {
	lessons, err := p.learn.Lessons(ctx, lang)
	if err != nil {
		if apperr.Retryable(err) {
			return &UserError{Message: p.msgs.T(messages.LessonsFailed, nil), Err: err}
		}
		return p.fail(err)
	}
	l, _ := language.Lookup(lang)

	opts := anki.DefaultGeneratorOptions()
	opts.OutputPath = p.flags.OutputFile
	if opts.OutputPath == "" {
		opts.OutputPath = l.Code + "_lessons.csv"
	}
	gen := anki.NewGenerator(opts)
	gen.AddLessons(l.DictionaryKey(), lessons)

	if p.flags.ExportAudio {
		opts.MediaFolder = strings.TrimSuffix(opts.OutputPath, filepath.Ext(opts.OutputPath)) + "_media"
		if err := p.exportAudio(ctx, l, gen.GetCards(), opts.MediaFolder); err != nil {
			return err
		}
	}

	if err := gen.GenerateCSV(); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	total, withAudio := gen.Stats()
	p.printf("Exported %d cards (%d with audio) to %s\n", total, withAudio, opts.OutputPath)
	return nil
}

// exportAudio fills in AudioFile for each card. A card whose audio fails is
// exported without it.
func (p *Processor) exportAudio(ctx context.Context, l language.Language, cards []anki.Card, dir string) error {
	provider, err := audio.NewProvider(&p.cfg.Audio, l, p.logger)
	if err != nil {
		return fmt.Errorf("speech unavailable: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	now := time.Now()
	for i := range cards {
		if err := ctx.Err(); err != nil {
			return err
		}
		file := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", l.Code, internal.GenerateRecordID(now, cards[i].Front), p.cfg.Audio.OutputFormat))
		if err := provider.GenerateAudio(ctx, cards[i].Front, file); err != nil {
			p.logger.Warn("card audio failed", "phrase", cards[i].Front, "error", err)
			continue
		}
		cards[i].AudioFile = file
	}
	return nil
}

// ShowProgress prints learned lessons per language
func (p *Processor) ShowProgress(ctx context.Context) error {
	progress := p.learn.Progress(ctx)
	if len(progress) == 0 {
		p.printf("No lessons learned yet.\n")
		return nil
	}

	keys := make([]string, 0, len(progress))
	for k := range progress {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		p.printf("%s: %d\n", k, progress[k])
	}
	return nil
}

// Chat runs an interactive tutor session until EOF, "exit" or "quit"
func (p *Processor) Chat(ctx context.Context, lang string) error {
	l, err := lookup(lang)
	if err != nil {
		return p.fail(err)
	}

	conv := tutor.NewConversation(l)
	p.printf("%s\n", conv.Messages[0].Text)

	scanner := bufio.NewScanner(p.in)
	for {
		p.printf("> ")
		if !scanner.Scan() {
			p.printf("\n")
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		reply, err := p.tutor.Reply(ctx, conv, input)
		if err != nil {
			p.printf("%s\n", p.msgs.Error(err))
			continue
		}
		p.printf("%s\n", reply)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// password returns --password or reads one line from the input
func (p *Processor) password() (string, error) {
	if p.flags.Password != "" {
		return p.flags.Password, nil
	}
	p.printf("Password: ")
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Login signs in and remembers the account in the profile
func (p *Processor) Login(ctx context.Context) error {
	pw, err := p.password()
	if err != nil {
		return err
	}
	user, err := p.community.Login(ctx, p.flags.Email, pw)
	if err != nil {
		return p.fail(err)
	}
	return p.welcome(ctx, user)
}

// Signup creates an account and remembers it in the profile
func (p *Processor) Signup(ctx context.Context) error {
	pw, err := p.password()
	if err != nil {
		return err
	}
	user, err := p.community.Signup(ctx, community.SignupRequest{
		Email:    p.flags.Email,
		Password: pw,
		FullName: p.flags.FullName,
		Country:  p.flags.Country,
	})
	if err != nil {
		return p.fail(err)
	}
	return p.welcome(ctx, user)
}

func (p *Processor) welcome(ctx context.Context, user *community.User) error {
	if err := p.profile.SetUser(ctx, user); err != nil {
		p.logger.Warn("failed to remember account", "error", err)
	}
	name := user.FullName
	if name == "" {
		name = user.Email
	}
	p.printf("%s\n", p.msgs.T(messages.Welcome, map[string]any{"Name": name}))
	return nil
}

// ShowProfile prints the local profile
func (p *Processor) ShowProfile(ctx context.Context) error {
	prof, err := p.profile.Load(ctx)
	if err != nil {
		return p.fail(err)
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", orDash(prof.Name))
	fmt.Fprintf(w, "Favorite language:\t%s\n", orDash(prof.FavoriteLanguage))
	fmt.Fprintf(w, "Joined:\t%s\n", prof.Joined.Local().Format(time.DateOnly))
	fmt.Fprintf(w, "Translations:\t%d\n", prof.Translations)
	if prof.User != nil {
		fmt.Fprintf(w, "Account:\t%s\n", prof.User.Email)
	}
	fmt.Fprintf(w, "Install ID:\t%s\n", prof.InstallID)
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// SetName sets the display name
func (p *Processor) SetName(ctx context.Context, name string) error {
	if err := p.profile.SetName(ctx, name); err != nil {
		return p.fail(err)
	}
	p.printf("%s\n", p.msgs.T(messages.NameUpdated, map[string]any{"Name": strings.TrimSpace(name)}))
	return nil
}

// SetFavorite sets the favorite language
func (p *Processor) SetFavorite(ctx context.Context, code string) error {
	l, err := p.profile.SetFavorite(ctx, code)
	if err != nil {
		return p.fail(err)
	}
	p.printf("%s\n", p.msgs.T(messages.FavoriteUpdated, map[string]any{"Language": l.Name}))
	return nil
}

// ResetProfile clears the profile and history
func (p *Processor) ResetProfile(ctx context.Context) error {
	if err := p.profile.Reset(ctx); err != nil {
		return p.fail(err)
	}
	p.printf("%s\n", p.msgs.T(messages.ProfileReset, nil))
	return nil
}

// Speak synthesizes text in the --to language
func (p *Processor) Speak(ctx context.Context, text string) error {
	return p.speak(ctx, text, p.flags.Target)
}

func (p *Processor) speak(ctx context.Context, text, code string) error {
	l, err := lookup(code)
	if err != nil {
		return p.fail(err)
	}
	if err := audio.ValidateText(text); err != nil {
		return p.fail(err)
	}

	provider, err := audio.NewProvider(&p.cfg.Audio, l, p.logger)
	if err != nil {
		return fmt.Errorf("speech unavailable: %w", err)
	}

	outputFile := p.flags.OutputFile
	if outputFile == "" {
		outputFile = filepath.Join(os.TempDir(),
			fmt.Sprintf("marghivasal_%s.%s", internal.GenerateRecordID(time.Now(), text), p.cfg.Audio.OutputFormat))
	}
	if err := provider.GenerateAudio(ctx, text, outputFile); err != nil {
		return fmt.Errorf("audio generation failed: %w", err)
	}
	p.printf("Audio saved to %s (%s)\n", outputFile, provider.Name())
	return nil
}

// stateDir is where snapshots are written: next to the database, or the
// working directory in ephemeral mode
func (p *Processor) stateDir() string {
	if p.cfg.Ephemeral || p.cfg.StorePath == "" {
		return "."
	}
	return filepath.Dir(p.cfg.StorePath)
}

// ListLanguages prints the language catalog
func (p *Processor) ListLanguages(_ context.Context) error {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	for _, l := range language.All() {
		note := ""
		if l.Minority {
			note = "minority, community dictionary"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", l.Code, l.Name, note)
	}
	return w.Flush()
}

// ListModels prints the models of the configured generative provider
func (p *Processor) ListModels(ctx context.Context) error {
	lister, err := models.NewLister(ctx, &p.cfg.LLM)
	if err != nil {
		return err
	}
	list, err := lister.List(ctx)
	if err != nil {
		return err
	}
	models.Print(p.out, lister.Provider(), list)
	return nil
}

// Serve runs the JSON API until ctx is cancelled
func (p *Processor) Serve(ctx context.Context) error {
	srv := server.New(p.cfg.ServerAddr, server.Deps{
		Resolver:    p.resolver,
		History:     p.history,
		Phrases:     p.phrases,
		Suggestions: p.community,
		Messages:    p.msgs,
		Logger:      p.logger,
	})
	return srv.Run(ctx)
}

func lookup(code string) (language.Language, error) {
	l, err := language.Lookup(code)
	if err != nil {
		return l, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}
	return l, nil
}
