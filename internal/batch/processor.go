// Package batch translates a file of phrases through the resolver.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"codeberg.org/snonux/marghivasal/internal/translation"
)

// Entry is one phrase read from a batch file
type Entry struct {
	Line int
	Text string
	// Expected is the reference translation given after '=', if any
	Expected string
}

// ReadBatchFile reads phrases from a file.
// Supported line formats:
//   - "good morning" (translate only)
//   - "good morning = Dargu" (translate and show the reference next to it)
//
// Blank lines and lines starting with '#' are skipped, as are lines with
// nothing before the '='.
func ReadBatchFile(filename string) ([]Entry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads batch entries from r
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		text, expected, _ := strings.Cut(line, "=")
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		entries = append(entries, Entry{Line: n, Text: text, Expected: strings.TrimSpace(expected)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return entries, nil
}

// Resolver resolves a single translation request
type Resolver interface {
	Resolve(ctx context.Context, req translation.Request) (translation.Outcome, error)
}

// Result pairs an entry with its outcome. Err is set for validation failures.
type Result struct {
	Entry   Entry
	Outcome translation.Outcome
	Err     error
}

// Summary counts results by outcome
type Summary struct {
	Total     int
	Succeeded int
	NotFound  int
	Failed    int
	// Matched counts successes equal to the expected text, ignoring case
	Matched int
}

// Processor runs entries through a resolver one at a time
type Processor struct {
	resolver Resolver
	logger   *slog.Logger
}

// NewProcessor creates a batch processor
func NewProcessor(resolver Resolver, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{resolver: resolver, logger: logger}
}

// Run translates every entry from source to target. A failing entry does not
// stop the batch; cancellation of ctx does.
func (p *Processor) Run(ctx context.Context, entries []Entry, source, target string) ([]Result, error) {
	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		out, err := p.resolver.Resolve(ctx, translation.Request{Text: e.Text, Source: source, Target: target})
		if err != nil {
			p.logger.Warn("batch entry rejected", "line", e.Line, "error", err)
		} else if !out.Ok() {
			p.logger.Info("batch entry unresolved", "line", e.Line, "outcome", out.Kind, "reason", out.Reason)
		}
		results = append(results, Result{Entry: e, Outcome: out, Err: err})
	}
	return results, nil
}

// Summarize counts results
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Outcome.Kind == translation.Success:
			s.Succeeded++
			if r.Entry.Expected != "" && strings.EqualFold(r.Entry.Expected, r.Outcome.Text) {
				s.Matched++
			}
		case r.Outcome.Kind == translation.NotFound:
			s.NotFound++
		default:
			s.Failed++
		}
	}
	return s
}

// Write prints one line per result: input, translation or reason, and the
// expected text when the entry carried one
func Write(w io.Writer, results []Result) error {
	for _, r := range results {
		var got string
		switch {
		case r.Err != nil:
			got = "error: " + r.Err.Error()
		case r.Outcome.Ok():
			got = r.Outcome.Text
		default:
			got = fmt.Sprintf("%s: %s", r.Outcome.Kind, r.Outcome.Reason)
		}

		line := fmt.Sprintf("%s => %s", r.Entry.Text, got)
		if r.Entry.Expected != "" {
			line += fmt.Sprintf(" (expected: %s)", r.Entry.Expected)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
