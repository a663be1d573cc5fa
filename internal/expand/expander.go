package expand

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// MaxPhrases bounds an AI-expanded set: the original plus five terms.
const MaxPhrases = 6

// maxFallbackPhrases bounds the local fallback set, original included.
const maxFallbackPhrases = 4

// Expander turns one phrase into a set of related search phrases. It asks
// each completer in order and stops at the first usable answer; when none
// answers it derives phrases locally.
type Expander struct {
	chain []Completer
	log   *zap.Logger
}

func New(logger *zap.Logger, chain ...Completer) *Expander {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{chain: chain, log: logger.Named("expand")}
}

// Expand returns the expanded set. The trimmed original phrase is always
// the first element. An empty phrase yields an empty set.
func (e *Expander) Expand(ctx context.Context, phrase, additionalContext string) []string {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return []string{}
	}
	prompt := NewPrompt(phrase, additionalContext)
	for _, c := range e.chain {
		text, err := c.Complete(ctx, prompt)
		if err != nil {
			e.log.Warn("expansion failed", zap.String("provider", c.Name()), zap.String("phrase", phrase), zap.Error(err))
			continue
		}
		terms := ParseTerms(text)
		if len(terms) == 0 {
			e.log.Warn("expansion unusable", zap.String("provider", c.Name()), zap.String("phrase", phrase))
			continue
		}
		set := merge(MaxPhrases, phrase, terms...)
		e.log.Debug("expanded", zap.String("provider", c.Name()), zap.Strings("phrases", set))
		return set
	}
	set := LocalFallback(phrase)
	e.log.Info("using local expansion", zap.String("phrase", phrase), zap.Strings("phrases", set))
	return set
}

// ParseTerms splits an AI answer on commas, trimming whitespace and dropping
// empty segments. No other structure is assumed.
func ParseTerms(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LocalFallback derives up to four phrases from phrase alone: the phrase,
// its first word, its first two words, then "photography" and "images"
// variants. Blank and repeated candidates are skipped.
func LocalFallback(phrase string) []string {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return []string{}
	}
	words := strings.Fields(phrase)
	candidates := []string{words[0]}
	if len(words) > 1 {
		candidates = append(candidates, words[0]+" "+words[1])
	}
	candidates = append(candidates, phrase+" photography", phrase+" images")
	return merge(maxFallbackPhrases, phrase, candidates...)
}

// merge places first ahead of the rest, skipping blanks and case-insensitive
// repeats, and stops at limit entries.
func merge(limit int, first string, rest ...string) []string {
	out := []string{first}
	seen := map[string]bool{strings.ToLower(first): true}
	for _, r := range rest {
		if len(out) == limit {
			break
		}
		r = strings.TrimSpace(r)
		key := strings.ToLower(r)
		if r == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
