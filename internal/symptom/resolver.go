// Package symptom turns free-text complaints into canonical symptom columns.
package symptom

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultCutoff is the minimum similarity ratio for an approximate match.
const DefaultCutoff = 0.70

// Resolution is the outcome of resolving a list of raw terms.
type Resolution struct {
	// Symptoms holds the distinct canonical symptoms in first-seen order.
	Symptoms []string
	// Trace maps each resolved raw term to the symptom it became.
	Trace map[string]string
}

type Resolver struct {
	vocabulary []string
	runes      [][]string
	known      map[string]struct{}
	synonyms   []Synonym
	cutoff     float64
}

type Option func(*Resolver)

func WithSynonyms(s []Synonym) Option {
	return func(r *Resolver) { r.synonyms = s }
}

func WithCutoff(c float64) Option {
	return func(r *Resolver) { r.cutoff = c }
}

// NewResolver builds a resolver over the given symptom vocabulary.
func NewResolver(vocabulary []string, opts ...Option) *Resolver {
	r := &Resolver{
		vocabulary: vocabulary,
		runes:      make([][]string, len(vocabulary)),
		known:      make(map[string]struct{}, len(vocabulary)),
		synonyms:   DefaultSynonyms,
		cutoff:     DefaultCutoff,
	}
	for i, v := range vocabulary {
		r.runes[i] = splitRunes(v)
		r.known[v] = struct{}{}
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve maps each term through the synonym list and then to the closest
// vocabulary entry. Terms without a match above the cutoff are dropped, so
// the result may be empty.
func (r *Resolver) Resolve(terms []string) Resolution {
	res := Resolution{Trace: make(map[string]string)}
	seen := make(map[string]struct{})
	for _, raw := range terms {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term == "" {
			continue
		}
		match, ok := r.closest(r.substitute(term))
		if !ok {
			continue
		}
		res.Trace[raw] = match
		if _, dup := seen[match]; dup {
			continue
		}
		seen[match] = struct{}{}
		res.Symptoms = append(res.Symptoms, match)
	}
	return res
}

// substitute applies the first synonym whose key occurs in term. Terms that
// already name a vocabulary entry are kept so that resolving canonical input
// is a no-op.
func (r *Resolver) substitute(term string) string {
	if _, ok := r.known[term]; ok {
		return term
	}
	for _, s := range r.synonyms {
		if strings.Contains(term, s.Key) {
			return s.Symptom
		}
	}
	return term
}

// closest returns the single best vocabulary entry whose similarity ratio
// with term reaches the cutoff. Equal ratios favour the lexically greater
// entry.
func (r *Resolver) closest(term string) (string, bool) {
	if _, ok := r.known[term]; ok {
		return term, true
	}
	m := difflib.NewMatcher(nil, splitRunes(term))
	best, bestScore := "", -1.0
	for i, cand := range r.vocabulary {
		m.SetSeq1(r.runes[i])
		if m.RealQuickRatio() < r.cutoff || m.QuickRatio() < r.cutoff {
			continue
		}
		score := m.Ratio()
		if score < r.cutoff {
			continue
		}
		if score > bestScore || (score == bestScore && cand > best) {
			best, bestScore = cand, score
		}
	}
	return best, bestScore >= 0
}

var separators = regexp.MustCompile(`[,;]\s*`)

// SplitComplaint splits a free-text complaint on commas and semicolons.
func SplitComplaint(text string) []string {
	var out []string
	for _, p := range separators.Split(strings.ToLower(strings.TrimSpace(text)), -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
