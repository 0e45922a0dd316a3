package search

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/matzehuels/crateview/pkg/crate"
)

// Options configures matching.
type Options struct {
	// Threshold is the largest accepted per-token score, from 0 (exact
	// substring only) to 1 (anything matches).
	Threshold float64
	// MinTokenLength drops shorter query tokens.
	MinTokenLength int
}

// DefaultOptions returns the default matching options.
func DefaultOptions() Options {
	return Options{Threshold: 0.4, MinTokenLength: 2}
}

// Entry is one indexed entity.
type Entry struct {
	EntityID string
	CrateID  string
	Content  string

	tokens []string
}

// Result is a ranked search hit. Lower scores are better.
type Result struct {
	EntityID string  `json:"entity_id"`
	CrateID  string  `json:"crate_id"`
	Score    float64 `json:"score"`
}

// Index is a fuzzy full-text index keyed by (entity, crate).
// It is safe for concurrent use.
type Index struct {
	opts Options

	mu      sync.RWMutex
	byCrate map[string][]Entry
	entries []Entry
}

// New creates an empty index.
func New(opts Options) *Index {
	if opts.Threshold < 0 {
		opts.Threshold = 0
	}
	if opts.MinTokenLength < 1 {
		opts.MinTokenLength = 1
	}
	return &Index{
		opts:    opts,
		byCrate: make(map[string][]Entry),
	}
}

// Index replaces every entry stored under crateID with entries derived from
// entities and returns the number of entries stored. Entities without an
// identifier or without searchable content are skipped.
func (ix *Index) Index(entities []*crate.Entity, crateID string) int {
	fresh := make([]Entry, 0, len(entities))
	for _, e := range entities {
		if e == nil || e.ID == "" {
			continue
		}
		content := FlattenEntity(e)
		if content == "" {
			continue
		}
		fresh = append(fresh, Entry{
			EntityID: e.ID,
			CrateID:  crateID,
			Content:  content,
			tokens:   tokenize(content),
		})
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if len(fresh) == 0 {
		delete(ix.byCrate, crateID)
	} else {
		ix.byCrate[crateID] = fresh
	}
	ix.rebuild()
	return len(fresh)
}

// Remove drops every entry stored under crateID.
func (ix *Index) Remove(crateID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.byCrate, crateID)
	ix.rebuild()
}

// Reset drops every entry.
func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.byCrate = make(map[string][]Entry)
	ix.entries = nil
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Crates returns the indexed crate identifiers in sorted order.
func (ix *Index) Crates() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ids := make([]string, 0, len(ix.byCrate))
	for id := range ix.byCrate {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Entries returns a copy of the entries stored under crateID.
func (ix *Index) Entries(crateID string) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return slices.Clone(ix.byCrate[crateID])
}

// rebuild swaps in a freshly allocated snapshot. Callers hold mu.
func (ix *Index) rebuild() {
	crates := make([]string, 0, len(ix.byCrate))
	n := 0
	for id, entries := range ix.byCrate {
		crates = append(crates, id)
		n += len(entries)
	}
	slices.Sort(crates)

	all := make([]Entry, 0, n)
	for _, id := range crates {
		all = append(all, ix.byCrate[id]...)
	}
	ix.entries = all
}

// Search returns up to limit results for query, most relevant first.
// Empty or whitespace-only queries return nil.
func (ix *Index) Search(query string, limit int) []Result {
	if limit <= 0 {
		return nil
	}
	var terms []string
	for _, tok := range tokenize(query) {
		if len([]rune(tok)) >= ix.opts.MinTokenLength {
			terms = append(terms, tok)
		}
	}
	if len(terms) == 0 {
		return nil
	}

	ix.mu.RLock()
	entries := ix.entries
	ix.mu.RUnlock()

	var results []Result
	for _, e := range entries {
		if score, ok := ix.match(terms, e.tokens); ok {
			results = append(results, Result{EntityID: e.EntityID, CrateID: e.CrateID, Score: score})
		}
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Or(
			cmp.Compare(a.Score, b.Score),
			strings.Compare(a.CrateID, b.CrateID),
			strings.Compare(a.EntityID, b.EntityID),
		)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (ix *Index) match(terms, tokens []string) (float64, bool) {
	total := 0.0
	for _, term := range terms {
		best := bestScore(term, tokens)
		if best > ix.opts.Threshold {
			return 0, false
		}
		total += best
	}
	return total / float64(len(terms)), true
}

// bestScore returns the lowest normalized edit distance between term and any
// token, considering every window of the token as long as term.
func bestScore(term string, tokens []string) float64 {
	tr := []rune(term)
	best := 1.0
	for _, tok := range tokens {
		if strings.Contains(tok, term) {
			return 0
		}
		d := levenshtein.ComputeDistance(term, tok)
		if rr := []rune(tok); len(rr) > len(tr) {
			for i := 0; i+len(tr) <= len(rr); i++ {
				d = min(d, levenshtein.ComputeDistance(term, string(rr[i:i+len(tr)])))
			}
		}
		best = min(best, float64(d)/float64(len(tr)))
	}
	return best
}

// tokenize folds s and splits it into unique tokens of letters and digits.
// A Caser is stateful, so each call gets its own.
func tokenize(s string) []string {
	folded := cases.Fold().String(s)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	slices.Sort(fields)
	return slices.Compact(fields)
}
