// Package match provides the deterministic, concurrency-safe string
// similarity scorer used to link differently-spelled product names to one
// canonical cross-store identity. It is intentionally small and
// dependency-free:
//
//   - No logging in the library (callers log matches with their context)
//   - Clear, documented types and functional options (Option pattern)
//   - Deterministic scoring and sorting (stable order for ties)
//   - Inputs are normalized keys; the scorer itself does no normalization
//
// Scoring blends token-set Jaccard similarity with a character-level edit
// distance ratio: Jaccard catches reordered or partially-missing words
// ("coca cola 1l" vs "cola coca"), the edit ratio catches OCR misspellings
// inside a single token ("sprlte" vs "sprite"). The blend and the acceptance
// threshold are tunable because the false-merge / missed-merge tradeoff is
// product-specific.
package match

import (
	"sort"
	"strings"
)

// Candidate is a scored match candidate.
type Candidate struct {
	Key   string
	Score float64
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithThreshold sets the minimum score BestMatch accepts. Values outside
// (0,1] are ignored.
func WithThreshold(t float64) Option {
	return func(s *Scorer) {
		if t > 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithJaccardWeight sets the Jaccard share of the blended score (the edit
// ratio gets the remainder). Values outside [0,1] are ignored.
func WithJaccardWeight(w float64) Option {
	return func(s *Scorer) {
		if w >= 0 && w <= 1 {
			s.jaccardWeight = w
		}
	}
}

// Scorer computes blended similarity scores between normalized keys.
// Immutable after construction and safe for concurrent use.
type Scorer struct {
	threshold     float64
	jaccardWeight float64
}

// DefaultThreshold is the acceptance threshold used when none is configured.
const DefaultThreshold = 0.72

// NewScorer constructs a Scorer with the given options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{threshold: DefaultThreshold, jaccardWeight: 0.6}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Threshold returns the configured acceptance threshold.
func (s *Scorer) Threshold() float64 { return s.threshold }

// Score returns the blended similarity of two normalized keys in [0,1].
// Identical keys score 1; keys sharing no tokens and no character overlap
// score 0. The result never falls below the raw edit ratio: a single-token
// misspelling has an empty token intersection, and the floor keeps it from
// being drowned by a zero Jaccard term.
func (s *Scorer) Score(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	j := jaccard(tokens(a), tokens(b))
	e := editRatio(strings.ReplaceAll(a, " ", ""), strings.ReplaceAll(b, " ", ""))
	blend := s.jaccardWeight*j + (1-s.jaccardWeight)*e
	if e > blend {
		return e
	}
	return blend
}

// BestMatch scores query against every candidate key and returns the best
// one when it clears the threshold. Ties break deterministically: higher
// score first, then shorter key, then lexicographic order.
func (s *Scorer) BestMatch(query string, candidates []string) (Candidate, bool) {
	ranked := s.Rank(query, candidates)
	if len(ranked) == 0 || ranked[0].Score < s.threshold {
		return Candidate{}, false
	}
	return ranked[0], true
}

// Rank scores query against all candidates and returns them ordered best
// first. Zero-score candidates are dropped.
func (s *Scorer) Rank(query string, candidates []string) []Candidate {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		sc := s.Score(query, c)
		if sc <= 0 {
			continue
		}
		out = append(out, Candidate{Key: c, Score: sc})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if len(out[i].Key) != len(out[j].Key) {
			return len(out[i].Key) < len(out[j].Key)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func tokens(s string) map[string]struct{} {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for t := range small {
		if _, ok := large[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// editRatio converts Levenshtein distance into a similarity in [0,1].
func editRatio(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	la, lb := len(a), len(b)
	longer := la
	if lb > longer {
		longer = lb
	}
	if longer == 0 {
		return 0
	}
	return 1 - float64(levenshtein(a, b))/float64(longer)
}

// levenshtein computes edit distance with a two-row matrix.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
