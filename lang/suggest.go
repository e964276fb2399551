package lang

import (
	"log/slog"

	"github.com/sahilm/fuzzy"
)

// nameError reports an undefined name, suggesting the closest candidate
// when one is similar enough.
func nameError(kind, name string, candidates []string) *Error {
	if s := Suggest(name, candidates); s != "" {
		return ErrName.Errorf("%s %q is not defined, did you mean %q?", kind, name, s).
			With(slog.String("suggestion", s))
	}

	return ErrName.Errorf("%s %q is not defined", kind, name)
}

// Suggest returns the candidate most similar to name, or "" if none is
// close enough.
//
// Candidates within a small edit distance of name are preferred, with the
// allowed distance growing with the length of name. Otherwise, a name of at
// least three characters that abbreviates a candidate, such as "usrNm" for
// "userName", selects the best fuzzy match.
func Suggest(name string, candidates []string) string {
	best, bestDist := "", distanceThreshold(name)

	for _, c := range candidates {
		if c == name {
			continue
		}

		if d := osaDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}

	if best != "" || len([]rune(name)) < 3 {
		return best
	}

	for _, m := range fuzzy.Find(name, candidates) {
		if m.Str != name {
			return m.Str
		}
	}

	return ""
}

func distanceThreshold(s string) int {
	return (len([]rune(s))+2)/4 + 1
}

// osaDistance returns the optimal string alignment distance between a and
// b: the number of insertions, deletions, substitutions, and transpositions
// of adjacent runes needed to turn one into the other, editing no substring
// more than once.
func osaDistance(a, b string) int {
	s, t := []rune(a), []rune(b)
	if len(s) < len(t) {
		s, t = t, s
	}

	// three rolling rows: two rows back, previous, current
	pp := make([]int, len(t)+1)
	prev := make([]int, len(t)+1)
	cur := make([]int, len(t)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range s {
		cur[0] = i + 1

		for j := range t {
			cost := 1
			if s[i] == t[j] {
				cost = 0
			}

			d := min(prev[j+1]+1, cur[j]+1, prev[j]+cost)
			if i > 0 && j > 0 && s[i] == t[j-1] && s[i-1] == t[j] {
				d = min(d, pp[j-1]+cost)
			}

			cur[j+1] = d
		}

		pp, prev, cur = prev, cur, pp
	}

	return prev[len(t)]
}
