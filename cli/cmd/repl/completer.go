package repl

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/l20n/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "list", "vars", "set", "unset", "edit", "reload", "clear", "quit",
}

// Member access separators.
const (
	sepProperty  = "."
	sepAttribute = "::"
)

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes. This includes whitespace, the member-access dot and colon, and
// operator/punctuation characters. The variable and global sigils "$" and
// "@" are part of the word they prefix.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'"', '\'':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input.
// Returns an empty word when the cursor sits on a boundary (after a space,
// after a dot, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Walk backward from cursor to find word start.
	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	// Walk forward from cursor to find word end.
	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	word = input[start:end]

	return word, start, end
}

// parentPath returns the member-access chain leading up to the current word
// and the separator joining it to the word. For input "x + brand.short.ca"
// with the word "ca", it returns ("brand.short", "."); for "about::acc" it
// returns ("about", "::"). Returns empty strings for top-level words.
func parentPath(input string, wordStart int) (parent, sep string) {
	prefix := input[:wordStart]

	switch {
	case strings.HasSuffix(prefix, sepAttribute):
		sep = sepAttribute
	case strings.HasSuffix(prefix, sepProperty):
		sep = sepProperty
	default:
		return "", ""
	}

	prefix = strings.TrimSuffix(prefix, sep)

	// Walk backward collecting identifier characters and dots. Stop at the
	// first other word boundary.
	end := len(prefix)
	pos := end

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	parent = strings.TrimSpace(prefix[pos:end])
	if parent == "" || strings.HasSuffix(parent, ".") {
		return "", ""
	}

	return parent, sep
}

// childCandidates returns the names that are valid completions after parent
// and sep. For an empty parent it returns the public entries of the
// resource, the session variables, and the globals. After "::" it returns
// the public attributes of the entity. After "." it returns the keys of the
// hash or map that parent evaluates to.
func childCandidates(s *Session, parent, sep string) []string {
	if parent == "" {
		names := slices.DeleteFunc(s.Program().Names(), isLocal)

		for _, name := range s.sortedVars() {
			names = append(names, "$"+name)
		}

		for _, name := range slices.Sorted(maps.Keys(lang.DefaultGlobals())) {
			names = append(names, "@"+name)
		}

		return names
	}

	env := s.env()

	if sep == sepAttribute {
		entity, err := env.Entity(parent)
		if err != nil {
			return nil
		}

		return slices.DeleteFunc(entity.Attributes(), isLocal)
	}

	segments := strings.Split(parent, ".")

	var (
		v   any
		err error
	)

	switch head := segments[0]; {
	case strings.HasPrefix(head, "$"):
		var ok bool
		if v, ok = s.Vars()[head[1:]]; !ok {
			return nil
		}

	default:
		var entity *lang.BoundEntity
		if entity, err = env.Entity(head); err != nil {
			return nil
		}

		if v, err = entity.ResolveOnce(); err != nil {
			return nil
		}
	}

	for _, seg := range segments[1:] {
		if v, err = member(v, seg); err != nil {
			return nil
		}
	}

	return memberNames(v)
}

// member returns the value of key in a hash or map.
func member(v any, key string) (any, error) {
	switch v := v.(type) {
	case *lang.LazyHash:
		return v.Get(key)

	case map[string]any:
		m, ok := v[key]
		if !ok {
			return nil, lang.ErrLookup.Errorf("no key %q", key)
		}

		return m, nil
	}

	return nil, lang.ErrType.Errorf("%T has no members", v)
}

// memberNames returns the keys of a hash or map.
func memberNames(v any) []string {
	switch v := v.(type) {
	case *lang.LazyHash:
		return v.Keys()

	case map[string]any:
		return slices.Sorted(maps.Keys(v))
	}

	return nil
}

func isLocal(name string) bool { return strings.HasPrefix(name, "_") }

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. When the current word is empty at the top level, it returns nil
// matches. When the word is empty after a member separator, it returns all
// members as matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, ws, we := wordBounds(input, cursor)
	wordStart, wordEnd = ws, we

	if m.mode == modeCtrl {
		if word == "" || strings.Contains(input[:wordStart], " ") {
			return nil, nil, wordStart, wordEnd
		}

		candidates = ctrlCommands
	} else {
		parent, sep := parentPath(input, wordStart)
		candidates = childCandidates(m.session, parent, sep)

		// When the word is empty at the top level, don't show completions
		// (allows the hint text to be visible). After a separator, show all
		// members immediately so the user can browse them.
		if word == "" {
			if parent == "" || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	matches = fuzzy.Find(word, candidates)

	return matches, candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style. Candidates for which isMacro reports true get a "()"
// suffix.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
	isMacro func(string) bool,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		selected := tabActive && i == suggIdx
		rendered := renderCandidate(match, selected, isMacro != nil && isMacro(match.Str))
		candidateWidth := lipgloss.Width(rendered)

		entryWidth := candidateWidth
		if i > 0 {
			entryWidth += sepWidth
		}

		// Check if adding this candidate would exceed width.
		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth

		if i == len(matches)-1 {
			break
		}
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Macros are displayed with a "()" suffix.
func renderCandidate(match fuzzy.Match, selected, macro bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		ch := string(r)
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(ch))
		} else {
			b.WriteString(baseStyle.Render(ch))
		}
	}

	if macro {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}

// previewWidth bounds the length of a value preview in listings.
const previewWidth = 40

// formatPreview generates a preview of the public entry name. Entities with
// a plain string value show it; others show their attributes. Macros show
// their parameters.
func formatPreview(s *Session, name string) string {
	env := s.env()

	if macro, err := env.Macro(name); err == nil {
		params := macro.Params()
		for i := range params {
			params[i] = "$" + params[i]
		}

		return "(" + strings.Join(params, ", ") + ")"
	}

	var sb strings.Builder

	if value, ok := s.Program().Direct(name); ok {
		sb.WriteString(ellipsize(fmt.Sprintf("%q", value), previewWidth))
	}

	if entity, err := env.Entity(name); err == nil {
		if attrs := slices.DeleteFunc(entity.Attributes(), isLocal); len(attrs) > 0 {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString("::" + strings.Join(attrs, " ::"))
		}
	}

	return sb.String()
}

func ellipsize(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}

	r := []rune(s)

	return string(r[:width-3]) + "..."
}
