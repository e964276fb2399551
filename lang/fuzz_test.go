package lang

import (
	"bytes"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

// FuzzTokenizer tests the tokenizer with random inputs to find edge cases.
func FuzzTokenizer(f *testing.F) {
	f.Add(`<hello "world">`)
	f.Add("$name @os ~ :: ::[ == != <= >= && ||")
	f.Add("/* comment */")
	f.Add("/* unclosed")
	f.Add("007")
	f.Add("#")

	f.Fuzz(func(t *testing.T, input string) {
		// Skip invalid UTF-8
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		tz := NewTokenizer(input, "")

		// every call consumes input, so len(input)+1 calls reach EOF or an error
		for range len(input) + 1 {
			tok, err := tz.Next()
			if err != nil || tok.Kind == tokEOF {
				return
			}

			if tok.Pos.Line < 1 || tok.Pos.Column < 1 {
				t.Errorf("token %+v has invalid position", tok)
			}
		}

		t.Errorf("tokenizer did not terminate on %q", input)
	})
}

// FuzzParse tests that parsing never panics and that formatted output
// parses back to the same tree.
func FuzzParse(f *testing.F) {
	f.Add(`<hello "world">`)
	f.Add(`<hello 'Hi, {{ $name }}!'>`)
	f.Add(`<plural($n) { $n == 1 ? "one" : "many" }>`)
	f.Add(`<unread[plural($n)] {one: "1", *many: "{{ $n }}"}>`)
	f.Add(`<about "About" accesskey: "A" title[$x]: {a: "x"}>`)
	f.Add(`import("other.l20n") /* c */`)
	f.Add(`<m() { a.b["c"](~, e::d, @os, -!1) }>`)
	f.Add(`<e "é \{{ \"">`)
	f.Add(`<x "{{ 1 } }">`)
	f.Add(`<`)

	f.Fuzz(func(t *testing.T, input string) {
		// Skip invalid UTF-8
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		res, err := Parse(t.Context(), input)
		if err != nil {
			return
		}

		for _, indent := range []int{0, 2} {
			var buf bytes.Buffer
			if err := res.Format(t.Context(), &buf, indent); err != nil {
				t.Fatalf("format error: %v", err)
			}

			again, err := Parse(t.Context(), buf.String())
			if err != nil {
				t.Fatalf("formatted output of %q does not parse: %v\n%s", input, err, buf.String())
			}

			if diff := cmp.Diff(res.Entries, again.Entries, ignorePositions, ignoreSource); diff != "" {
				t.Errorf("round trip of %q mismatch (-want +got):\n%s", input, diff)
			}
		}

		// compiling any parsed resource succeeds
		Compile(res)
	})
}
