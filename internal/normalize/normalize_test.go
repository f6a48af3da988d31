package normalize

import (
	"errors"
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "nested selection",
			raw:  "query Q { user { id } }",
			want: "query Q { user { id __typename } __typename }",
		},
		{
			name: "multi line document",
			raw: heredoc.Doc(`
				query GetUser($id: ID!) {
				  user(id: $id) {
				    id
				    name
				  }
				}
			`),
			want: "query GetUser($id: ID!) { user(id: $id) { id name __typename } __typename } ",
		},
		{
			name: "crlf line breaks",
			raw:  "fragment F on User {\r\n  id\r\n}",
			want: "fragment F on User { id __typename }",
		},
		{
			name: "glued braces",
			raw:  "{user{id}}",
			want: "{user{id __typename } __typename }",
		},
		{
			name: "empty selection",
			raw:  "{}",
			want: "{ __typename }",
		},
		{
			name: "no braces",
			raw:  "query  Q",
			want: "query Q",
		},
		{
			name: "closing brace only",
			raw:  "} query",
			want: "} query",
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Normalize(tt.raw)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalize_invalidEncoding(t *testing.T) {
	t.Parallel()

	raw := "query Q { a \xff }"
	got, err := Normalize(raw)
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("unexpected error: %v", err)
	}
	var nErr *Error
	if !errors.As(err, &nErr) || nErr.Stage != "input" {
		t.Errorf("unexpected error type: %#v", err)
	}
	if got != raw {
		t.Errorf("original input must be returned on failure, got %q", got)
	}
}

func TestNormalize_onlyTypenameChangesCleanInput(t *testing.T) {
	t.Parallel()

	raw := "query Q { a b { c } ...F }"
	got, err := Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	if want := InjectTypename(raw); got != want {
		t.Errorf("got = %q, want %q", got, want)
	}
	if stripped := strings.ReplaceAll(got, "__typename ", ""); stripped != raw {
		t.Errorf("stripped = %q, want %q", stripped, raw)
	}
}

// A second pass adds another __typename per brace. This is a known limitation.
func TestNormalize_notIdempotent(t *testing.T) {
	t.Parallel()

	once, err := Normalize("query Q { user { id } }")
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Normalize(once)
	if err != nil {
		t.Fatal(err)
	}

	if want := "query Q { user { id __typename __typename } __typename __typename }"; twice != want {
		t.Errorf("got = %q, want %q", twice, want)
	}
	if CollapseSpaces(CollapseLineBreaks(once)) != once {
		t.Error("whitespace stages must be stable on normalized text")
	}
}

func TestCollapseLineBreaks(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"a\nb",
		"a\r\nb\rc\n",
		"\n\n\r\r\n",
		"no breaks",
		"string \"with\nnewline\"",
	}
	for _, in := range inputs {
		got := CollapseLineBreaks(in)
		if strings.ContainsAny(got, "\r\n") {
			t.Errorf("%q: line break left in %q", in, got)
		}
	}

	if got := CollapseLineBreaks("a\r\nb"); got != "a b" {
		t.Errorf("CRLF must become a single space, got %q", got)
	}
}

func TestCollapseSpaces(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"field1 field2", "field1 field2"},
		{"field1  field2", "field1 field2"},
		{"   a     b   ", " a b "},
		{"a\t\tb", "a\t\tb"},
		{"a \t  b", "a \t b"},
	}
	for _, tt := range tests {
		got := CollapseSpaces(tt.in)
		if got != tt.want {
			t.Errorf("CollapseSpaces(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if strings.Contains(got, "  ") {
			t.Errorf("CollapseSpaces(%q) left a space run", tt.in)
		}
	}
}

func TestInjectTypename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"query Q { a b }", "query Q { a b __typename }"},
		{"fragment F on T { a }", "fragment F on T { a __typename }"},
		{"query Q", "query Q"},
		{"} {", "} {"},
		{"query Q { a { b } c { d } }", "query Q { a { b __typename } c { d __typename } __typename }"},
	}
	for _, tt := range tests {
		if got := InjectTypename(tt.in); got != tt.want {
			t.Errorf("InjectTypename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
