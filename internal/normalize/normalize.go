// Package normalize turns a GraphQL definition into the single-line form stored in the manifest.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const typenameField = "__typename"

var ErrInvalidEncoding = errors.New("input is not valid UTF-8")

// Error reports which stage refused the input.
type Error struct {
	Stage  string
	Reason error
}

func (e *Error) Error() string {
	return fmt.Sprintf("normalize %s: %s", e.Stage, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Reason
}

var (
	lineBreakReplacer = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")
	spaceRunRegexp    = regexp.MustCompile(` {2,}`)
)

// Normalize applies CollapseLineBreaks, CollapseSpaces and InjectTypename in that order.
// On failure the original input is returned together with an *Error.
//
// Normalize is not idempotent: a second pass adds another __typename before every brace.
func Normalize(raw string) (string, error) {
	if !utf8.ValidString(raw) {
		return raw, &Error{Stage: "input", Reason: ErrInvalidEncoding}
	}

	text := CollapseLineBreaks(raw)
	text = CollapseSpaces(text)
	text = InjectTypename(text)

	return text, nil
}

// CollapseLineBreaks replaces every CRLF, CR and LF with a single space.
func CollapseLineBreaks(s string) string {
	return lineBreakReplacer.Replace(s)
}

// CollapseSpaces folds runs of two or more spaces into one. Tabs are left alone.
func CollapseSpaces(s string) string {
	return spaceRunRegexp.ReplaceAllString(s, " ")
}

// InjectTypename puts a __typename selection in front of every closing brace that follows the first opening brace.
// Text up to and including the first '{' is kept as is.
// A space is inserted when the brace is glued to the previous token, so `id}` becomes `id __typename }`.
func InjectTypename(s string) string {
	open := strings.IndexByte(s, '{')
	if open < 0 {
		return s
	}
	if strings.LastIndexByte(s, '}') < open {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 16*strings.Count(s[open:], "}"))
	b.WriteString(s[:open+1])

	body := s[open+1:]
	prev := rune('{')
	for _, r := range body {
		if r == '}' {
			if !unicode.IsSpace(prev) {
				b.WriteByte(' ')
			}
			b.WriteString(typenameField)
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}

	return b.String()
}
