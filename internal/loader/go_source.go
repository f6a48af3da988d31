package loader

import (
	goast "go/ast"
	goparser "go/parser"
	"go/token"
	"strconv"
	"strings"
)

// markers that tag a Go string literal as a GraphQL document
var sourceMarkers = []string{"# @graphql", "# @genqlient"}

var definitionKeywords = []string{"query", "mutation", "subscription", "fragment"}

// goSource is a Go string literal that looks like a GraphQL document.
// marked is set when the literal carries one of sourceMarkers.
type goSource struct {
	text   string
	marked bool
}

// extractGoSources returns the string literals in a Go file that hold GraphQL documents.
func extractGoSources(filePath string, b []byte) ([]goSource, error) {
	fset := token.NewFileSet()
	file, err := goparser.ParseFile(fset, filePath, b, goparser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	var sources []goSource
	goast.Inspect(file, func(node goast.Node) bool {
		lit, ok := node.(*goast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			return true
		}
		value, err := strconv.Unquote(lit.Value)
		if err != nil {
			return true
		}
		if isGraphQLSource(value) {
			sources = append(sources, goSource{text: value, marked: hasSourceMarker(value)})
		}
		return true
	})

	return sources, nil
}

func hasSourceMarker(s string) bool {
	for _, marker := range sourceMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func isGraphQLSource(s string) bool {
	if hasSourceMarker(s) {
		return true
	}

	body := trimComments(s)
	for _, keyword := range definitionKeywords {
		if !strings.HasPrefix(body, keyword) {
			continue
		}
		rest := body[len(keyword):]
		if rest == "" || strings.ContainsRune(" \t\r\n{(", rune(rest[0])) {
			return strings.Contains(rest, "{")
		}
	}

	return false
}

// trimComments drops leading ignored tokens and '#' comment lines.
func trimComments(s string) string {
	for {
		s = strings.TrimLeft(s, " \t\r\n,")
		if !strings.HasPrefix(s, "#") {
			return s
		}
		idx := strings.IndexAny(s, "\r\n")
		if idx < 0 {
			return ""
		}
		s = s[idx:]
	}
}
