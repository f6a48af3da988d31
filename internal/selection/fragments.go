package selection

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

// CollectFragmentNames returns the names of all fragment spreads in selectionSet,
// depth first in source order. A fragment spread twice is reported twice.
// Fragment definitions are not followed.
func CollectFragmentNames(selectionSet ast.SelectionSet) []string {
	return collectFragmentNames(selectionSet, nil)
}

func collectFragmentNames(selectionSet ast.SelectionSet, names []string) []string {
	for _, selection := range selectionSet {
		switch selection := selection.(type) {
		case *ast.FragmentSpread:
			names = append(names, selection.Name)

		case *ast.Field:
			names = collectFragmentNames(selection.SelectionSet, names)

		case *ast.InlineFragment:
			names = collectFragmentNames(selection.SelectionSet, names)

		default:
			panic(fmt.Sprintf("unexpected selection type: %T", selection))
		}
	}

	return names
}

// Unique drops repeated names, keeping the first occurrence.
func Unique(names []string) []string {
	if len(names) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}

	return result
}
