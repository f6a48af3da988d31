// Package persisted serves the operations collected by gqlcollect by name.
package persisted

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vvakame/gqlcollect/internal/selection"
	"github.com/vvakame/gqlcollect/manifest"
)

// Store holds the complete query text of every operation, fragments included.
// It is read only after construction and safe for concurrent use.
type Store struct {
	queries map[string]string
}

// Load reads operations.json and fragments.json from dir.
func Load(dir string) (*Store, error) {
	ops, frags, err := manifest.ReadFiles(dir)
	if err != nil {
		return nil, err
	}

	return New(ops, frags)
}

func New(ops []*manifest.OperationRecord, frags []*manifest.FragmentRecord) (*Store, error) {
	err := manifest.Validate(ops, frags)
	if err != nil {
		return nil, err
	}

	fragmentMap := make(map[string]*manifest.FragmentRecord, len(frags))
	dependencies := make(map[string][]string, len(frags))
	for _, frag := range frags {
		doc, gErr := parser.ParseQuery(&ast.Source{
			Name:  frag.FileName,
			Input: frag.RawQuery,
		})
		if gErr != nil {
			return nil, fmt.Errorf("fragment %s: %w", frag.Name, gErr)
		}
		def := doc.Fragments.ForName(frag.Name)
		if def == nil {
			return nil, fmt.Errorf("fragment %s: definition not found in rawQuery", frag.Name)
		}

		fragmentMap[frag.Name] = frag
		dependencies[frag.Name] = selection.Unique(selection.CollectFragmentNames(def.SelectionSet))
	}

	s := &Store{
		queries: make(map[string]string, len(ops)),
	}
	for _, op := range ops {
		parts := []string{strings.TrimSpace(op.RawQuery)}
		for _, name := range resolveFragments(op.FragmentNames, dependencies) {
			parts = append(parts, strings.TrimSpace(fragmentMap[name].RawQuery))
		}
		s.queries[op.OperationName] = strings.Join(parts, " ")
	}

	return s, nil
}

// resolveFragments follows fragment spreads transitively, in first use order.
// Unknown fragments are left out, cycles are visited once.
func resolveFragments(names []string, dependencies map[string][]string) []string {
	var result []string
	seen := make(map[string]bool)

	var visit func(name string)
	visit = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true

		deps, ok := dependencies[name]
		if !ok {
			return
		}
		result = append(result, name)
		for _, dep := range deps {
			visit(dep)
		}
	}
	for _, name := range names {
		visit(name)
	}

	return result
}

// Query returns the query text for the named operation followed by the fragments it uses.
func (s *Store) Query(operationName string) (string, bool) {
	query, ok := s.queries[operationName]
	return query, ok
}

// Names returns the stored operation names, sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.queries))
	for name := range s.queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
