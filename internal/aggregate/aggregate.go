package aggregate

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vvakame/gqlcollect/internal/log"
	"github.com/vvakame/gqlcollect/internal/normalize"
	"github.com/vvakame/gqlcollect/internal/registry"
	"github.com/vvakame/gqlcollect/internal/selection"
	"github.com/vvakame/gqlcollect/manifest"
)

// ParsedDocument is one GraphQL definition found in the source tree.
type ParsedDocument struct {
	FilePath string
	RawText  string
	Document *ast.QueryDocument
}

type Options struct {
	// RootMarker is the path segment where displayed file names start, e.g. "src/".
	RootMarker string
}

type Result struct {
	Operations []*manifest.OperationRecord
	Fragments  []*manifest.FragmentRecord

	// duplicates are renamed to name_N and never emitted
	DuplicateOperations []*manifest.OperationRecord
	DuplicateFragments  []*manifest.FragmentRecord

	// Unnamed lists files holding an anonymous operation.
	Unnamed []string
	// Skipped lists files whose text could not be normalized.
	Skipped []string
}

func (res *Result) HasDuplicates() bool {
	return len(res.DuplicateOperations) != 0 || len(res.DuplicateFragments) != 0
}

func (res *Result) DuplicateOperationNames() []string {
	names := make([]string, 0, len(res.DuplicateOperations))
	for _, op := range res.DuplicateOperations {
		names = append(names, op.OperationName)
	}
	return names
}

func (res *Result) DuplicateFragmentNames() []string {
	names := make([]string, 0, len(res.DuplicateFragments))
	for _, frag := range res.DuplicateFragments {
		names = append(names, frag.Name)
	}
	return names
}

// Run builds the operation and fragment collections from docs, in order.
// Documents that cannot be used are logged and skipped.
func Run(ctx context.Context, docs []*ParsedDocument, opts Options) *Result {
	logger := log.FromContext(ctx)

	reg := registry.New()
	res := &Result{}

	for _, doc := range docs {
		if doc == nil || doc.Document == nil {
			continue
		}

		fileName := DisplayFileName(doc.FilePath, opts.RootMarker)

		op, frag := firstDefinition(doc.Document)
		if op == nil && frag == nil {
			continue
		}

		rawQuery, err := normalize.Normalize(doc.RawText)
		if err != nil {
			logger.Error(err, "skip document", "file", fileName, "content", doc.RawText)
			res.Skipped = append(res.Skipped, fileName)
			continue
		}

		if frag != nil {
			reg.InsertFragment(&manifest.FragmentRecord{
				Name:     frag.Name,
				FileName: fileName,
				RawQuery: rawQuery,
			})
			continue
		}

		fragmentNames := selection.CollectFragmentNames(op.SelectionSet)
		if op.Name == "" {
			logger.Info("skip unnamed operation", "file", fileName)
			res.Unnamed = append(res.Unnamed, fileName)
			continue
		}

		reg.InsertOperation(&manifest.OperationRecord{
			OperationName: op.Name,
			FileName:      fileName,
			RawQuery:      rawQuery,
			FragmentNames: fragmentNames,
		})
	}

	res.Operations, res.Fragments = reg.Snapshot()
	res.DuplicateOperations = reg.DuplicateOperations()
	res.DuplicateFragments = reg.DuplicateFragments()

	for _, op := range res.DuplicateOperations {
		logger.Info("WARNING: duplicate operation name", "name", op.OperationName, "file", op.FileName)
	}
	for _, frag := range res.DuplicateFragments {
		logger.Info("WARNING: duplicate fragment name", "name", frag.Name, "file", frag.FileName)
	}

	return res
}

// DisplayFileName trims filePath to start at rootMarker.
// The full path is returned when the marker is empty or not found.
func DisplayFileName(filePath, rootMarker string) string {
	filePath = filepath.ToSlash(filePath)
	if rootMarker == "" {
		return filePath
	}
	idx := strings.Index(filePath, filepath.ToSlash(rootMarker))
	if idx < 0 {
		return filePath
	}
	return filePath[idx:]
}

// firstDefinition picks whichever of the first operation and first fragment comes first in the source.
func firstDefinition(doc *ast.QueryDocument) (*ast.OperationDefinition, *ast.FragmentDefinition) {
	var op *ast.OperationDefinition
	var frag *ast.FragmentDefinition
	if len(doc.Operations) != 0 {
		op = doc.Operations[0]
	}
	if len(doc.Fragments) != 0 {
		frag = doc.Fragments[0]
	}

	switch {
	case op == nil || frag == nil:
		return op, frag
	case before(frag.Position, op.Position):
		return nil, frag
	default:
		return op, nil
	}
}

func before(a, b *ast.Position) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}
