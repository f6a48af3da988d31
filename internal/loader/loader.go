// Package loader finds GraphQL definitions under a source tree and parses them.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vvakame/gqlcollect/internal/aggregate"
	"github.com/vvakame/gqlcollect/internal/config"
	"github.com/vvakame/gqlcollect/internal/log"
)

// Load walks cfg.Root in lexical order and returns one document per GraphQL definition.
// Files that fail to parse are logged and skipped; I/O errors abort the load.
func Load(ctx context.Context, cfg *config.Config) ([]*aggregate.ParsedDocument, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}

	ctx = log.WithValues(ctx, "root", root)

	l := &loader{
		include: cfg.Include,
		exclude: cfg.Exclude,
	}

	var docs []*aggregate.ParsedDocument
	err = filepath.WalkDir(root, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, filePath)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && l.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !l.candidate(rel) {
			return nil
		}

		b, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}

		found, err := l.loadFile(ctx, filePath, b)
		if err != nil {
			return err
		}
		docs = append(docs, found...)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load documents from %s: %w", cfg.Root, err)
	}

	return docs, nil
}

type loader struct {
	include []string
	exclude []string
}

func (l *loader) candidate(rel string) bool {
	return matchAny(l.include, rel) && !l.excluded(rel)
}

func (l *loader) excluded(rel string) bool {
	return matchAny(l.exclude, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		// patterns are validated by config.Validate
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (l *loader) loadFile(ctx context.Context, filePath string, b []byte) ([]*aggregate.ParsedDocument, error) {
	switch filepath.Ext(filePath) {
	case ".go":
		sources, err := extractGoSources(filePath, b)
		if err != nil {
			log.FromContext(ctx).Info("skip unparsable go file", "file", filePath, "error", err.Error())
			return nil, nil
		}
		var docs []*aggregate.ParsedDocument
		for _, src := range sources {
			docs = append(docs, parseSource(ctx, filePath, src.text, src.marked)...)
		}
		return docs, nil

	default:
		return parseSource(ctx, filePath, string(b), true), nil
	}
}

// parseSource splits src into documents holding one definition each.
// A source with a single definition and no comments keeps its original text.
// Otherwise every definition is re-printed on its own, which also drops comments.
// Parse errors are logged at error level only when strict is set.
func parseSource(ctx context.Context, filePath, src string, strict bool) []*aggregate.ParsedDocument {
	logger := log.FromContext(ctx)

	doc, gErr := parser.ParseQuery(&ast.Source{
		Name:  filePath,
		Input: src,
	})
	if gErr != nil {
		if strict {
			logger.Error(gErr, "skip unparsable document", "file", filePath)
		} else {
			logger.V(1).Info("skip go string that is not GraphQL", "file", filePath, "error", gErr.Error())
		}
		return nil
	}

	defs := splitDefinitions(doc)
	if len(defs) == 0 {
		return nil
	}
	// a '#' comment would swallow the rest of the query once line breaks are collapsed
	if len(defs) == 1 && !strings.Contains(src, "#") {
		return []*aggregate.ParsedDocument{
			{
				FilePath: filePath,
				RawText:  src,
				Document: defs[0],
			},
		}
	}

	docs := make([]*aggregate.ParsedDocument, 0, len(defs))
	for _, def := range defs {
		var buf bytes.Buffer
		formatter.NewFormatter(&buf).FormatQueryDocument(def)
		docs = append(docs, &aggregate.ParsedDocument{
			FilePath: filePath,
			// the formatter indents with tabs, which normalization keeps
			RawText:  strings.ReplaceAll(buf.String(), "\t", "  "),
			Document: def,
		})
	}

	return docs
}

// splitDefinitions returns a document per definition, in source order.
func splitDefinitions(doc *ast.QueryDocument) []*ast.QueryDocument {
	type positioned struct {
		pos *ast.Position
		doc *ast.QueryDocument
	}

	defs := make([]positioned, 0, len(doc.Operations)+len(doc.Fragments))
	for _, op := range doc.Operations {
		defs = append(defs, positioned{
			pos: op.Position,
			doc: &ast.QueryDocument{Operations: ast.OperationList{op}},
		})
	}
	for _, frag := range doc.Fragments {
		defs = append(defs, positioned{
			pos: frag.Position,
			doc: &ast.QueryDocument{Fragments: ast.FragmentDefinitionList{frag}},
		})
	}

	sort.SliceStable(defs, func(i, j int) bool {
		a, b := defs[i].pos, defs[j].pos
		if a == nil || b == nil {
			return false
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	result := make([]*ast.QueryDocument, 0, len(defs))
	for _, def := range defs {
		result = append(result, def.doc)
	}

	return result
}
