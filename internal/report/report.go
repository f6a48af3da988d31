package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/vvakame/gqlcollect/internal/aggregate"
)

type Summary struct {
	Operations          int      `yaml:"operations"`
	Fragments           int      `yaml:"fragments"`
	DuplicateOperations []string `yaml:"duplicateOperations"`
	DuplicateFragments  []string `yaml:"duplicateFragments"`
	Unnamed             []string `yaml:"unnamed,omitempty"`
	Skipped             []string `yaml:"skipped,omitempty"`
}

func NewSummary(res *aggregate.Result) *Summary {
	return &Summary{
		Operations:          len(res.Operations),
		Fragments:           len(res.Fragments),
		DuplicateOperations: res.DuplicateOperationNames(),
		DuplicateFragments:  res.DuplicateFragmentNames(),
		Unnamed:             res.Unnamed,
		Skipped:             res.Skipped,
	}
}

// Print writes a human readable summary. verbose adds every normalized query.
func Print(w io.Writer, res *aggregate.Result, verbose bool) error {
	s := NewSummary(res)
	pw := &printer{w: w}

	if verbose {
		for _, op := range res.Operations {
			pw.printf("operation %s (%s)\n  %s\n", op.OperationName, op.FileName, op.RawQuery)
		}
		for _, frag := range res.Fragments {
			pw.printf("fragment %s (%s)\n  %s\n", frag.Name, frag.FileName, frag.RawQuery)
		}
	}

	pw.printf("operations: %d\n", s.Operations)
	pw.printf("fragments: %d\n", s.Fragments)
	pw.printf("duplicate operations: %d\n", len(s.DuplicateOperations))
	for _, op := range res.DuplicateOperations {
		pw.printf("  %s (%s)\n", op.OperationName, op.FileName)
	}
	pw.printf("duplicate fragments: %d\n", len(s.DuplicateFragments))
	for _, frag := range res.DuplicateFragments {
		pw.printf("  %s (%s)\n", frag.Name, frag.FileName)
	}
	if len(s.Unnamed) != 0 {
		pw.printf("unnamed operations: %d\n", len(s.Unnamed))
		for _, fileName := range s.Unnamed {
			pw.printf("  %s\n", fileName)
		}
	}
	if len(s.Skipped) != 0 {
		pw.printf("skipped documents: %d\n", len(s.Skipped))
		for _, fileName := range s.Skipped {
			pw.printf("  %s\n", fileName)
		}
	}
	if res.HasDuplicates() {
		pw.printf("WARNING: duplicate names found, only the first definition of each name is emitted\n")
	}

	return pw.err
}

// WriteYAML stores the summary at filePath.
func WriteYAML(filePath string, res *aggregate.Result) error {
	b, err := yaml.Marshal(NewSummary(res))
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(filePath), 0755)
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, b, 0644)
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
