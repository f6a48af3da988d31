package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/hashicorp/go-multierror"
)

func TestWriteFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	ops := []*OperationRecord{
		{
			OperationName: "GetUser",
			FileName:      "src/user.graphql",
			RawQuery:      "query GetUser { user { ...UserFields __typename } __typename }",
			FragmentNames: []string{"UserFields"},
		},
		{
			OperationName: "Ping",
			FileName:      "src/ping.graphql",
			RawQuery:      "query Ping { ping }",
		},
	}
	frags := []*FragmentRecord{
		{
			Name:     "UserFields",
			FileName: "src/fragments.graphql",
			RawQuery: "fragment UserFields on User { id name __typename }",
		},
	}

	err := WriteFiles(dir, ops, frags)
	if err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(filepath.Join(dir, OperationsFileName))
	if err != nil {
		t.Fatal(err)
	}
	want := heredoc.Doc(`
		[
		  {
		    "operationName": "GetUser",
		    "fileName": "src/user.graphql",
		    "rawQuery": "query GetUser { user { ...UserFields __typename } __typename }",
		    "fragmentNames": [
		      "UserFields"
		    ]
		  },
		  {
		    "operationName": "Ping",
		    "fileName": "src/ping.graphql",
		    "rawQuery": "query Ping { ping }"
		  }
		]
	`)
	if string(b) != want {
		t.Errorf("operations.json = %s, want %s", b, want)
	}

	gotOps, gotFrags, err := ReadFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(gotOps, ops) {
		t.Errorf("operations = %+v", gotOps)
	}
	if !reflect.DeepEqual(gotFrags, frags) {
		t.Errorf("fragments = %+v", gotFrags)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestWriteFiles_empty(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	err := WriteFiles(dir, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{OperationsFileName, FragmentsFileName} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != "[]\n" {
			t.Errorf("%s = %q", name, b)
		}
	}
}

func TestWriteFiles_noHTMLEscape(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := WriteFiles(dir, []*OperationRecord{
		{OperationName: "Q", FileName: "q.graphql", RawQuery: `query Q { a(x: "<&>") }`},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(filepath.Join(dir, OperationsFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `<&>`) {
		t.Errorf("html characters escaped: %s", b)
	}
}

func TestReadFiles_invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		ops   string
		frags string
	}{
		{
			name:  "missing operation name",
			ops:   `[{"fileName": "a", "rawQuery": "query { a }"}]`,
			frags: `[]`,
		},
		{
			name:  "duplicate fragment",
			ops:   `[]`,
			frags: `[{"name": "F", "fileName": "a", "rawQuery": "x"}, {"name": "F", "fileName": "b", "rawQuery": "y"}]`,
		},
		{
			name:  "unknown field",
			ops:   `[{"operationName": "Q", "rawQuery": "q", "hash": "abc"}]`,
			frags: `[]`,
		},
		{
			name:  "not an array",
			ops:   `{}`,
			frags: `[]`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			err := os.WriteFile(filepath.Join(dir, OperationsFileName), []byte(tt.ops), 0644)
			if err != nil {
				t.Fatal(err)
			}
			err = os.WriteFile(filepath.Join(dir, FragmentsFileName), []byte(tt.frags), 0644)
			if err != nil {
				t.Fatal(err)
			}

			_, _, err = ReadFiles(dir)
			if !errors.Is(err, ErrInvalidManifest) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_collectsAllErrors(t *testing.T) {
	t.Parallel()

	ops := []*OperationRecord{
		{OperationName: "Q", FileName: "a", RawQuery: "query Q { a }"},
		{FileName: "b", RawQuery: "query { b }"},
	}
	frags := []*FragmentRecord{
		{Name: "F", FileName: "c"},
	}

	err := Validate(ops, frags)
	if !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("unexpected error: %v", err)
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("validation errors must be collected: %T", err)
	}
	if len(merr.Errors) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(merr.Errors), merr.Errors)
	}
	if !strings.Contains(err.Error(), "operations[1] has no operationName") || !strings.Contains(err.Error(), "fragment F has no rawQuery") {
		t.Errorf("unexpected message: %v", err)
	}
}
