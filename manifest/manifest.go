// Package manifest defines the persisted operation and fragment files.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

const (
	OperationsFileName = "operations.json"
	FragmentsFileName  = "fragments.json"
)

var ErrInvalidManifest = errors.New("invalid manifest")

type OperationRecord struct {
	OperationName string   `json:"operationName" yaml:"operationName"`
	FileName      string   `json:"fileName" yaml:"fileName"`
	RawQuery      string   `json:"rawQuery" yaml:"rawQuery"`
	FragmentNames []string `json:"fragmentNames,omitempty" yaml:"fragmentNames,omitempty"`
}

type FragmentRecord struct {
	Name     string `json:"name" yaml:"name"`
	FileName string `json:"fileName" yaml:"fileName"`
	RawQuery string `json:"rawQuery" yaml:"rawQuery"`
}

// WriteFiles writes operations.json and fragments.json into dir, replacing existing files.
// Both payloads are staged as temporary files before either target is replaced.
func WriteFiles(dir string, ops []*OperationRecord, frags []*FragmentRecord) error {
	if ops == nil {
		ops = []*OperationRecord{}
	}
	if frags == nil {
		frags = []*FragmentRecord{}
	}

	opsJSON, err := marshal(ops)
	if err != nil {
		return fmt.Errorf("marshal operations: %w", err)
	}
	fragsJSON, err := marshal(frags)
	if err != nil {
		return fmt.Errorf("marshal fragments: %w", err)
	}

	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	type staged struct {
		tmp    string
		target string
	}
	var files []staged
	defer func() {
		for _, f := range files {
			_ = os.Remove(f.tmp)
		}
	}()

	for _, entry := range []struct {
		name string
		data []byte
	}{
		{OperationsFileName, opsJSON},
		{FragmentsFileName, fragsJSON},
	} {
		tmp, err := writeTemp(dir, entry.name, entry.data)
		if err != nil {
			return err
		}
		files = append(files, staged{tmp: tmp, target: filepath.Join(dir, entry.name)})
	}

	for _, f := range files {
		err = os.Rename(f.tmp, f.target)
		if err != nil {
			return fmt.Errorf("replace %s: %w", f.target, err)
		}
	}

	return nil
}

func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", err
	}
	_, err = f.Write(data)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	err = os.Chmod(f.Name(), 0644)
	if err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}

func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(v)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ReadFiles loads the files written by WriteFiles and checks their shape.
func ReadFiles(dir string) ([]*OperationRecord, []*FragmentRecord, error) {
	var ops []*OperationRecord
	err := readJSON(filepath.Join(dir, OperationsFileName), &ops)
	if err != nil {
		return nil, nil, err
	}
	var frags []*FragmentRecord
	err = readJSON(filepath.Join(dir, FragmentsFileName), &frags)
	if err != nil {
		return nil, nil, err
	}

	err = Validate(ops, frags)
	if err != nil {
		return nil, nil, err
	}

	return ops, frags, nil
}

func readJSON(filePath string, v interface{}) error {
	b, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	err = dec.Decode(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidManifest, filePath, err)
	}

	return nil
}

// Validate reports records with missing fields or names used twice.
func Validate(ops []*OperationRecord, frags []*FragmentRecord) error {
	var merr *multierror.Error

	seenOps := make(map[string]bool, len(ops))
	for i, op := range ops {
		switch {
		case op == nil:
			merr = multierror.Append(merr, fmt.Errorf("operations[%d] is null", i))
		case op.OperationName == "":
			merr = multierror.Append(merr, fmt.Errorf("operations[%d] has no operationName", i))
		case op.RawQuery == "":
			merr = multierror.Append(merr, fmt.Errorf("operation %s has no rawQuery", op.OperationName))
		case seenOps[op.OperationName]:
			merr = multierror.Append(merr, fmt.Errorf("operation %s is defined twice", op.OperationName))
		default:
			seenOps[op.OperationName] = true
		}
	}

	seenFrags := make(map[string]bool, len(frags))
	for i, frag := range frags {
		switch {
		case frag == nil:
			merr = multierror.Append(merr, fmt.Errorf("fragments[%d] is null", i))
		case frag.Name == "":
			merr = multierror.Append(merr, fmt.Errorf("fragments[%d] has no name", i))
		case frag.RawQuery == "":
			merr = multierror.Append(merr, fmt.Errorf("fragment %s has no rawQuery", frag.Name))
		case seenFrags[frag.Name]:
			merr = multierror.Append(merr, fmt.Errorf("fragment %s is defined twice", frag.Name))
		default:
			seenFrags[frag.Name] = true
		}
	}

	if err := merr.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	return nil
}
