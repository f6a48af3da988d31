package registry

import (
	"fmt"

	"github.com/vvakame/gqlcollect/manifest"
)

// Registry collects operations and fragments by name.
// The first record under a name is kept; later ones go to the duplicate collections.
type Registry struct {
	operations          collection[*manifest.OperationRecord]
	fragments           collection[*manifest.FragmentRecord]
	duplicateOperations collection[*manifest.OperationRecord]
	duplicateFragments  collection[*manifest.FragmentRecord]

	operationCollisions map[string]int
	fragmentCollisions  map[string]int
}

func New() *Registry {
	return &Registry{
		operationCollisions: make(map[string]int),
		fragmentCollisions:  make(map[string]int),
	}
}

// InsertOperation stores op under its name. When the name is taken, a copy renamed to
// name_N is stored as a duplicate instead and duplicate is true.
func (r *Registry) InsertOperation(op *manifest.OperationRecord) (key string, duplicate bool) {
	name := op.OperationName
	if !r.operations.has(name) {
		r.operations.set(name, op)
		return name, false
	}

	key = nextKey(name, r.operationCollisions)
	dup := *op
	dup.OperationName = key
	r.duplicateOperations.set(key, &dup)

	return key, true
}

// InsertFragment is InsertOperation for fragments.
func (r *Registry) InsertFragment(frag *manifest.FragmentRecord) (key string, duplicate bool) {
	name := frag.Name
	if !r.fragments.has(name) {
		r.fragments.set(name, frag)
		return name, false
	}

	key = nextKey(name, r.fragmentCollisions)
	dup := *frag
	dup.Name = key
	r.duplicateFragments.set(key, &dup)

	return key, true
}

// The counter is kept per name, so repeated collisions yield name_1, name_2, ...
// The number is always the last segment, which keeps keys of different names apart.
func nextKey(name string, counters map[string]int) string {
	counters[name]++
	return fmt.Sprintf("%s_%d", name, counters[name])
}

// Operation returns the primary record stored under name.
func (r *Registry) Operation(name string) (*manifest.OperationRecord, bool) {
	return r.operations.get(name)
}

// Fragment returns the primary record stored under name.
func (r *Registry) Fragment(name string) (*manifest.FragmentRecord, bool) {
	return r.fragments.get(name)
}

// Snapshot returns the primary records in insertion order.
func (r *Registry) Snapshot() ([]*manifest.OperationRecord, []*manifest.FragmentRecord) {
	return r.operations.values(), r.fragments.values()
}

func (r *Registry) DuplicateOperations() []*manifest.OperationRecord {
	return r.duplicateOperations.values()
}

func (r *Registry) DuplicateFragments() []*manifest.FragmentRecord {
	return r.duplicateFragments.values()
}

// Go maps do not keep insertion order, so names are tracked alongside.
type collection[T any] struct {
	names    []string
	valueMap map[string]T
}

func (c *collection[T]) has(name string) bool {
	_, ok := c.valueMap[name]
	return ok
}

func (c *collection[T]) get(name string) (T, bool) {
	v, ok := c.valueMap[name]
	return v, ok
}

func (c *collection[T]) set(name string, v T) {
	if c.valueMap == nil {
		c.valueMap = make(map[string]T)
	}
	if _, ok := c.valueMap[name]; !ok {
		c.names = append(c.names, name)
	}
	c.valueMap[name] = v
}

func (c *collection[T]) values() []T {
	result := make([]T, 0, len(c.names))
	for _, name := range c.names {
		result = append(result, c.valueMap[name])
	}
	return result
}
