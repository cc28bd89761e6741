// Package diff turns two schema document trees into change records.
//
// The walk is deterministic: object members are visited in sorted key order
// and arrays by index, so the same pair of trees always yields the same
// records in the same order. Records for OpenAPI-shaped trees carry
// classification hints.
package diff

import (
	"errors"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/apigov/internal/change"
	"github.com/felixgeelhaar/apigov/internal/value"
)

// ErrRootMismatch is returned when two roots cannot be compared member by
// member: one side is missing, or they are scalars or of different kinds.
var ErrRootMismatch = errors.New("document roots are not comparable")

// Options tune the walk.
type Options struct {
	// IgnoreOrdering compares arrays of scalars as sets.
	IgnoreOrdering bool
}

// Compare diffs two document trees rooted at the empty path.
func Compare(oldDoc, newDoc value.Value, opts Options) ([]change.Record, error) {
	return compareRooted(nil, oldDoc, newDoc, opts)
}

func compareRooted(prefix change.Path, oldDoc, newDoc value.Value, opts Options) ([]change.Record, error) {
	if oldDoc == nil || newDoc == nil {
		return nil, fmt.Errorf("%w: missing document", ErrRootMismatch)
	}
	if oldDoc.Kind() != newDoc.Kind() {
		return nil, fmt.Errorf("%w: %s vs %s", ErrRootMismatch, oldDoc.Kind(), newDoc.Kind())
	}
	if k := oldDoc.Kind(); k != value.KindObject && k != value.KindArray {
		if value.Equal(oldDoc, newDoc) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: scalar roots differ", ErrRootMismatch)
	}

	w := &walker{opts: opts, prefix: prefix}
	w.walk(nil, oldDoc, newDoc)
	return w.records, nil
}

type walker struct {
	opts    Options
	prefix  change.Path
	records []change.Record
}

// emit hints a record by its document-relative path, then prefixes it.
func (w *walker) emit(rec change.Record) {
	applyHint(&rec)
	if len(w.prefix) > 0 {
		rec.Path = w.prefix.Append(rec.Path...)
	}
	w.records = append(w.records, rec)
}

func (w *walker) walk(path change.Path, oldV, newV value.Value) {
	switch o := oldV.(type) {
	case value.Object:
		if n, ok := newV.(value.Object); ok {
			w.walkObject(path, o, n)
			return
		}
	case value.Array:
		if n, ok := newV.(value.Array); ok {
			w.walkArray(path, o, n)
			return
		}
	}

	if !value.Equal(oldV, newV) {
		w.emit(change.Record{Type: change.Modify, Path: path, OldValue: oldV, NewValue: newV})
	}
}

func (w *walker) walkObject(path change.Path, oldObj, newObj value.Object) {
	for _, key := range unionKeys(oldObj, newObj) {
		oldV, inOld := oldObj[key]
		newV, inNew := newObj[key]
		child := path.Append(change.Key(key))

		switch {
		case inOld && inNew:
			w.walk(child, oldV, newV)
		case inNew:
			w.emit(change.Record{Type: change.Add, Path: child, NewValue: newV})
		default:
			w.emit(change.Record{Type: change.Remove, Path: child, OldValue: oldV})
		}
	}
}

func (w *walker) walkArray(path change.Path, oldArr, newArr value.Array) {
	if w.opts.IgnoreOrdering && allScalars(oldArr) && allScalars(newArr) {
		w.walkSet(path, oldArr, newArr)
		return
	}

	common := min(len(oldArr), len(newArr))
	for i := 0; i < common; i++ {
		w.walk(path.Append(change.Index(i)), oldArr[i], newArr[i])
	}
	for i := common; i < len(newArr); i++ {
		w.emit(change.Record{Type: change.Add, Path: path.Append(change.Index(i)), NewValue: newArr[i]})
	}
	for i := common; i < len(oldArr); i++ {
		w.emit(change.Record{Type: change.Remove, Path: path.Append(change.Index(i)), OldValue: oldArr[i]})
	}
}

// walkSet reports elements missing from the other side, each at its own
// index. Reordering alone produces nothing.
func (w *walker) walkSet(path change.Path, oldArr, newArr value.Array) {
	for i, elem := range newArr {
		if !contains(oldArr, elem) {
			w.emit(change.Record{Type: change.Add, Path: path.Append(change.Index(i)), NewValue: elem})
		}
	}
	for i, elem := range oldArr {
		if !contains(newArr, elem) {
			w.emit(change.Record{Type: change.Remove, Path: path.Append(change.Index(i)), OldValue: elem})
		}
	}
}

func unionKeys(a, b value.Object) []string {
	keys := a.SortedKeys()
	for _, k := range b.SortedKeys() {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

func allScalars(arr value.Array) bool {
	for _, v := range arr {
		switch v.Kind() {
		case value.KindArray, value.KindObject:
			return false
		}
	}
	return true
}

func contains(arr value.Array, v value.Value) bool {
	for _, elem := range arr {
		if value.Equal(elem, v) {
			return true
		}
	}
	return false
}
