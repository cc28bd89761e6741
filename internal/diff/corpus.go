package diff

import (
	"fmt"
	"slices"

	"github.com/felixgeelhaar/apigov/internal/change"
	"github.com/felixgeelhaar/apigov/internal/corpus"
)

// CompareCorpus diffs two corpora document by document, matched on their
// relative keys. A document present on only one side becomes a single add
// or remove record at [key]. Record paths carry the document key as their
// first segment only when more than one document is involved. Two
// single-file corpora are compared with each other whatever their file names.
func CompareCorpus(oldC, newC *corpus.Corpus, opts Options) ([]change.Record, error) {
	if oldDoc, newDoc, ok := singleFiles(oldC, newC); ok {
		recs, err := compareRooted(nil, oldDoc.Root, newDoc.Root, opts)
		if err != nil {
			return nil, fmt.Errorf("compare %s with %s: %w", oldDoc.Key, newDoc.Key, err)
		}
		return recs, nil
	}

	keys := documentKeys(oldC, newC)
	prefixed := len(keys) > 1

	var records []change.Record
	for _, key := range keys {
		oldDoc, inOld := lookup(oldC, key)
		newDoc, inNew := lookup(newC, key)

		switch {
		case inOld && inNew:
			var prefix change.Path
			if prefixed {
				prefix = change.P(key)
			}
			recs, err := compareRooted(prefix, oldDoc.Root, newDoc.Root, opts)
			if err != nil {
				return nil, fmt.Errorf("compare %s: %w", key, err)
			}
			records = append(records, recs...)
		case inNew:
			records = append(records, change.Record{Type: change.Add, Path: change.P(key), NewValue: newDoc.Root})
		default:
			records = append(records, change.Record{Type: change.Remove, Path: change.P(key), OldValue: oldDoc.Root})
		}
	}
	return records, nil
}

// singleFiles returns the two documents when both corpora were loaded from
// one file each.
func singleFiles(a, b *corpus.Corpus) (corpus.Document, corpus.Document, bool) {
	if a == nil || b == nil || !a.File || !b.File || a.Len() != 1 || b.Len() != 1 {
		return corpus.Document{}, corpus.Document{}, false
	}
	oldDoc, _ := a.Get(a.Order[0])
	newDoc, _ := b.Get(b.Order[0])
	return oldDoc, newDoc, true
}

func documentKeys(a, b *corpus.Corpus) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, c := range []*corpus.Corpus{a, b} {
		if c == nil {
			continue
		}
		for _, k := range c.Order {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

func lookup(c *corpus.Corpus, key string) (corpus.Document, bool) {
	if c == nil {
		return corpus.Document{}, false
	}
	return c.Get(key)
}
