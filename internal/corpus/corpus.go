// Package corpus loads a directory of schema documents for diffing.
package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/apigov/internal/value"
)

// Pattern selects schema documents below the corpus root.
const Pattern = "**/*.{yaml,yml,json}"

// Document is one parsed schema file.
type Document struct {
	// Key is the slash-separated path relative to the corpus root.
	Key  string
	Root value.Value
	// OpenAPI holds the declared version for documents with a top-level
	// openapi member, empty otherwise.
	OpenAPI string
	// Title and Version come from the info object of OpenAPI documents.
	Title   string
	Version string
}

// Corpus is a loaded set of documents keyed by relative path.
type Corpus struct {
	Root      string
	Documents map[string]Document
	// Order lists the document keys sorted.
	Order []string
	// Fingerprint is the hex blake3 digest over every key and its raw bytes.
	Fingerprint string
	// File is set when Root names a single schema file.
	File bool
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.Order)
}

// Get returns the document stored under key.
func (c *Corpus) Get(key string) (Document, bool) {
	d, ok := c.Documents[key]
	return d, ok
}

// Load reads every schema document under root. A root that names a single
// file yields a one-document corpus keyed by the file's base name. Hidden
// files and directories are skipped.
func Load(ctx context.Context, root string) (*Corpus, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat corpus root: %w", err)
	}

	if info.IsDir() {
		return LoadFS(ctx, root, os.DirFS(root))
	}
	fsys := os.DirFS(filepath.Dir(root))
	c, err := load(ctx, root, fsys, []string{filepath.Base(root)})
	if err != nil {
		return nil, err
	}
	c.File = true
	return c, nil
}

// LoadFS reads every schema document in fsys. root is recorded as given.
func LoadFS(ctx context.Context, root string, fsys fs.FS) (*Corpus, error) {
	matches, err := doublestar.Glob(fsys, Pattern)
	if err != nil {
		return nil, fmt.Errorf("discover schemas: %w", err)
	}
	keys := matches[:0]
	for _, m := range matches {
		if !hidden(m) {
			keys = append(keys, m)
		}
	}
	return load(ctx, root, fsys, keys)
}

func load(ctx context.Context, root string, fsys fs.FS, keys []string) (*Corpus, error) {
	c := &Corpus{
		Root:      root,
		Documents: make(map[string]Document, len(keys)),
	}
	hasher := blake3.New()

	slices.Sort(keys)
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := fs.ReadFile(fsys, key)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", key, err)
		}
		doc, err := parse(ctx, key, data)
		if err != nil {
			return nil, err
		}

		c.Documents[key] = doc
		c.Order = append(c.Order, key)

		if _, err := hasher.Write([]byte(key)); err != nil {
			return nil, fmt.Errorf("fingerprint corpus: %w", err)
		}
		if _, err := hasher.Write([]byte{0}); err != nil {
			return nil, fmt.Errorf("fingerprint corpus: %w", err)
		}
		if _, err := hasher.Write(data); err != nil {
			return nil, fmt.Errorf("fingerprint corpus: %w", err)
		}
	}

	c.Fingerprint = fmt.Sprintf("%x", hasher.Sum(nil))
	return c, nil
}

func parse(ctx context.Context, key string, data []byte) (Document, error) {
	root, err := value.Decode(data)
	if err != nil {
		return Document{}, fmt.Errorf("parse schema %s: %w", key, err)
	}
	if _, isNull := root.(value.Null); isNull || root == nil {
		root = value.Object{}
	}

	doc := Document{Key: key, Root: root}

	obj, ok := value.AsObject(root)
	if !ok {
		return doc, nil
	}
	if v, ok := obj.Get("openapi"); ok {
		doc.OpenAPI = value.Text(v)
		if err := validateOpenAPI(ctx, data, &doc); err != nil {
			return Document{}, fmt.Errorf("schema %s: %w", key, err)
		}
	}
	return doc, nil
}

func validateOpenAPI(ctx context.Context, data []byte, doc *Document) error {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	spec, err := loader.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("load OpenAPI document: %w", err)
	}
	if err := spec.Validate(ctx); err != nil {
		return fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	if spec.Info != nil {
		doc.Title = spec.Info.Title
		doc.Version = spec.Info.Version
	}
	return nil
}

func hidden(key string) bool {
	for _, part := range strings.Split(key, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
