package world

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gridbot/internal/game/dice"
)

// ErrWorldNotFound is returned by Build for a name the Catalog lacks.
var ErrWorldNotFound = errors.New("world not found")

// Validator checks a world document file before it is decoded.
type Validator interface {
	ValidateFile(path string) error
}

// Entry is one named world document in a Catalog.
type Entry struct {
	Name     string
	Path     string
	Document *Document
}

// Catalog provides thread-safe access to the world documents of a level
// directory, indexed by file name without extension.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewCatalog indexes entries by name.
//
// Postcondition: Returns a Catalog or an error on duplicate names.
func NewCatalog(entries ...*Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]*Entry, len(entries))}
	for _, e := range entries {
		if existing, ok := c.entries[e.Name]; ok {
			return nil, fmt.Errorf("duplicate world name %q: %s and %s", e.Name, existing.Path, e.Path)
		}
		c.entries[e.Name] = e
	}
	return c, nil
}

// LoadCatalog decodes every .json, .yaml and .yml file in dir. When v is
// non-nil each file is validated first.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a Catalog with at least one entry or the first error.
func LoadCatalog(dir string, v Validator) (*Catalog, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading world directory %s: %w", dir, err)
	}

	var entries []*Entry
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		path := filepath.Join(dir, f.Name())
		if _, err := FormatFromPath(path); err != nil {
			continue
		}
		if v != nil {
			if err := v.ValidateFile(path); err != nil {
				return nil, fmt.Errorf("validating %s: %w", f.Name(), err)
			}
		}
		doc, err := LoadDocumentFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading world from %s: %w", f.Name(), err)
		}
		entries = append(entries, &Entry{
			Name:     strings.TrimSuffix(f.Name(), filepath.Ext(f.Name())),
			Path:     path,
			Document: doc,
		})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no world files found in %s", dir)
	}
	return NewCatalog(entries...)
}

// Get returns the entry called name.
//
// Postcondition: Returns (entry, true) if found, or (nil, false) otherwise.
func (c *Catalog) Get(name string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	return e, ok
}

// Names returns all world names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.entries))
	for n := range c.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of worlds.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Build constructs a fresh World from the named document. Every call
// resolves random values again through src.
func (c *Catalog) Build(name string, opts Options, src dice.Source, logger *zap.Logger) (*World, error) {
	e, ok := c.Get(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrWorldNotFound)
	}
	w, err := FromDocument(e.Document, opts, dice.NewLoggedRoller(src, logger), logger)
	if err != nil {
		return nil, fmt.Errorf("building world %q: %w", name, err)
	}
	return w, nil
}
