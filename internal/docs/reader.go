// Package docs reads project documentation files and turns them into a
// hierarchical section model. Markdown (ATX and setext headings) and
// reStructuredText (underlined headings) are parsed into leveled sections;
// anything else is wrapped as a single section.
package docs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pylens/pylens/internal/types"
)

// DefaultCacheSize is the number of parsed documents retained when no
// explicit size is configured.
const DefaultCacheSize = 512

// docExtensions are the file suffixes treated as documentation.
var docExtensions = map[string]bool{
	".md":       true,
	".rst":      true,
	".txt":      true,
	".markdown": true,
}

// wellKnownNames are documentation files discovered at a project root
// regardless of extension (matched case-insensitively).
var wellKnownNames = map[string]bool{
	"readme":          true,
	"readme.md":       true,
	"readme.rst":      true,
	"contributing":    true,
	"contributing.md": true,
	"changelog":       true,
	"changelog.md":    true,
	"history":         true,
	"history.md":      true,
	"license":         true,
	"license.md":      true,
	"authors":         true,
	"authors.md":      true,
}

// IsDocFile reports whether a path looks like a documentation file by
// suffix.
func IsDocFile(path string) bool {
	return docExtensions[strings.ToLower(filepath.Ext(path))]
}

type cacheEntry struct {
	doc         *types.DocFile
	contentHash uint64
}

// Indexer parses documentation files, caching parsed results. Safe for
// concurrent use.
type Indexer struct {
	cache *lru.Cache[string, cacheEntry]
}

// NewIndexer creates an indexer with a parsed-document cache of the given
// size.
func NewIndexer(cacheSize int) (*Indexer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, cacheEntry](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Indexer{cache: cache}, nil
}

// Read parses one documentation file. A non-existent path yields an empty
// DocFile titled after the file name; absent documentation is not an error.
func (ix *Indexer) Read(path string) *types.DocFile {
	doc := &types.DocFile{FilePath: path, Title: filepath.Base(path)}

	info, err := os.Stat(path)
	if err != nil {
		return doc
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return doc
	}

	hash := xxhash.Sum64(content)
	if entry, ok := ix.cache.Get(path); ok && entry.contentHash == hash {
		return entry.doc
	}

	doc.LastModified = info.ModTime()
	doc.Content = string(content)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		doc.Sections = parseMarkdown(doc.Content)
		if title := firstTitle(doc.Sections); title != "" {
			doc.Title = title
		}
	case ".rst":
		doc.Sections = parseRST(doc.Content)
		if title := firstTitle(doc.Sections); title != "" {
			doc.Title = title
		}
	default:
		doc.Sections = []types.DocSection{{
			Title:   filepath.Base(path),
			Content: doc.Content,
			Level:   1,
		}}
	}

	ix.cache.Add(path, cacheEntry{doc: doc, contentHash: hash})
	return doc
}

// Cached returns the most recently parsed version of a file, if any.
func (ix *Indexer) Cached(path string) (*types.DocFile, bool) {
	entry, ok := ix.cache.Get(path)
	if !ok {
		return nil, false
	}
	return entry.doc, true
}

// Invalidate drops the cached document for a path.
func (ix *Indexer) Invalidate(path string) {
	ix.cache.Remove(path)
}

// firstTitle returns the title of the first level-1 section.
func firstTitle(sections []types.DocSection) string {
	for _, s := range sections {
		if s.Level == 1 && s.Title != "" {
			return s.Title
		}
	}
	return ""
}
