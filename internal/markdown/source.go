package markdown

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Source is one markdown document: its raw text plus the path it was
// loaded from. The path is used only in diagnostics; the extractor
// itself never touches the filesystem. A Source is immutable once
// loaded.
type Source struct {
	// Path is the originating file path, or any caller-chosen label
	// for documents that did not come from a file.
	Path string

	// Content is the full raw text of the document.
	Content string
}

// Load reads a markdown document from disk.
func Load(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read markdown document: %w", err)
	}
	return Source{Path: path, Content: string(data)}, nil
}

// Discover walks the tree rooted at root and returns the paths of all
// files whose base name equals name, in lexical walk order. That order
// is deterministic and visits a directory's own README before the
// READMEs of its subdirectories, which is the order a reader following
// nested documentation would take.
//
// Dot-directories (.git, .cache, ...) are skipped: their contents are
// tool state, not documentation.
func Discover(root, name string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == name {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for %s files: %w", root, name, err)
	}

	return paths, nil
}
