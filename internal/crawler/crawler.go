// Package crawler discovers Rust source files under a project root and
// runs the extractor over them with a bounded worker pool.
package crawler

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"rustmap/internal/extractor"
)

// Crawler scans a directory tree for .rs files.
type Crawler struct {
	extractor *extractor.Extractor
	ignored   []string

	// Workers bounds parallel extraction; 0 means one per CPU.
	Workers int
}

// New creates a crawler around the given extractor. ignored lists directory
// names to skip; nil selects the defaults.
func New(ext *extractor.Extractor, ignored []string) *Crawler {
	if ignored == nil {
		ignored = []string{".git", "target", "vendor", "node_modules"}
	}
	return &Crawler{extractor: ext, ignored: ignored}
}

// DiscoverFiles walks root and returns the relative paths of every source
// file the scan would process, in walk order.
func (c *Crawler) DiscoverFiles(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".rs") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ScanProject extracts every discovered file and streams results through
// onResult. Extraction runs on a bounded worker pool; onResult invocations
// are serialized, so the sink needs no locking of its own. Files that
// cannot be read are skipped rather than failing the scan.
func (c *Crawler) ScanProject(ctx context.Context, root string, onResult func(*extractor.Result)) error {
	files, err := c.DiscoverFiles(ctx, root)
	if err != nil {
		return err
	}
	return c.ScanFiles(ctx, root, files, onResult)
}

// ScanFiles extracts the given relative paths under root. Used directly by
// incremental updates, which already know which files changed.
func (c *Crawler) ScanFiles(ctx context.Context, root string, files []string, onResult func(*extractor.Result)) error {
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}
	if workers == 0 {
		return ctx.Err()
	}

	paths := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex // serializes onResult

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range paths {
				raw, err := os.ReadFile(filepath.Join(root, rel))
				if err != nil {
					continue
				}
				res := c.extractor.Extract(extractor.SourceFile{
					Name: filepath.ToSlash(rel),
					Text: string(raw),
				})
				mu.Lock()
				onResult(res)
				mu.Unlock()
			}
		}()
	}

	var sendErr error
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			sendErr = err
			break
		}
		paths <- rel
	}
	close(paths)
	wg.Wait()
	return sendErr
}
