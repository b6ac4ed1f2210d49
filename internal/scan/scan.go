package scan

import (
	"errors"
	"io/fs"
	"path"
	"strings"

	"l2wp/internal/safeio"
)

// DefaultIgnoreDirs are never descended into.
var DefaultIgnoreDirs = []string{".git", ".hg", ".svn", "node_modules", "vendor", ".next", ".cache", "__MACOSX"}

// FileVisit carries per-entry metadata to user callbacks.
type FileVisit struct {
	// Root-relative path using forward slashes (e.g., "src/pages/Index.tsx").
	Path string
	// Base name of the entry.
	Name string
	// True when the entry is a directory.
	IsDir bool
	// Lowercased extension without the dot (e.g., "tsx"); empty for dirs.
	Ext string
	// File size in bytes; 0 for dirs or when stat fails.
	Size int64
	// Depth below the walk start; direct children are 1.
	Depth int
}

// VisitFunc is invoked for every visited entry. Returning fs.SkipDir on a
// directory skips it; any other error stops the walk.
type VisitFunc func(f FileVisit) error

type Options struct {
	// IgnoreDirs lists directory base names to skip. Nil means DefaultIgnoreDirs.
	IgnoreDirs []string
	// MaxDepth limits descent; 0 means unlimited, 1 means direct children only.
	MaxDepth int
	// FilesOnly suppresses callbacks for directories.
	FilesOnly bool
}

// Walk visits dir (root-relative, "." for the root) below fsys in lexical
// order. A missing dir is not an error.
func Walk(fsys *safeio.SafeFS, dir string, opts Options, cb VisitFunc) error {
	if fsys == nil {
		return errors.New("scan: filesystem not configured")
	}
	dir = strings.Trim(path.Clean("/"+strings.ReplaceAll(dir, "\\", "/")), "/")
	if dir == "" {
		dir = "."
	}
	if !fsys.IsDir(dir) {
		return nil
	}
	ignore := opts.IgnoreDirs
	if ignore == nil {
		ignore = DefaultIgnoreDirs
	}
	base := 0
	if dir != "." {
		base = strings.Count(dir, "/") + 1
	}
	return fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped rather than failing the walk.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == dir {
			return nil
		}
		depth := strings.Count(p, "/") + 1 - base
		if d.IsDir() {
			for _, name := range ignore {
				if d.Name() == name {
					return fs.SkipDir
				}
			}
			if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
				if opts.FilesOnly {
					return fs.SkipDir
				}
				if err := cb(FileVisit{Path: p, Name: d.Name(), IsDir: true, Depth: depth}); err != nil && !errors.Is(err, fs.SkipDir) {
					return err
				}
				return fs.SkipDir
			}
			if opts.FilesOnly {
				return nil
			}
			return cb(FileVisit{Path: p, Name: d.Name(), IsDir: true, Depth: depth})
		}
		var size int64
		if info, e := d.Info(); e == nil {
			size = info.Size()
		}
		return cb(FileVisit{
			Path:  p,
			Name:  d.Name(),
			Ext:   Ext(p),
			Size:  size,
			Depth: depth,
		})
	})
}

// Ext returns the lowercased extension of name without the dot.
func Ext(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}
