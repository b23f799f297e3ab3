package enum

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

// FilesystemEnumerator enumerates files below a directory. The callback is
// invoked from several goroutines at once.
type FilesystemEnumerator struct {
	config Config
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	return &FilesystemEnumerator{config: config}
}

// Enumerate collects eligible paths in one sequential walk, then reads and
// yields them from a pool of readers.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	paths, err := e.collect(ctx)
	if err != nil {
		return err
	}

	workers := e.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	pathsCh := make(chan string, workers*2)

	g.Go(func() error {
		defer close(pathsCh)
		for _, p := range paths {
			select {
			case pathsCh <- p:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for p := range pathsCh {
				if err := e.processFile(gctx, p, callback); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// Readers may all finish before noticing a cancellation.
	return ctx.Err()
}

func (e *FilesystemEnumerator) collect(ctx context.Context) ([]string, error) {
	logger := e.config.logger()
	root := e.config.Root

	ignore, err := loadGitignore(root)
	if err != nil {
		logger.Warn("ignoring unreadable .gitignore", "root", root, "error", err)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		hidden := !e.config.IncludeHidden && isHidden(d.Name())
		if d.IsDir() {
			if hidden && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 && !e.config.FollowSymlinks {
			return nil
		}

		if e.config.MaxFileSize > 0 {
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", path, err)
			}
			if info.Size() > e.config.MaxFileSize {
				logger.Debug("skipping large file", "path", path, "size", info.Size())
				return nil
			}
		}

		if ignore != nil {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if ignore.MatchesPath(rel) {
				return nil
			}
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func loadGitignore(root string) (*gitignore.GitIgnore, error) {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	return gitignore.CompileIgnoreFile(path)
}

func (e *FilesystemEnumerator) processFile(ctx context.Context, path string, callback Callback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if shouldExtract(e.config.ExtractArchives, path) {
		extracted, err := ExtractText(path, content, e.config.ExtractLimits)
		if err != nil {
			e.config.logger().Debug("extraction failed", "path", path, "error", err)
		} else {
			for _, ec := range extracted {
				prov := types.ArchiveProvenance{ArchivePath: path, MemberPath: ec.Name}
				if err := callback(ec.Content, types.ComputeBlobID(ec.Content), prov); err != nil {
					return err
				}
			}
			return nil
		}
	}

	if isBinary(content) {
		return nil
	}
	return callback(content, types.ComputeBlobID(content), types.FileProvenance{FilePath: path})
}

// shouldExtract reports whether the extension of path is enabled by the
// comma-separated extract setting.
func shouldExtract(setting, path string) bool {
	ext := extension(path)
	if setting == "" || !IsExtractable(ext) {
		return false
	}
	if setting == "all" {
		return true
	}
	for _, t := range strings.Split(strings.ToLower(setting), ",") {
		if strings.TrimPrefix(strings.TrimSpace(t), ".") == ext {
			return true
		}
	}
	return false
}

// isHidden reports whether name is a dot-file. "." and ".." are not hidden.
func isHidden(name string) bool {
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}

// isBinary looks for a NUL byte in the first 8KB.
func isBinary(content []byte) bool {
	return bytes.IndexByte(content[:min(len(content), 8192)], 0) != -1
}
