package collector

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/logger"
	"github.com/Tomas-vilte/MateGrade/internal/models"
	"github.com/bmatcuk/doublestar/v4"
)

const DefaultExtension = ".java"

// Collector walks the assignment folder of a workspace and returns the source
// files to grade. Paths are relative to the assignment folder and use forward
// slashes.
type Collector struct {
	include []string
}

// NewCollector returns a collector. include holds extra doublestar patterns
// matched in addition to the extension.
func NewCollector(include []string) *Collector {
	return &Collector{include: include}
}

func (c *Collector) Collect(ctx context.Context, root, subfolder, extension string) ([]models.SourceFile, error) {
	base := filepath.Join(root, filepath.FromSlash(subfolder))
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		return nil, domainErrors.ErrAssignmentFolderNotFound.WithContext("folder", subfolder)
	}

	fsys := os.DirFS(base)
	matched := make(map[string]struct{})
	for _, pattern := range c.patterns(extension) {
		err := doublestar.GlobWalk(fsys, pattern, func(path string, d fs.DirEntry) error {
			if isHidden(path) {
				return nil
			}
			matched[path] = struct{}{}
			return nil
		}, doublestar.WithFilesOnly())
		if err != nil {
			return nil, domainErrors.ErrAssignmentFolderNotFound.
				WithError(err).
				WithContext("folder", subfolder).
				WithContext("pattern", pattern)
		}
	}

	paths := make([]string, 0, len(matched))
	for p := range matched {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	files := make([]models.SourceFile, 0, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			logger.Warn(ctx, "skipping unreadable file", "path", p, "error", err)
			continue
		}
		if bytes.IndexByte(data, 0) >= 0 {
			logger.Warn(ctx, "skipping binary file", "path", p)
			continue
		}

		content := string(data)
		if !utf8.ValidString(content) {
			content = strings.ToValidUTF8(content, string(utf8.RuneError))
		}
		files = append(files, models.SourceFile{Path: p, Content: content})
	}

	if len(files) == 0 {
		return nil, domainErrors.ErrNoSourceFiles.
			WithContext("folder", subfolder).
			WithContext("extension", extension)
	}

	logger.Debug(ctx, "source files collected", "folder", subfolder, "count", len(files))
	return files, nil
}

func (c *Collector) patterns(extension string) []string {
	ext := strings.TrimPrefix(strings.TrimSpace(extension), ".")
	if ext == "" {
		ext = strings.TrimPrefix(DefaultExtension, ".")
	}
	return append([]string{"**/*." + ext}, c.include...)
}

func isHidden(path string) bool {
	for _, segment := range strings.Split(path, "/") {
		if segment == ".git" {
			return true
		}
	}
	return false
}
