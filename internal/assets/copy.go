package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/pagebundle/internal/bundleconfig"
)

// copyPatterns copies each pattern's source tree into outDir and returns the number of
// files copied
func copyPatterns(ctx context.Context, outDir string, patterns []bundleconfig.CopyPattern) (int, error) {
	total := 0
	for _, pattern := range patterns {
		n, err := copyPattern(ctx, outDir, pattern)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func copyPattern(ctx context.Context, outDir string, pattern bundleconfig.CopyPattern) (int, error) {
	ignores := make([]glob.Glob, 0, len(pattern.Ignore))
	for _, expr := range pattern.Ignore {
		g, err := glob.Compile(expr, '/')
		if err != nil {
			return 0, fmt.Errorf("invalid ignore pattern %q: %w", expr, err)
		}
		ignores = append(ignores, g)
	}

	if _, err := os.Stat(pattern.From); err != nil {
		if errors.Is(err, fs.ErrNotExist) && pattern.NoErrorOnMissing {
			log.Debug().Str("from", pattern.From).Msg("Copy source missing, skipping")
			return 0, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrCopySourceMissing, pattern.From)
		}
		return 0, fmt.Errorf("failed to stat copy source: %w", err)
	}

	target := filepath.Join(outDir, filepath.FromSlash(pattern.To))
	copied := 0

	err := filepath.WalkDir(pattern.From, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(pattern.From, path)
		if err != nil {
			return err
		}
		if ignored(ignores, filepath.ToSlash(rel)) {
			log.Debug().Str("file", rel).Msg("Ignoring file")
			return nil
		}

		if err := copyFile(path, filepath.Join(target, rel)); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("failed to copy %s: %w", pattern.From, err)
	}

	log.Info().Str("from", pattern.From).Str("to", pattern.To).Int("files", copied).Msg("Copied static files")
	return copied, nil
}

// ignored matches the relative path and its base name
func ignored(ignores []glob.Glob, rel string) bool {
	base := filepath.Base(rel)
	for _, g := range ignores {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
