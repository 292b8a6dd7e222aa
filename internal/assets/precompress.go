package assets

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var compressibleExts = map[string]bool{
	".html": true,
	".js":   true,
	".css":  true,
	".json": true,
	".svg":  true,
	".txt":  true,
	".xml":  true,
}

// precompress writes .gz and .zst siblings for every compressible file under dir and
// returns the number of source files compressed
func precompress(ctx context.Context, dir string, limit int) (int, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && compressibleExts[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan output for compression: %w", err)
	}

	var count atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := compressFile(path); err != nil {
				return fmt.Errorf("failed to compress %s: %w", path, err)
			}
			count.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	log.Info().Int64("files", count.Load()).Msg("Precompressed outputs")
	return int(count.Load()), nil
}

func compressFile(path string) error {
	if err := compressTo(path, path+".gz", func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	}); err != nil {
		return err
	}

	return compressTo(path, path+".zst", func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	})
}

func compressTo(src, dst string, newWriter func(io.Writer) (io.WriteCloser, error)) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	enc, err := newWriter(out)
	if err != nil {
		return fmt.Errorf("failed to create encoder: %w", err)
	}

	if _, err := io.Copy(enc, in); err != nil {
		_ = enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return out.Close()
}
