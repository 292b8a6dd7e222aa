package assets

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/crc64nvme"
)

// contentHash returns the CRC64-NVME checksum of data as 16 hex characters
func contentHash(data []byte) string {
	h := crc64nvme.New()
	h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())
}

// nameFor expands a filename template such as "assets/images/[hash][ext][query]" for
// the source file name with the given contents. [hash] and [contenthash] both hash the
// contents.
func nameFor(tmpl, source, query string, contents []byte) string {
	base := filepath.Base(source)
	ext := filepath.Ext(base)
	hash := contentHash(contents)

	return strings.NewReplacer(
		"[contenthash]", hash,
		"[hash]", hash,
		"[name]", strings.TrimSuffix(base, ext),
		"[ext]", ext,
		"[query]", query,
	).Replace(tmpl)
}

// assetName returns the output file name and the name used in URLs. The import query
// only appears in the URL, and only where the template has [query].
func assetName(tmpl, source, query string, contents []byte) (string, string) {
	return nameFor(tmpl, source, "", contents), nameFor(tmpl, source, query, contents)
}

// publicURL joins an output relative name onto the public path
func publicURL(publicPath, name string) string {
	if publicPath == "" {
		publicPath = "/"
	}
	if !strings.HasSuffix(publicPath, "/") {
		publicPath += "/"
	}
	return publicPath + path.Clean(filepath.ToSlash(name))
}

// splitQuery separates "logo.svg?v=1" into the path and "?v=1"
func splitQuery(importPath string) (string, string) {
	if i := strings.IndexAny(importPath, "?#"); i >= 0 {
		return importPath[:i], importPath[i:]
	}
	return importPath, ""
}
