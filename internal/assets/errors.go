package assets

import "errors"

var (
	// ErrBuildFailed indicates esbuild reported errors
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrCopySourceMissing indicates a copy pattern's source does not exist and missing sources are not tolerated
	ErrCopySourceMissing = errors.New("copy source not found")
	// ErrUnknownChunk indicates a lookup for a chunk that was not built
	ErrUnknownChunk = errors.New("chunk not found in build")
)
