package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<p>"+name+"</p>"), 0600))
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "index.html", "about.ejs", "styles.css")

	mappings, err := Discover(dir)
	require.NoError(t, err)
	require.ElementsMatch(t, []Mapping{
		{Input: "index.html", Output: "index.html"},
		{Input: "about.ejs", Output: "about.html"},
	}, mappings)
}

func TestDiscover_caseInsensitiveExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "HOME.HTML", "Contact.EJS", "notes.txt", "script.js")

	mappings, err := Discover(dir)
	require.NoError(t, err)
	require.ElementsMatch(t, []Mapping{
		{Input: "HOME.HTML", Output: "HOME.HTML"},
		{Input: "Contact.EJS", Output: "Contact.EJS"},
	}, mappings)
}

func TestDiscover_skipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "partials.html"), 0750))
	writeFiles(t, dir, "index.html")

	mappings, err := Discover(dir)
	require.NoError(t, err)
	require.Equal(t, []Mapping{{Input: "index.html", Output: "index.html"}}, mappings)
}

func TestDiscover_emptyDirectory(t *testing.T) {
	mappings, err := Discover(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, mappings)
	require.Empty(t, mappings)
}

func TestDiscover_missingDirectory(t *testing.T) {
	mappings, err := Discover(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Nil(t, mappings)
}

func TestDiscover_idempotent(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.html", "b.ejs", "c.png")

	first, err := Discover(dir)
	require.NoError(t, err)
	second, err := Discover(dir)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{name: "about.ejs", expected: "about.html"},
		{name: "index.html", expected: "index.html"},
		{name: "page.ejs.html", expected: "page.ejs.html"},
		{name: "UPPER.EJS", expected: "UPPER.EJS"},
		{name: "ejs", expected: "ejs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, OutputName(tt.name))
		})
	}
}

func TestMappingChunk(t *testing.T) {
	require.Equal(t, "index", Mapping{Input: "index.html", Output: "index.html"}.Chunk())
	require.Equal(t, "about", Mapping{Input: "about.ejs", Output: "about.html"}.Chunk())
}

func TestAccepted(t *testing.T) {
	require.True(t, Accepted("index.html"))
	require.True(t, Accepted("about.EJS"))
	require.False(t, Accepted("index.htm"))
	require.False(t, Accepted("styles.css"))
	require.False(t, Accepted("html"))
}
