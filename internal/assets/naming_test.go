package assets

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/pagebundle/internal/bundleconfig"
)

func TestNameFor(t *testing.T) {
	contents := []byte("body{color:red}")
	hash := contentHash(contents)
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), hash)

	tests := []struct {
		name     string
		tmpl     string
		source   string
		query    string
		expected string
	}{
		{name: "script bundle", tmpl: "js/[contenthash].js", source: "index.js", expected: "js/" + hash + ".js"},
		{name: "stylesheet bundle", tmpl: "css/[contenthash].css", source: "index.css", expected: "css/" + hash + ".css"},
		{name: "image with query", tmpl: "assets/images/[hash][ext][query]", source: "/src/logo.png", query: "?v=2", expected: "assets/images/" + hash + ".png?v=2"},
		{name: "font", tmpl: "assets/fonts/[hash][ext]", source: "/src/fonts/inter.woff2", expected: "assets/fonts/" + hash + ".woff2"},
		{name: "name placeholder", tmpl: "[name]-[hash][ext]", source: "photo.jpeg", expected: "photo-" + hash + ".jpeg"},
		{name: "no placeholders", tmpl: "static/file.txt", source: "a.txt", expected: "static/file.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, nameFor(tt.tmpl, tt.source, tt.query, contents))
		})
	}
}

func TestAssetName(t *testing.T) {
	contents := []byte("font")
	hash := contentHash(contents)

	file, url := assetName("assets/images/[hash][ext][query]", "/src/logo.png", "?v=2", contents)
	require.Equal(t, "assets/images/"+hash+".png", file)
	require.Equal(t, "assets/images/"+hash+".png?v=2", url)

	file, url = assetName("assets/fonts/[hash][ext]", "/src/icons.eot", "?#iefix", contents)
	require.Equal(t, "assets/fonts/"+hash+".eot", file)
	require.Equal(t, file, url)
}

func TestResolveFilter(t *testing.T) {
	rule := bundleconfig.Rule{Test: bundleconfig.MustPattern(`\.(eot|ttf|woff|woff2|otf)$`)}
	re := regexp.MustCompile(resolveFilter(rule))

	require.True(t, re.MatchString("./inter.woff2"))
	require.True(t, re.MatchString("./inter.woff2?v=3"))
	require.True(t, re.MatchString("./icons.eot?#iefix"))
	require.False(t, re.MatchString("./app.js"))
}

func TestContentHash_differsByContent(t *testing.T) {
	require.Equal(t, contentHash([]byte("a")), contentHash([]byte("a")))
	require.NotEqual(t, contentHash([]byte("a")), contentHash([]byte("b")))
}

func TestPublicURL(t *testing.T) {
	require.Equal(t, "/js/a.js", publicURL("/", "js/a.js"))
	require.Equal(t, "/js/a.js", publicURL("", "js/a.js"))
	require.Equal(t, "/static/js/a.js", publicURL("/static", "js/a.js"))
	require.Equal(t, "https://cdn.example.com/js/a.js", publicURL("https://cdn.example.com/", "js/a.js"))
}

func TestSplitQuery(t *testing.T) {
	path, query := splitQuery("./logo.svg?v=1")
	require.Equal(t, "./logo.svg", path)
	require.Equal(t, "?v=1", query)

	path, query = splitQuery("./font.eot#iefix")
	require.Equal(t, "./font.eot", path)
	require.Equal(t, "#iefix", query)

	path, query = splitQuery("./plain.png")
	require.Equal(t, "./plain.png", path)
	require.Empty(t, query)
}
