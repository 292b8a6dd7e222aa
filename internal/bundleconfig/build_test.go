package bundleconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/pagebundle/internal/environment"
	"gopkg.in/yaml.v3"
)

func testEnvironment(t *testing.T, files ...string) environment.Environment {
	t.Helper()
	root := t.TempDir()
	source := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(source, 0750))
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(source, name), []byte("x"), 0600))
	}

	env := environment.Default()
	env.Paths.Source = source
	env.Paths.Output = filepath.Join(root, "dist")
	env.Limits.Images = 4096
	env.Limits.Fonts = 2048
	return env
}

func TestBuild(t *testing.T) {
	env := testEnvironment(t, "index.html", "about.ejs", "styles.css")

	cfg, err := Build(env)
	require.NoError(t, err)

	require.Equal(t, "production", cfg.Mode)
	require.Equal(t, map[string]string{"index": filepath.Join(env.Paths.Source, "index.js")}, cfg.Entries)
	require.Equal(t, Output{
		Path:        env.Paths.Output,
		Filename:    "js/[contenthash].js",
		CSSFilename: "css/[contenthash].css",
		PublicPath:  "/",
		Clean:       true,
	}, cfg.Output)
	require.Equal(t, []string{".js"}, cfg.Resolve.Extensions)

	require.Len(t, cfg.Pages, 2)
	byFilename := map[string]Page{}
	for _, p := range cfg.Pages {
		byFilename[p.Filename] = p
	}

	index := byFilename["index.html"]
	require.Equal(t, filepath.Join(env.Paths.Source, "index.html"), index.Template)
	require.Equal(t, []string{"index"}, index.Chunks)
	require.True(t, index.Inject)
	require.True(t, index.Minify.CollapseWhitespace)
	require.False(t, index.Minify.RemoveRedundantAttributes)

	about := byFilename["about.html"]
	require.Equal(t, filepath.Join(env.Paths.Source, "about.ejs"), about.Template)
	require.Equal(t, []string{"about"}, about.Chunks)
}

func TestBuild_rules(t *testing.T) {
	cfg, err := Build(testEnvironment(t))
	require.NoError(t, err)

	byName := map[string]Rule{}
	for _, r := range cfg.Rules {
		byName[r.Name] = r
	}
	require.Len(t, byName, 5)

	require.True(t, byName["script"].Matches("src/index.js"))
	require.True(t, byName["script"].Matches("src/module.mjs"))
	require.False(t, byName["script"].Matches("node_modules/lib/index.js"))

	require.True(t, byName["stylesheet"].Matches("main.scss"))
	require.True(t, byName["stylesheet"].Matches("main.sass"))
	require.True(t, byName["stylesheet"].Matches("main.css"))
	require.False(t, byName["stylesheet"].Matches("main.less"))

	require.Equal(t, int64(4096), byName["image"].InlineLimit)
	require.Equal(t, int64(2048), byName["font"].InlineLimit)
	require.Zero(t, byName["data"].InlineLimit)
	require.Equal(t, "assets/images/[hash][ext][query]", byName["image"].Filename)
	require.Equal(t, "assets/fonts/[hash][ext]", byName["font"].Filename)
	require.Equal(t, "data/[hash].json", byName["data"].Filename)

	require.Len(t, cfg.AssetRules(), 3)
}

func TestBuild_copyAndMinimizers(t *testing.T) {
	env := testEnvironment(t)
	cfg, err := Build(env)
	require.NoError(t, err)

	require.Equal(t, []CopyPattern{{
		From:             filepath.Join(env.Paths.Source, "assets", "images"),
		To:               "assets/images",
		Ignore:           []string{"*.DS_Store", "Thumbs.db"},
		NoErrorOnMissing: true,
	}}, cfg.Copy)

	code, ok := cfg.Minimizer(MinimizerCode)
	require.True(t, ok)
	require.True(t, code.Parallel)
	require.True(t, code.Test.MatchString("app.js"))

	jsonMin, ok := cfg.Minimizer(MinimizerJSON)
	require.True(t, ok)
	require.True(t, jsonMin.Test.MatchString("data.json"))

	_, ok = cfg.Minimizer("css")
	require.False(t, ok)
}

func TestBuild_extraEntries(t *testing.T) {
	env := testEnvironment(t)
	env.Entries = map[string]string{"admin": "admin/main.js", "abs": "/opt/site/abs.js"}

	cfg, err := Build(env)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(env.Paths.Source, "admin", "main.js"), cfg.Entries["admin"])
	require.Equal(t, "/opt/site/abs.js", cfg.Entries["abs"])
	require.Contains(t, cfg.Entries, "index")
}

func TestBuild_emptySourceDirectory(t *testing.T) {
	cfg, err := Build(testEnvironment(t))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Empty(t, cfg.Pages)
}

func TestBuild_missingSourceDirectory(t *testing.T) {
	env := testEnvironment(t)
	env.Paths.Source = filepath.Join(env.Paths.Source, "missing")

	cfg, err := Build(env)
	require.ErrorIs(t, err, ErrConfiguration)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Nil(t, cfg)
}

func TestBuild_invalidSettings(t *testing.T) {
	env := testEnvironment(t)
	env.Paths.Output = ""

	cfg, err := Build(env)
	require.ErrorIs(t, err, ErrConfiguration)
	require.ErrorIs(t, err, environment.ErrInvalidSettings)
	require.Nil(t, cfg)
}

func TestConfig_encodesPatterns(t *testing.T) {
	cfg, err := Build(testEnvironment(t, "index.html"))
	require.NoError(t, err)

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, `\.m?js$`, decoded.Rules[0].Test.String())
	require.Equal(t, "node_modules", decoded.Rules[0].Exclude.String())
	require.True(t, decoded.Rules[0].Matches("index.js"))

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	var fromYAML Config
	require.NoError(t, yaml.Unmarshal(out, &fromYAML))
	require.Equal(t, cfg.Rules[4].Test.String(), fromYAML.Rules[4].Test.String())
	require.True(t, fromYAML.Rules[4].Matches("font.woff2"))
}

func TestPattern_zero(t *testing.T) {
	var p Pattern
	require.True(t, p.IsZero())
	require.False(t, p.MatchString("anything"))
	require.Error(t, p.UnmarshalText([]byte("(")))
}
