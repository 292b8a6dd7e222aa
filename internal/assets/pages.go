package assets

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/pagebundle/internal/bundleconfig"
	"github.com/wolfeidau/pagebundle/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// PageData is passed to every page template
type PageData struct {
	Filename string
	Chunks   []string
	Scripts  []string
	Styles   []string
}

// renderPages renders every page directive and returns the written file names in
// directive order
func (p *Pipeline) renderPages(ctx context.Context, chunks map[string]Chunk) ([]string, error) {
	written := make([]string, len(p.build.Pages))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())

	for i, page := range p.build.Pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			html, err := p.renderPage(page, chunks)
			if err != nil {
				return err
			}

			if err := writeFile(filepath.Join(p.build.Output.Path, filepath.FromSlash(page.Filename)), html); err != nil {
				return err
			}

			telemetry.GetMetrics().PagesRenderedTotal.Add(ctx, 1)
			log.Info().Str("template", page.Template).Str("file", page.Filename).Msg("Rendered page")

			written[i] = page.Filename
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return written, nil
}

func (p *Pipeline) renderPage(page bundleconfig.Page, chunks map[string]Chunk) ([]byte, error) {
	data := PageData{
		Filename: page.Filename,
		Chunks:   page.Chunks,
		Scripts:  []string{},
		Styles:   []string{},
	}
	for _, name := range page.Chunks {
		chunk, ok := chunks[name]
		if !ok {
			log.Debug().Str("template", page.Template).Str("chunk", name).Msg("Page chunk has no entry point")
			continue
		}
		data.Scripts = append(data.Scripts, chunk.Scripts...)
		data.Styles = append(data.Styles, chunk.Styles...)
	}

	tmpl, err := template.New(filepath.Base(page.Template)).Funcs(p.funcs).ParseFiles(page.Template)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", page.Template, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", page.Template, err)
	}

	html := buf.Bytes()
	if page.Inject {
		html = inject(html, data.Scripts, data.Styles)
	}

	minified, err := newMinifier(page.Minify).Bytes(mimeHTML, html)
	if err != nil {
		return nil, fmt.Errorf("failed to minify %s: %w", page.Filename, err)
	}
	return minified, nil
}

// inject places stylesheet links and deferred scripts before </head>. Without a head
// the tags go before </body>, and without either they are appended.
func inject(html []byte, scripts, styles []string) []byte {
	if len(scripts) == 0 && len(styles) == 0 {
		return html
	}

	var tags strings.Builder
	for _, href := range styles {
		fmt.Fprintf(&tags, `<link href="%s" rel="stylesheet">`, template.HTMLEscapeString(href))
	}
	for _, src := range scripts {
		fmt.Fprintf(&tags, `<script defer="defer" src="%s"></script>`, template.HTMLEscapeString(src))
	}

	at := lastIndex(headClose, html)
	if at < 0 {
		at = lastIndex(bodyClose, html)
	}
	if at < 0 {
		return append(html, tags.String()...)
	}

	out := make([]byte, 0, len(html)+tags.Len())
	out = append(out, html[:at]...)
	out = append(out, tags.String()...)
	out = append(out, html[at:]...)
	return out
}

// matched against the rendered bytes so offsets stay valid for any content before them
var (
	headClose = regexp.MustCompile(`(?i)</head\s*>`)
	bodyClose = regexp.MustCompile(`(?i)</body\s*>`)
)

func lastIndex(re *regexp.Regexp, html []byte) int {
	matches := re.FindAllIndex(html, -1)
	if len(matches) == 0 {
		return -1
	}
	return matches[len(matches)-1][0]
}
