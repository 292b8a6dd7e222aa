package assets

import (
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
	"github.com/wolfeidau/pagebundle/internal/bundleconfig"
)

const (
	mimeHTML = "text/html"
	mimeJSON = "application/json"
)

// newMinifier maps page minify options onto the tdewolff minifiers. The doctype is
// always shortened. Void elements lose their closing slash whatever KeepClosingSlash says.
func newMinifier(opts bundleconfig.HTMLMinify) *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	m.AddFuncRegexp(regexp.MustCompile("[/+]json$"), json.Minify)
	m.Add(mimeHTML, &html.Minifier{
		KeepComments:        !opts.RemoveComments,
		KeepDefaultAttrVals: !opts.RemoveRedundantAttributes,
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
		KeepWhitespace:      !opts.CollapseWhitespace,
	})
	return m
}

// minifyJSON compacts a JSON document
func minifyJSON(data []byte) ([]byte, error) {
	m := minify.New()
	m.AddFunc(mimeJSON, json.Minify)
	return m.Bytes(mimeJSON, data)
}
