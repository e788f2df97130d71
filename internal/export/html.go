// Package export renders delivered articles for handoff.
package export

import (
	"bytes"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/sells-group/linkforge/internal/model"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// HTML renders the article markdown as a standalone HTML document with the
// job's language and target title in the document head.
func HTML(result *model.PipelineResult) ([]byte, error) {
	if result.ArticleText == "" {
		return nil, eris.New("export: result has no article text")
	}

	var body bytes.Buffer
	if err := md.Convert([]byte(result.ArticleText), &body); err != nil {
		return nil, eris.Wrap(err, "export: render markdown")
	}

	lang := "en"
	if result.Job != nil && result.Job.Constraints.Language != "" {
		lang = result.Job.Constraints.Language
	}
	title := ""
	if result.Job != nil {
		title = result.Job.Target.Title
	}

	var doc bytes.Buffer
	fmt.Fprintf(&doc, "<!DOCTYPE html>\n<html lang=%q>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n", lang, title)
	doc.Write(body.Bytes())
	doc.WriteString("</body>\n</html>\n")
	return doc.Bytes(), nil
}

// Markdown returns the raw delivered markdown.
func Markdown(result *model.PipelineResult) ([]byte, error) {
	if result.ArticleText == "" {
		return nil, eris.New("export: result has no article text")
	}
	return []byte(result.ArticleText), nil
}
