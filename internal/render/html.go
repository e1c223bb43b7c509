package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
)

//go:embed templates/print.html
var templateFS embed.FS

var md = goldmark.New()

var printPage = template.Must(template.ParseFS(templateFS, "templates/print.html"))

type printData struct {
	Title string
	Body  template.HTML
}

// HTML renders the worksheet as a standalone printable page.
func HTML(ws Worksheet) (string, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(ws)), &body); err != nil {
		return "", fmt.Errorf("failed to convert worksheet markdown: %w", err)
	}

	var page bytes.Buffer
	err := printPage.Execute(&page, printData{
		Title: oneLine(ws.Article.Title),
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render print page: %w", err)
	}
	return page.String(), nil
}
