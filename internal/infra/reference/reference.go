package reference

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed guide.md
var guideMarkdown []byte

// InfoURL is the external AQI explainer linked from the dashboard.
const InfoURL = "https://www.airnow.gov/aqi/aqi-basics/"

// Guide is the rendered AQI explainer.
type Guide struct {
	HTML template.HTML
}

// NewGuide renders the embedded markdown once.
func NewGuide() (*Guide, error) {
	rendered, err := Render(guideMarkdown)
	if err != nil {
		return nil, err
	}
	return &Guide{HTML: rendered}, nil
}

// Render converts trusted markdown to HTML.
func Render(src []byte) (template.HTML, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
