package report

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM, // tables
	),
	goldmark.WithRendererOptions(
		gmhtml.WithHardWraps(),
		gmhtml.WithXHTML(),
	),
)

// HTML converts rendered Markdown into a standalone HTML page
func HTML(title, md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return wrapPage(title, buf.String()), nil
}

func wrapPage(title, content string) string {
	return `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>` + html.EscapeString(title) + `</title>
  <style>
    body { font-family: -apple-system, 'Segoe UI', Roboto, 'PingFang SC', sans-serif; line-height: 1.5; color: #333; max-width: 960px; margin: 0 auto; padding: 20px; }
    h1 { border-bottom: 2px solid #eee; padding-bottom: 8px; }
    table { border-collapse: collapse; margin: 12px 0; }
    th, td { border: 1px solid #ddd; padding: 6px 10px; text-align: left; }
    th { background: #f4f4f4; }
    blockquote { border-left: 4px solid #ddd; margin: 12px 0; padding-left: 12px; color: #666; }
  </style>
</head>
<body>
` + content + `</body>
</html>
`
}
