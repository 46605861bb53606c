package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTMLFragment converts markdown to an HTML fragment with GFM tables.
func HTMLFragment(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}

// HTML converts markdown into a standalone page.
func HTML(title, src string) (string, error) {
	body, err := HTMLFragment(src)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>%s</title>", html.EscapeString(title))
	buf.WriteString(pageStyle)
	buf.WriteString("</head><body>\n")
	buf.WriteString(body)
	buf.WriteString("</body></html>\n")
	return buf.String(), nil
}

const pageStyle = `<style>
body{font-family:system-ui,sans-serif;max-width:48rem;margin:2rem auto;padding:0 1rem}
table{border-collapse:collapse;width:100%}
th,td{border-bottom:1px solid #ddd;padding:.4rem .6rem}
</style>`
