package fragments

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

// Content types of rendered output.
const (
	renderedHTML = "text/html; charset=utf-8"
	renderedText = "text/plain; charset=utf-8"
	renderedYAML = "application/yaml"
)

// Rendition is a payload rendered in some format.
type Rendition struct {
	Data        []byte
	ContentType string
}

type renderer func(payload []byte) ([]byte, error)

// Converter renders fragment payloads along the registry's conversion matrix.
// Output is deterministic for a given payload.
type Converter struct {
	registry  *Registry
	renderers map[string]renderer
	md        goldmark.Markdown
}

// NewConverter returns a Converter for the conversions allowed by registry.
func NewConverter(registry *Registry) *Converter {
	c := &Converter{
		registry: registry,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}

	c.renderers = map[string]renderer{
		TypeTextMarkdown + ">" + TypeTextHTML: c.markdownToHTML,
		TypeTextHTML + ">" + TypeTextPlain:    htmlToText,
		TypeJSON + ">" + TypeYAML:             jsonToYAML,
	}

	return c
}

// Convert renders payload, the bytes of fragment f, as ext. Requesting the fragment's
// own type returns the payload unchanged with the declared content type.
//
// Returns ErrUnsupportedConversion when ext is not reachable from the fragment's type and
// ErrConversion when the payload cannot be parsed by the renderer.
func (c *Converter) Convert(f Fragment, payload []byte, ext string) (Rendition, error) {
	base := f.MimeType()
	target, ok := c.registry.TargetType(f.Type, ext)
	if !ok {
		return Rendition{}, fmt.Errorf("convert %s to %q: %w", base, ext, ErrUnsupportedConversion)
	}

	if target == base {
		return Rendition{Data: payload, ContentType: f.Type}, nil
	}

	if render, found := c.renderers[base+">"+target]; found {
		data, err := render(payload)
		if err != nil {
			return Rendition{}, fmt.Errorf("convert %s to %s: %w: %w", base, target, ErrConversion, err)
		}
		return Rendition{Data: data, ContentType: renderedType(target)}, nil
	}

	// Every remaining matrix entry targets plain text, which the source already is.
	if target == TypeTextPlain {
		return Rendition{Data: payload, ContentType: renderedText}, nil
	}

	return Rendition{}, fmt.Errorf("convert %s to %s: %w", base, target, ErrUnsupportedConversion)
}

func renderedType(target string) string {
	switch target {
	case TypeTextHTML:
		return renderedHTML
	case TypeTextPlain:
		return renderedText
	case TypeYAML:
		return renderedYAML
	default:
		return target
	}
}

func (c *Converter) markdownToHTML(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(payload, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}

func jsonToYAML(payload []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return out, nil
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "td": true, "th": true, "title": true,
	"tr": true, "ul": true,
}

// htmlToText extracts the visible text of a document, one line per block element.
func htmlToText(payload []byte) ([]byte, error) {
	z := html.NewTokenizer(bytes.NewReader(payload))

	var sb strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("tokenize html: %w", err)
			}
			return collapseLines(sb.String()), nil
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				switch tt {
				case html.StartTagToken:
					skip++
				case html.EndTagToken:
					skip = max(0, skip-1)
				}
				continue
			}
			if blockElements[tag] {
				sb.WriteByte('\n')
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			writeCollapsed(&sb, string(z.Text()))
		}
	}
}

func writeCollapsed(sb *strings.Builder, text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		if text != "" {
			sb.WriteByte(' ')
		}
		return
	}
	if unicode.IsSpace(rune(text[0])) {
		sb.WriteByte(' ')
	}
	sb.WriteString(strings.Join(fields, " "))
	if unicode.IsSpace(rune(text[len(text)-1])) {
		sb.WriteByte(' ')
	}
}

func collapseLines(s string) []byte {
	var out bytes.Buffer
	for line := range strings.SplitSeq(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}
