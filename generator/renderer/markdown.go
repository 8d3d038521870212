package renderer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// ErrUnterminatedFence indicates a fenced code block without closing fence.
var ErrUnterminatedFence = errors.New("unterminated code fence")

// MarkdownOptions toggle optional markdown features.
type MarkdownOptions struct {
	// Emoji replaces shortcodes like :smile: with emojis.
	Emoji bool `json:"emoji" yaml:"emoji"`
	// UnsafeHTML passes raw HTML in markdown sources through to the output.
	UnsafeHTML bool `json:"unsafe_html" yaml:"unsafe_html"`
	// HardWraps renders newlines inside paragraphs as line breaks.
	HardWraps bool `json:"hard_wraps" yaml:"hard_wraps"`
}

// NewGoldmark returns a GitHub flavored markdown converter with footnotes and heading IDs.
func NewGoldmark(opts MarkdownOptions) goldmark.Markdown {
	extensions := []goldmark.Extender{extension.GFM, extension.Footnote}
	if opts.Emoji {
		extensions = append(extensions, emoji.Emoji)
	}

	var rendererOptions []goldmark.Option
	if opts.UnsafeHTML {
		rendererOptions = append(rendererOptions, goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()))
	}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()))
	}

	return goldmark.New(append([]goldmark.Option{
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}, rendererOptions...)...)
}

// fenceMarker returns the leading run of backticks or tildes if it is long enough to form a fence.
func fenceMarker(line string) string {
	if line == "" || (line[0] != '`' && line[0] != '~') {
		return ""
	}

	n := len(line) - len(strings.TrimLeft(line, line[:1]))
	if n < 3 {
		return ""
	}

	return line[:n]
}

// checkFences reports fenced code blocks that are still open at the end of source.
// Lines indented by four or more spaces are indented code and can neither open nor close a fence.
func checkFences(source []byte) error {
	var open string
	var openedAt int
	for i, line := range strings.Split(string(source), "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimLeft(line, " ")
		if len(line)-len(trimmed) > 3 {
			continue
		}

		marker := fenceMarker(trimmed)
		if marker == "" {
			continue
		}
		info := trimmed[len(marker):]

		if open == "" {
			// The info string of a backtick fence must not contain backticks.
			if marker[0] == '`' && strings.Contains(info, "`") {
				continue
			}
			open, openedAt = marker, i+1
			continue
		}

		if marker[0] == open[0] && len(marker) >= len(open) && strings.TrimSpace(info) == "" {
			open = ""
		}
	}

	if open != "" {
		return fmt.Errorf("%w opened on line %d", ErrUnterminatedFence, openedAt)
	}

	return nil
}

// firstParagraph returns the markdown source of the first top-level paragraph, nil if there is none.
func firstParagraph(md goldmark.Markdown, source []byte) []byte {
	doc := md.Parser().Parse(text.NewReader(source))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() != ast.KindParagraph {
			continue
		}

		lines := n.Lines()
		if lines.Len() == 0 {
			return nil
		}

		return source[lines.At(0).Start:lines.At(lines.Len()-1).Stop]
	}

	return nil
}

// convert renders the markdown source of the document at path to HTML.
func convert(md goldmark.Markdown, path string, source []byte) (template.HTML, error) {
	err := checkFences(source)
	if err != nil {
		return "", &RenderError{Path: path, Err: err}
	}

	buf := bytes.NewBuffer(make([]byte, 0, 2*len(source)))
	err = md.Convert(source, buf)
	if err != nil {
		return "", &RenderError{Path: path, Err: err}
	}

	return template.HTML(buf.String()), nil
}
