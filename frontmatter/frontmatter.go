// Package frontmatter splits content files into a metadata block and a markdown body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformed indicates that the front-matter was opened but never closed, or is not decodeable.
var ErrMalformed = errors.New("malformed front-matter")

// ErrUnsupportedValue indicates a front-matter value that is neither a scalar nor a list of scalars.
var ErrUnsupportedValue = errors.New("unsupported front-matter value")

// Delimiter opens and closes a front-matter block.
const Delimiter = "---"

// byteOrderMark is the UTF-8 encoded byte order mark.
var byteOrderMark = []byte("\xEF\xBB\xBF")

// Metadata maps front-matter keys to their literal values.
type Metadata map[string]string

// Get returns the trimmed value stored for key.
func (m Metadata) Get(key string) string {
	return strings.TrimSpace(m[key])
}

// isDelimiter reports whether line, without its line break, is a delimiter line.
func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r")) == Delimiter
}

// nextLine returns the line starting at text[0] including its line break and the remainder.
func nextLine(text []byte) (line, rest []byte) {
	idx := bytes.IndexByte(text, '\n')
	if idx < 0 {
		return text, nil
	}

	return text[:idx+1], text[idx+1:]
}

// Split separates the front-matter from the body.
// If text does not start with a delimiter line, had is false and body is the whole text.
// A leading UTF-8 byte order mark is dropped.
func Split(text []byte) (frontMatter, body []byte, had bool, err error) {
	text = bytes.TrimPrefix(text, byteOrderMark)
	first, rest := nextLine(text)
	if !isDelimiter(bytes.TrimSuffix(first, []byte("\n"))) {
		return nil, text, false, nil
	}

	start := len(text) - len(rest)
	offset := start
	for len(rest) > 0 {
		var line []byte
		line, rest = nextLine(rest)
		if isDelimiter(bytes.TrimSuffix(line, []byte("\n"))) {
			return text[start:offset], text[offset+len(line):], true, nil
		}
		offset += len(line)
	}

	return nil, nil, false, fmt.Errorf("%w: missing closing %q", ErrMalformed, Delimiter)
}

func scalar(node *yaml.Node) string {
	if node.Tag == "!!null" {
		return ""
	}

	return node.Value
}

func decode(frontMatter []byte) (Metadata, error) {
	meta := Metadata{}
	if len(bytes.TrimSpace(frontMatter)) == 0 {
		return meta, nil
	}

	var doc yaml.Node
	err := yaml.Unmarshal(frontMatter, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err.Error())
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected key-value pairs", ErrMalformed)
	}

	mapping := doc.Content[0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i].Value, mapping.Content[i+1]
		if _, ok := meta[key]; ok {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrMalformed, key)
		}

		switch value.Kind {
		case yaml.ScalarNode:
			meta[key] = scalar(value)
		case yaml.SequenceNode:
			items := make([]string, 0, len(value.Content))
			for _, item := range value.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("%w: %q must be a list of scalars", ErrUnsupportedValue, key)
				}
				items = append(items, scalar(item))
			}
			meta[key] = strings.Join(items, " ")
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedValue, key)
		}
	}

	return meta, nil
}

// Parse splits text and decodes the front-matter block.
// Text without a front-matter yields empty metadata and the whole text as body.
func Parse(text []byte) (Metadata, string, error) {
	frontMatter, body, had, err := Split(text)
	if err != nil {
		return nil, "", err
	}
	if !had {
		return Metadata{}, string(body), nil
	}

	meta, err := decode(frontMatter)
	if err != nil {
		return nil, "", err
	}

	return meta, string(body), nil
}

// Format serializes meta and body into a document that Parse reads back unchanged.
// Keys are written in sorted order.
func Format(meta Metadata, body string) []byte {
	buf := bytes.NewBufferString(Delimiter + "\n")

	if len(meta) > 0 {
		keys := make([]string, 0, len(meta))
		for key := range meta {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		mapping := &yaml.Node{Kind: yaml.MappingNode}
		for _, key := range keys {
			mapping.Content = append(mapping.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: meta[key]},
			)
		}

		// Encoding scalar string nodes can not fail.
		data, err := yaml.Marshal(mapping)
		if err != nil {
			panic(err)
		}
		buf.Write(data)
	}

	buf.WriteString(Delimiter + "\n")
	buf.WriteString(body)

	return buf.Bytes()
}
