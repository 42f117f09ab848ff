package engine

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// frontMatterOpen is the only opening delimiter YAML front matter
// recognizes; it must be the very first line of the document.
var frontMatterOpen = []byte("---\n")

// frontMatterClosers are the delimiters that may terminate front
// matter: "---" or the YAML document-end marker "...".
var frontMatterClosers = [][]byte{[]byte("\n---"), []byte("\n...")}

// SplitFrontMatter splits a leading YAML front matter section off the
// document. meta includes both delimiter lines (nil when the document
// has no front matter); body is the remainder.
//
// A candidate section only counts as front matter when its inner text
// parses as a single YAML document — a thematic break followed by prose
// that happens to contain "---" is left alone. Candidate closers are
// tried in order until one yields valid YAML, mirroring how permissive
// Markdown front matter handling behaves in practice.
func SplitFrontMatter(source []byte) (meta, body []byte) {
	if !bytes.HasPrefix(source, frontMatterOpen) {
		return nil, source
	}

	rest := source[len(frontMatterOpen):]
	for _, marker := range frontMatterClosers {
		offset := 0
		for {
			idx := bytes.Index(rest[offset:], marker)
			if idx == -1 {
				break
			}
			idx += offset
			end := idx + len(marker)

			// The closing delimiter must terminate its own line.
			if end == len(rest) || rest[end] == '\n' {
				inner := rest[:idx+1]
				var node yaml.Node
				if yaml.Unmarshal(inner, &node) == nil && len(node.Content) == 1 {
					metaEnd := len(frontMatterOpen) + end
					if metaEnd < len(source) && source[metaEnd] == '\n' {
						metaEnd++
					}
					return source[:metaEnd], source[metaEnd:]
				}
			}
			offset = idx + 1
		}
	}
	return nil, source
}

// NormalizeFrontMatter re-encodes a front matter section through the
// YAML encoder, producing canonical key ordering-preserving output with
// normalized indentation and quoting. The delimiters are rewritten as
// "---" on both sides.
func NormalizeFrontMatter(meta []byte) ([]byte, error) {
	inner := innerYAML(meta)

	var node yaml.Node
	if err := yaml.Unmarshal(inner, &node); err != nil {
		return nil, fmt.Errorf("front matter is not valid YAML: %w", err)
	}
	if len(node.Content) != 1 {
		return nil, fmt.Errorf("front matter is not a single YAML document")
	}

	var buf bytes.Buffer
	buf.Write(frontMatterOpen)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node.Content[0]); err != nil {
		enc.Close()
		return nil, fmt.Errorf("front matter re-encoding failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("front matter re-encoding failed: %w", err)
	}
	buf.WriteString("---\n")
	return buf.Bytes(), nil
}

// innerYAML strips the delimiter lines off a meta section produced by
// SplitFrontMatter.
func innerYAML(meta []byte) []byte {
	inner := bytes.TrimPrefix(meta, frontMatterOpen)
	for _, marker := range frontMatterClosers {
		if idx := bytes.LastIndex(inner, marker); idx != -1 {
			return inner[:idx+1]
		}
	}
	return inner
}
