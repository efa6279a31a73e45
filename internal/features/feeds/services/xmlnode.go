package services

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// xmlNode is a generic element tree. Names keep their source prefix
// ("media:content") so lookups match what the feed author wrote.
type xmlNode struct {
	name     string
	attrs    map[string]string
	children []*xmlNode
	text     strings.Builder
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// parseXMLTree reads a whole document. Any syntax error, including
// mismatched tags or trailing garbage, fails the parse.
func parseXMLTree(body []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charset.NewReaderLabel

	var root *xmlNode
	var stack []*xmlNode

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &xmlNode{name: qualifiedName(t.Name), attrs: make(map[string]string, len(t.Attr))}
			for _, attr := range t.Attr {
				node.attrs[qualifiedName(attr.Name)] = attr.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected end element </%s>", qualifiedName(t.Name))
			}
			top := stack[len(stack)-1]
			if top.name != qualifiedName(t.Name) {
				return nil, fmt.Errorf("element <%s> closed by </%s>", top.name, qualifiedName(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("text outside root element")
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("element <%s> is never closed", stack[len(stack)-1].name)
	}
	return root, nil
}

// child returns the first direct child called name
func (n *xmlNode) child(name string) *xmlNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// childrenNamed returns every direct child called name
func (n *xmlNode) childrenNamed(name string) []*xmlNode {
	var out []*xmlNode
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func (n *xmlNode) attr(name string) string {
	return n.attrs[name]
}

// innerText is the element's own character data, trimmed
func (n *xmlNode) innerText() string {
	return strings.TrimSpace(n.text.String())
}

// isPlain reports whether the element is a bare string value: no
// attributes and no child elements.
func (n *xmlNode) isPlain() bool {
	return len(n.children) == 0 && len(n.attrs) == 0
}
