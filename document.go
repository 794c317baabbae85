package xmlcodec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/beevik/etree"
)

// NewDocument wraps root in a document with an XML declaration, indented
// by the engine setting.
func (e *Engine) NewDocument(root *etree.Element) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.SetRoot(root)
	if e.indent > 0 {
		doc.Indent(e.indent)
	}
	return doc
}

// EncodeDocument serializes v into a complete XML document.
func (e *Engine) EncodeDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.WriteDocument(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocument serializes v and writes the document to w.
func (e *Engine) WriteDocument(w io.Writer, v any) error {
	root, err := e.SerializeValue(v, "")
	if err != nil {
		return err
	}
	if _, err := e.NewDocument(root).WriteTo(w); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// ReadDocument parses an XML document and returns its root element.
func ReadDocument(r io.Reader) (*etree.Element, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedDocument)
	}
	return root, nil
}

// ParseDocument is ReadDocument over a byte slice.
func ParseDocument(data []byte) (*etree.Element, error) {
	return ReadDocument(bytes.NewReader(data))
}

// DecodeDocument parses data and deserializes its root element into a T.
func DecodeDocument[T any](e *Engine, data []byte) (T, error) {
	root, err := ParseDocument(data)
	if err != nil {
		var zero T
		return zero, err
	}
	return Deserialize[T](e, root)
}

// RootAttr returns the value of attribute name on el. Callers use it to
// check a version marker before deserializing; the engine never reads
// such markers itself.
func RootAttr(el *etree.Element, name string) (string, bool) {
	if el == nil {
		return "", false
	}
	attr := el.SelectAttr(name)
	if attr == nil {
		return "", false
	}
	return attr.Value, true
}
