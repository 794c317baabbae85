package docstore

import (
	"fmt"
	"strconv"

	"github.com/hengadev/xmlcodec"
)

// FromXML builds a document from an encoded XML body, taking the tag and
// the version attribute from its root element. A missing version is 0.
func FromXML(body []byte) (Document, error) {
	root, err := xmlcodec.ParseDocument(body)
	if err != nil {
		return Document{}, err
	}
	version := 0
	if text, ok := xmlcodec.RootAttr(root, "version"); ok {
		if version, err = strconv.Atoi(text); err != nil {
			return Document{}, fmt.Errorf("%w: version %q is not a number", ErrInvalidDocument, text)
		}
	}
	return NewDocument(root.Tag, version, body), nil
}
