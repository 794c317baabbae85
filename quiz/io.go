package quiz

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/beevik/etree"
	"github.com/hengadev/xmlcodec"
)

// Tag is the root element name of quiz documents.
const Tag = "quiz"

var ErrUnsupportedVersion = errors.New("unsupported quiz version")

// RegisterTypes registers every quiz type with e.
func RegisterTypes(e *xmlcodec.Engine) error {
	if err := xmlcodec.Register(e, Tag, func() *Quiz {
		return &Quiz{Version: CurrentVersion}
	}); err != nil {
		return err
	}
	for tag, prototype := range map[string]any{
		"question": Question{},
		"answer":   Answer{},
		"image":    &Image{},
		"audio":    Audio{},
	} {
		if err := e.Register(tag, prototype); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// CheckVersion fails unless root is a quiz document of version want.
func CheckVersion(root *etree.Element, want int) error {
	if root == nil || root.Tag != Tag {
		return fmt.Errorf("%w: root element is not <%s>", xmlcodec.ErrMalformedDocument, Tag)
	}
	text, ok := xmlcodec.RootAttr(root, "version")
	if !ok {
		return fmt.Errorf("%w: missing version attribute", ErrUnsupportedVersion)
	}
	version, err := strconv.Atoi(text)
	if err != nil {
		return fmt.Errorf("%w: version %q is not a number", ErrUnsupportedVersion, text)
	}
	if version != want {
		return fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, version, want)
	}
	return nil
}

// Load reads a quiz document, checks its version against want and
// deserializes it.
func Load(e *xmlcodec.Engine, r io.Reader, want int) (*Quiz, error) {
	root, err := xmlcodec.ReadDocument(r)
	if err != nil {
		return nil, err
	}
	if err := CheckVersion(root, want); err != nil {
		return nil, err
	}
	return xmlcodec.Deserialize[*Quiz](e, root)
}

// Save writes q as a document. A zero version is set to CurrentVersion.
func Save(e *xmlcodec.Engine, w io.Writer, q *Quiz) error {
	if q == nil {
		return fmt.Errorf("save quiz: %w", xmlcodec.ErrNilValue)
	}
	if q.Version == 0 {
		q.Version = CurrentVersion
	}
	return e.WriteDocument(w, q)
}
