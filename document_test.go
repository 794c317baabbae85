package xmlcodec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDocument(t *testing.T) {
	e, _ := newCardEngine(t)

	data, err := e.EncodeDocument(&card{Prompt: "p", Points: 1, Shape: circle{Radius: 1}})
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<card prompt="p">
  <shape>
    <circle radius="1"/>
  </shape>
</card>
`
	assert.Equal(t, want, string(data))
}

func TestEncodeDocument_Compact(t *testing.T) {
	e, _ := newCardEngine(t, WithIndent(0))

	data, err := e.EncodeDocument(card{Prompt: "p", Points: 1, Options: []option{{Text: "a"}}})
	require.NoError(t, err)
	assert.Equal(t,
		`<?xml version="1.0" encoding="UTF-8"?><card prompt="p"><options><a text="a"/></options></card>`,
		string(data))
}

func TestDecodeDocument(t *testing.T) {
	e, _ := newCardEngine(t)

	var buf bytes.Buffer
	in := card{Prompt: "p", Points: 4, Shape: &square{Side: 2}}
	require.NoError(t, e.WriteDocument(&buf, in))

	out, err := DecodeDocument[card](e, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, in.Prompt, out.Prompt)
	assert.Equal(t, in.Points, out.Points)
	assert.Equal(t, in.Shape, out.Shape)
}

func TestReadDocument_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "unquoted attribute", input: "<card prompt=p/>"},
		{name: "no root", input: `<?xml version="1.0"?>`},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDocument(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedDocument)
			assert.True(t, IsDataError(err))
		})
	}
}

func TestRootAttr(t *testing.T) {
	root, err := ParseDocument([]byte(`<quiz version="3"/>`))
	require.NoError(t, err)

	v, ok := RootAttr(root, "version")
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	_, ok = RootAttr(root, "title")
	assert.False(t, ok)

	_, ok = RootAttr(nil, "version")
	assert.False(t, ok)
}

func TestDeserialize_IgnoresVersionMarker(t *testing.T) {
	e, _ := newCardEngine(t)

	// Version checks belong to the application. The codec reads the
	// members it knows and ignores the rest.
	root, err := ParseDocument([]byte(`<card version="99" prompt="p"/>`))
	require.NoError(t, err)

	out, err := Deserialize[card](e, root)
	require.NoError(t, err)
	assert.Equal(t, "p", out.Prompt)
}
