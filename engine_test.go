package xmlcodec

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/beevik/etree"
	"github.com/hengadev/xmlcodec/ndarray"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shape interface{ Area() float64 }

type square struct {
	Side float64 `xmlc:"side"`
}

func (s *square) Area() float64 { return s.Side * s.Side }

type circle struct {
	Radius float64 `xmlc:"radius"`
}

func (c circle) Area() float64 { return 3 * c.Radius * c.Radius }

type option struct {
	Text    string `xmlc:"text"`
	Correct bool   `xmlc:"correct"`
}

type card struct {
	Prompt  string              `xmlc:"prompt,required"`
	Points  int                 `xmlc:"points,default=1"`
	Options []option            `xmlc:"options"`
	Shape   shape               `xmlc:"shape"`
	Mask    ndarray.Array[bool] `xmlc:"mask"`
}

type legacyCard struct {
	Prompt string `xmlc:"prompt"`
}

func newCardEngine(t *testing.T, opts ...Option) (*Engine, *InMemoryMetricsCollector) {
	t.Helper()
	e, metrics := NewTestEngine(t, opts...)
	require.NoError(t, e.Register("card", card{}))
	require.NoError(t, e.Register("square", &square{}))
	require.NoError(t, e.Register("circle", circle{}))
	return e, metrics
}

func TestEngine_RoundTrip(t *testing.T) {
	e, _ := newCardEngine(t)

	mask, err := ndarray.New[bool](2, 3)
	require.NoError(t, err)
	require.NoError(t, mask.Set(true, 0, 1))
	require.NoError(t, mask.Set(true, 1, 2))

	in := card{
		Prompt:  "pick one",
		Points:  3,
		Options: []option{{Text: "a", Correct: true}, {Text: "b"}},
		Shape:   &square{Side: 2},
		Mask:    *mask,
	}

	el, err := Serialize(e, in)
	require.NoError(t, err)
	assert.Equal(t, "card", el.Tag)

	out, err := Deserialize[card](e, el)
	require.NoError(t, err)
	assert.Equal(t, in.Prompt, out.Prompt)
	assert.Equal(t, in.Points, out.Points)
	assert.Equal(t, in.Options, out.Options)
	assert.Equal(t, &square{Side: 2}, out.Shape)
	assert.Equal(t, []int{2, 3}, out.Mask.Lengths())
	assert.Equal(t, mask.Values(), out.Mask.Values())
}

func TestEngine_MissingRequiredMember(t *testing.T) {
	e, _ := newCardEngine(t)

	el := etree.NewElement("card")
	el.CreateAttr("points", "2")

	_, err := Deserialize[card](e, el)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.Contains(t, err.Error(), `"prompt"`)
	assert.True(t, IsDataError(err))
	assert.False(t, IsSchemaError(err))
	assert.Equal(t, "/card", ErrorPath(err))
}

func TestEngine_DefaultsAppliedWhenAbsent(t *testing.T) {
	e, _ := newCardEngine(t)

	el := etree.NewElement("card")
	el.CreateAttr("prompt", "p")

	out, err := Deserialize[card](e, el)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Points)
	assert.Nil(t, out.Shape)
}

func TestEngine_ReRegisterSupersedes(t *testing.T) {
	e, _ := newCardEngine(t)

	require.NoError(t, e.Register("card", legacyCard{}))

	typ, ok := e.TypeOf("card")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(legacyCard{}), typ)

	_, ok = e.TagOf(card{})
	assert.False(t, ok, "the superseded type must lose its tag")

	_, err := Serialize(e, card{Prompt: "p"})
	assert.ErrorIs(t, err, ErrUnregisteredType)
}

func TestEngine_RetagType(t *testing.T) {
	e, _ := newCardEngine(t)

	require.NoError(t, e.Register("flashcard", card{}))

	tag, ok := e.TagOf(&card{})
	require.True(t, ok)
	assert.Equal(t, "flashcard", tag)

	_, ok = e.TypeOf("card")
	assert.False(t, ok)
}

func TestEngine_Types(t *testing.T) {
	e, _ := newCardEngine(t)

	var tags []string
	for _, entry := range e.Types() {
		tags = append(tags, entry.Tag)
	}
	assert.Equal(t, []string{"card", "circle", "square"}, tags)
}

func TestEngine_RootTagFallbacks(t *testing.T) {
	t.Run("unregistered without fallback", func(t *testing.T) {
		e, _ := NewTestEngine(t)
		_, err := Serialize(e, option{Text: "x"})
		assert.ErrorIs(t, err, ErrUnregisteredType)
		assert.True(t, IsSchemaError(err))
	})

	t.Run("explicit tag", func(t *testing.T) {
		e, _ := NewTestEngine(t)
		el, err := SerializeAs(e, option{Text: "x"}, "choice")
		require.NoError(t, err)
		assert.Equal(t, "choice", el.Tag)
	})

	t.Run("engine default tag", func(t *testing.T) {
		e, _ := NewTestEngine(t, WithDefaultTag("item"))
		el, err := Serialize(e, option{Text: "x"})
		require.NoError(t, err)
		assert.Equal(t, "item", el.Tag)
	})

	t.Run("registered tag wins", func(t *testing.T) {
		e, _ := newCardEngine(t, WithDefaultTag("item"))
		el, err := SerializeAs(e, card{Prompt: "p"}, "other")
		require.NoError(t, err)
		assert.Equal(t, "card", el.Tag)
	})
}

func TestEngine_DeserializeInterface(t *testing.T) {
	e, _ := newCardEngine(t)

	el := etree.NewElement("circle")
	el.CreateAttr("radius", "2")

	s, err := Deserialize[shape](e, el)
	require.NoError(t, err)
	assert.Equal(t, &circle{Radius: 2}, s)

	el = etree.NewElement("square")
	el.CreateAttr("side", "3")
	s, err = Deserialize[shape](e, el)
	require.NoError(t, err)
	assert.Equal(t, 9.0, s.Area())

	el = etree.NewElement("card")
	el.CreateAttr("prompt", "p")
	_, err = Deserialize[shape](e, el)
	assert.ErrorIs(t, err, ErrAbstractInstantiation)

	_, err = Deserialize[shape](e, etree.NewElement("hexagon"))
	assert.ErrorIs(t, err, ErrUnregisteredType)
}

func TestEngine_DeserializeAny(t *testing.T) {
	e, _ := newCardEngine(t)

	el := etree.NewElement("circle")
	el.CreateAttr("radius", "1.5")

	v, err := e.DeserializeAny(el)
	require.NoError(t, err)
	assert.Equal(t, &circle{Radius: 1.5}, v)
}

func TestEngine_DeserializeInto(t *testing.T) {
	e, _ := newCardEngine(t)

	el := etree.NewElement("card")
	el.CreateAttr("prompt", "into")

	var c card
	require.NoError(t, e.DeserializeInto(el, &c))
	assert.Equal(t, "into", c.Prompt)

	err := e.DeserializeInto(el, c)
	assert.ErrorIs(t, err, ErrReadOnlyMember)
}

func TestEngine_NilValues(t *testing.T) {
	e, _ := newCardEngine(t)

	_, err := e.SerializeValue(nil, "")
	assert.ErrorIs(t, err, ErrNilValue)

	var c *card
	_, err = Serialize(e, c)
	assert.ErrorIs(t, err, ErrNilValue)

	_, err = Deserialize[card](e, nil)
	assert.ErrorIs(t, err, ErrNilValue)
}

func TestEngine_FactoryDefaults(t *testing.T) {
	e, _ := NewTestEngine(t)
	require.NoError(t, Register(e, "card", func() *card {
		return &card{Prompt: "from factory", Points: 7}
	}))

	el := etree.NewElement("card")
	el.CreateAttr("prompt", "p")

	out, err := Deserialize[*card](e, el)
	require.NoError(t, err)
	assert.Equal(t, "p", out.Prompt)
	// Absent members take the declared default, not the factory's value.
	assert.Equal(t, 1, out.Points)
}

func TestEngine_ConcurrentFirstUseBuildsOnce(t *testing.T) {
	e, metrics := newCardEngine(t)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			el, err := Serialize(e, card{Prompt: "p", Options: []option{{Text: "a"}}})
			if err != nil {
				errs <- err
				return
			}
			if _, err := Deserialize[card](e, el); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	// card and option
	assert.Equal(t, 2, e.CachedSerializers())
	assert.Equal(t, int64(2), metrics.GetCounterValue(MetricSerializerBuilds, nil))
	assert.Equal(t, int64(32), metrics.GetCounterValue(MetricOperations, map[string]string{"operation": "serialize", "status": "success"})+
		metrics.GetCounterValue(MetricOperations, map[string]string{"operation": "deserialize", "status": "success"}))
}

type badMember struct {
	Lookup map[string]int `xmlc:"lookup"`
}

func TestEngine_UnsupportedMemberIsNotCached(t *testing.T) {
	e, metrics := NewTestEngine(t, WithDefaultTag("bad"))

	for i := 0; i < 2; i++ {
		_, err := Serialize(e, badMember{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedType), "got %v", err)
	}
	assert.Equal(t, 0, e.CachedSerializers())
	assert.Equal(t, int64(2), metrics.GetCounterValue(MetricOperations, map[string]string{"operation": "serialize", "status": "error"}))
}

func TestEngine_Options(t *testing.T) {
	_, err := New(WithIndent(-1))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = New(WithMetrics(nil))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = New(WithObservability(nil))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestNewFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultTag = "doc"
	cfg.LogLevel = "disabled"

	e, err := NewFromConfig(cfg)
	require.NoError(t, err)
	el, err := Serialize(e, option{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "doc", el.Tag)

	cfg.LogLevel = "loud"
	_, err = NewFromConfig(cfg)
	assert.True(t, IsConfigurationError(err))
}

func TestDump(t *testing.T) {
	out := Dump(option{Text: "x", Correct: true})
	assert.Contains(t, out, "Text:")
	assert.Contains(t, out, `"x"`)
}
