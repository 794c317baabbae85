package xmlcodec

import (
	"fmt"
	"reflect"
	"time"

	"github.com/beevik/etree"
	"github.com/hengadev/xmlcodec/internal/codec"
	"github.com/hengadev/xmlcodec/internal/codecerr"
	"github.com/hengadev/xmlcodec/internal/logging"
	"github.com/hengadev/xmlcodec/internal/registry"
	"github.com/rs/zerolog"
)

// Engine owns a type registry and a serializer cache. Independent engines
// share nothing.
//
// Serialize and Deserialize may be called from many goroutines at once.
// Register types before the first (de)serialization that needs them.
type Engine struct {
	registry   *registry.Registry
	cache      *codec.Cache
	logger     zerolog.Logger
	metrics    MetricsCollector
	hook       ObservabilityHook
	defaultTag string
	indent     int
}

// TypeEntry is one registered tag and type association.
type TypeEntry = registry.Entry

// New creates an engine. Without options it logs nothing, reports no
// metrics, indents documents by DefaultIndent and has no default tag.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		registry: registry.New(),
		logger:   zerolog.Nop(),
		metrics:  &NoOpMetricsCollector{},
		hook:     &NoOpObservabilityHook{},
		indent:   DefaultIndent,
	}
	e.cache = codec.NewCache(e.buildObject)

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	return e, nil
}

// NewFromConfig validates cfg and creates an engine with its settings and
// a logger built from its logging fields. Later options win.
func NewFromConfig(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	base := []Option{
		WithLogger(logger),
		WithDefaultTag(cfg.DefaultTag),
		WithIndent(cfg.Indent),
	}
	return New(append(base, opts...)...)
}

func (e *Engine) buildObject(t reflect.Type) (*codec.Object, error) {
	obj, err := codec.NewObject(t)
	if err != nil {
		e.logger.Warn().Err(err).Str("type", t.String()).Msg("cannot build serializer")
		return nil, err
	}
	members := len(obj.Metadata().Members)
	e.logger.Debug().Str("type", t.String()).Int("members", members).Msg("built serializer")
	e.metrics.IncrementCounter(MetricSerializerBuilds, nil)
	e.hook.OnSerializerBuilt(t.String(), members)
	return obj, nil
}

// Register associates tag with the type of prototype, which may be a
// struct value or a pointer to one. Registering a tag or a type again
// replaces its previous association.
func (e *Engine) Register(tag string, prototype any) error {
	t := reflect.TypeOf(prototype)
	if err := e.registry.Register(tag, t, nil); err != nil {
		return err
	}
	e.logger.Debug().Str("tag", tag).Str("type", fmt.Sprint(t)).Msg("registered type")
	return nil
}

// Register associates tag with T. A non-nil factory builds the default
// instance used when deserializing T.
func Register[T any](e *Engine, tag string, factory func() T) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	var build registry.Factory
	if factory != nil {
		build = func() reflect.Value {
			v := reflect.ValueOf(factory())
			if v.Kind() == reflect.Pointer && v.Type().Elem() == indirect(t) {
				if v.IsNil() {
					return reflect.Value{}
				}
				return v.Elem()
			}
			return v
		}
	}
	if err := e.registry.Register(tag, t, build); err != nil {
		return err
	}
	e.logger.Debug().Str("tag", tag).Str("type", t.String()).Msg("registered type")
	return nil
}

// TagOf returns the tag registered for the type of v.
func (e *Engine) TagOf(v any) (string, bool) {
	t := reflect.TypeOf(v)
	if t == nil {
		return "", false
	}
	return e.registry.TagOf(t)
}

// TypeOf returns the type registered under tag.
func (e *Engine) TypeOf(tag string) (reflect.Type, bool) {
	return e.registry.TypeOf(tag)
}

// Types lists registered types ordered by tag.
func (e *Engine) Types() []TypeEntry {
	return e.registry.Entries()
}

// CachedSerializers returns the number of serializers built so far.
func (e *Engine) CachedSerializers() int {
	return e.cache.Len()
}

// Logger returns the engine logger.
func (e *Engine) Logger() zerolog.Logger {
	return e.logger
}

// SerializeValue converts v, a struct or pointer to a struct, into an
// element. The element is named by the registered tag of v's type, else
// by tag, else by the engine default tag.
func (e *Engine) SerializeValue(v any, tag string) (*etree.Element, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("serialize: %w", ErrNilValue)
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("serialize %s: %w", rv.Type(), ErrNilValue)
		}
		rv = rv.Elem()
	}

	name, err := e.rootTag(rv.Type(), tag)
	if err != nil {
		return nil, err
	}
	var el *etree.Element
	err = e.observe("serialize", name, func() error {
		obj, err := e.cache.Get(rv.Type())
		if err != nil {
			return err
		}
		el = etree.NewElement(name)
		return obj.Serialize(env{e}, rv, el)
	})
	if err != nil {
		return nil, err
	}
	return el, nil
}

func (e *Engine) rootTag(t reflect.Type, explicit string) (string, error) {
	if tag, ok := e.registry.TagOf(t); ok {
		return tag, nil
	}
	if explicit != "" {
		return explicit, nil
	}
	if e.defaultTag != "" {
		return e.defaultTag, nil
	}
	return "", codecerr.NewUnregisteredTypeError(t.String(), codecerr.Serialize)
}

// Serialize converts v into an element named after its registered tag or
// the engine default tag.
func Serialize[T any](e *Engine, v T) (*etree.Element, error) {
	return e.SerializeValue(v, "")
}

// SerializeAs is Serialize with a fallback tag for unregistered types.
func SerializeAs[T any](e *Engine, v T, tag string) (*etree.Element, error) {
	return e.SerializeValue(v, tag)
}

// Deserialize builds a T from el. When T is an interface, the concrete
// type is looked up from the element tag.
func Deserialize[T any](e *Engine, el *etree.Element) (T, error) {
	var zero T
	out, err := e.DeserializeType(reflect.TypeOf((*T)(nil)).Elem(), el)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	return out.(T), nil
}

// DeserializeType builds a value of type t from el. t may be a struct, a
// pointer to a struct, or an interface implemented by a registered type.
func (e *Engine) DeserializeType(t reflect.Type, el *etree.Element) (any, error) {
	if el == nil {
		return nil, fmt.Errorf("deserialize %s: %w", t, ErrNilValue)
	}
	var out reflect.Value
	err := e.observe("deserialize", el.Tag, func() error {
		switch t.Kind() {
		case reflect.Interface:
			concrete, ok := e.registry.TypeOf(el.Tag)
			if !ok {
				return codecerr.NewUnregisteredTagError(el.Tag, codecerr.Deserialize)
			}
			v, err := e.decode(concrete, el)
			if err != nil {
				return err
			}
			switch {
			case v.Addr().Type().Implements(t):
				out = v.Addr()
			case v.Type().Implements(t):
				out = v
			default:
				return codecerr.NewAbstractInstantiationError(t.String())
			}
		case reflect.Pointer:
			v, err := e.decode(t.Elem(), el)
			if err != nil {
				return err
			}
			out = v.Addr()
		default:
			v, err := e.decode(t, el)
			if err != nil {
				return err
			}
			out = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// DeserializeAny builds an instance of the type registered under el's tag
// and returns a pointer to it.
func (e *Engine) DeserializeAny(el *etree.Element) (any, error) {
	if el == nil {
		return nil, fmt.Errorf("deserialize: %w", ErrNilValue)
	}
	t, ok := e.registry.TypeOf(el.Tag)
	if !ok {
		return nil, codecerr.NewUnregisteredTagError(el.Tag, codecerr.Deserialize)
	}
	return e.DeserializeType(reflect.PointerTo(t), el)
}

// DeserializeInto fills the struct target points to from el. A target
// that is not a non-nil pointer cannot be written and yields
// ErrReadOnlyMember.
func (e *Engine) DeserializeInto(el *etree.Element, target any) error {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("deserialize into %T: %w", target, codecerr.NewReadOnlyMemberError("target"))
	}
	if el == nil {
		return fmt.Errorf("deserialize into %T: %w", target, ErrNilValue)
	}
	return e.observe("deserialize", el.Tag, func() error {
		v, err := e.decode(rv.Type().Elem(), el)
		if err != nil {
			return err
		}
		rv.Elem().Set(v)
		return nil
	})
}

func (e *Engine) decode(t reflect.Type, el *etree.Element) (reflect.Value, error) {
	obj, err := e.cache.Get(t)
	if err != nil {
		return reflect.Value{}, err
	}
	v := e.registry.New(indirect(t))
	if err := obj.Deserialize(env{e}, el, v); err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

func (e *Engine) observe(operation, tag string, fn func() error) error {
	meta := map[string]any{"tag": tag}
	e.hook.OnProcessStart(operation, meta)
	start := time.Now()

	err := fn()

	duration := time.Since(start)
	e.hook.OnProcessComplete(operation, duration, err, meta)
	status := "success"
	if err != nil {
		status = "error"
		e.hook.OnError(operation, err, meta)
		e.logger.Warn().Err(err).Str("operation", operation).Str("tag", tag).
			Str("path", ErrorPath(err)).Msg("codec operation failed")
	}
	e.metrics.IncrementCounter(MetricOperations, map[string]string{"operation": operation, "status": status})
	e.metrics.RecordTiming(MetricOperationTime, duration, map[string]string{"operation": operation})
	return err
}

// env exposes the engine to the serializers it owns.
type env struct {
	e *Engine
}

func (v env) Object(t reflect.Type) (*codec.Object, error) { return v.e.cache.Get(t) }
func (v env) TagOf(t reflect.Type) (string, bool)          { return v.e.registry.TagOf(t) }
func (v env) TypeOf(tag string) (reflect.Type, bool)       { return v.e.registry.TypeOf(tag) }
func (v env) New(t reflect.Type) reflect.Value             { return v.e.registry.New(t) }

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
