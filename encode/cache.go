package encode

import (
	"reflect"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/viant/structbind/codegen"
	"github.com/viant/structbind/describe"
	"github.com/viant/structbind/internal/logging"
	"github.com/viant/structbind/spi"
	"github.com/viant/structbind/token"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	strategyRegistry  = "registry"
	strategyExtension = "extension"
	strategyBuiltin   = "builtin"
	strategyReflect   = "reflection"
	strategyGenerated = "generated"
	strategyUnit      = "aot_unit"
	strategyPersisted = "persisted"
	strategyFailed    = "failed"
)

type (
	// Cache builds and memoizes encoders per cache key
	Cache struct {
		provider   describe.Provider
		registry   *spi.Registry
		backend    codegen.Backend
		mode       func() spi.EncodingMode
		outputRoot string
		timeLayout string

		published atomic.Pointer[map[string]*entry]
		byType    sync.Map // map[reflect.Type]spi.Encoder

		mu      sync.Mutex
		pending map[string]*placeholder
		failed  map[string]*entry
		builds  atomic.Int64
	}

	entry struct {
		rType   reflect.Type
		encoder spi.Encoder
		err     error
	}

	//Option represents cache option
	Option func(c *Cache)
)

// WithMode sets encoding mode source, evaluated per build
func WithMode(mode func() spi.EncodingMode) Option {
	return func(c *Cache) {
		c.mode = mode
	}
}

// WithBackend sets generated-code backend
func WithBackend(backend codegen.Backend) Option {
	return func(c *Cache) {
		c.backend = backend
	}
}

// WithOutputRoot turns generated-code builds into an ahead-of-time pass persisting units under root
func WithOutputRoot(root string) Option {
	return func(c *Cache) {
		c.outputRoot = root
	}
}

// WithTimeLayout sets default time.Time layout
func WithTimeLayout(layout string) Option {
	return func(c *Cache) {
		c.timeLayout = layout
	}
}

// NewCache creates encoder cache
func NewCache(provider describe.Provider, registry *spi.Registry, opts ...Option) *Cache {
	ret := &Cache{
		provider:   provider,
		registry:   registry,
		timeLayout: defaultTimeLayout,
		pending:    map[string]*placeholder{},
		failed:     map[string]*entry{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.registry == nil {
		ret.registry = spi.NewRegistry()
	}
	if ret.backend == nil {
		ret.backend = codegen.NewGenerator(provider)
	}
	if ret.mode == nil {
		ret.mode = func() spi.EncodingMode { return spi.ReflectionMode }
	}
	ret.published.Store(&map[string]*entry{})
	return ret
}

// Builds returns number of encoder builds
func (c *Cache) Builds() int64 { return c.builds.Load() }

// Encoder returns encoder for supplied cache key and type, building it once per key
func (c *Cache) Encoder(key string, rType reflect.Type) (spi.Encoder, error) {
	if e, ok := (*c.published.Load())[key]; ok && e.rType == rType {
		return e.encoder, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encoderLocked(key, rType)
}

// TypeEncoder returns encoder for supplied type
func (c *Cache) TypeEncoder(rType reflect.Type) (spi.Encoder, error) {
	if v, ok := c.byType.Load(rType); ok {
		return v.(spi.Encoder), nil
	}
	encoder, err := c.Encoder(spi.EncoderCacheKey(rType), rType)
	if err != nil || encoder == nil {
		return encoder, err
	}
	c.byType.Store(rType, encoder)
	return encoder, nil
}

// Encode encodes value into JSON
func (c *Cache) Encode(value interface{}) ([]byte, error) {
	w := token.AcquireWriter()
	defer token.ReleaseWriter(w)
	if err := c.encodeValue(reflect.ValueOf(value), w); err != nil {
		return nil, err
	}
	return append([]byte(nil), w.Bytes()...), nil
}

func (c *Cache) encodeValue(value reflect.Value, w *token.Writer) error {
	if !value.IsValid() {
		w.WriteNull()
		return nil
	}
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			w.WriteNull()
			return nil
		}
		encoder, err := c.requireEncoder(value.Type().Elem())
		if err != nil {
			return err
		}
		return encoder.Encode(value.UnsafePointer(), w)
	}
	encoder, err := c.requireEncoder(value.Type())
	if err != nil {
		return err
	}
	holder := reflect.New(value.Type())
	holder.Elem().Set(value)
	return encoder.Encode(holder.UnsafePointer(), w)
}

func (c *Cache) requireEncoder(rType reflect.Type) (spi.Encoder, error) {
	encoder, err := c.TypeEncoder(rType)
	if err == nil && encoder == nil {
		err = errors.Newf("no encoder produced for %v", rType)
	}
	return encoder, err
}

// encoderLocked resolves or builds encoder, c.mu has to be held
func (c *Cache) encoderLocked(key string, rType reflect.Type) (spi.Encoder, error) {
	key = c.slot(key, rType)
	if e, ok := (*c.published.Load())[key]; ok {
		return e.encoder, nil
	}
	if e, ok := c.failed[key]; ok {
		return nil, e.err
	}
	if p, ok := c.pending[key]; ok {
		return p, nil
	}
	encoder, strategy, err := c.build(key, rType)
	if err != nil {
		err = c.describeFailure(rType, err)
		c.failed[key] = &entry{rType: rType, err: err}
		buildCounter.WithLabelValues(strategyFailed).Inc()
		logging.Logger().Warn("failed to build encoder", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	buildCounter.WithLabelValues(strategy).Inc()
	logging.Logger().Debug("built encoder", zap.String("key", key), zap.String("strategy", strategy))
	c.publish(key, &entry{rType: rType, encoder: encoder})
	return encoder, nil
}

// slot returns key owned by rType, colliding keys of distinct types get a numeric suffix
func (c *Cache) slot(key string, rType reflect.Type) string {
	candidate := key
	for i := 2; ; i++ {
		owner := c.owner(candidate)
		if owner == nil || owner == rType {
			return candidate
		}
		candidate = key + "_" + strconv.Itoa(i)
	}
}

func (c *Cache) owner(key string) reflect.Type {
	if e, ok := (*c.published.Load())[key]; ok {
		return e.rType
	}
	if p, ok := c.pending[key]; ok {
		return p.rType
	}
	if e, ok := c.failed[key]; ok {
		return e.rType
	}
	return nil
}

func (c *Cache) build(key string, rType reflect.Type) (spi.Encoder, string, error) {
	c.builds.Inc()
	if encoder := c.registry.Encoder(key); encoder != nil {
		return encoder, strategyRegistry, nil
	}
	for _, extension := range c.registry.Extensions() {
		if encoder := extension.CreateEncoder(key, rType); encoder != nil {
			return encoder, strategyExtension, nil
		}
	}
	if encoder := c.builtin(rType); encoder != nil {
		return encoder, strategyBuiltin, nil
	}
	p := &placeholder{cache: c, key: key, rType: rType}
	c.pending[key] = p
	defer delete(c.pending, key)

	mode := c.mode()
	if mode == spi.ReflectionMode || !generatable(rType) {
		encoder, err := c.reflective(rType)
		return encoder, strategyReflect, err
	}
	return c.generated(key, rType, mode)
}

func (c *Cache) publish(key string, e *entry) {
	current := *c.published.Load()
	next := make(map[string]*entry, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[key] = e
	c.published.Store(&next)
}

// resolve returns published encoder, waiting for an in-flight build of key
func (c *Cache) resolve(key string, rType reflect.Type) (spi.Encoder, error) {
	if e, ok := (*c.published.Load())[key]; ok && e.rType == rType {
		return e.encoder, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := (*c.published.Load())[key]; ok && e.rType == rType {
		return e.encoder, nil
	}
	if e, ok := c.failed[key]; ok {
		return nil, e.err
	}
	return nil, errors.Newf("encoder for %v is not available: %v", rType, key)
}

func (c *Cache) describeFailure(rType reflect.Type, err error) error {
	err = errors.Wrapf(err, "failed to build encoder for %v", rType)
	if args := genericArgs(rType); len(args) > 0 {
		err = errors.WithDetailf(err, "generic arguments: %v", args)
	}
	return err
}

// genericArgs returns element and key types of composite types
func genericArgs(rType reflect.Type) []reflect.Type {
	switch rType.Kind() {
	case reflect.Map:
		return []reflect.Type{rType.Key(), rType.Elem()}
	case reflect.Slice, reflect.Array, reflect.Ptr, reflect.Chan:
		return []reflect.Type{rType.Elem()}
	}
	return nil
}
