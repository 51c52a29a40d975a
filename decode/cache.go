package decode

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/viant/structbind/describe"
	"github.com/viant/structbind/internal/logging"
	"github.com/viant/structbind/spi"
	"github.com/viant/structbind/token"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type (
	// Cache builds and memoizes decoders per type
	Cache struct {
		provider   describe.Provider
		registry   *spi.Registry
		timeLayout string
		decoders   sync.Map // map[reflect.Type]spi.Decoder
		failed     sync.Map // map[reflect.Type]error
		group      singleflight.Group
		builds     atomic.Int64
	}

	//Option represents cache option
	Option func(c *Cache)
)

// WithTimeLayout sets default time.Time layout
func WithTimeLayout(layout string) Option {
	return func(c *Cache) {
		c.timeLayout = layout
	}
}

// NewCache creates decoder cache
func NewCache(provider describe.Provider, registry *spi.Registry, opts ...Option) *Cache {
	ret := &Cache{provider: provider, registry: registry, timeLayout: time.RFC3339Nano}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Builds returns number of decoder builds
func (c *Cache) Builds() int64 { return c.builds.Load() }

// Decoder returns decoder for supplied type
func (c *Cache) Decoder(rType reflect.Type) (spi.Decoder, error) {
	if v, ok := c.decoders.Load(rType); ok {
		return v.(spi.Decoder), nil
	}
	if v, ok := c.failed.Load(rType); ok {
		return nil, v.(error)
	}
	v, err, _ := c.group.Do(fmt.Sprintf("%p", rType), func() (interface{}, error) {
		if v, ok := c.decoders.Load(rType); ok {
			return v, nil
		}
		decoder, err := c.build(spi.DecoderCacheKey(rType), rType)
		if err != nil {
			c.failed.Store(rType, err)
			return nil, err
		}
		c.decoders.Store(rType, decoder)
		return decoder, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(spi.Decoder), nil
}

// Decode decodes data into dest, dest has to be a non nil pointer
func (c *Cache) Decode(data []byte, dest interface{}) error {
	rValue := reflect.ValueOf(dest)
	if rValue.Kind() != reflect.Ptr || rValue.IsNil() {
		return errors.Newf("destination must be a non nil pointer, but had %T", dest)
	}
	decoder, err := c.Decoder(rValue.Type().Elem())
	if err != nil {
		return err
	}
	r := token.AcquireReader(data)
	defer token.ReleaseReader(r)
	if err = decoder.Decode(rValue.UnsafePointer(), r); err != nil {
		return err
	}
	return r.End()
}

func (c *Cache) build(key string, rType reflect.Type) (spi.Decoder, error) {
	c.builds.Inc()
	if c.registry != nil {
		if decoder := c.registry.Decoder(key); decoder != nil {
			return decoder, nil
		}
		for _, extension := range c.registry.Extensions() {
			if decoder := extension.CreateDecoder(key, rType); decoder != nil {
				logging.Logger().Debug("decoder from extension", zap.String("key", key))
				return decoder, nil
			}
		}
	}
	decoder, err := c.typeDecoder(rType)
	if err != nil {
		return nil, err
	}
	if object, ok := decoder.(*objectDecoder); ok {
		logging.Logger().Debug("built object decoder",
			zap.String("key", key),
			zap.Stringer("strategy", object.strategy),
			zap.Int("bindings", len(object.bindings)))
	}
	return decoder, nil
}
