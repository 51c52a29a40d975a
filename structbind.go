package structbind

import (
	"reflect"
	"sync"

	"github.com/viant/structbind/decode"
	"github.com/viant/structbind/describe"
	"github.com/viant/structbind/encode"
	"github.com/viant/structbind/internal/logging"
	"github.com/viant/structbind/spi"
	"go.uber.org/zap"
)

// Config owns type descriptors, registry and codec caches
type Config struct {
	provider *describe.Reflective
	registry *spi.Registry
	decoders *decode.Cache
	encoders *encode.Cache
}

var (
	defaultConfig *Config
	defaultOnce   sync.Once
)

// New creates a config
func New(opts ...Option) *Config {
	o := &options{}
	Options(opts).Apply(o)
	if o.logger != nil {
		logging.SetLogger(o.logger)
	}
	var providerOptions []describe.Option
	if o.caseFormat.IsDefined() {
		providerOptions = append(providerOptions, describe.WithCaseFormat(o.caseFormat))
	}
	if o.strictUnknown {
		providerOptions = append(providerOptions, describe.WithStrictUnknown())
	}
	ret := &Config{provider: describe.New(providerOptions...), registry: spi.NewRegistry()}
	for _, extension := range o.extensions {
		ret.registry.RegisterExtension(extension)
	}

	var decodeOptions []decode.Option
	encodeOptions := []encode.Option{encode.WithMode(Mode)}
	if o.mode != nil {
		mode := *o.mode
		encodeOptions[0] = encode.WithMode(func() spi.EncodingMode { return mode })
	}
	if o.timeLayout != "" {
		decodeOptions = append(decodeOptions, decode.WithTimeLayout(o.timeLayout))
		encodeOptions = append(encodeOptions, encode.WithTimeLayout(o.timeLayout))
	}
	if o.outputRoot != "" {
		encodeOptions = append(encodeOptions, encode.WithOutputRoot(o.outputRoot))
	}
	if o.backend != nil {
		encodeOptions = append(encodeOptions, encode.WithBackend(o.backend))
	}
	ret.decoders = decode.NewCache(ret.provider, ret.registry, decodeOptions...)
	ret.encoders = encode.NewCache(ret.provider, ret.registry, encodeOptions...)
	logging.Logger().Debug("created config", zap.Int("extensions", len(o.extensions)))
	return ret
}

// Default returns process-wide config
func Default() *Config {
	defaultOnce.Do(func() {
		defaultConfig = New()
	})
	return defaultConfig
}

// Register registers type factory, setter groups and policies; it has to happen before the type is first used,
// codecs built earlier keep their bindings and a warning is logged
func (c *Config) Register(rType reflect.Type, opts ...describe.TypeOption) {
	c.provider.Register(rType, opts...)
}

// RegisterExtension appends an extension consulted before built-in and reflective codecs
func (c *Config) RegisterExtension(extension spi.Extension) {
	c.registry.RegisterExtension(extension)
}

// RegisterDecoder registers decoder for a type
func (c *Config) RegisterDecoder(rType reflect.Type, decoder spi.Decoder) {
	c.registry.RegisterTypeDecoder(rType, decoder)
}

// RegisterEncoder registers encoder for a type
func (c *Config) RegisterEncoder(rType reflect.Type, encoder spi.Encoder) {
	c.registry.RegisterTypeEncoder(rType, encoder)
}

// Marshal encodes value as JSON
func (c *Config) Marshal(value interface{}) ([]byte, error) {
	return c.encoders.Encode(value)
}

// Unmarshal decodes data into dest, dest has to be a non nil pointer
func (c *Config) Unmarshal(data []byte, dest interface{}) error {
	return c.decoders.Decode(data, dest)
}

// Decoder returns decoder for supplied type
func (c *Config) Decoder(rType reflect.Type) (spi.Decoder, error) {
	return c.decoders.Decoder(rType)
}

// Encoder returns encoder for supplied cache key and type
func (c *Config) Encoder(cacheKey string, rType reflect.Type) (spi.Encoder, error) {
	return c.encoders.Encoder(cacheKey, rType)
}

// Marshal encodes value with the process-wide config
func Marshal(value interface{}) ([]byte, error) {
	return Default().Marshal(value)
}

// Unmarshal decodes data with the process-wide config
func Unmarshal(data []byte, dest interface{}) error {
	return Default().Unmarshal(data, dest)
}

// Register registers type options with the process-wide config
func Register(rType reflect.Type, opts ...describe.TypeOption) {
	Default().Register(rType, opts...)
}

// RegisterExtension registers extension with the process-wide config
func RegisterExtension(extension spi.Extension) {
	Default().RegisterExtension(extension)
}

// SetLogger sets process-wide logger
func SetLogger(logger *zap.Logger) {
	logging.SetLogger(logger)
}
