package structbind

import (
	"github.com/viant/structbind/codegen"
	"github.com/viant/structbind/spi"
	"github.com/viant/tagly/format/text"
	"go.uber.org/zap"
)

type (
	//Option represents config option
	Option func(o *options)

	//Options represents config options
	Options []Option

	options struct {
		caseFormat    text.CaseFormat
		strictUnknown bool
		mode          *spi.EncodingMode
		timeLayout    string
		outputRoot    string
		backend       codegen.Backend
		extensions    []spi.Extension
		logger        *zap.Logger
	}
)

//Apply applies options
func (o Options) Apply(opts *options) {
	if len(o) == 0 {
		return
	}
	for _, opt := range o {
		opt(opts)
	}
}

//WithCaseFormat adds case formatted aliases, e.g. text.CaseFormatLowerCamel decodes "firstName" into FirstName
func WithCaseFormat(caseFormat text.CaseFormat) Option {
	return func(o *options) {
		o.caseFormat = caseFormat
	}
}

//WithStrictUnknown fails decoding on unknown properties unless the type declares an extras holder
func WithStrictUnknown() Option {
	return func(o *options) {
		o.strictUnknown = true
	}
}

//WithMode pins encoding mode for the config, the process-wide mode is used otherwise
func WithMode(mode spi.EncodingMode) Option {
	return func(o *options) {
		o.mode = &mode
	}
}

//WithTimeLayout sets default time.Time layout
func WithTimeLayout(layout string) Option {
	return func(o *options) {
		o.timeLayout = layout
	}
}

//WithOutputRoot turns generated-code encoder builds into an ahead-of-time pass writing units under root
func WithOutputRoot(root string) Option {
	return func(o *options) {
		o.outputRoot = root
	}
}

//WithBackend sets generated-code backend
func WithBackend(backend codegen.Backend) Option {
	return func(o *options) {
		o.backend = backend
	}
}

//WithExtension registers extension
func WithExtension(extension spi.Extension) Option {
	return func(o *options) {
		o.extensions = append(o.extensions, extension)
	}
}

//WithLogger sets process-wide logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
