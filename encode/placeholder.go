package encode

import (
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/viant/structbind/spi"
	"github.com/viant/structbind/token"
	"go.uber.org/atomic"
)

// placeholder forwards to the encoder published under key at call time
type placeholder struct {
	cache  *Cache
	key    string
	rType  reflect.Type
	target atomic.Pointer[spi.Encoder]
}

func (p *placeholder) Encode(ptr unsafe.Pointer, w *token.Writer) error {
	if target := p.target.Load(); target != nil {
		return (*target).Encode(ptr, w)
	}
	encoder, err := p.cache.resolve(p.key, p.rType)
	if err != nil {
		return err
	}
	if encoder == nil {
		return errors.Newf("no encoder produced for %v", p.rType)
	}
	p.target.Store(&encoder)
	return encoder.Encode(ptr, w)
}
