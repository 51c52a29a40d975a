package gojay

import (
	"reflect"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/francoispqt/gojay"
	"github.com/viant/structbind/spi"
	"github.com/viant/structbind/token"
)

var (
	marshalerType   = reflect.TypeOf((*gojay.MarshalerJSONObject)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*gojay.UnmarshalerJSONObject)(nil)).Elem()
)

// Extension delegates to gojay MarshalerJSONObject and UnmarshalerJSONObject implementations
type Extension struct{}

// New creates gojay extension
func New() *Extension {
	return &Extension{}
}

// CreateEncoder returns encoder when T or *T implements gojay.MarshalerJSONObject
func (e *Extension) CreateEncoder(_ string, rType reflect.Type) spi.Encoder {
	if rType.Kind() == reflect.Interface || rType.Kind() == reflect.Ptr {
		return nil
	}
	if !reflect.PointerTo(rType).Implements(marshalerType) {
		return nil
	}
	return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		marshaler := reflect.NewAt(rType, ptr).Interface().(gojay.MarshalerJSONObject)
		if err := gojay.NewEncoder(w).EncodeObject(marshaler); err != nil {
			return errors.Wrapf(err, "failed to encode %v", rType)
		}
		return nil
	})
}

// CreateDecoder returns decoder when *T implements gojay.UnmarshalerJSONObject
func (e *Extension) CreateDecoder(_ string, rType reflect.Type) spi.Decoder {
	if rType.Kind() == reflect.Interface || rType.Kind() == reflect.Ptr {
		return nil
	}
	if !reflect.PointerTo(rType).Implements(unmarshalerType) {
		return nil
	}
	return spi.DecoderFunc(func(ptr unsafe.Pointer, r *token.Reader) error {
		value := reflect.NewAt(rType, ptr)
		if r.ReadNull() {
			value.Elem().Set(reflect.Zero(rType))
			return nil
		}
		raw, err := r.ReadRaw()
		if err != nil {
			return err
		}
		if err = gojay.UnmarshalJSONObject(raw, value.Interface().(gojay.UnmarshalerJSONObject)); err != nil {
			return errors.Wrapf(err, "failed to decode %v", rType)
		}
		return nil
	})
}
