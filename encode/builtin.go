package encode

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"reflect"
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/viant/structbind/internal/prim"
	"github.com/viant/structbind/spi"
	"github.com/viant/structbind/token"
)

const defaultTimeLayout = time.RFC3339Nano

var (
	timeType          = reflect.TypeOf(time.Time{})
	bytesType         = reflect.TypeOf([]byte(nil))
	anyType           = reflect.TypeOf((*jsoniter.Any)(nil)).Elem()
	marshalerType     = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// builtin returns encoder for standard types or nil
func (c *Cache) builtin(rType reflect.Type) spi.Encoder {
	switch {
	case rType == timeType:
		return prim.TimeEncoder(c.timeLayout)
	case rType == bytesType:
		return spi.EncoderFunc(encodeBytes)
	case rType == anyType:
		return spi.EncoderFunc(encodeAny)
	case rType.Kind() != reflect.Interface && rType.Kind() != reflect.Ptr && rType.Implements(marshalerType):
		return marshalerEncoder(rType)
	case rType.Kind() != reflect.Interface && rType.Kind() != reflect.Ptr && rType.Implements(textMarshalerType):
		return textMarshalerEncoder(rType)
	case prim.IsPrimitive(rType.Kind()) && !prim.IsEnum(rType):
		return prim.Encoder(rType.Kind())
	}
	return nil
}

func encodeBytes(ptr unsafe.Pointer, w *token.Writer) error {
	data := *(*[]byte)(ptr)
	if data == nil {
		w.WriteNull()
		return nil
	}
	w.WriteString(base64.StdEncoding.EncodeToString(data))
	return nil
}

func encodeAny(ptr unsafe.Pointer, w *token.Writer) error {
	value := *(*jsoniter.Any)(ptr)
	if value == nil {
		w.WriteNull()
		return nil
	}
	stream := jsoniter.ConfigDefault.BorrowStream(nil)
	defer jsoniter.ConfigDefault.ReturnStream(stream)
	value.WriteTo(stream)
	if stream.Error != nil {
		return stream.Error
	}
	w.WriteRaw(stream.Buffer())
	return nil
}

func marshalerEncoder(rType reflect.Type) spi.Encoder {
	return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		data, err := reflect.NewAt(rType, ptr).Elem().Interface().(json.Marshaler).MarshalJSON()
		if err != nil {
			return errors.Wrapf(err, "failed to marshal %v", rType)
		}
		w.WriteRaw(data)
		return nil
	})
}

func textMarshalerEncoder(rType reflect.Type) spi.Encoder {
	return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		data, err := reflect.NewAt(rType, ptr).Elem().Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return errors.Wrapf(err, "failed to marshal %v", rType)
		}
		w.WriteString(string(data))
		return nil
	})
}
