package spi

import (
	"reflect"
	"unsafe"

	"github.com/viant/structbind/token"
)

type (
	//Decoder decodes the next value of reader into a value of a known type stored at ptr
	Decoder interface {
		Decode(ptr unsafe.Pointer, r *token.Reader) error
	}

	//Encoder encodes a value of a known type stored at ptr
	Encoder interface {
		Encode(ptr unsafe.Pointer, w *token.Writer) error
	}

	//DecoderFunc adapts a function to Decoder
	DecoderFunc func(ptr unsafe.Pointer, r *token.Reader) error

	//EncoderFunc adapts a function to Encoder
	EncoderFunc func(ptr unsafe.Pointer, w *token.Writer) error

	//Extension supplies decoders/encoders for types it recognizes, nil otherwise
	Extension interface {
		CreateDecoder(cacheKey string, rType reflect.Type) Decoder
		CreateEncoder(cacheKey string, rType reflect.Type) Encoder
	}
)

func (f DecoderFunc) Decode(ptr unsafe.Pointer, r *token.Reader) error { return f(ptr, r) }

func (f EncoderFunc) Encode(ptr unsafe.Pointer, w *token.Writer) error { return f(ptr, w) }

// TypedDecoder adapts a value-returning function to Decoder
func TypedDecoder[T any](fn func(r *token.Reader) (T, error)) Decoder {
	return DecoderFunc(func(ptr unsafe.Pointer, r *token.Reader) error {
		value, err := fn(r)
		if err != nil {
			return err
		}
		*(*T)(ptr) = value
		return nil
	})
}

// TypedEncoder adapts a value-consuming function to Encoder
func TypedEncoder[T any](fn func(value T, w *token.Writer) error) Encoder {
	return EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		return fn(*(*T)(ptr), w)
	})
}
