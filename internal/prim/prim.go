package prim

import (
	"reflect"
	"unsafe"

	"github.com/viant/structbind/spi"
	"github.com/viant/structbind/token"
)

// IsPrimitive returns true for bool, numeric and string kinds
func IsPrimitive(kind reflect.Kind) bool {
	switch kind {
	case reflect.String, reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Encoder returns kind specialized encoder or nil
func Encoder(kind reflect.Kind) spi.Encoder {
	switch kind {
	case reflect.String:
		return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
			w.WriteString(*(*string)(ptr))
			return nil
		})
	case reflect.Bool:
		return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
			w.WriteBool(*(*bool)(ptr))
			return nil
		})
	case reflect.Int:
		return intEncoder[int]()
	case reflect.Int8:
		return intEncoder[int8]()
	case reflect.Int16:
		return intEncoder[int16]()
	case reflect.Int32:
		return intEncoder[int32]()
	case reflect.Int64:
		return intEncoder[int64]()
	case reflect.Uint:
		return uintEncoder[uint]()
	case reflect.Uint8:
		return uintEncoder[uint8]()
	case reflect.Uint16:
		return uintEncoder[uint16]()
	case reflect.Uint32:
		return uintEncoder[uint32]()
	case reflect.Uint64:
		return uintEncoder[uint64]()
	case reflect.Uintptr:
		return uintEncoder[uintptr]()
	case reflect.Float32:
		return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
			w.WriteFloat32(*(*float32)(ptr))
			return nil
		})
	case reflect.Float64:
		return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
			w.WriteFloat64(*(*float64)(ptr))
			return nil
		})
	}
	return nil
}

// Empty returns kind specialized zero value check or nil
func Empty(kind reflect.Kind) func(ptr unsafe.Pointer) bool {
	switch kind {
	case reflect.String:
		return func(ptr unsafe.Pointer) bool { return *(*string)(ptr) == "" }
	case reflect.Bool:
		return func(ptr unsafe.Pointer) bool { return !*(*bool)(ptr) }
	case reflect.Int:
		return isZero[int]
	case reflect.Int8:
		return isZero[int8]
	case reflect.Int16:
		return isZero[int16]
	case reflect.Int32:
		return isZero[int32]
	case reflect.Int64:
		return isZero[int64]
	case reflect.Uint:
		return isZero[uint]
	case reflect.Uint8:
		return isZero[uint8]
	case reflect.Uint16:
		return isZero[uint16]
	case reflect.Uint32:
		return isZero[uint32]
	case reflect.Uint64:
		return isZero[uint64]
	case reflect.Uintptr:
		return isZero[uintptr]
	case reflect.Float32:
		return isZero[float32]
	case reflect.Float64:
		return isZero[float64]
	case reflect.Ptr, reflect.UnsafePointer:
		return func(ptr unsafe.Pointer) bool { return *(*unsafe.Pointer)(ptr) == nil }
	case reflect.Slice:
		return func(ptr unsafe.Pointer) bool { return (*sliceHeader)(ptr).Len == 0 }
	case reflect.Interface:
		return func(ptr unsafe.Pointer) bool { return (*ifaceHeader)(ptr).Data == nil && (*ifaceHeader)(ptr).Type == nil }
	}
	return nil
}

// ValueEmpty returns zero value check for any type
func ValueEmpty(rType reflect.Type) func(ptr unsafe.Pointer) bool {
	if fn := Empty(rType.Kind()); fn != nil {
		return fn
	}
	switch rType.Kind() {
	case reflect.Map, reflect.Array:
		return func(ptr unsafe.Pointer) bool { return reflect.NewAt(rType, ptr).Elem().Len() == 0 }
	}
	return func(ptr unsafe.Pointer) bool { return reflect.NewAt(rType, ptr).Elem().IsZero() }
}

// Slice returns slice data pointer and length
func Slice(ptr unsafe.Pointer) (unsafe.Pointer, int) {
	header := (*sliceHeader)(ptr)
	return header.Data, header.Len
}

type sliceHeader struct {
	Data unsafe.Pointer
	Len  int
	Cap  int
}

type ifaceHeader struct {
	Type unsafe.Pointer
	Data unsafe.Pointer
}

func isZero[T int | int8 | int16 | int32 | int64 | uint | uint8 | uint16 | uint32 | uint64 | uintptr | float32 | float64](ptr unsafe.Pointer) bool {
	return *(*T)(ptr) == 0
}

func intEncoder[T int | int8 | int16 | int32 | int64]() spi.Encoder {
	return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		w.WriteInt64(int64(*(*T)(ptr)))
		return nil
	})
}

func uintEncoder[T uint | uint8 | uint16 | uint32 | uint64 | uintptr]() spi.Encoder {
	return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		w.WriteUint64(uint64(*(*T)(ptr)))
		return nil
	})
}
