package prim

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/viant/structbind/spi"
	"github.com/viant/structbind/token"
)

var stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

// IsEnum returns true for named primitive types implementing fmt.Stringer
func IsEnum(rType reflect.Type) bool {
	return rType.Name() != "" && IsPrimitive(rType.Kind()) && rType.Implements(stringerType)
}

// IsMapKey returns true if map key kind can be rendered as JSON object key
func IsMapKey(kind reflect.Kind) bool {
	switch kind {
	case reflect.String, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// EnumEncoder encodes fmt.Stringer value as JSON string
func EnumEncoder(rType reflect.Type) spi.Encoder {
	return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		w.WriteString(reflect.NewAt(rType, ptr).Elem().Interface().(fmt.Stringer).String())
		return nil
	})
}

// SliceEncoder encodes slice elements with elem encoder, nil slice as null
func SliceEncoder(rType reflect.Type, elem spi.Encoder) spi.Encoder {
	elemSize := rType.Elem().Size()
	return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		data, size := Slice(ptr)
		if data == nil {
			w.WriteNull()
			return nil
		}
		return encodeElements(data, size, elemSize, elem, w)
	})
}

// ArrayEncoder encodes fixed size array
func ArrayEncoder(rType reflect.Type, elem spi.Encoder) spi.Encoder {
	elemSize := rType.Elem().Size()
	size := rType.Len()
	return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		return encodeElements(ptr, size, elemSize, elem, w)
	})
}

func encodeElements(data unsafe.Pointer, size int, elemSize uintptr, elem spi.Encoder, w *token.Writer) error {
	w.WriteArrayStart()
	for i := 0; i < size; i++ {
		if i > 0 {
			w.WriteMore()
		}
		if err := elem.Encode(unsafe.Add(data, uintptr(i)*elemSize), w); err != nil {
			return err
		}
	}
	w.WriteArrayEnd()
	return nil
}

// MapEncoder encodes map as JSON object with keys sorted in string order, nil map as null
func MapEncoder(rType reflect.Type, elem spi.Encoder) (spi.Encoder, error) {
	if !IsMapKey(rType.Key().Kind()) {
		return nil, errors.Newf("unsupported map key type: %v", rType.Key())
	}
	keyString := mapKeyString(rType.Key().Kind())
	return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		aMap := reflect.NewAt(rType, ptr).Elem()
		if aMap.IsNil() {
			w.WriteNull()
			return nil
		}
		type entry struct {
			key   string
			value reflect.Value
		}
		entries := make([]entry, 0, aMap.Len())
		iter := aMap.MapRange()
		for iter.Next() {
			entries = append(entries, entry{key: keyString(iter.Key()), value: iter.Value()})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
		value := reflect.New(rType.Elem())
		w.WriteObjectStart()
		for i, item := range entries {
			if i > 0 {
				w.WriteMore()
			}
			w.WriteObjectField(item.key)
			value.Elem().Set(item.value)
			if err := elem.Encode(value.UnsafePointer(), w); err != nil {
				return err
			}
		}
		w.WriteObjectEnd()
		return nil
	}), nil
}

func mapKeyString(kind reflect.Kind) func(key reflect.Value) string {
	switch kind {
	case reflect.String:
		return func(key reflect.Value) string { return key.String() }
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(key reflect.Value) string { return strconv.FormatInt(key.Int(), 10) }
	}
	return func(key reflect.Value) string { return strconv.FormatUint(key.Uint(), 10) }
}
