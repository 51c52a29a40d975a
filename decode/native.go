package decode

import (
	"bytes"
	"encoding"
	"encoding/base64"
	stdjson "encoding/json"
	"reflect"
	"strconv"
	"sync"
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/viant/structbind/spi"
	"github.com/viant/structbind/token"
)

var (
	timeType            = reflect.TypeOf(time.Time{})
	jsonUnmarshalerType = reflect.TypeOf((*stdjson.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// lazyDecoder resolves a nested type decoder on first use, builds never recurse into nested types
type lazyDecoder struct {
	cache   *Cache
	rType   reflect.Type
	once    sync.Once
	decoder spi.Decoder
	err     error
}

func (l *lazyDecoder) resolve() (spi.Decoder, error) {
	l.once.Do(func() {
		l.decoder, l.err = l.cache.Decoder(l.rType)
	})
	return l.decoder, l.err
}

func (l *lazyDecoder) Decode(ptr unsafe.Pointer, r *token.Reader) error {
	decoder, err := l.resolve()
	if err != nil {
		return err
	}
	return decoder.Decode(ptr, r)
}

func (c *Cache) lazy(rType reflect.Type) *lazyDecoder {
	return &lazyDecoder{cache: c, rType: rType}
}

func (c *Cache) defaultDecoder(binding *spi.Binding) spi.Decoder {
	if binding.TimeLayout != "" {
		switch binding.ValueType {
		case timeType:
			return timeDecoder(binding.TimeLayout)
		case reflect.PointerTo(timeType):
			return &pointerDecoder{elemType: timeType, elem: timeDecoder(binding.TimeLayout)}
		}
	}
	return c.lazy(binding.ValueType)
}

// typeDecoder returns type driven decoder
func (c *Cache) typeDecoder(rType reflect.Type) (spi.Decoder, error) {
	if kind := rType.Kind(); kind != reflect.Ptr && kind != reflect.Interface && rType != timeType {
		ptrType := reflect.PointerTo(rType)
		if ptrType.Implements(jsonUnmarshalerType) {
			return unmarshalerDecoder(rType), nil
		}
		if ptrType.Implements(textUnmarshalerType) {
			return textUnmarshalerDecoder(rType), nil
		}
	}
	switch rType.Kind() {
	case reflect.Bool:
		return spi.DecoderFunc(decodeBool), nil
	case reflect.Int:
		return intDecoder[int](), nil
	case reflect.Int8:
		return intDecoder[int8](), nil
	case reflect.Int16:
		return intDecoder[int16](), nil
	case reflect.Int32:
		return intDecoder[int32](), nil
	case reflect.Int64:
		return intDecoder[int64](), nil
	case reflect.Uint:
		return uintDecoder[uint](), nil
	case reflect.Uint8:
		return uintDecoder[uint8](), nil
	case reflect.Uint16:
		return uintDecoder[uint16](), nil
	case reflect.Uint32:
		return uintDecoder[uint32](), nil
	case reflect.Uint64:
		return uintDecoder[uint64](), nil
	case reflect.Uintptr:
		return uintDecoder[uintptr](), nil
	case reflect.Float32:
		return floatDecoder[float32](), nil
	case reflect.Float64:
		return floatDecoder[float64](), nil
	case reflect.String:
		return spi.DecoderFunc(decodeString), nil
	case reflect.Ptr:
		return &pointerDecoder{elemType: rType.Elem(), elem: c.lazy(rType.Elem())}, nil
	case reflect.Slice:
		if rType.Elem().Kind() == reflect.Uint8 {
			return bytesDecoder(rType), nil
		}
		return &sliceDecoder{rType: rType, elem: c.lazy(rType.Elem())}, nil
	case reflect.Array:
		return &arrayDecoder{rType: rType, elem: c.lazy(rType.Elem())}, nil
	case reflect.Map:
		keyOf, err := mapKeyParser(rType.Key())
		if err != nil {
			return nil, err
		}
		return &mapDecoder{rType: rType, keyOf: keyOf, elem: c.lazy(rType.Elem())}, nil
	case reflect.Interface:
		if rType == anyType {
			return spi.DecoderFunc(decodeAny), nil
		}
		if rType.NumMethod() == 0 {
			return interfaceDecoder(rType), nil
		}
		return nil, spi.NewBuildError("no constructor for: %v", rType)
	case reflect.Struct:
		if rType == timeType {
			return timeDecoder(c.timeLayout), nil
		}
		return c.objectDecoder(rType)
	}
	return nil, spi.NewBuildError("no constructor for: %v", rType)
}

func (c *Cache) objectDecoder(rType reflect.Type) (spi.Decoder, error) {
	desc, err := c.provider.Describe(rType)
	if err != nil {
		return nil, err
	}
	t, err := c.newTable(desc)
	if err != nil {
		return nil, err
	}
	return newObjectDecoder(desc, t), nil
}

type pointerDecoder struct {
	elemType reflect.Type
	elem     spi.Decoder
}

func (p *pointerDecoder) Decode(ptr unsafe.Pointer, r *token.Reader) error {
	if r.ReadNull() {
		*(*unsafe.Pointer)(ptr) = nil
		return nil
	}
	target := *(*unsafe.Pointer)(ptr)
	if target == nil {
		var err error
		if target, err = p.allocate(); err != nil {
			return err
		}
		*(*unsafe.Pointer)(ptr) = target
	}
	return p.elem.Decode(target, r)
}

func (p *pointerDecoder) allocate() (unsafe.Pointer, error) {
	decoder := p.elem
	if lazy, ok := decoder.(*lazyDecoder); ok {
		resolved, err := lazy.resolve()
		if err != nil {
			return nil, err
		}
		decoder = resolved
	}
	if inst, ok := decoder.(instantiator); ok {
		return inst.newInstance()
	}
	return reflect.New(p.elemType).UnsafePointer(), nil
}

type sliceDecoder struct {
	rType reflect.Type
	elem  spi.Decoder
}

func (s *sliceDecoder) Decode(ptr unsafe.Pointer, r *token.Reader) error {
	target := reflect.NewAt(s.rType, ptr).Elem()
	if r.ReadNull() {
		target.SetZero()
		return nil
	}
	hasElements, err := r.ReadArrayStart()
	if err != nil {
		return err
	}
	slice := reflect.MakeSlice(s.rType, 0, 4)
	zero := reflect.Zero(s.rType.Elem())
	for i := 0; hasElements; i++ {
		slice = reflect.Append(slice, zero)
		if err = s.elem.Decode(slice.Index(i).Addr().UnsafePointer(), r); err != nil {
			return err
		}
		if hasElements, err = r.NextElement(); err != nil {
			return err
		}
	}
	target.Set(slice)
	return nil
}

type arrayDecoder struct {
	rType reflect.Type
	elem  spi.Decoder
}

func (a *arrayDecoder) Decode(ptr unsafe.Pointer, r *token.Reader) error {
	target := reflect.NewAt(a.rType, ptr).Elem()
	if r.ReadNull() {
		return nil
	}
	hasElements, err := r.ReadArrayStart()
	if err != nil {
		return err
	}
	i := 0
	for ; hasElements; i++ {
		if i < target.Len() {
			err = a.elem.Decode(target.Index(i).Addr().UnsafePointer(), r)
		} else {
			err = r.Skip()
		}
		if err != nil {
			return err
		}
		if hasElements, err = r.NextElement(); err != nil {
			return err
		}
	}
	for ; i < target.Len(); i++ {
		target.Index(i).SetZero()
	}
	return nil
}

type mapDecoder struct {
	rType reflect.Type
	keyOf func(key string) (reflect.Value, error)
	elem  spi.Decoder
}

func (m *mapDecoder) Decode(ptr unsafe.Pointer, r *token.Reader) error {
	target := reflect.NewAt(m.rType, ptr).Elem()
	if r.ReadNull() {
		target.SetZero()
		return nil
	}
	hasFields, err := r.ReadObjectStart()
	if err != nil {
		return err
	}
	if target.IsNil() {
		target.Set(reflect.MakeMap(m.rType))
	}
	for hasFields {
		name, err := r.ReadField()
		if err != nil {
			return err
		}
		key, err := m.keyOf(name)
		if err != nil {
			return err
		}
		value := reflect.New(m.rType.Elem())
		if err = m.elem.Decode(value.UnsafePointer(), r); err != nil {
			return err
		}
		target.SetMapIndex(key, value.Elem())
		if hasFields, err = r.Next(); err != nil {
			return err
		}
	}
	return nil
}

func mapKeyParser(keyType reflect.Type) (func(key string) (reflect.Value, error), error) {
	switch keyType.Kind() {
	case reflect.String:
		return func(key string) (reflect.Value, error) {
			return reflect.ValueOf(string([]byte(key))).Convert(keyType), nil
		}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(key string) (reflect.Value, error) {
			v, err := strconv.ParseInt(key, 10, keyType.Bits())
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "invalid %v map key: %q", keyType, key)
			}
			return reflect.ValueOf(v).Convert(keyType), nil
		}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(key string) (reflect.Value, error) {
			v, err := strconv.ParseUint(key, 10, keyType.Bits())
			if err != nil {
				return reflect.Value{}, errors.Wrapf(err, "invalid %v map key: %q", keyType, key)
			}
			return reflect.ValueOf(v).Convert(keyType), nil
		}, nil
	}
	return nil, spi.NewBuildError("unsupported map key type: %v", keyType)
}

func decodeBool(ptr unsafe.Pointer, r *token.Reader) error {
	if r.ReadNull() {
		return nil
	}
	v, err := r.ReadBool()
	if err != nil {
		return err
	}
	*(*bool)(ptr) = v
	return nil
}

func decodeString(ptr unsafe.Pointer, r *token.Reader) error {
	if r.ReadNull() {
		return nil
	}
	v, err := r.ReadString()
	if err != nil {
		return err
	}
	*(*string)(ptr) = v
	return nil
}

func intDecoder[T int | int8 | int16 | int32 | int64]() spi.Decoder {
	return spi.DecoderFunc(func(ptr unsafe.Pointer, r *token.Reader) error {
		if r.ReadNull() {
			return nil
		}
		v, err := r.ReadInt64()
		if err != nil {
			return err
		}
		if int64(T(v)) != v {
			return errors.Newf("value %v overflows %T", v, T(0))
		}
		*(*T)(ptr) = T(v)
		return nil
	})
}

func uintDecoder[T uint | uint8 | uint16 | uint32 | uint64 | uintptr]() spi.Decoder {
	return spi.DecoderFunc(func(ptr unsafe.Pointer, r *token.Reader) error {
		if r.ReadNull() {
			return nil
		}
		v, err := r.ReadUint64()
		if err != nil {
			return err
		}
		if uint64(T(v)) != v {
			return errors.Newf("value %v overflows %T", v, T(0))
		}
		*(*T)(ptr) = T(v)
		return nil
	})
}

func floatDecoder[T float32 | float64]() spi.Decoder {
	return spi.DecoderFunc(func(ptr unsafe.Pointer, r *token.Reader) error {
		if r.ReadNull() {
			return nil
		}
		v, err := r.ReadFloat64()
		if err != nil {
			return err
		}
		*(*T)(ptr) = T(v)
		return nil
	})
}

func bytesDecoder(rType reflect.Type) spi.Decoder {
	return spi.DecoderFunc(func(ptr unsafe.Pointer, r *token.Reader) error {
		target := reflect.NewAt(rType, ptr).Elem()
		if r.ReadNull() {
			target.SetZero()
			return nil
		}
		encoded, err := r.ReadString()
		if err != nil {
			return err
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return errors.Wrap(err, "invalid base64 bytes")
		}
		target.SetBytes(data)
		return nil
	})
}

func timeDecoder(layout string) spi.Decoder {
	if layout == "" {
		layout = time.RFC3339Nano
	}
	return spi.DecoderFunc(func(ptr unsafe.Pointer, r *token.Reader) error {
		if r.ReadNull() {
			return nil
		}
		literal, err := r.ReadString()
		if err != nil {
			return err
		}
		ts, err := time.Parse(layout, literal)
		if err != nil {
			return errors.Wrapf(err, "invalid time %q", literal)
		}
		*(*time.Time)(ptr) = ts
		return nil
	})
}

func interfaceDecoder(rType reflect.Type) spi.Decoder {
	return spi.DecoderFunc(func(ptr unsafe.Pointer, r *token.Reader) error {
		value, err := r.ReadAny()
		if err != nil {
			return err
		}
		target := reflect.NewAt(rType, ptr).Elem()
		if value == nil {
			target.SetZero()
			return nil
		}
		target.Set(reflect.ValueOf(value))
		return nil
	})
}

func decodeAny(ptr unsafe.Pointer, r *token.Reader) error {
	raw, err := r.ReadRaw()
	if err != nil {
		return err
	}
	*(*jsoniter.Any)(ptr) = jsoniter.Get(bytes.Clone(raw))
	return nil
}

func unmarshalerDecoder(rType reflect.Type) spi.Decoder {
	return spi.DecoderFunc(func(ptr unsafe.Pointer, r *token.Reader) error {
		raw, err := r.ReadRaw()
		if err != nil {
			return err
		}
		unmarshaler := reflect.NewAt(rType, ptr).Interface().(stdjson.Unmarshaler)
		return unmarshaler.UnmarshalJSON(bytes.Clone(raw))
	})
}

func textUnmarshalerDecoder(rType reflect.Type) spi.Decoder {
	return spi.DecoderFunc(func(ptr unsafe.Pointer, r *token.Reader) error {
		if r.ReadNull() {
			return nil
		}
		text, err := r.ReadString()
		if err != nil {
			return err
		}
		unmarshaler := reflect.NewAt(rType, ptr).Interface().(encoding.TextUnmarshaler)
		return unmarshaler.UnmarshalText([]byte(text))
	})
}
