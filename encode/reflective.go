package encode

import (
	"reflect"
	"unsafe"

	"github.com/viant/structbind/internal/prim"
	"github.com/viant/structbind/spi"
	"github.com/viant/structbind/token"
)

// reflective builds encoder from type descriptor, nested encoders are resolved while the build lock is held
func (c *Cache) reflective(rType reflect.Type) (spi.Encoder, error) {
	if prim.IsEnum(rType) {
		return prim.EnumEncoder(rType), nil
	}
	switch rType.Kind() {
	case reflect.Struct:
		return c.objectEncoder(rType)
	case reflect.Ptr:
		elem, err := c.nested(rType.Elem())
		if err != nil {
			return nil, err
		}
		return prim.Nullable(elem), nil
	case reflect.Slice:
		elem, err := c.nested(rType.Elem())
		if err != nil {
			return nil, err
		}
		return prim.SliceEncoder(rType, elem), nil
	case reflect.Array:
		elem, err := c.nested(rType.Elem())
		if err != nil {
			return nil, err
		}
		return prim.ArrayEncoder(rType, elem), nil
	case reflect.Map:
		elem, err := c.nested(rType.Elem())
		if err != nil {
			return nil, err
		}
		encoder, err := prim.MapEncoder(rType, elem)
		if err != nil {
			return nil, spi.NewBuildError("%v", err)
		}
		return encoder, nil
	case reflect.Interface:
		return c.interfaceEncoder(rType), nil
	}
	return nil, spi.NewBuildError("unsupported encoder type: %v", rType)
}

func (c *Cache) objectEncoder(rType reflect.Type) (spi.Encoder, error) {
	desc, err := c.provider.Describe(rType)
	if err != nil {
		return nil, err
	}
	properties := make([]*prim.Property, 0, len(desc.Properties))
	for _, binding := range desc.Properties {
		property := &prim.Property{Name: binding.Name, Binding: binding, Encoder: binding.Encoder}
		if binding.OmitEmpty {
			property.Empty = prim.ValueEmpty(binding.ValueType)
		}
		if property.Encoder == nil {
			if property.Encoder, err = c.propertyEncoder(binding); err != nil {
				return nil, err
			}
		}
		properties = append(properties, property)
	}
	return prim.ObjectEncoder(properties), nil
}

func (c *Cache) propertyEncoder(binding *spi.Binding) (spi.Encoder, error) {
	valueType := binding.ValueType
	if binding.TimeLayout != "" {
		switch {
		case valueType == timeType:
			return prim.TimeEncoder(binding.TimeLayout), nil
		case valueType.Kind() == reflect.Ptr && valueType.Elem() == timeType:
			return prim.Nullable(prim.TimeEncoder(binding.TimeLayout)), nil
		}
	}
	return c.nested(valueType)
}

// nested returns primitive encoder directly, other types go through the cache
func (c *Cache) nested(rType reflect.Type) (spi.Encoder, error) {
	if rType.PkgPath() == "" && prim.IsPrimitive(rType.Kind()) {
		return prim.Encoder(rType.Kind()), nil
	}
	return c.encoderLocked(spi.EncoderCacheKey(rType), rType)
}

// interfaceEncoder resolves encoder for the dynamic type at call time
func (c *Cache) interfaceEncoder(rType reflect.Type) spi.Encoder {
	return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		value := reflect.NewAt(rType, ptr).Elem()
		if value.IsNil() {
			w.WriteNull()
			return nil
		}
		return c.encodeValue(value.Elem(), w)
	})
}
