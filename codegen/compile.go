package codegen

import (
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/viant/structbind/internal/prim"
	"github.com/viant/structbind/spi"
	"github.com/viant/xunsafe"
)

var timeType = reflect.TypeOf(time.Time{})

// CompileAndLoad specializes unit program into an encoder for the unit type
func (g *Generator) CompileAndLoad(key string, unit *Unit, resolve Resolver) (spi.Encoder, error) {
	encoder, err := compile(unit, resolve)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to load %v", key), spi.ErrGeneration)
	}
	return encoder, nil
}

func compile(unit *Unit, resolve Resolver) (spi.Encoder, error) {
	program, rType := unit.Program, unit.Type
	if program == nil || rType == nil {
		return nil, errors.New("incomplete unit")
	}
	if program.Size != rType.Size() || program.Kind != rType.Kind() {
		return nil, errors.Newf("stale unit %v: expected %v(%d), but had %v(%d)", program.Type, program.Kind, program.Size, rType.Kind(), rType.Size())
	}
	switch program.Shape {
	case EnumShape:
		if !prim.IsEnum(rType) {
			return nil, errors.Newf("stale unit %v: not an enum", program.Type)
		}
		return prim.EnumEncoder(rType), nil
	case ObjectShape:
		return compileObject(program, rType, resolve)
	}
	if program.ElemKind != rType.Elem().Kind() {
		return nil, errors.Newf("stale unit %v: element kind %v, but had %v", program.Type, program.ElemKind, rType.Elem().Kind())
	}
	elem, err := elemEncoder(rType.Elem(), resolve)
	if err != nil {
		return nil, err
	}
	switch program.Shape {
	case CollectionShape:
		return prim.SliceEncoder(rType, elem), nil
	case ArrayShape:
		if program.Len != rType.Len() {
			return nil, errors.Newf("stale unit %v: length %d, but had %d", program.Type, program.Len, rType.Len())
		}
		return prim.ArrayEncoder(rType, elem), nil
	case MapShape:
		return prim.MapEncoder(rType, elem)
	}
	return nil, errors.Newf("unsupported shape: %v", program.Shape)
}

func compileObject(program *Program, rType reflect.Type, resolve Resolver) (spi.Encoder, error) {
	properties := make([]*prim.Property, 0, len(program.Fields))
	for _, field := range program.Fields {
		path, valueType, err := fieldPath(rType, field.Index)
		if err != nil {
			return nil, errors.Wrapf(err, "stale unit %v", program.Type)
		}
		if valueType.Kind() != field.Kind {
			return nil, errors.Newf("stale unit %v: field %v kind %v, but had %v", program.Type, field.Name, field.Kind, valueType.Kind())
		}
		property := &prim.Property{Name: field.Name, Binding: &spi.Binding{Path: path}}
		if field.OmitEmpty {
			property.Empty = prim.ValueEmpty(valueType)
		}
		switch {
		case field.TimeLayout != "" && valueType == timeType:
			property.Encoder = prim.TimeEncoder(field.TimeLayout)
		case field.TimeLayout != "" && valueType.Kind() == reflect.Ptr && valueType.Elem() == timeType:
			property.Encoder = prim.Nullable(prim.TimeEncoder(field.TimeLayout))
		default:
			if property.Encoder, err = elemEncoder(valueType, resolve); err != nil {
				return nil, err
			}
		}
		properties = append(properties, property)
	}
	return prim.ObjectEncoder(properties), nil
}

// elemEncoder uses specialized encoders for builtin primitives, nested types are resolved
func elemEncoder(rType reflect.Type, resolve Resolver) (spi.Encoder, error) {
	if rType.PkgPath() == "" && prim.IsPrimitive(rType.Kind()) {
		return prim.Encoder(rType.Kind()), nil
	}
	return resolve(spi.EncoderCacheKey(rType), rType)
}

func fieldPath(rType reflect.Type, index []int) ([]*xunsafe.Field, reflect.Type, error) {
	var path []*xunsafe.Field
	parent := rType
	for _, i := range index {
		if parent.Kind() == reflect.Ptr {
			parent = parent.Elem()
		}
		if parent.Kind() != reflect.Struct || i >= parent.NumField() {
			return nil, nil, errors.Newf("invalid field index %v", index)
		}
		sf := parent.Field(i)
		path = append(path, xunsafe.NewField(sf))
		parent = sf.Type
	}
	if len(path) == 0 {
		return nil, nil, errors.New("empty field index")
	}
	return path, parent, nil
}
