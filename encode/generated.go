package encode

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/viant/structbind/codegen"
	"github.com/viant/structbind/internal/logging"
	"github.com/viant/structbind/internal/prim"
	"github.com/viant/structbind/spi"
	"go.uber.org/zap"
)

// generatable returns true for shapes the generated-code backend handles; pointers and interfaces stay reflective
func generatable(rType reflect.Type) bool {
	if prim.IsEnum(rType) {
		return true
	}
	switch rType.Kind() {
	case reflect.Struct, reflect.Array:
		return true
	case reflect.Slice:
		return rType.Elem().Kind() != reflect.Uint8
	case reflect.Map:
		return prim.IsMapKey(rType.Key().Kind())
	}
	return false
}

func (c *Cache) generated(key string, rType reflect.Type, mode spi.EncodingMode) (spi.Encoder, string, error) {
	resolve := func(key string, rType reflect.Type) (spi.Encoder, error) {
		return c.encoderLocked(key, rType)
	}
	if program, ok := codegen.Lookup(key); ok {
		encoder, err := c.backend.CompileAndLoad(key, codegen.NewUnit(program, rType), resolve)
		return encoder, strategyUnit, err
	}
	if mode == spi.StaticMode {
		logging.Logger().Warn("no generated unit, using reflection", zap.String("key", key))
		encoder, err := c.reflective(rType)
		return encoder, strategyReflect, err
	}
	unit, err := c.backend.Synthesize(key, rType)
	if err != nil {
		return nil, "", err
	}
	if c.outputRoot != "" {
		if _, err = c.backend.Persist(key, unit, c.outputRoot); err != nil {
			return nil, "", errors.WithDetail(err, string(unit.Source))
		}
		return nil, strategyPersisted, nil
	}
	encoder, err := c.backend.CompileAndLoad(key, unit, resolve)
	if err != nil {
		return nil, "", errors.WithDetail(err, string(unit.Source))
	}
	return encoder, strategyGenerated, nil
}
