package decode

import (
	"reflect"
	"unsafe"

	"github.com/viant/structbind/spi"
	"github.com/viant/structbind/token"
)

const trackerWidth = 64

type strategy int

const (
	fieldOnly strategy = iota
	setterDriven
	ctorDriven
)

func (s strategy) String() string {
	switch s {
	case setterDriven:
		return "setter"
	case ctorDriven:
		return "constructor"
	}
	return "field"
}

type (
	table struct {
		rType     reflect.Type
		byName    map[string]*spi.Binding
		bindings  []*spi.Binding
		params    []*spi.Binding
		fields    []*spi.Binding
		setters   []*setterGroup
		required  []*spi.Binding
		expected  uint64
		tempCount int
		tempKey   string
		ctorKey   string
	}

	setterGroup struct {
		name   string
		method reflect.Method
		args   []*spi.Binding
	}
)

func (t *table) strategy() strategy {
	switch {
	case len(t.params) > 0:
		return ctorDriven
	case len(t.setters) > 0:
		return setterDriven
	}
	return fieldOnly
}

// newTable merges constructor parameters, fields and setter arguments into one property table
func (c *Cache) newTable(desc *spi.ClassDescriptor) (*table, error) {
	t := &table{rType: desc.Type, byName: map[string]*spi.Binding{}}
	var err error
	if t.params, err = c.addBindings(t, desc.Ctor.Parameters); err != nil {
		return nil, err
	}
	if t.fields, err = c.addBindings(t, desc.Fields); err != nil {
		return nil, err
	}
	for _, setter := range desc.Setters {
		args, err := c.addBindings(t, setter.Parameters)
		if err != nil {
			return nil, err
		}
		t.setters = append(t.setters, &setterGroup{name: setter.Name, method: setter.Method, args: args})
	}
	if len(t.params) > 0 || len(t.setters) > 0 {
		key := spi.DecoderCacheKey(desc.Type)
		t.tempCount = len(t.bindings)
		t.tempKey = "temp@" + key
		t.ctorKey = "ctor@" + key
	}
	return t, nil
}

func (c *Cache) addBindings(t *table, bindings []*spi.Binding) ([]*spi.Binding, error) {
	var result = make([]*spi.Binding, 0, len(bindings))
	for _, source := range bindings {
		cloned := *source
		binding := &cloned
		if binding.Forbidden {
			binding.Decoder = forbiddenDecoder(t.rType, binding.Name)
		}
		if binding.Decoder == nil && c.registry != nil {
			binding.Decoder = c.registry.Decoder(binding.DecoderCacheKey())
		}
		if binding.Decoder == nil {
			binding.Decoder = c.defaultDecoder(binding)
		}
		binding.Index = len(t.bindings)
		for _, name := range binding.FromNames {
			if _, ok := t.byName[name]; ok {
				return nil, spi.NewBuildError("name conflict found in %v: %v", t.rType, name)
			}
			t.byName[name] = binding
		}
		t.bindings = append(t.bindings, binding)
		if binding.Required {
			if len(t.required) >= trackerWidth {
				return nil, spi.NewBuildError("too many required properties to track")
			}
			binding.Mask = 1 << uint(len(t.required))
			t.expected |= binding.Mask
			t.required = append(t.required, binding)
		}
		result = append(result, binding)
	}
	return result, nil
}

func forbiddenDecoder(rType reflect.Type, name string) spi.Decoder {
	return spi.DecoderFunc(func(_ unsafe.Pointer, _ *token.Reader) error {
		return spi.NewForbiddenPropertyError(rType, name)
	})
}
