package decode

import (
	"reflect"
	"strings"
	"unsafe"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
	"github.com/viant/structbind/spi"
	"github.com/viant/structbind/token"
)

var anyType = reflect.TypeOf((*jsoniter.Any)(nil)).Elem()

// objectDecoder decodes JSON objects into struct storage using one of field, setter or constructor strategies
type objectDecoder struct {
	*table
	desc     *spi.ClassDescriptor
	strategy strategy
}

// instantiator allocates a new instance through the default construction path
type instantiator interface {
	newInstance() (unsafe.Pointer, error)
}

func newObjectDecoder(desc *spi.ClassDescriptor, t *table) *objectDecoder {
	return &objectDecoder{table: t, desc: desc, strategy: t.strategy()}
}

func (d *objectDecoder) Decode(ptr unsafe.Pointer, r *token.Reader) error {
	if r.ReadNull() {
		reflect.NewAt(d.rType, ptr).Elem().SetZero()
		return nil
	}
	hasFields, err := r.ReadObjectStart()
	if err != nil {
		return err
	}
	var temp []reflect.Value
	if d.strategy != fieldOnly {
		temp = takeValues(r, d.tempKey, d.tempCount)
		defer putValues(r, d.tempKey, temp)
	}
	var tracker uint64
	var extras map[string]interface{}
	for hasFields {
		name, err := r.ReadField()
		if err != nil {
			return err
		}
		if binding, ok := d.byName[name]; ok {
			tracker |= binding.Mask
			if err = d.decodeBinding(ptr, binding, temp, r); err != nil {
				return err
			}
		} else if extras, err = d.onUnknown(r, name, extras); err != nil {
			return err
		}
		if hasFields, err = r.Next(); err != nil {
			return err
		}
	}

	var missing []string
	if tracker != d.expected {
		missing = d.missing(tracker)
		if d.desc.OnMissing == nil {
			return spi.NewMissingPropertiesError(d.rType, missing)
		}
	}
	if d.strategy == ctorDriven {
		if err = d.construct(ptr, temp, r); err != nil {
			return err
		}
		for _, field := range d.fields {
			if value := temp[field.Index]; value.IsValid() {
				reflect.NewAt(field.ValueType, field.Pointer(ptr)).Elem().Set(value)
				d.mark(ptr, field)
			}
		}
	}
	if d.strategy != fieldOnly {
		if err = d.applySetters(ptr, temp); err != nil {
			return err
		}
	}
	if missing != nil {
		*(*[]string)(d.desc.OnMissing.Pointer(ptr)) = missing
	}
	d.setExtra(ptr, extras)
	return nil
}

func (d *objectDecoder) decodeBinding(ptr unsafe.Pointer, binding *spi.Binding, temp []reflect.Value, r *token.Reader) error {
	if binding.IsField() && d.strategy != ctorDriven {
		// field storage holds the current value, nested objects merge into it
		if err := binding.Decoder.Decode(binding.Pointer(ptr), r); err != nil {
			return err
		}
		d.mark(ptr, binding)
		return nil
	}
	value := reflect.New(binding.ValueType)
	if err := binding.Decoder.Decode(value.UnsafePointer(), r); err != nil {
		return err
	}
	temp[binding.Index] = value.Elem()
	return nil
}

func (d *objectDecoder) onUnknown(r *token.Reader, name string, extras map[string]interface{}) (map[string]interface{}, error) {
	if !d.desc.UnknownAsExtra {
		return extras, r.Skip()
	}
	if d.desc.OnExtra == nil {
		return extras, spi.NewUnknownPropertyError(d.rType, strings.Clone(name))
	}
	if extras == nil {
		extras = map[string]interface{}{}
	}
	name = strings.Clone(name)
	value, err := r.ReadAny()
	if err != nil {
		return extras, err
	}
	extras[name] = value
	return extras, nil
}

func (d *objectDecoder) missing(tracker uint64) []string {
	return lo.FilterMap(d.required, func(binding *spi.Binding, _ int) (string, bool) {
		return binding.Name, tracker&binding.Mask == 0
	})
}

func (d *objectDecoder) construct(ptr unsafe.Pointer, temp []reflect.Value, r *token.Reader) error {
	args := takeValues(r, d.ctorKey, len(d.params))
	defer putValues(r, d.ctorKey, args)
	for i, param := range d.params {
		if value := temp[param.Index]; value.IsValid() {
			args[i] = value
			continue
		}
		args[i] = reflect.Zero(param.ValueType)
	}
	instance, err := d.invokeFactory(args)
	if err != nil {
		return err
	}
	reflect.NewAt(d.rType, ptr).Elem().Set(instance)
	return nil
}

func (d *objectDecoder) invokeFactory(args []reflect.Value) (reflect.Value, error) {
	out := d.desc.Ctor.Factory.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, errors.Wrapf(out[1].Interface().(error), "failed to create %v", d.rType)
	}
	instance := out[0]
	if instance.Kind() == reflect.Ptr {
		if instance.IsNil() {
			return reflect.Value{}, errors.Newf("failed to create %v: factory returned nil", d.rType)
		}
		instance = instance.Elem()
	}
	return instance, nil
}

func (d *objectDecoder) applySetters(ptr unsafe.Pointer, temp []reflect.Value) error {
	receiver := reflect.NewAt(d.rType, ptr)
	for _, group := range d.setters {
		args := make([]reflect.Value, len(group.args)+1)
		args[0] = receiver
		for i, arg := range group.args {
			value := temp[arg.Index]
			if !value.IsValid() {
				value = reflect.Zero(arg.ValueType)
			}
			args[i+1] = value
		}
		out := group.method.Func.Call(args)
		if len(out) == 1 && !out[0].IsNil() {
			return errors.Wrapf(out[0].Interface().(error), "failed to call %v.%v", d.rType, group.name)
		}
	}
	return nil
}

func (d *objectDecoder) setExtra(ptr unsafe.Pointer, extras map[string]interface{}) {
	if extras == nil || d.desc.OnExtra == nil {
		return
	}
	fieldPtr := d.desc.OnExtra.Pointer(ptr)
	if d.desc.OnExtra.ValueType == anyType {
		*(*jsoniter.Any)(fieldPtr) = jsoniter.Wrap(extras)
		return
	}
	target := (*map[string]interface{})(fieldPtr)
	if *target == nil {
		*target = extras
		return
	}
	for k, v := range extras {
		(*target)[k] = v
	}
}

func (d *objectDecoder) mark(ptr unsafe.Pointer, binding *spi.Binding) {
	if binding.Presence == nil {
		return
	}
	holder := d.desc.PresenceHolder
	if holder.Type.Kind() != reflect.Ptr {
		binding.Presence.SetBool(holder.Pointer(ptr), true)
		return
	}
	holderPtr := holder.ValuePointer(ptr)
	if holderPtr == nil {
		holder.SetValue(ptr, reflect.New(holder.Type.Elem()).Interface())
		holderPtr = holder.ValuePointer(ptr)
	}
	binding.Presence.SetBool(holderPtr, true)
}

func (d *objectDecoder) newInstance() (unsafe.Pointer, error) {
	if !d.desc.Ctor.Factory.IsValid() || len(d.params) > 0 {
		return reflect.New(d.rType).UnsafePointer(), nil
	}
	instance, err := d.invokeFactory(nil)
	if err != nil {
		return nil, err
	}
	ret := reflect.New(d.rType)
	ret.Elem().Set(instance)
	return ret.UnsafePointer(), nil
}

// takeValues borrows a scratch buffer from the call context, all slots are NOT_SET
func takeValues(r *token.Reader, key string, size int) []reflect.Value {
	values, _ := r.Temp(key).([]reflect.Value)
	if cap(values) < size {
		values = make([]reflect.Value, size)
	} else {
		values = values[:size]
	}
	r.PutTemp(key, nil)
	return values
}

func putValues(r *token.Reader, key string, values []reflect.Value) {
	clear(values)
	r.PutTemp(key, values)
}
