package spi

import (
	"reflect"
	"unsafe"

	"github.com/viant/xunsafe"
)

type (
	//Binding represents one bindable property of a type
	Binding struct {
		Name      string
		FromNames []string
		ValueType reflect.Type
		Decoder   Decoder
		Encoder   Encoder
		Required  bool
		Forbidden bool
		OmitEmpty bool
		//TimeLayout overrides time.Time layout for the bound value
		TimeLayout string

		//Index is a dense slot index assigned by the binding table
		Index int
		//Mask is a required tracker bit, zero when binding is optional
		Mask uint64

		//Path holds the field chain for field bindings, the last element is the bound field
		Path []*xunsafe.Field
		//Setter owns the binding when it is a setter group argument at ArgIndex
		Setter   *SetterDescriptor
		ArgIndex int
		//CtorIndex is the factory parameter position, -1 for non constructor bindings
		CtorIndex int
		//Presence is a marker flag set once the binding was decoded
		Presence *xunsafe.Field
	}

	//CtorDescriptor describes how instances are created
	CtorDescriptor struct {
		Parameters []*Binding
		//Factory is a func returning T or *T with an optional trailing error; zero Value means zero-value allocation
		Factory reflect.Value
	}

	//SetterDescriptor represents a multi-argument setter method
	SetterDescriptor struct {
		Name       string
		Method     reflect.Method
		Parameters []*Binding
	}

	//ClassDescriptor represents a per type binding description
	ClassDescriptor struct {
		Type           reflect.Type
		Ctor           CtorDescriptor
		Fields         []*Binding
		Setters        []*SetterDescriptor
		Properties     []*Binding
		OnMissing      *Binding
		OnExtra        *Binding
		UnknownAsExtra bool
		//PresenceHolder is a struct field holding presence marker flags
		PresenceHolder *xunsafe.Field
	}
)

// IsField returns true if binding points to a directly settable field
func (b *Binding) IsField() bool { return len(b.Path) > 0 }

// Field returns the bound leaf field
func (b *Binding) Field() *xunsafe.Field {
	if len(b.Path) == 0 {
		return nil
	}
	return b.Path[len(b.Path)-1]
}

// DecoderCacheKey returns registry key for the binding value type
func (b *Binding) DecoderCacheKey() string { return DecoderCacheKey(b.ValueType) }

// EncoderCacheKey returns registry key for the binding value type
func (b *Binding) EncoderCacheKey() string { return EncoderCacheKey(b.ValueType) }

// Pointer returns the field pointer, allocating nil embedded pointers on the way
func (b *Binding) Pointer(holder unsafe.Pointer) unsafe.Pointer {
	current := holder
	for i, f := range b.Path {
		ptr := f.Pointer(current)
		if i == len(b.Path)-1 {
			return ptr
		}
		if f.Type.Kind() == reflect.Ptr {
			next := (*unsafe.Pointer)(ptr)
			if *next == nil {
				*next = reflect.New(f.Type.Elem()).UnsafePointer()
			}
			current = *next
			continue
		}
		current = ptr
	}
	return current
}

// Lookup returns the field pointer or nil when an embedded pointer on the way is nil
func (b *Binding) Lookup(holder unsafe.Pointer) unsafe.Pointer {
	current := holder
	for i, f := range b.Path {
		ptr := f.Pointer(current)
		if i == len(b.Path)-1 {
			return ptr
		}
		if f.Type.Kind() == reflect.Ptr {
			next := *(*unsafe.Pointer)(ptr)
			if next == nil {
				return nil
			}
			current = next
			continue
		}
		current = ptr
	}
	return current
}

// HasParameters returns true when instances are created from decoded arguments
func (c *ClassDescriptor) HasParameters() bool { return len(c.Ctor.Parameters) > 0 }

// Bindings returns all bindings in table build order: ctor parameters, fields, setter arguments
func (c *ClassDescriptor) Bindings() []*Binding {
	var result = make([]*Binding, 0, len(c.Ctor.Parameters)+len(c.Fields))
	result = append(result, c.Ctor.Parameters...)
	result = append(result, c.Fields...)
	for _, setter := range c.Setters {
		result = append(result, setter.Parameters...)
	}
	return result
}
