package describe

import (
	"reflect"

	"github.com/viant/tagly/format/text"
)

type (
	//Option represents provider option
	Option func(p *Reflective)

	//TypeOption represents per type registration option
	TypeOption func(c *typeConfig)

	typeConfig struct {
		factory        reflect.Value
		factoryArgs    []string
		setters        []setterConfig
		required       []string
		unknownAsExtra bool
	}

	setterConfig struct {
		method string
		args   []string
	}
)

// WithCaseFormat adds case formatted aliases for fields without explicit names
func WithCaseFormat(caseFormat text.CaseFormat) Option {
	return func(p *Reflective) {
		p.caseFormat = caseFormat
	}
}

// WithStrictUnknown treats unknown properties as extras for every type; without a handler they fail decoding
func WithStrictUnknown() Option {
	return func(p *Reflective) {
		p.unknownAsExtra = true
	}
}

// WithFactory registers a factory func, e.g. func(a int, b string) (*T, error), and its parameter property names
func WithFactory(fn interface{}, paramNames ...string) TypeOption {
	return func(c *typeConfig) {
		c.factory = reflect.ValueOf(fn)
		c.factoryArgs = paramNames
	}
}

// WithSetter registers a multi-argument setter method on *T and its argument property names
func WithSetter(method string, argNames ...string) TypeOption {
	return func(c *typeConfig) {
		c.setters = append(c.setters, setterConfig{method: method, args: argNames})
	}
}

// WithRequired marks properties as required
func WithRequired(names ...string) TypeOption {
	return func(c *typeConfig) {
		c.required = append(c.required, names...)
	}
}

// WithUnknownAsExtra captures unknown properties as extras for the type
func WithUnknownAsExtra() TypeOption {
	return func(c *typeConfig) {
		c.unknownAsExtra = true
	}
}
