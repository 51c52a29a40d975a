package describe

import (
	"reflect"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
	"github.com/viant/structbind/internal/logging"
	"github.com/viant/structbind/internal/tagutil"
	"github.com/viant/structbind/spi"
	"github.com/viant/tagly/format/text"
	"github.com/viant/xunsafe"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var (
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
	anyType       = reflect.TypeOf((*jsoniter.Any)(nil)).Elem()
	extraMapType  = reflect.TypeOf(map[string]interface{}(nil))
	stringSliceTy = reflect.TypeOf([]string(nil))
)

// Provider supplies binding descriptions for struct types
type Provider interface {
	Describe(rType reflect.Type) (*spi.ClassDescriptor, error)
}

// Reflective builds descriptors from struct fields, tags and registered type options
type Reflective struct {
	mu             sync.RWMutex
	types          map[reflect.Type]*typeConfig
	descriptors    sync.Map // map[reflect.Type]*spi.ClassDescriptor
	caseFormat     text.CaseFormat
	unknownAsExtra bool
	builds         atomic.Int64
}

// New creates a reflective provider
func New(opts ...Option) *Reflective {
	ret := &Reflective{types: map[reflect.Type]*typeConfig{}}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Register registers type options; registration has to happen before the type is first described,
// codecs already built for the type keep their bindings
func (p *Reflective) Register(rType reflect.Type, opts ...TypeOption) {
	rType = ensureStruct(rType)
	if _, described := p.descriptors.Load(rType); described {
		logging.Logger().Warn("type registered after first use, built codecs keep previous bindings", zap.Stringer("type", rType))
	}
	p.mu.Lock()
	cfg, ok := p.types[rType]
	if !ok {
		cfg = &typeConfig{}
		p.types[rType] = cfg
	}
	for _, opt := range opts {
		opt(cfg)
	}
	p.mu.Unlock()
	p.descriptors.Delete(rType)
}

// Builds returns number of descriptor builds
func (p *Reflective) Builds() int64 { return p.builds.Load() }

// Describe returns type descriptor
func (p *Reflective) Describe(rType reflect.Type) (*spi.ClassDescriptor, error) {
	rType = ensureStruct(rType)
	if v, ok := p.descriptors.Load(rType); ok {
		return v.(*spi.ClassDescriptor), nil
	}
	desc, err := p.build(rType)
	if err != nil {
		return nil, err
	}
	actual, _ := p.descriptors.LoadOrStore(rType, desc)
	return actual.(*spi.ClassDescriptor), nil
}

func (p *Reflective) config(rType reflect.Type) *typeConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if cfg, ok := p.types[rType]; ok {
		return cfg
	}
	return &typeConfig{}
}

func (p *Reflective) build(rType reflect.Type) (*spi.ClassDescriptor, error) {
	switch rType.Kind() {
	case reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, spi.NewBuildError("no constructor for: %v", rType)
	case reflect.Struct:
	default:
		return nil, spi.NewBuildError("unsupported object type: %v", rType)
	}
	p.builds.Inc()
	cfg := p.config(rType)
	desc := &spi.ClassDescriptor{Type: rType, UnknownAsExtra: p.unknownAsExtra || cfg.unknownAsExtra}
	c := &collector{provider: p, desc: desc, depth: map[*spi.Binding]int{}, names: map[*spi.Binding]string{}}
	if err := c.collect(rType, nil, 0); err != nil {
		return nil, err
	}
	desc.Fields = c.shadow(desc.Fields)
	desc.Properties = c.shadow(desc.Properties)

	if cfg.factory.IsValid() {
		params, err := p.factoryParameters(rType, cfg)
		if err != nil {
			return nil, err
		}
		desc.Ctor = spi.CtorDescriptor{Factory: cfg.factory, Parameters: params}
	}
	for _, setter := range cfg.setters {
		descriptor, err := p.setterDescriptor(rType, setter)
		if err != nil {
			return nil, err
		}
		desc.Setters = append(desc.Setters, descriptor)
	}
	desc.Fields = c.bindParameters(desc)

	if desc.PresenceHolder != nil {
		for _, field := range desc.Fields {
			field.Presence = c.flags[c.names[field]]
		}
	}
	if err := markRequired(desc, cfg.required); err != nil {
		return nil, err
	}
	return desc, nil
}

func (p *Reflective) factoryParameters(rType reflect.Type, cfg *typeConfig) ([]*spi.Binding, error) {
	fnType := cfg.factory.Type()
	if fnType.Kind() != reflect.Func || fnType.IsVariadic() {
		return nil, spi.NewBuildError("no constructor for: %v, factory has to be a func", rType)
	}
	if fnType.NumIn() != len(cfg.factoryArgs) {
		return nil, spi.NewBuildError("no constructor for: %v, factory expects %v parameters, but had %v names", rType, fnType.NumIn(), len(cfg.factoryArgs))
	}
	if !isFactoryOutput(fnType, rType) {
		return nil, spi.NewBuildError("no constructor for: %v, factory has to return %v or *%v with optional error", rType, rType, rType)
	}
	var result = make([]*spi.Binding, 0, fnType.NumIn())
	for i, name := range cfg.factoryArgs {
		result = append(result, &spi.Binding{Name: name, FromNames: []string{name}, ValueType: fnType.In(i), CtorIndex: i})
	}
	return result, nil
}

func (p *Reflective) setterDescriptor(rType reflect.Type, setter setterConfig) (*spi.SetterDescriptor, error) {
	method, ok := reflect.PointerTo(rType).MethodByName(setter.method)
	if !ok {
		return nil, spi.NewBuildError("failed to lookup setter %v.%v", rType, setter.method)
	}
	methodType := method.Type
	if methodType.IsVariadic() || methodType.NumIn()-1 != len(setter.args) {
		return nil, spi.NewBuildError("setter %v.%v expects %v arguments, but had %v names", rType, setter.method, methodType.NumIn()-1, len(setter.args))
	}
	switch methodType.NumOut() {
	case 0:
	case 1:
		if methodType.Out(0) != errorType {
			return nil, spi.NewBuildError("setter %v.%v may only return error", rType, setter.method)
		}
	default:
		return nil, spi.NewBuildError("setter %v.%v may only return error", rType, setter.method)
	}
	ret := &spi.SetterDescriptor{Name: setter.method, Method: method}
	for i, name := range setter.args {
		ret.Parameters = append(ret.Parameters, &spi.Binding{
			Name:      name,
			FromNames: []string{name},
			ValueType: methodType.In(i + 1),
			Setter:    ret,
			ArgIndex:  i,
			CtorIndex: -1,
		})
	}
	return ret, nil
}

type collector struct {
	provider *Reflective
	desc     *spi.ClassDescriptor
	depth    map[*spi.Binding]int
	names    map[*spi.Binding]string
	flags    map[string]*xunsafe.Field
}

func (c *collector) collect(t reflect.Type, parent []*xunsafe.Field, depth int) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" && !(sf.Anonymous && sf.Type.Kind() == reflect.Struct) {
			continue
		}
		if sf.Tag.Get("setMarker") == "true" && depth == 0 {
			c.presence(sf)
			continue
		}
		resolved := tagutil.Resolve(sf)
		if resolved.Ignore {
			continue
		}
		xf := xunsafe.NewField(sf)
		chain := append(append([]*xunsafe.Field{}, parent...), xf)
		switch {
		case resolved.Binding.Extra:
			if sf.Type != extraMapType && sf.Type != anyType {
				return spi.NewBuildError("unsupported extra properties holder %v.%v: %v", c.desc.Type, sf.Name, sf.Type)
			}
			c.desc.OnExtra = &spi.Binding{Name: sf.Name, FromNames: []string{sf.Name}, ValueType: sf.Type, Path: chain, CtorIndex: -1}
			c.desc.UnknownAsExtra = true
			continue
		case resolved.Binding.Missing:
			if sf.Type != stringSliceTy {
				return spi.NewBuildError("unsupported missing properties holder %v.%v: %v", c.desc.Type, sf.Name, sf.Type)
			}
			c.desc.OnMissing = &spi.Binding{Name: sf.Name, FromNames: []string{sf.Name}, ValueType: sf.Type, Path: chain, CtorIndex: -1}
			continue
		}
		if resolved.Inline {
			inlineType := sf.Type
			if inlineType.Kind() == reflect.Ptr {
				inlineType = inlineType.Elem()
			}
			if inlineType.Kind() == reflect.Struct {
				if err := c.collect(inlineType, chain, depth+1); err != nil {
					return err
				}
				continue
			}
		}
		if sf.PkgPath != "" {
			continue
		}
		c.addField(sf, resolved, chain, depth)
	}
	return nil
}

func (c *collector) addField(sf reflect.StructField, resolved tagutil.Field, chain []*xunsafe.Field, depth int) {
	name := resolved.Name
	fromNames := []string{name}
	fromNames = append(fromNames, resolved.Binding.Aliases...)
	encodeName := name
	if alias := c.provider.formatName(name); alias != "" && !resolved.Explicit {
		fromNames = append(fromNames, alias)
		encodeName = alias
	}
	field := &spi.Binding{
		Name:       name,
		FromNames:  lo.Uniq(fromNames),
		ValueType:  sf.Type,
		Required:   resolved.Binding.Required,
		Forbidden:  resolved.Binding.Forbidden,
		OmitEmpty:  resolved.OmitEmpty,
		TimeLayout: resolved.TimeLayout,
		Path:       chain,
		CtorIndex:  -1,
	}
	property := &spi.Binding{
		Name:       encodeName,
		FromNames:  []string{encodeName},
		ValueType:  sf.Type,
		OmitEmpty:  resolved.OmitEmpty,
		TimeLayout: resolved.TimeLayout,
		Path:       chain,
		CtorIndex:  -1,
	}
	c.depth[field], c.depth[property] = depth, depth
	c.names[field], c.names[property] = sf.Name, sf.Name
	c.desc.Fields = append(c.desc.Fields, field)
	if !resolved.Binding.Forbidden {
		c.desc.Properties = append(c.desc.Properties, property)
	}
}

func (c *collector) presence(sf reflect.StructField) {
	holderType := sf.Type
	if holderType.Kind() == reflect.Ptr {
		holderType = holderType.Elem()
	}
	if holderType.Kind() != reflect.Struct {
		return
	}
	c.desc.PresenceHolder = xunsafe.NewField(sf)
	c.flags = map[string]*xunsafe.Field{}
	for j := 0; j < holderType.NumField(); j++ {
		mf := holderType.Field(j)
		if mf.Type.Kind() == reflect.Bool {
			c.flags[mf.Name] = xunsafe.NewField(mf)
		}
	}
}

// shadow removes embedded bindings hidden by a shallower binding with the same name
func (c *collector) shadow(bindings []*spi.Binding) []*spi.Binding {
	shallowest := map[string]int{}
	for _, binding := range bindings {
		if depth, ok := shallowest[binding.Name]; !ok || c.depth[binding] < depth {
			shallowest[binding.Name] = c.depth[binding]
		}
	}
	return lo.Filter(bindings, func(binding *spi.Binding, _ int) bool {
		return c.depth[binding] == shallowest[binding.Name]
	})
}

// bindParameters moves field naming and flags onto factory and setter parameters named after any field alias, returns remaining fields
func (c *collector) bindParameters(desc *spi.ClassDescriptor) []*spi.Binding {
	params := append([]*spi.Binding{}, desc.Ctor.Parameters...)
	for _, setter := range desc.Setters {
		params = append(params, setter.Parameters...)
	}
	if len(params) == 0 {
		return desc.Fields
	}
	byName := lo.KeyBy(params, func(param *spi.Binding) string { return param.Name })
	return lo.Filter(desc.Fields, func(field *spi.Binding, _ int) bool {
		var param *spi.Binding
		for _, name := range field.FromNames {
			if param = byName[name]; param != nil {
				break
			}
		}
		if param == nil {
			return true
		}
		param.FromNames = lo.Uniq(append(param.FromNames, field.FromNames...))
		param.Required = param.Required || field.Required
		param.Forbidden = param.Forbidden || field.Forbidden
		param.TimeLayout = field.TimeLayout
		return false
	})
}

func markRequired(desc *spi.ClassDescriptor, names []string) error {
	if len(names) == 0 {
		return nil
	}
	byName := lo.KeyBy(desc.Bindings(), func(binding *spi.Binding) string { return binding.Name })
	for _, name := range names {
		binding, ok := byName[name]
		if !ok {
			return spi.NewBuildError("failed to mark required property %v: not found in %v", name, desc.Type)
		}
		binding.Required = true
	}
	return nil
}

func (p *Reflective) formatName(name string) string {
	if !p.caseFormat.IsDefined() {
		return ""
	}
	if name == "ID" {
		switch p.caseFormat {
		case text.CaseFormatLower, text.CaseFormatLowerCamel, text.CaseFormatLowerUnderscore:
			return "id"
		}
	}
	src := text.DetectCaseFormat(name)
	if !src.IsDefined() {
		src = text.CaseFormatUpperCamel
	}
	if formatted := src.Format(name, p.caseFormat); formatted != name {
		return formatted
	}
	return ""
}

func isFactoryOutput(fnType, rType reflect.Type) bool {
	switch fnType.NumOut() {
	case 2:
		if fnType.Out(1) != errorType {
			return false
		}
	case 1:
	default:
		return false
	}
	out := fnType.Out(0)
	return out == rType || (out.Kind() == reflect.Ptr && out.Elem() == rType)
}

func ensureStruct(rType reflect.Type) reflect.Type {
	for rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return rType
}

