package codegen

import (
	"bytes"
	"go/format"
	"go/token"
	"reflect"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/viant/structbind/describe"
	"github.com/viant/structbind/internal/logging"
	"github.com/viant/structbind/internal/lru"
	"github.com/viant/structbind/internal/prim"
	"github.com/viant/structbind/spi"
	"go.uber.org/zap"
)

const unitTemplate = `// Code generated by structbind. DO NOT EDIT.

package {{.Package}}

import (
	"reflect"

	"github.com/viant/structbind/codegen"
)

func init() {
	codegen.RegisterGenerated(&codegen.Program{
		Key:   {{printf "%q" .Program.Key}},
		Type:  {{printf "%q" .Program.Type}},
		Shape: codegen.{{.Program.Shape.Ident}},
		Size:  {{.Program.Size}},
		Kind:  {{kind .Program.Kind}},
{{- if .Program.KeyKind}}
		KeyKind: {{kind .Program.KeyKind}},
{{- end}}
{{- if .Program.ElemKind}}
		ElemKind: {{kind .Program.ElemKind}},
{{- end}}
{{- if .Program.Len}}
		Len: {{.Program.Len}},
{{- end}}
{{- if .Program.Fields}}
		Fields: []codegen.FieldOp{
{{- range .Program.Fields}}
			{Name: {{printf "%q" .Name}}, Index: {{fieldIndex .Index}}, Kind: {{kind .Kind}}{{if .OmitEmpty}}, OmitEmpty: true{{end}}{{if .TimeLayout}}, TimeLayout: {{printf "%q" .TimeLayout}}{{end}}},
{{- end}}
		},
{{- end}}
	})
}
`

var unitFuncs = template.FuncMap{
	"kind":       kindIdent,
	"fieldIndex": indexLiteral,
}

var parsedUnit = template.Must(template.New("unit").Funcs(unitFuncs).Parse(unitTemplate))

type (
	// Generator synthesizes, compiles and persists generated encoder units
	Generator struct {
		provider describe.Provider
		sources  *lru.Cache[string, []byte]
		fs       afero.Fs
	}

	//GeneratorOption represents generator option
	GeneratorOption func(g *Generator)
)

// WithSourceCacheSize sets number of rendered sources kept for diagnostics
func WithSourceCacheSize(size int) GeneratorOption {
	return func(g *Generator) {
		g.sources = lru.New[string, []byte](size)
	}
}

// NewGenerator creates a generator
func NewGenerator(provider describe.Provider, opts ...GeneratorOption) *Generator {
	ret := &Generator{provider: provider}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.sources == nil {
		ret.sources = lru.New[string, []byte](128)
	}
	if ret.fs == nil {
		ret.fs = afero.NewOsFs()
	}
	return ret
}

// Source returns recently rendered source for supplied key
func (g *Generator) Source(key string) ([]byte, bool) {
	return g.sources.Get(key)
}

// Synthesize builds a program and renders its source unit
func (g *Generator) Synthesize(key string, rType reflect.Type) (*Unit, error) {
	program, err := g.program(key, rType)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to synthesize %v", rType), spi.ErrGeneration)
	}
	unit := &Unit{Key: key, Type: rType, Program: program, Package: packageName(key), Name: strings.ToLower(spi.KeyName(key))}
	buffer := bytes.Buffer{}
	if err = parsedUnit.Execute(&buffer, unit); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to render %v", key), spi.ErrGeneration)
	}
	source, err := format.Source(buffer.Bytes())
	if err != nil {
		err = errors.WithDetail(err, buffer.String())
		return nil, errors.Mark(errors.Wrapf(err, "failed to format %v", key), spi.ErrGeneration)
	}
	unit.Source = source
	g.sources.Set(key, source)
	logging.Logger().Debug("synthesized encoder unit", zap.String("key", key), zap.Stringer("shape", program.Shape))
	return unit, nil
}

func (g *Generator) program(key string, rType reflect.Type) (*Program, error) {
	program := &Program{Key: key, Type: typeName(rType), Size: rType.Size(), Kind: rType.Kind()}
	switch {
	case prim.IsEnum(rType):
		program.Shape = EnumShape
	case rType.Kind() == reflect.Struct:
		program.Shape = ObjectShape
		desc, err := g.provider.Describe(rType)
		if err != nil {
			return nil, err
		}
		for _, property := range desc.Properties {
			index, err := indexPath(rType, property)
			if err != nil {
				return nil, err
			}
			program.Fields = append(program.Fields, FieldOp{
				Name:       property.Name,
				Index:      index,
				Kind:       property.ValueType.Kind(),
				OmitEmpty:  property.OmitEmpty,
				TimeLayout: property.TimeLayout,
			})
		}
	case rType.Kind() == reflect.Slice && rType.Elem().Kind() != reflect.Uint8:
		program.Shape = CollectionShape
		program.ElemKind = rType.Elem().Kind()
	case rType.Kind() == reflect.Array:
		program.Shape = ArrayShape
		program.ElemKind = rType.Elem().Kind()
		program.Len = rType.Len()
	case rType.Kind() == reflect.Map && prim.IsMapKey(rType.Key().Kind()):
		program.Shape = MapShape
		program.KeyKind = rType.Key().Kind()
		program.ElemKind = rType.Elem().Kind()
	default:
		return nil, errors.Newf("unsupported generated shape: %v", rType)
	}
	return program, nil
}

// indexPath converts property field chain into reflect field index path
func indexPath(rType reflect.Type, property *spi.Binding) ([]int, error) {
	var result []int
	parent := rType
	for _, field := range property.Path {
		if parent.Kind() == reflect.Ptr {
			parent = parent.Elem()
		}
		sf, ok := parent.FieldByName(field.Name)
		if !ok || len(sf.Index) != 1 {
			return nil, errors.Newf("failed to locate field %v in %v", field.Name, parent)
		}
		result = append(result, sf.Index[0])
		parent = sf.Type
	}
	return result, nil
}

func typeName(rType reflect.Type) string {
	if rType.PkgPath() != "" && rType.Name() != "" {
		return rType.PkgPath() + "." + rType.Name()
	}
	return rType.String()
}

func packageName(key string) string {
	namespace := spi.KeyNamespace(key)
	if len(namespace) == 0 {
		return "generated"
	}
	name := strings.ToLower(namespace[len(namespace)-1])
	if name == "" || token.IsKeyword(name) || unicode.IsDigit(rune(name[0])) {
		name = "pkg_" + name
	}
	return name
}

func kindIdent(kind reflect.Kind) string {
	if kind == reflect.UnsafePointer {
		return "reflect.UnsafePointer"
	}
	name := kind.String()
	return "reflect." + strings.ToUpper(name[:1]) + name[1:]
}

func indexLiteral(index []int) string {
	builder := strings.Builder{}
	builder.WriteString("[]int{")
	for i, v := range index {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(strconv.Itoa(v))
	}
	builder.WriteString("}")
	return builder.String()
}
