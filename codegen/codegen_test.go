package codegen

import (
	"bytes"
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/structbind/describe"
	"github.com/viant/structbind/spi"
	"github.com/viant/structbind/token"
)

type (
	Level int

	Meta struct {
		Source string `json:"source"`
	}

	Item struct {
		ID      int            `json:"id"`
		Name    string         `json:"name,omitempty"`
		Tags    []string       `json:"tags"`
		Level   Level          `json:"level"`
		Created time.Time      `json:"created" format:"timeLayout=2006-01-02"`
		Attrs   map[string]int `json:"attrs,omitempty"`
		Pair    [2]int         `json:"pair"`
		Labels  map[int]string `json:"labels,omitempty"`
		Ignored chan int       `json:"-"`
		*Meta
	}
)

func (l Level) String() string {
	if l == 1 {
		return "high"
	}
	return "low"
}

func resolver(g *Generator) Resolver {
	var resolve Resolver
	resolve = func(key string, rType reflect.Type) (spi.Encoder, error) {
		unit, err := g.Synthesize(key, rType)
		if err != nil {
			return nil, err
		}
		return g.CompileAndLoad(key, unit, resolve)
	}
	return resolve
}

func encode(t *testing.T, encoder spi.Encoder, value interface{}) string {
	w := token.NewWriter(nil)
	require.NoError(t, encoder.Encode(reflect.ValueOf(value).UnsafePointer(), w))
	return string(w.Bytes())
}

func TestGenerator_CompileAndLoad(t *testing.T) {
	generator := NewGenerator(describe.New())
	created := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	var testCases = []struct {
		description string
		value       interface{}
		expect      string
	}{
		{
			description: "object with nested shapes",
			value:       &Item{ID: 1, Name: "a", Tags: []string{"x"}, Level: 1, Created: created, Attrs: map[string]int{"b": 2, "a": 1}, Pair: [2]int{3, 4}, Meta: &Meta{Source: "s"}},
			expect:      `{"id":1,"name":"a","tags":["x"],"level":"high","created":"2024-03-05","attrs":{"a":1,"b":2},"pair":[3,4],"source":"s"}`,
		},
		{
			description: "omit empty and nil embedded pointer",
			value:       &Item{ID: 2, Created: created},
			expect:      `{"id":2,"tags":null,"level":"low","created":"2024-03-05","pair":[0,0]}`,
		},
		{
			description: "int map keys sorted as strings",
			value:       &Item{Created: created, Labels: map[int]string{10: "j", 2: "b"}},
			expect:      `{"id":0,"tags":null,"level":"low","created":"2024-03-05","pair":[0,0],"labels":{"10":"j","2":"b"}}`,
		},
		{
			description: "collection of objects",
			value:       &[]Meta{{Source: "a"}, {Source: "b"}},
			expect:      `[{"source":"a"},{"source":"b"}]`,
		},
	}

	for _, testCase := range testCases {
		rType := reflect.TypeOf(testCase.value).Elem()
		key := spi.EncoderCacheKey(rType)
		unit, err := generator.Synthesize(key, rType)
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		encoder, err := generator.CompileAndLoad(key, unit, resolver(generator))
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		assert.Equal(t, testCase.expect, encode(t, encoder, testCase.value), testCase.description)
	}
}

func TestGenerator_Synthesize(t *testing.T) {
	generator := NewGenerator(describe.New())
	rType := reflect.TypeOf(Meta{})
	key := spi.EncoderCacheKey(rType)
	unit, err := generator.Synthesize(key, rType)
	require.NoError(t, err)
	assert.Equal(t, "codegen", unit.Package)
	assert.Equal(t, "meta", unit.Name)
	source := string(unit.Source)
	assert.Contains(t, source, "package codegen")
	assert.Contains(t, source, "codegen.RegisterGenerated(&codegen.Program{")
	assert.Contains(t, source, `{Name: "source", Index: []int{0}, Kind: reflect.String}`)
	assert.Contains(t, source, "codegen.ObjectShape")
	cached, ok := generator.Source(key)
	assert.True(t, ok)
	assert.Equal(t, unit.Source, cached)

	_, err = generator.Synthesize("encoder.x.Func", reflect.TypeOf(func() {}))
	assert.True(t, errors.Is(err, spi.ErrGeneration))
}

func TestGenerator_StaleUnit(t *testing.T) {
	generator := NewGenerator(describe.New())
	rType := reflect.TypeOf(Meta{})
	var testCases = []struct {
		description string
		program     *Program
	}{
		{
			description: "size mismatch",
			program:     &Program{Key: "k", Type: "Meta", Shape: ObjectShape, Kind: reflect.Struct, Size: rType.Size() + 8},
		},
		{
			description: "field kind mismatch",
			program: &Program{Key: "k", Type: "Meta", Shape: ObjectShape, Kind: reflect.Struct, Size: rType.Size(),
				Fields: []FieldOp{{Name: "source", Index: []int{0}, Kind: reflect.Int}}},
		},
		{
			description: "field index out of range",
			program: &Program{Key: "k", Type: "Meta", Shape: ObjectShape, Kind: reflect.Struct, Size: rType.Size(),
				Fields: []FieldOp{{Name: "source", Index: []int{3}, Kind: reflect.String}}},
		},
	}
	for _, testCase := range testCases {
		_, err := generator.CompileAndLoad("k", NewUnit(testCase.program, rType), resolver(generator))
		assert.True(t, errors.Is(err, spi.ErrGeneration), testCase.description)
	}
}

func TestRegisterGenerated(t *testing.T) {
	program := &Program{Key: "encoder.codegen.test.Registered", Type: "Meta", Shape: ObjectShape}
	RegisterGenerated(program)
	actual, ok := Lookup(program.Key)
	assert.True(t, ok)
	assert.Same(t, program, actual)
	_, ok = Lookup("encoder.codegen.test.Unknown")
	assert.False(t, ok)
}

func TestGenerator_Generate(t *testing.T) {
	fs := afero.NewMemMapFs()
	generator := NewGenerator(describe.New(), WithFs(fs))
	locations, err := generator.Generate(context.Background(), "out", reflect.TypeOf(Meta{}), reflect.TypeOf([]Meta{}))
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, "out/github_com/viant/structbind/codegen/meta.go", locations[0])
	data, err := afero.ReadFile(fs, locations[0])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("// Code generated by structbind. DO NOT EDIT.")))
	assert.Contains(t, locations[1], "out/composite/")

	_, err = generator.Generate(context.Background(), "out", reflect.TypeOf(make(chan int)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chan int")
}

func TestNewCommand(t *testing.T) {
	fs := afero.NewMemMapFs()
	cmd := NewCommand(NewGenerator(describe.New(), WithFs(fs)), reflect.TypeOf(Meta{}))
	assert.Equal(t, "generate", cmd.Use)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"-o", "gen"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "gen/github_com/viant/structbind/codegen/meta.go")

	cmd = NewCommand(NewGenerator(describe.New(), WithFs(fs)))
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
}
