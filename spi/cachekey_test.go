package spi

import (
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

type keyedType struct{}

func TestCacheKey(t *testing.T) {
	var testCases = []struct {
		description string
		rType       reflect.Type
		expect      string
	}{
		{description: "named struct", rType: reflect.TypeOf(keyedType{}), expect: "encoder.github_com.viant.structbind.spi.keyedType"},
		{description: "builtin", rType: reflect.TypeOf(0), expect: "encoder.composite.int"},
		{description: "slice of pointers", rType: reflect.TypeOf([]*keyedType{}), expect: "encoder.composite.slice_ptr_github_com_viant_structbind_spi_keyedType"},
		{description: "map", rType: reflect.TypeOf(map[string]int{}), expect: "encoder.composite.map_string_int"},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, EncoderCacheKey(testCase.rType), testCase.description)
	}
	key := EncoderCacheKey(reflect.TypeOf(keyedType{}))
	assert.Equal(t, []string{"github_com", "viant", "structbind", "spi"}, KeyNamespace(key))
	assert.Equal(t, "keyedType", KeyName(key))
	assert.Equal(t, "decoder.github_com.viant.structbind.spi.keyedType", DecoderCacheKey(reflect.TypeOf(keyedType{})))
}

func TestPropertyError(t *testing.T) {
	err := NewMissingPropertiesError(reflect.TypeOf(keyedType{}), []string{"a", "b"})
	assert.True(t, errors.Is(err, ErrMissingProperties))
	assert.False(t, errors.Is(err, ErrUnknownProperty))
	assert.EqualError(t, err, "missing required properties: [a, b]")

	wrapped := errors.Wrap(NewUnknownPropertyError(nil, "x"), "decode")
	assert.True(t, errors.Is(wrapped, ErrUnknownProperty))

	assert.True(t, errors.Is(NewBuildError("no constructor for: %v", "T"), ErrBuild))
}

func TestParseEncodingMode(t *testing.T) {
	var testCases = []struct {
		input  string
		expect EncodingMode
		hasErr bool
	}{
		{input: "", expect: ReflectionMode},
		{input: "REFLECTION_MODE", expect: ReflectionMode},
		{input: "dynamic", expect: DynamicMode},
		{input: "STATIC_MODE", expect: StaticMode},
		{input: "bogus", hasErr: true},
	}
	for _, testCase := range testCases {
		actual, err := ParseEncodingMode(testCase.input)
		if testCase.hasErr {
			assert.Error(t, err, testCase.input)
			continue
		}
		assert.NoError(t, err, testCase.input)
		assert.Equal(t, testCase.expect, actual, testCase.input)
	}
}
