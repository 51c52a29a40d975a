package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_ObjectTraversal(t *testing.T) {
	r := NewReader([]byte(` {"id": 1, "name":"a\"b", "tags":["x",{"k":null}], "ok":true} `))
	hasFields, err := r.ReadObjectStart()
	require.NoError(t, err)
	require.True(t, hasFields)

	var names []string
	for {
		name, err := r.ReadField()
		require.NoError(t, err)
		names = append(names, name)
		switch name {
		case "id":
			v, err := r.ReadInt64()
			require.NoError(t, err)
			assert.EqualValues(t, 1, v)
		case "name":
			v, err := r.ReadString()
			require.NoError(t, err)
			assert.Equal(t, `a"b`, v)
		default:
			require.NoError(t, r.Skip())
		}
		more, err := r.Next()
		require.NoError(t, err)
		if !more {
			break
		}
	}
	assert.Equal(t, []string{"id", "name", "tags", "ok"}, names)
	assert.NoError(t, r.End())
}

func TestReader_ReadAny(t *testing.T) {
	var testCases = []struct {
		description string
		input       string
		expect      interface{}
	}{
		{description: "object", input: `{"a":1,"b":[true,null,"x"]}`, expect: map[string]interface{}{"a": int64(1), "b": []interface{}{true, nil, "x"}}},
		{description: "float", input: `1.5`, expect: 1.5},
		{description: "unicode escape", input: `"\u00e9"`, expect: "é"},
		{description: "empty object", input: `{}`, expect: map[string]interface{}{}},
	}
	for _, testCase := range testCases {
		r := NewReader([]byte(testCase.input))
		actual, err := r.ReadAny()
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		assert.EqualValues(t, testCase.expect, actual, testCase.description)
	}
}

func TestReader_EmptyObjectAndNull(t *testing.T) {
	r := NewReader([]byte(`{ }`))
	hasFields, err := r.ReadObjectStart()
	require.NoError(t, err)
	assert.False(t, hasFields)

	r.Reset([]byte(` null`))
	assert.True(t, r.ReadNull())
	assert.NoError(t, r.End())

	r.Reset([]byte(`{"a":1`))
	_, err = r.ReadObjectStart()
	require.NoError(t, err)
	_, err = r.ReadField()
	require.NoError(t, err)
	require.NoError(t, r.Skip())
	_, err = r.Next()
	assert.Error(t, err)
}

func TestReader_RawAndTemp(t *testing.T) {
	r := AcquireReader([]byte(`{"a":[1,2]} `))
	defer ReleaseReader(r)
	raw, err := r.ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1,2]}`, string(raw))

	assert.Nil(t, r.Temp("k"))
	r.PutTemp("k", []int{1})
	assert.Equal(t, []int{1}, r.Temp("k"))
}

func TestWriter_Escaping(t *testing.T) {
	w := NewWriter(nil)
	w.WriteObjectStart()
	w.WriteObjectField("a")
	w.WriteString("x\"y\n\x01")
	w.WriteMore()
	w.WriteObjectField("b")
	w.WriteFloat64(1.25)
	w.WriteObjectEnd()
	assert.Equal(t, `{"a":"x\"y\n\u0001","b":1.25}`, string(w.Bytes()))

	r := NewReader(w.Bytes())
	v, err := r.ReadAny()
	require.NoError(t, err)
	assert.Equal(t, "x\"y\n\x01", v.(map[string]interface{})["a"])
}

type countingHooks struct {
	byteScanner
	skips int
}

func (c *countingHooks) SkipWhitespace(data []byte, pos int) int {
	c.skips++
	return c.byteScanner.SkipWhitespace(data, pos)
}

func TestReader_WithHooks(t *testing.T) {
	hooks := &countingHooks{}
	r := NewReader([]byte(`  "abc"`)).WithHooks(hooks)
	value, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "abc", value)
	assert.Equal(t, 7, r.Pos())
	assert.Greater(t, hooks.skips, 0)

	assert.Equal(t, r, r.WithHooks(nil), "nil hooks keep current")
}

func TestByteScanner_FindQuoteOrEscape(t *testing.T) {
	var testCases = []struct {
		description string
		data        string
		pos         int
		quote       int
		escape      int
	}{
		{description: "quote", data: `ab"c`, pos: 0, quote: 2, escape: -1},
		{description: "escape first", data: `a\"`, pos: 0, quote: -1, escape: 1},
		{description: "unterminated", data: `abc`, pos: 1, quote: -1, escape: -1},
		{description: "past end", data: `a`, pos: 1, quote: -1, escape: -1},
	}
	for _, testCase := range testCases {
		quote, escape := byteScanner{}.FindQuoteOrEscape([]byte(testCase.data), testCase.pos)
		assert.Equal(t, testCase.quote, quote, testCase.description)
		assert.Equal(t, testCase.escape, escape, testCase.description)
	}
}
