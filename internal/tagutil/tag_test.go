package tagutil

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	type embedded struct{ X int }
	type sample struct {
		ID      int                    `json:"id" jsonx:"required,alias=Id|ident"`
		Name    string                 `format:"caseFormat=lowerUnderscore"`
		Secret  string                 `json:"-"`
		Legacy  string                 `jsonx:"forbidden"`
		Extra   map[string]interface{} `jsonx:"extra"`
		Missing []string               `jsonx:"missing"`
		Nick    string                 `json:",omitempty"`
		Dash    string                 `json:"-,"`
		Day     string                 `format:"dateFormat=YYYY-MM-DD"`
		embedded
	}
	rType := reflect.TypeOf(sample{})

	id := Resolve(rType.Field(0))
	assert.Equal(t, "id", id.Name)
	assert.True(t, id.Explicit)
	assert.True(t, id.Binding.Required)
	assert.Equal(t, []string{"Id", "ident"}, id.Binding.Aliases)

	assert.True(t, Resolve(rType.Field(2)).Ignore)
	assert.True(t, Resolve(rType.Field(3)).Binding.Forbidden)
	assert.True(t, Resolve(rType.Field(4)).Binding.Extra)
	assert.True(t, Resolve(rType.Field(5)).Binding.Missing)

	nick := Resolve(rType.Field(6))
	assert.Equal(t, "Nick", nick.Name)
	assert.False(t, nick.Explicit)
	assert.True(t, nick.OmitEmpty)

	dash := Resolve(rType.Field(7))
	assert.False(t, dash.Ignore)
	assert.Equal(t, "-", dash.Name)

	assert.Equal(t, "2006-01-02", Resolve(rType.Field(8)).TimeLayout)
	assert.True(t, Resolve(rType.Field(9)).Inline)
}

func TestParseBindingTag(t *testing.T) {
	var testCases = []struct {
		description string
		raw         string
		expect      BindingTag
	}{
		{description: "empty", raw: "", expect: BindingTag{}},
		{description: "flags", raw: "inline, required", expect: BindingTag{Inline: true, Required: true}},
		{description: "aliases", raw: "alias= a | |b", expect: BindingTag{Aliases: []string{"a", "b"}}},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, ParseBindingTag(testCase.raw), testCase.description)
	}
}
