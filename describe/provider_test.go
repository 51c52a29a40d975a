package describe

import (
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/structbind/internal/logging"
	"github.com/viant/structbind/spi"
	"github.com/viant/tagly/format/text"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type (
	Audit struct {
		Created string
		ID      int `json:"auditId"`
	}

	Account struct {
		ID      int                    `jsonx:"required"`
		Name    string                 `jsonx:"alias=title|label"`
		Secret  string                 `json:"-"`
		Legacy  string                 `jsonx:"forbidden"`
		Extra   map[string]interface{} `jsonx:"extra"`
		Missing []string               `jsonx:"missing"`
		Has     *AccountHas            `setMarker:"true"`
		*Audit
	}

	AccountHas struct {
		ID   bool
		Name bool
	}

	Point struct {
		X, Y  int
		Label string
		sum   int
	}
)

func newPoint(x, y int) (*Point, error) { return &Point{X: x, Y: y, sum: x + y}, nil }

func (p *Point) SetLabel(prefix, suffix string) { p.Label = prefix + suffix }

func TestReflective_Describe(t *testing.T) {
	provider := New()
	desc, err := provider.Describe(reflect.TypeOf(&Account{}))
	require.NoError(t, err)

	names := map[string]*spi.Binding{}
	for _, field := range desc.Fields {
		names[field.Name] = field
	}
	assert.Contains(t, names, "ID")
	assert.Contains(t, names, "Created")
	assert.Contains(t, names, "auditId")
	assert.NotContains(t, names, "Secret")
	assert.True(t, names["ID"].Required)
	assert.True(t, names["Legacy"].Forbidden)
	assert.Equal(t, []string{"Name", "title", "label"}, names["Name"].FromNames)
	assert.Len(t, names["Created"].Path, 2)
	assert.Equal(t, -1, names["ID"].CtorIndex)

	require.NotNil(t, desc.OnExtra)
	require.NotNil(t, desc.OnMissing)
	assert.True(t, desc.UnknownAsExtra)
	require.NotNil(t, desc.PresenceHolder)
	assert.NotNil(t, names["ID"].Presence)
	assert.Nil(t, names["Legacy"].Presence)
	assert.False(t, desc.HasParameters())

	again, err := provider.Describe(reflect.TypeOf(Account{}))
	require.NoError(t, err)
	assert.Same(t, desc, again)
	assert.EqualValues(t, 1, provider.Builds())
}

func TestReflective_Shadowing(t *testing.T) {
	type Base struct {
		ID   int
		Kind string
	}
	type Derived struct {
		Base
		ID string
	}
	desc, err := New().Describe(reflect.TypeOf(Derived{}))
	require.NoError(t, err)
	var ids []*spi.Binding
	for _, field := range desc.Fields {
		if field.Name == "ID" {
			ids = append(ids, field)
		}
	}
	require.Len(t, ids, 1)
	assert.Equal(t, reflect.TypeOf(""), ids[0].ValueType)
	assert.Len(t, desc.Fields, 2)
}

func TestReflective_Registration(t *testing.T) {
	provider := New()
	provider.Register(reflect.TypeOf(Point{}),
		WithFactory(newPoint, "X", "Y"),
		WithSetter("SetLabel", "prefix", "suffix"),
		WithRequired("X", "prefix"),
	)
	desc, err := provider.Describe(reflect.TypeOf(Point{}))
	require.NoError(t, err)

	require.True(t, desc.HasParameters())
	require.Len(t, desc.Ctor.Parameters, 2)
	assert.Equal(t, 1, desc.Ctor.Parameters[1].CtorIndex)
	assert.True(t, desc.Ctor.Parameters[0].Required)
	require.Len(t, desc.Fields, 1)
	assert.Equal(t, "Label", desc.Fields[0].Name)
	require.Len(t, desc.Setters, 1)
	assert.Equal(t, 1, desc.Setters[0].Parameters[1].ArgIndex)
	assert.True(t, desc.Setters[0].Parameters[0].Required)
	assert.Len(t, desc.Bindings(), 5)
	assert.Len(t, desc.Properties, 3)
}

func TestReflective_Errors(t *testing.T) {
	type BadExtra struct {
		Extra []int `jsonx:"extra"`
	}
	var testCases = []struct {
		description string
		rType       reflect.Type
		options     []TypeOption
		expect      string
	}{
		{description: "interface", rType: reflect.TypeOf((*error)(nil)).Elem(), expect: "no constructor for: error"},
		{description: "factory arity", rType: reflect.TypeOf(Point{}), options: []TypeOption{WithFactory(newPoint, "X")}, expect: "factory expects 2 parameters"},
		{description: "factory output", rType: reflect.TypeOf(Point{}), options: []TypeOption{WithFactory(func() int { return 0 })}, expect: "no constructor for"},
		{description: "setter lookup", rType: reflect.TypeOf(Point{}), options: []TypeOption{WithSetter("SetNothing", "a")}, expect: "failed to lookup setter"},
		{description: "unknown required", rType: reflect.TypeOf(Point{}), options: []TypeOption{WithRequired("Z")}, expect: "failed to mark required property Z"},
		{description: "extra holder", rType: reflect.TypeOf(BadExtra{}), expect: "unsupported extra properties holder"},
	}
	for _, testCase := range testCases {
		provider := New()
		if len(testCase.options) > 0 {
			provider.Register(testCase.rType, testCase.options...)
		}
		_, err := provider.Describe(testCase.rType)
		require.Error(t, err, testCase.description)
		assert.Contains(t, err.Error(), testCase.expect, testCase.description)
		assert.True(t, errors.Is(err, spi.ErrBuild), testCase.description)
	}
}

func TestReflective_CaseFormat(t *testing.T) {
	type Item struct {
		UserName string
		ID       int
		Code     string `json:"code_value"`
	}
	desc, err := New(WithCaseFormat(text.CaseFormatLowerUnderscore)).Describe(reflect.TypeOf(Item{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"UserName", "user_name"}, desc.Fields[0].FromNames)
	assert.Equal(t, []string{"ID", "id"}, desc.Fields[1].FromNames)
	assert.Equal(t, []string{"code_value"}, desc.Fields[2].FromNames)
	assert.Equal(t, "user_name", desc.Properties[0].Name)
}

func TestWithStrictUnknown(t *testing.T) {
	desc, err := New(WithStrictUnknown()).Describe(reflect.TypeOf(Point{}))
	require.NoError(t, err)
	assert.True(t, desc.UnknownAsExtra)
	assert.Nil(t, desc.OnExtra)
}

func TestWithUnknownAsExtra(t *testing.T) {
	provider := New()
	provider.Register(reflect.TypeOf(Point{}), WithUnknownAsExtra())
	desc, err := provider.Describe(reflect.TypeOf(Point{}))
	require.NoError(t, err)
	assert.True(t, desc.UnknownAsExtra)

	desc, err = provider.Describe(reflect.TypeOf(Audit{}))
	require.NoError(t, err)
	assert.False(t, desc.UnknownAsExtra, "policy is per type")
}

func TestReflective_FactoryParameterAlias(t *testing.T) {
	provider := New(WithCaseFormat(text.CaseFormatLowerCamel))
	provider.Register(reflect.TypeOf(Point{}), WithFactory(newPoint, "x", "y"))
	desc, err := provider.Describe(reflect.TypeOf(Point{}))
	require.NoError(t, err)
	require.Len(t, desc.Fields, 1)
	assert.Equal(t, "Label", desc.Fields[0].Name)
	require.Len(t, desc.Ctor.Parameters, 2)
	assert.Equal(t, "x", desc.Ctor.Parameters[0].Name)
	assert.Contains(t, desc.Ctor.Parameters[0].FromNames, "X")
	assert.Contains(t, desc.Ctor.Parameters[1].FromNames, "Y")
}

func TestReflective_RegisterAfterUse(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	previous := logging.Logger()
	logging.SetLogger(zap.New(core))
	defer logging.SetLogger(previous)

	provider := New()
	provider.Register(reflect.TypeOf(Point{}), WithRequired("X"))
	assert.Equal(t, 0, logs.Len(), "registration before use")

	_, err := provider.Describe(reflect.TypeOf(Point{}))
	require.NoError(t, err)
	provider.Register(reflect.TypeOf(Point{}), WithRequired("Y"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "describe.Point", logs.All()[0].ContextMap()["type"])
}
