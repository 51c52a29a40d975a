package structbind

import (
	"reflect"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/structbind/describe"
	"github.com/viant/structbind/spi"
	"github.com/viant/tagly/format/text"
)

type (
	Order struct {
		ID       int      `json:"id" jsonx:"required"`
		Customer string   `json:"customer" jsonx:"required"`
		Lines    []*Line  `json:"lines" jsonx:"required"`
		Tags     []string `json:"tags" jsonx:"required"`
	}

	Line struct {
		SKU      string  `json:"sku" jsonx:"required"`
		Quantity int     `json:"quantity" jsonx:"required"`
		Price    float64 `json:"price" jsonx:"required"`
	}

	Money struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Note     string `json:"note,omitempty"`
	}

	Profile struct {
		FirstName string
		LastName  string
	}
)

func newMoney(amount int64, currency string) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency is required")
	}
	return Money{Amount: amount, Currency: currency}, nil
}

func resetMode() {
	modeOnce = sync.Once{}
	processMode.Store(0)
}

func TestConfig_RoundTrip(t *testing.T) {
	var testCases = []struct {
		description string
		mode        spi.EncodingMode
	}{
		{description: "reflection", mode: spi.ReflectionMode},
		{description: "dynamic", mode: spi.DynamicMode},
	}
	input := `{"id":1,"customer":"acme","lines":[{"sku":"a-1","quantity":2,"price":1.5}],"tags":["x","y"]}`
	for _, testCase := range testCases {
		config := New(WithMode(testCase.mode))
		order := &Order{}
		require.NoError(t, config.Unmarshal([]byte(input), order), testCase.description)
		data, err := config.Marshal(order)
		require.NoError(t, err, testCase.description)
		assert.JSONEq(t, input, string(data), testCase.description)

		err = config.Unmarshal([]byte(`{"id":1,"customer":"acme","tags":[]}`), &Order{})
		assert.True(t, errors.Is(err, spi.ErrMissingProperties), testCase.description)
		assert.EqualValues(t, []string{"lines"}, err.(*spi.PropertyError).Names, testCase.description)
	}
}

func TestConfig_Register(t *testing.T) {
	config := New()
	config.Register(reflect.TypeOf(Money{}), describe.WithFactory(newMoney, "amount", "currency"), describe.WithRequired("currency"))

	var testCases = []struct {
		description string
		input       string
		expect      Money
		expectErr   string
	}{
		{description: "constructor driven", input: `{"amount":10,"currency":"USD","note":"n"}`, expect: Money{Amount: 10, Currency: "USD", Note: "n"}},
		{description: "missing parameter", input: `{"amount":10}`, expectErr: "missing required properties: [currency]"},
		{description: "factory error", input: `{"currency":""}`, expectErr: "currency is required"},
	}
	for _, testCase := range testCases {
		actual := Money{}
		err := config.Unmarshal([]byte(testCase.input), &actual)
		if testCase.expectErr != "" {
			assert.ErrorContains(t, err, testCase.expectErr, testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}

func TestConfig_Options(t *testing.T) {
	config := New(WithCaseFormat(text.CaseFormatLowerCamel))
	profile := Profile{}
	require.NoError(t, config.Unmarshal([]byte(`{"firstName":"Ann","LastName":"Lee"}`), &profile))
	assert.Equal(t, Profile{FirstName: "Ann", LastName: "Lee"}, profile)
	data, err := config.Marshal(profile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"firstName":"Ann","lastName":"Lee"}`, string(data))

	strict := New(WithStrictUnknown())
	err = strict.Unmarshal([]byte(`{"FirstName":"Ann","age":3}`), &Profile{})
	assert.True(t, errors.Is(err, spi.ErrUnknownProperty))
	assert.EqualError(t, err, "unknown property: age")
}

func TestMode(t *testing.T) {
	var testCases = []struct {
		description string
		env         string
		expect      spi.EncodingMode
	}{
		{description: "default", env: "", expect: spi.ReflectionMode},
		{description: "dynamic", env: "DYNAMIC_MODE", expect: spi.DynamicMode},
		{description: "static lower case", env: "static", expect: spi.StaticMode},
		{description: "invalid falls back", env: "fast", expect: spi.ReflectionMode},
	}
	defer resetMode()
	for _, testCase := range testCases {
		resetMode()
		t.Setenv("STRUCTBIND_ENCODING_MODE", testCase.env)
		assert.Equal(t, testCase.expect, Mode(), testCase.description)
	}

	resetMode()
	t.Setenv("STRUCTBIND_ENCODING_MODE", "dynamic")
	SetMode(spi.StaticMode)
	assert.Equal(t, spi.StaticMode, Mode(), "explicit setter wins over environment")
}

func TestMarshal(t *testing.T) {
	data, err := Marshal(&Line{SKU: "s", Quantity: 1, Price: 2})
	require.NoError(t, err)
	line := &Line{}
	require.NoError(t, Unmarshal(data, line))
	assert.Equal(t, &Line{SKU: "s", Quantity: 1, Price: 2}, line)
}
