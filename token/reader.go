package token

import (
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// ValueType identifies the kind of the next JSON value.
type ValueType int

const (
	InvalidValue ValueType = iota
	StringValue
	NumberValue
	NullValue
	BoolValue
	ArrayValue
	ObjectValue
)

// Reader is a pull reader over a JSON document.
// A reader also carries the per-call temp object context used by decoders to
// reuse scratch buffers; it must not be shared between concurrent calls.
type Reader struct {
	data  []byte
	pos   int
	hooks ScannerHooks
	temp  map[string]interface{}
}

var readerPool = sync.Pool{New: func() interface{} { return &Reader{hooks: byteScanner{}} }}

// NewReader creates a reader for supplied data
func NewReader(data []byte) *Reader {
	return &Reader{data: data, hooks: byteScanner{}}
}

// AcquireReader returns a pooled reader reset to data.
func AcquireReader(data []byte) *Reader {
	r := readerPool.Get().(*Reader)
	r.Reset(data)
	return r
}

// ReleaseReader returns reader to the pool; temp objects are kept for reuse.
func ReleaseReader(r *Reader) {
	if r == nil {
		return
	}
	r.data = nil
	r.pos = 0
	readerPool.Put(r)
}

// Reset rewinds reader to supplied data
func (r *Reader) Reset(data []byte) {
	r.data = data
	r.pos = 0
	if r.hooks == nil {
		r.hooks = byteScanner{}
	}
}

// WithHooks replaces scanner hooks
func (r *Reader) WithHooks(hooks ScannerHooks) *Reader {
	if hooks != nil {
		r.hooks = hooks
	}
	return r
}

// Pos returns current read position
func (r *Reader) Pos() int { return r.pos }

// Temp returns a temp object stored under key for the current call chain.
func (r *Reader) Temp(key string) interface{} {
	if r.temp == nil {
		return nil
	}
	return r.temp[key]
}

// PutTemp stores a temp object under key.
func (r *Reader) PutTemp(key string, value interface{}) {
	if r.temp == nil {
		r.temp = make(map[string]interface{}, 4)
	}
	r.temp[key] = value
}

func (r *Reader) skipWS() { r.pos = r.hooks.SkipWhitespace(r.data, r.pos) }

// WhatIsNext returns the type of the next value without consuming it.
func (r *Reader) WhatIsNext() ValueType {
	r.skipWS()
	if r.pos >= len(r.data) {
		return InvalidValue
	}
	switch c := r.data[r.pos]; c {
	case '{':
		return ObjectValue
	case '[':
		return ArrayValue
	case '"':
		return StringValue
	case 't', 'f':
		return BoolValue
	case 'n':
		return NullValue
	default:
		if c == '-' || (c >= '0' && c <= '9') {
			return NumberValue
		}
	}
	return InvalidValue
}

// ReadNull consumes a null literal, returns false when the next value is not null.
func (r *Reader) ReadNull() bool {
	r.skipWS()
	if r.pos < len(r.data) && r.data[r.pos] == 'n' {
		return r.match("null")
	}
	return false
}

// ReadObjectStart consumes '{' and returns false when the object has no properties.
func (r *Reader) ReadObjectStart() (bool, error) {
	r.skipWS()
	if r.pos >= len(r.data) || r.data[r.pos] != '{' {
		return false, errors.Newf("expected '{' at %d", r.pos)
	}
	r.pos++
	r.skipWS()
	if r.pos < len(r.data) && r.data[r.pos] == '}' {
		r.pos++
		return false, nil
	}
	return true, nil
}

// ReadField reads an object property name and the following ':'.
func (r *Reader) ReadField() (string, error) {
	r.skipWS()
	key, err := r.parseKey()
	if err != nil {
		return "", err
	}
	r.skipWS()
	if r.pos >= len(r.data) || r.data[r.pos] != ':' {
		return "", errors.Newf("expected ':' at %d", r.pos)
	}
	r.pos++
	return key, nil
}

// Next consumes the separator after an object property value; returns false on '}'.
func (r *Reader) Next() (bool, error) {
	r.skipWS()
	if r.pos >= len(r.data) {
		return false, errors.New("unexpected EOF in object")
	}
	switch r.data[r.pos] {
	case ',':
		r.pos++
		return true, nil
	case '}':
		r.pos++
		return false, nil
	}
	return false, errors.Newf("expected ',' at %d", r.pos)
}

// ReadArrayStart consumes '[' and returns false when the array is empty.
func (r *Reader) ReadArrayStart() (bool, error) {
	r.skipWS()
	if r.pos >= len(r.data) || r.data[r.pos] != '[' {
		return false, errors.Newf("expected '[' at %d", r.pos)
	}
	r.pos++
	r.skipWS()
	if r.pos < len(r.data) && r.data[r.pos] == ']' {
		r.pos++
		return false, nil
	}
	return true, nil
}

// NextElement consumes the separator after an array element; returns false on ']'.
func (r *Reader) NextElement() (bool, error) {
	r.skipWS()
	if r.pos >= len(r.data) {
		return false, errors.New("unexpected EOF in array")
	}
	switch r.data[r.pos] {
	case ',':
		r.pos++
		return true, nil
	case ']':
		r.pos++
		return false, nil
	}
	return false, errors.Newf("expected ',' at %d", r.pos)
}

// End verifies no trailing data remains.
func (r *Reader) End() error {
	r.skipWS()
	if r.pos != len(r.data) {
		return errors.Newf("unexpected trailing data at %d", r.pos)
	}
	return nil
}

// ReadString reads a string value
func (r *Reader) ReadString() (string, error) {
	r.skipWS()
	return r.parseStringValue()
}

// ReadBool reads a bool value
func (r *Reader) ReadBool() (bool, error) {
	r.skipWS()
	if r.match("true") {
		return true, nil
	}
	if r.match("false") {
		return false, nil
	}
	return false, errors.Newf("expected bool at %d", r.pos)
}

// ReadNumber returns the raw number literal
func (r *Reader) ReadNumber() (string, error) {
	r.skipWS()
	start := r.pos
	if err := r.skipRawNumber(); err != nil {
		return "", err
	}
	return string(r.data[start:r.pos]), nil
}

// ReadInt64 reads an integer value
func (r *Reader) ReadInt64() (int64, error) {
	raw, err := r.ReadNumber()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "expected integer at %d", r.pos)
	}
	return v, nil
}

// ReadUint64 reads an unsigned integer value
func (r *Reader) ReadUint64() (uint64, error) {
	raw, err := r.ReadNumber()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "expected unsigned integer at %d", r.pos)
	}
	return v, nil
}

// ReadFloat64 reads a float value
func (r *Reader) ReadFloat64() (float64, error) {
	raw, err := r.ReadNumber()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "expected number at %d", r.pos)
	}
	return v, nil
}

// Skip discards the next value
func (r *Reader) Skip() error {
	return r.skipRawValue()
}

// ReadRaw returns the bytes of the next value
func (r *Reader) ReadRaw() ([]byte, error) {
	r.skipWS()
	start := r.pos
	if err := r.skipRawValue(); err != nil {
		return nil, err
	}
	return r.data[start:r.pos], nil
}

// ReadAny reads the next value into map[string]interface{}, []interface{}, string,
// int64, uint64, float64, bool or nil.
func (r *Reader) ReadAny() (interface{}, error) {
	r.skipWS()
	if r.pos >= len(r.data) {
		return nil, errors.New("unexpected EOF")
	}
	switch r.data[r.pos] {
	case '{':
		return r.parseObject()
	case '[':
		return r.parseArray()
	case '"':
		return r.parseStringValue()
	case 't':
		if r.match("true") {
			return true, nil
		}
	case 'f':
		if r.match("false") {
			return false, nil
		}
	case 'n':
		if r.match("null") {
			return nil, nil
		}
	default:
		return r.parseNumber()
	}
	return nil, errors.Newf("invalid token at %d", r.pos)
}

func (r *Reader) skipRawValue() error {
	r.skipWS()
	if r.pos >= len(r.data) {
		return errors.New("unexpected EOF")
	}
	switch r.data[r.pos] {
	case '{':
		return r.skipRawObject()
	case '[':
		return r.skipRawArray()
	case '"':
		return r.skipRawString()
	case 't':
		if r.match("true") {
			return nil
		}
	case 'f':
		if r.match("false") {
			return nil
		}
	case 'n':
		if r.match("null") {
			return nil
		}
	default:
		return r.skipRawNumber()
	}
	return errors.Newf("invalid token at %d", r.pos)
}

func (r *Reader) skipRawObject() error {
	hasFields, err := r.ReadObjectStart()
	if err != nil || !hasFields {
		return err
	}
	for {
		r.skipWS()
		if err := r.skipRawString(); err != nil {
			return err
		}
		r.skipWS()
		if r.pos >= len(r.data) || r.data[r.pos] != ':' {
			return errors.Newf("expected ':' at %d", r.pos)
		}
		r.pos++
		if err := r.skipRawValue(); err != nil {
			return err
		}
		more, err := r.Next()
		if err != nil || !more {
			return err
		}
	}
}

func (r *Reader) skipRawArray() error {
	hasElements, err := r.ReadArrayStart()
	if err != nil || !hasElements {
		return err
	}
	for {
		if err := r.skipRawValue(); err != nil {
			return err
		}
		more, err := r.NextElement()
		if err != nil || !more {
			return err
		}
	}
}

func (r *Reader) skipRawString() error {
	if r.pos >= len(r.data) || r.data[r.pos] != '"' {
		return errors.Newf("expected string at %d", r.pos)
	}
	r.pos++
	escaped := false
	for r.pos < len(r.data) {
		c := r.data[r.pos]
		if c == '"' && !escaped {
			r.pos++
			return nil
		}
		if c == '\\' {
			escaped = !escaped
		} else {
			if c < 0x20 {
				return errors.Newf("invalid control character in string at %d", r.pos)
			}
			escaped = false
		}
		r.pos++
	}
	return errors.New("unterminated string")
}

func (r *Reader) skipRawNumber() error {
	start := r.pos
	for r.pos < len(r.data) {
		c := r.data[r.pos]
		if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			r.pos++
			continue
		}
		break
	}
	if r.pos == start {
		return errors.Newf("invalid number at %d", r.pos)
	}
	return nil
}

func (r *Reader) match(token string) bool {
	end := r.pos + len(token)
	if end > len(r.data) {
		return false
	}
	if string(r.data[r.pos:end]) != token {
		return false
	}
	r.pos = end
	return true
}

func (r *Reader) parseObject() (map[string]interface{}, error) {
	obj := make(map[string]interface{})
	hasFields, err := r.ReadObjectStart()
	if err != nil || !hasFields {
		return obj, err
	}
	for {
		r.skipWS()
		key, err := r.parseStringValue()
		if err != nil {
			return nil, err
		}
		r.skipWS()
		if r.pos >= len(r.data) || r.data[r.pos] != ':' {
			return nil, errors.Newf("expected ':' at %d", r.pos)
		}
		r.pos++
		val, err := r.ReadAny()
		if err != nil {
			return nil, err
		}
		obj[key] = val
		more, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !more {
			return obj, nil
		}
	}
}

func (r *Reader) parseArray() ([]interface{}, error) {
	arr := make([]interface{}, 0)
	hasElements, err := r.ReadArrayStart()
	if err != nil || !hasElements {
		return arr, err
	}
	for {
		v, err := r.ReadAny()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
		more, err := r.NextElement()
		if err != nil {
			return nil, err
		}
		if !more {
			return arr, nil
		}
	}
}

func (r *Reader) parseStringValue() (string, error) {
	if r.pos >= len(r.data) || r.data[r.pos] != '"' {
		return "", errors.Newf("expected string at %d", r.pos)
	}
	r.pos++
	start := r.pos
	quote, escape := r.hooks.FindQuoteOrEscape(r.data, start)
	if quote >= 0 && escape < 0 {
		// Copy decoded strings to avoid aliasing caller input buffer.
		s := string(r.data[start:quote])
		r.pos = quote + 1
		return s, nil
	}
	return r.scanEscaped(start, false)
}

func (r *Reader) parseKey() (string, error) {
	if r.pos >= len(r.data) || r.data[r.pos] != '"' {
		return "", errors.Newf("expected string key at %d", r.pos)
	}
	r.pos++
	start := r.pos
	quote, escape := r.hooks.FindQuoteOrEscape(r.data, start)
	if quote >= 0 && escape < 0 {
		// Key is used only for table lookup; extras copy it before storing.
		key := bytesToStringNoCopy(r.data[start:quote])
		r.pos = quote + 1
		return key, nil
	}
	return r.scanEscaped(start, true)
}

func (r *Reader) scanEscaped(start int, key bool) (string, error) {
	i := start
	escaped := false
	for i < len(r.data) {
		c := r.data[i]
		if c == '"' && !escaped {
			s, err := unescapeJSONString(r.data[start:i])
			if err != nil {
				return "", err
			}
			r.pos = i + 1
			return s, nil
		}
		if c == '\\' {
			escaped = !escaped
		} else {
			if c < 0x20 {
				return "", errors.Newf("invalid control character in string at %d", i)
			}
			escaped = false
		}
		i++
	}
	if key {
		return "", errors.New("unterminated key")
	}
	return "", errors.New("unterminated string")
}

func (r *Reader) parseNumber() (interface{}, error) {
	start := r.pos
	if err := r.skipRawNumber(); err != nil {
		return nil, err
	}
	raw := string(r.data[start:r.pos])
	if strings.ContainsAny(raw, ".eE") {
		return strconv.ParseFloat(raw, 64)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func unescapeJSONString(raw []byte) (string, error) {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(raw) {
			return "", errors.New("invalid escape sequence")
		}
		switch raw[i] {
		case '"', '\\', '/':
			out = append(out, raw[i])
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'u':
			if i+4 >= len(raw) {
				return "", errors.New("invalid unicode escape")
			}
			ru, ok := parseHex4(raw[i+1 : i+5])
			if !ok {
				return "", errors.New("invalid unicode escape")
			}
			i += 4
			if utf16.IsSurrogate(ru) {
				if i+6 >= len(raw) || raw[i+1] != '\\' || raw[i+2] != 'u' {
					return "", errors.New("invalid surrogate pair")
				}
				r2, ok := parseHex4(raw[i+3 : i+7])
				if !ok {
					return "", errors.New("invalid surrogate pair")
				}
				decoded := utf16.DecodeRune(ru, r2)
				if decoded == utf8.RuneError {
					return "", errors.New("invalid surrogate pair")
				}
				out = utf8.AppendRune(out, decoded)
				i += 6
				continue
			}
			out = utf8.AppendRune(out, ru)
		default:
			return "", errors.Newf("invalid escape character %q", raw[i])
		}
	}
	return string(out), nil
}

func parseHex4(b []byte) (rune, bool) {
	if len(b) != 4 {
		return 0, false
	}
	var v rune
	for i := 0; i < 4; i++ {
		c := b[i]
		var d rune
		switch {
		case c >= '0' && c <= '9':
			d = rune(c - '0')
		case c >= 'a' && c <= 'f':
			d = rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = rune(c-'A') + 10
		default:
			return 0, false
		}
		v = (v << 4) | d
	}
	return v, true
}

func bytesToStringNoCopy(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
