package spi

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// EncodingMode selects how encoders are built
type EncodingMode int

const (
	//ReflectionMode builds encoders from type descriptors only
	ReflectionMode EncodingMode = iota
	//DynamicMode uses generated-code encoders compiled at run time, preferring registered ahead-of-time units
	DynamicMode
	//StaticMode requires registered ahead-of-time units
	StaticMode
)

func (m EncodingMode) String() string {
	switch m {
	case DynamicMode:
		return "DYNAMIC_MODE"
	case StaticMode:
		return "STATIC_MODE"
	}
	return "REFLECTION_MODE"
}

// ParseEncodingMode parses mode name, e.g. REFLECTION_MODE, dynamic, static
func ParseEncodingMode(name string) (EncodingMode, error) {
	switch strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(name)), "_MODE") {
	case "", "REFLECTION":
		return ReflectionMode, nil
	case "DYNAMIC":
		return DynamicMode, nil
	case "STATIC":
		return StaticMode, nil
	}
	return ReflectionMode, errors.Newf("unsupported encoding mode: %q", name)
}
