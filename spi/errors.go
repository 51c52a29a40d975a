package spi

import (
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
)

// Error marks; use errors.Is to classify failures.
var (
	//ErrBuild marks type build failures: no constructor, name conflict, too many required properties
	ErrBuild = errors.New("type build error")
	//ErrMissingProperties marks decoded objects without all required properties
	ErrMissingProperties = errors.New("missing required properties")
	//ErrUnknownProperty marks unknown properties under strict policy
	ErrUnknownProperty = errors.New("unknown property")
	//ErrForbiddenProperty marks properties that must not be present
	ErrForbiddenProperty = errors.New("property must not be present")
	//ErrGeneration marks generated-code encoder build failures
	ErrGeneration = errors.New("encoder generation error")
)

// PropertyError represents a decode-time property failure
type PropertyError struct {
	Type  reflect.Type
	Names []string
	kind  error
}

func (e *PropertyError) Error() string {
	switch e.kind {
	case ErrMissingProperties:
		return "missing required properties: [" + strings.Join(e.Names, ", ") + "]"
	case ErrUnknownProperty:
		return "unknown property: " + strings.Join(e.Names, ", ")
	case ErrForbiddenProperty:
		return "property must not be present: " + strings.Join(e.Names, ", ")
	}
	return e.kind.Error() + ": " + strings.Join(e.Names, ", ")
}

// Is reports whether target is the error kind mark
func (e *PropertyError) Is(target error) bool { return target == e.kind }

// NewMissingPropertiesError creates a missing properties error
func NewMissingPropertiesError(rType reflect.Type, names []string) error {
	return &PropertyError{Type: rType, Names: names, kind: ErrMissingProperties}
}

// NewUnknownPropertyError creates an unknown property error
func NewUnknownPropertyError(rType reflect.Type, name string) error {
	return &PropertyError{Type: rType, Names: []string{name}, kind: ErrUnknownProperty}
}

// NewForbiddenPropertyError creates must-not-be-present error
func NewForbiddenPropertyError(rType reflect.Type, name string) error {
	return &PropertyError{Type: rType, Names: []string{name}, kind: ErrForbiddenProperty}
}

// NewBuildError creates a type build error
func NewBuildError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrBuild)
}
