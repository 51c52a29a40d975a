package codegen

import (
	"reflect"
	"sync"

	"github.com/viant/structbind/spi"
)

// Shape represents generated encoder shape
type Shape int

const (
	ObjectShape Shape = iota
	ArrayShape
	MapShape
	CollectionShape
	EnumShape
)

var shapeIdents = []string{"ObjectShape", "ArrayShape", "MapShape", "CollectionShape", "EnumShape"}

// Ident returns shape constant identifier
func (s Shape) Ident() string {
	if int(s) < len(shapeIdents) {
		return shapeIdents[s]
	}
	return "ObjectShape"
}

func (s Shape) String() string {
	switch s {
	case ArrayShape:
		return "array"
	case MapShape:
		return "map"
	case CollectionShape:
		return "collection"
	case EnumShape:
		return "enum"
	}
	return "object"
}

type (
	// Program describes a type specialized encoder; generated files register one per type
	Program struct {
		Key      string
		Type     string
		Shape    Shape
		Size     uintptr
		Kind     reflect.Kind
		KeyKind  reflect.Kind
		ElemKind reflect.Kind
		Len      int
		Fields   []FieldOp
	}

	// FieldOp describes one encoded struct property
	FieldOp struct {
		Name       string
		Index      []int
		Kind       reflect.Kind
		OmitEmpty  bool
		TimeLayout string
	}

	// Unit represents synthesized encoder unit
	Unit struct {
		Key     string
		Type    reflect.Type
		Program *Program
		Package string
		Name    string
		Source  []byte
	}

	// Resolver returns encoder for a nested type
	Resolver func(key string, rType reflect.Type) (spi.Encoder, error)

	// Backend turns types into generated encoder units
	Backend interface {
		Synthesize(key string, rType reflect.Type) (*Unit, error)
		CompileAndLoad(key string, unit *Unit, resolve Resolver) (spi.Encoder, error)
		Persist(key string, unit *Unit, outputRoot string) (string, error)
	}
)

var registry = struct {
	sync.RWMutex
	programs map[string]*Program
}{programs: map[string]*Program{}}

// RegisterGenerated registers ahead-of-time generated program
func RegisterGenerated(program *Program) {
	registry.Lock()
	registry.programs[program.Key] = program
	registry.Unlock()
}

// Lookup returns registered generated program
func Lookup(key string) (*Program, bool) {
	registry.RLock()
	defer registry.RUnlock()
	program, ok := registry.programs[key]
	return program, ok
}

// NewUnit creates a unit for registered program
func NewUnit(program *Program, rType reflect.Type) *Unit {
	return &Unit{Key: program.Key, Type: rType, Program: program}
}
