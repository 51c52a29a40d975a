package prim

import (
	"time"
	"unsafe"

	"github.com/viant/structbind/spi"
	"github.com/viant/structbind/token"
)

// Property represents one encoded object property
type Property struct {
	Name    string
	Binding *spi.Binding
	Encoder spi.Encoder
	//Empty is set for omitempty properties
	Empty func(ptr unsafe.Pointer) bool
}

// ObjectEncoder encodes properties in order, skipping empty omitempty values and fields behind nil embedded pointers
func ObjectEncoder(properties []*Property) spi.Encoder {
	return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		w.WriteObjectStart()
		written := 0
		for _, property := range properties {
			fieldPtr := property.Binding.Lookup(ptr)
			if fieldPtr == nil || (property.Empty != nil && property.Empty(fieldPtr)) {
				continue
			}
			if written > 0 {
				w.WriteMore()
			}
			w.WriteObjectField(property.Name)
			if err := property.Encoder.Encode(fieldPtr, w); err != nil {
				return err
			}
			written++
		}
		w.WriteObjectEnd()
		return nil
	})
}

// TimeEncoder encodes time.Time with layout
func TimeEncoder(layout string) spi.Encoder {
	return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		w.WriteString((*time.Time)(ptr).Format(layout))
		return nil
	})
}

// Nullable encodes a pointer with elem encoder, nil as null
func Nullable(elem spi.Encoder) spi.Encoder {
	return spi.EncoderFunc(func(ptr unsafe.Pointer, w *token.Writer) error {
		target := *(*unsafe.Pointer)(ptr)
		if target == nil {
			w.WriteNull()
			return nil
		}
		return elem.Encode(target, w)
	})
}
