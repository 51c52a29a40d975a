package spi

import (
	"reflect"
	"sync"
)

// Registry holds user or extension supplied decoders, encoders and extensions
type Registry struct {
	mu         sync.RWMutex
	decoders   map[string]Decoder
	encoders   map[string]Encoder
	extensions []Extension
}

// NewRegistry creates a registry
func NewRegistry() *Registry {
	return &Registry{decoders: map[string]Decoder{}, encoders: map[string]Encoder{}}
}

// RegisterDecoder registers decoder for a cache key
func (r *Registry) RegisterDecoder(key string, decoder Decoder) {
	r.mu.Lock()
	r.decoders[key] = decoder
	r.mu.Unlock()
}

// RegisterTypeDecoder registers decoder for a type
func (r *Registry) RegisterTypeDecoder(rType reflect.Type, decoder Decoder) {
	r.RegisterDecoder(DecoderCacheKey(rType), decoder)
}

// RegisterEncoder registers encoder for a cache key
func (r *Registry) RegisterEncoder(key string, encoder Encoder) {
	r.mu.Lock()
	r.encoders[key] = encoder
	r.mu.Unlock()
}

// RegisterTypeEncoder registers encoder for a type
func (r *Registry) RegisterTypeEncoder(rType reflect.Type, encoder Encoder) {
	r.RegisterEncoder(EncoderCacheKey(rType), encoder)
}

// RegisterExtension appends an extension; extensions are consulted in registration order
func (r *Registry) RegisterExtension(extension Extension) {
	r.mu.Lock()
	r.extensions = append(r.extensions, extension)
	r.mu.Unlock()
}

// Decoder returns registered decoder or nil
func (r *Registry) Decoder(key string) Decoder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.decoders[key]
}

// Encoder returns registered encoder or nil
func (r *Registry) Encoder(key string) Encoder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.encoders[key]
}

// Extensions returns a snapshot of registered extensions
func (r *Registry) Extensions() []Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.extensions) == 0 {
		return nil
	}
	result := make([]Extension, len(r.extensions))
	copy(result, r.extensions)
	return result
}
