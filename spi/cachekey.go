package spi

import (
	"reflect"
	"strconv"
	"strings"
)

const (
	decoderPrefix = "decoder"
	encoderPrefix = "encoder"
	compositeNS   = "composite"
)

// DecoderCacheKey returns stable decoder cache key for supplied type
func DecoderCacheKey(rType reflect.Type) string { return cacheKey(decoderPrefix, rType) }

// EncoderCacheKey returns stable encoder cache key for supplied type
func EncoderCacheKey(rType reflect.Type) string { return cacheKey(encoderPrefix, rType) }

// cacheKey builds a dotted key: prefix, package path segments, type name.
// Package segments keep '/' boundaries as dots, other separators become '_', so
// github.com/viant/app/model.User gives encoder.github_com.viant.app.model.User.
func cacheKey(prefix string, rType reflect.Type) string {
	builder := strings.Builder{}
	builder.WriteString(prefix)
	builder.WriteByte('.')
	if rType.Name() != "" && rType.PkgPath() != "" {
		for _, segment := range strings.Split(rType.PkgPath(), "/") {
			builder.WriteString(sanitize(segment))
			builder.WriteByte('.')
		}
		builder.WriteString(sanitize(rType.Name()))
		return builder.String()
	}
	builder.WriteString(compositeNS)
	builder.WriteByte('.')
	builder.WriteString(typeIdent(rType))
	return builder.String()
}

// KeyNamespace returns key namespace segments (without the leading prefix and trailing name)
func KeyNamespace(key string) []string {
	parts := strings.Split(key, ".")
	if len(parts) <= 2 {
		return nil
	}
	return parts[1 : len(parts)-1]
}

// KeyName returns the last key segment
func KeyName(key string) string {
	if idx := strings.LastIndexByte(key, '.'); idx != -1 {
		return key[idx+1:]
	}
	return key
}

func typeIdent(rType reflect.Type) string {
	if rType.Name() != "" {
		if rType.PkgPath() == "" {
			return sanitize(rType.Name())
		}
		return sanitize(rType.PkgPath()) + "_" + sanitize(rType.Name())
	}
	switch rType.Kind() {
	case reflect.Ptr:
		return "ptr_" + typeIdent(rType.Elem())
	case reflect.Slice:
		return "slice_" + typeIdent(rType.Elem())
	case reflect.Array:
		return "array" + strconv.Itoa(rType.Len()) + "_" + typeIdent(rType.Elem())
	case reflect.Map:
		return "map_" + typeIdent(rType.Key()) + "_" + typeIdent(rType.Elem())
	case reflect.Interface:
		return "interface"
	}
	return sanitize(rType.String())
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s)
}
