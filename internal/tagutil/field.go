package tagutil

import (
	"reflect"
	"strings"
	"sync"

	"github.com/viant/tagly/format"
	ftime "github.com/viant/tagly/format/time"
)

// Field is the merged view of json, jsonx and format tags of a struct field
type Field struct {
	Name       string
	Explicit   bool
	OmitEmpty  bool
	Ignore     bool
	Inline     bool
	TimeLayout string
	Binding    BindingTag
}

// formatted holds format tag attributes; parsed once per raw tag
type formatted struct {
	name       string
	caseFormat string
	omitEmpty  bool
	ignore     bool
	inline     bool
	timeLayout string
}

var formats sync.Map

// Resolve merges field tags, an explicit json name takes precedence over format name or case
func Resolve(sf reflect.StructField) Field {
	name, explicit, omitEmpty, transient := jsonTag(sf.Name, sf.Tag.Get("json"))
	f := formatOf(sf.Tag)
	ret := Field{
		Name:       name,
		Explicit:   explicit,
		OmitEmpty:  omitEmpty || f.omitEmpty,
		Ignore:     transient || f.ignore || sf.Tag.Get("internal") == "true",
		TimeLayout: f.timeLayout,
		Binding:    ParseBindingTag(sf.Tag.Get("jsonx")),
	}
	ret.Inline = (sf.Anonymous && !explicit) || ret.Binding.Inline || f.inline
	if explicit || (f.name == "" && f.caseFormat == "") {
		return ret
	}
	tag := &format.Tag{Name: f.name, CaseFormat: f.caseFormat}
	if tag.Name == "" {
		tag.Name = name
	}
	if formattedName := tag.CaseFormatName(""); formattedName != "" {
		ret.Name = formattedName
		ret.Explicit = true
	}
	return ret
}

func jsonTag(fieldName, raw string) (name string, explicit, omitEmpty, transient bool) {
	if raw == "" {
		return fieldName, false, false, false
	}
	name, opts, hasOpts := strings.Cut(raw, ",")
	if name == "-" && !hasOpts {
		return name, true, false, true
	}
	if explicit = name != ""; !explicit {
		name = fieldName
	}
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, explicit, omitEmpty, false
}

func formatOf(tag reflect.StructTag) formatted {
	raw := string(tag)
	if cached, ok := formats.Load(raw); ok {
		return cached.(formatted)
	}
	ret := formatted{}
	if parsed, err := format.Parse(tag); err == nil && parsed != nil {
		ret = formatted{
			name:       parsed.Name,
			caseFormat: parsed.CaseFormat,
			omitEmpty:  parsed.Omitempty,
			ignore:     parsed.Ignore,
			inline:     parsed.Inline,
			timeLayout: parsed.TimeLayout,
		}
		if ret.timeLayout == "" && parsed.DateFormat != "" {
			ret.timeLayout = ftime.DateFormatToTimeLayout(parsed.DateFormat)
		}
	}
	formats.Store(raw, ret)
	return ret
}
