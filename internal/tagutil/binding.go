package tagutil

import "strings"

// BindingTag represents jsonx options, e.g. `jsonx:"required,alias=id|ID"`
type BindingTag struct {
	Inline    bool
	Required  bool
	Forbidden bool
	Extra     bool
	Missing   bool
	Aliases   []string
}

// ParseBindingTag parses jsonx tag value
func ParseBindingTag(raw string) BindingTag {
	ret := BindingTag{}
	for _, part := range strings.Split(raw, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch strings.ToLower(key) {
		case "inline":
			ret.Inline = true
		case "required":
			ret.Required = true
		case "forbidden":
			ret.Forbidden = true
		case "extra":
			ret.Extra = true
		case "missing":
			ret.Missing = true
		case "alias":
			for _, alias := range strings.Split(value, "|") {
				if alias = strings.TrimSpace(alias); alias != "" {
					ret.Aliases = append(ret.Aliases, alias)
				}
			}
		}
	}
	return ret
}
