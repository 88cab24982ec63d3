package load

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mesh-intelligence/itemdex/pkg/types"
)

// placeholderRe matches one {{field}} macro. Lookup is single-level on
// the container's own fields; there is no expression evaluation.
var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// FillTemplate renders a macro-templated string against the container's
// field values. A template that consists of exactly one placeholder
// yields the field's value with its native type preserved; any other
// template renders to a string. An unknown field is an error.
func FillTemplate(template string, item *types.Item) (any, error) {
	matches := placeholderRe.FindAllStringSubmatchIndex(template, -1)
	if len(matches) == 0 {
		return template, nil
	}

	// Whole template is a single placeholder: keep the native type.
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(template) {
		field := template[matches[0][2]:matches[0][3]]
		v, ok := item.Get(field)
		if !ok {
			return nil, fmt.Errorf("template %q references unknown field %q", template, field)
		}
		return v, nil
	}

	var (
		b    strings.Builder
		last int
	)
	for _, m := range matches {
		field := template[m[2]:m[3]]
		v, ok := item.Get(field)
		if !ok {
			return nil, fmt.Errorf("template %q references unknown field %q", template, field)
		}
		b.WriteString(template[last:m[0]])
		b.WriteString(fmt.Sprint(v))
		last = m[1]
	}
	b.WriteString(template[last:])
	return b.String(), nil
}

// substitute renders macros in a single constructor value. Strings go
// through FillTemplate; slices and mappings recurse; everything else
// passes through untouched.
func (l *Loader) substitute(value any, item *types.Item) (any, error) {
	switch v := value.(type) {
	case string:
		return FillTemplate(v, item)
	case []any:
		return l.substituteSlice(v, item)
	case map[string]any:
		return l.substituteMap(v, item)
	default:
		return value, nil
	}
}

func (l *Loader) substituteSlice(values []any, item *types.Item) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		sub, err := l.substitute(v, item)
		if err != nil {
			return nil, err
		}
		out[i] = sub
	}
	return out, nil
}

func (l *Loader) substituteMap(values map[string]any, item *types.Item) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for k, v := range values {
		sub, err := l.substitute(v, item)
		if err != nil {
			return nil, err
		}
		out[k] = sub
	}
	return out, nil
}
