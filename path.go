package restep

import (
	"encoding"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// placeholderPattern matches a whole path segment naming an argument.
var placeholderPattern = regexp.MustCompile(`^:[^/:]+$`)

type pathSegment struct {
	text        string
	placeholder bool
}

// pathTemplate is a parsed path template. It is built once per endpoint.
type pathTemplate struct {
	raw      string
	segments []pathSegment
}

func parsePathTemplate(raw string) pathTemplate {
	parts := strings.Split(raw, "/")
	t := pathTemplate{raw: raw, segments: make([]pathSegment, len(parts))}
	for i, p := range parts {
		if placeholderPattern.MatchString(p) {
			t.segments[i] = pathSegment{text: p[1:], placeholder: true}
		} else {
			t.segments[i] = pathSegment{text: p}
		}
	}
	return t
}

// has reports whether name appears as a placeholder.
func (t pathTemplate) has(name string) bool {
	for _, s := range t.segments {
		if s.placeholder && s.text == name {
			return true
		}
	}
	return false
}

// placeholders returns placeholder names in template order.
func (t pathTemplate) placeholders() []string {
	var names []string
	for _, s := range t.segments {
		if s.placeholder {
			names = append(names, s.text)
		}
	}
	return names
}

// resolve substitutes path values into the template. Values whose name has
// no placeholder come back as leftovers for the query string. Placeholders
// without a value are replaced by their bare name. Both cases raise a
// diagnostic. Empty segments are preserved, so "/a/:b" keeps its leading "/".
func (t pathTemplate) resolve(endpoint string, values []namedValue) (string, []namedValue, []Diagnostic) {
	var diags []Diagnostic

	consumed := make(map[string]bool, len(values))
	out := make([]string, len(t.segments))
	for i, seg := range t.segments {
		if !seg.placeholder {
			out[i] = seg.text
			continue
		}
		if v, ok := lookup(values, seg.text); ok {
			out[i] = formatValue(v)
			consumed[seg.text] = true
			continue
		}
		out[i] = seg.text
		diags = append(diags, Diagnostic{
			Endpoint: endpoint,
			Kind:     DiagnosticPathArgumentNotFound,
			Argument: seg.text,
			Message:  "path argument not found",
		})
	}

	var leftover []namedValue
	for _, nv := range values {
		if consumed[nv.name] {
			continue
		}
		leftover = append(leftover, nv)
		diags = append(diags, Diagnostic{
			Endpoint: endpoint,
			Kind:     DiagnosticPathArgumentUnused,
			Argument: nv.name,
			Message:  "path argument not used",
		})
	}

	return strings.Join(out, "/"), leftover, diags
}

func lookup(values []namedValue, name string) (any, bool) {
	for _, nv := range values {
		if nv.name == name {
			return nv.value, true
		}
	}
	return nil, false
}

// formatValue renders v in its canonical text form.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case encoding.TextMarshaler:
		if b, err := x.MarshalText(); err == nil {
			return string(b)
		}
		return fmt.Sprint(v)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
